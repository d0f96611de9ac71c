package riscv

import (
	"iter"
	"strings"
)

// Capability bitmask bits, misa-style: each supported extension letter
// occupies bit (letter - 'A'), and the top two bits select the native
// register width.
const (
	MISA_A = uint64(1) << ('A' - 'A') // Atomic
	MISA_D = uint64(1) << ('D' - 'A') // Double-precision FP
	MISA_F = uint64(1) << ('F' - 'A') // Single-precision FP
	MISA_I = uint64(1) << ('I' - 'A') // Base integer ISA
	MISA_M = uint64(1) << ('M' - 'A') // Multiply/divide
	MISA_S = uint64(1) << ('S' - 'A') // Supervisor mode
	MISA_U = uint64(1) << ('U' - 'A') // User mode

	MISA_RV32 = uint64(1) << 62
	MISA_RV64 = uint64(2) << 62
)

// Model is an immutable catalog entry describing a CPU variant.
type Model struct {
	Name string // Case-insensitive lookup key.
	Misa uint64 // Initial capability bitmask.
}

// The process-wide model catalog. Built once, never mutated.
var models = []Model{
	{
		Name: "riscv", // RV64G
		Misa: MISA_RV64 | MISA_S | MISA_U | MISA_I |
			MISA_M | MISA_A | MISA_F | MISA_D,
	},
}

// FindModel looks up a CPU model by case-insensitive name.
func FindModel(name string) (model *Model, err error) {
	for n := range models {
		if strings.EqualFold(name, models[n].Name) {
			model = &models[n]
			return
		}
	}

	err = ErrModelUnknown
	return
}

// Models iterates over the names of all cataloged CPU models.
func Models() iter.Seq[string] {
	return func(yield func(string) bool) {
		for n := range models {
			if !yield(models[n].Name) {
				return
			}
		}
	}
}
