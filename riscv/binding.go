package riscv

import (
	"sync"
)

// ABI register names, also used by the diagnostic dump.
var regnames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

var fprRegnames = [32]string{
	"ft0", "ft1", "ft2", "ft3", "ft4", "ft5", "ft6", "ft7",
	"fs0", "fs1", "fa0", "fa1", "fa2", "fa3", "fa4", "fa5",
	"fa6", "fa7", "fs2", "fs3", "fs4", "fs5", "fs6", "fs7",
	"fs8", "fs9", "fs10", "fs11", "ft8", "ft9", "ft10", "ft11",
}

// BindingClass selects which architectural state a Binding addresses.
type BindingClass int

const (
	BIND_GPR      = BindingClass(0) // General-purpose register file
	BIND_FPR      = BindingClass(1) // Floating-point register file
	BIND_PC       = BindingClass(2) // Program counter
	BIND_LOAD_RES = BindingClass(3) // Atomic load-reservation slot
)

// Binding addresses one architectural state slot for generated code.
type Binding struct {
	Class BindingClass
	Index int
	Name  string
}

// Bindings is the process-wide table mapping architectural state to
// locations generated code can read and write. It is published once and
// never mutated afterwards, so concurrent compiles may read it freely.
type Bindings struct {
	Gpr     [32]*Binding // Gpr[0] is not bound ON PURPOSE. Do not use it.
	Fpr     [32]*Binding
	Pc      *Binding
	LoadRes *Binding
}

var globalBindings = sync.OnceValue(newBindings)

// GlobalBindings returns the register binding table, building it on the
// first call. Reads and writes of general register 0 must be
// special-cased by the caller (read as zero, write discarded) rather
// than routed through the table.
func GlobalBindings() *Bindings {
	return globalBindings()
}

func newBindings() (bind *Bindings) {
	bind = &Bindings{}

	for n := 1; n < 32; n++ {
		bind.Gpr[n] = &Binding{Class: BIND_GPR, Index: n, Name: regnames[n]}
	}

	for n := 0; n < 32; n++ {
		bind.Fpr[n] = &Binding{Class: BIND_FPR, Index: n, Name: fprRegnames[n]}
	}

	bind.Pc = &Binding{Class: BIND_PC, Name: "pc"}
	bind.LoadRes = &Binding{Class: BIND_LOAD_RES, Name: "load_res"}

	return
}
