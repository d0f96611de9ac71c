// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package riscv

import (
	"fmt"
	"iter"
	"maps"
	"strings"
)

// Floating-point rounding modes (frm encoding).
const (
	FRM_RNE = 0 // Round to nearest, ties to even
	FRM_RTZ = 1 // Round towards zero
	FRM_RDN = 2 // Round down
	FRM_RUP = 3 // Round up
	FRM_RMM = 4 // Round to nearest, ties to max magnitude
)

// FpStatus is the floating-point status/rounding configuration.
type FpStatus struct {
	RoundMode  int  // Dynamic rounding mode (FRM_*).
	DefaultNan bool // Produce the canonical quiet NaN on invalid operations.
}

var _cpu_defines = map[string]string{
	"CSR_MSTATUS":        fmt.Sprintf("%#x", CSR_MSTATUS),
	"CSR_MISA":           fmt.Sprintf("%#x", CSR_MISA),
	"CSR_MIE":            fmt.Sprintf("%#x", CSR_MIE),
	"CSR_MTVEC":          fmt.Sprintf("%#x", CSR_MTVEC),
	"CSR_MSCRATCH":       fmt.Sprintf("%#x", CSR_MSCRATCH),
	"CSR_MEPC":           fmt.Sprintf("%#x", CSR_MEPC),
	"CSR_MCAUSE":         fmt.Sprintf("%#x", CSR_MCAUSE),
	"CSR_MIP":            fmt.Sprintf("%#x", CSR_MIP),
	"PRV_U":              fmt.Sprintf("%v", PRV_U),
	"PRV_S":              fmt.Sprintf("%v", PRV_S),
	"PRV_M":              fmt.Sprintf("%v", PRV_M),
	"CAUSE_ILLEGAL_INST": fmt.Sprintf("%#x", int(CAUSE_ILLEGAL_INST)),
	"CAUSE_BREAKPOINT":   fmt.Sprintf("%#x", int(CAUSE_BREAKPOINT)),
	"CAUSE_USER_ECALL":   fmt.Sprintf("%#x", int(CAUSE_USER_ECALL)),
}

// Cpu is one emulated CPU's architectural state. Compilation only reads
// it; mutation happens when the emitted operations execute.
type Cpu struct {
	Gpr [32]uint64 // Gpr[0] always reads as zero; it has no binding.
	Fpr [32]uint64 // Fixed 64-bit, F and D extensions assumed.
	Pc  uint64

	Csr     [CSR_COUNT]uint64
	Priv    int
	LoadRes uint64
	Fp      FpStatus

	Realized bool

	model *Model
}

// NewCpu instantiates a fresh CPU from a cataloged model name. An
// unknown name returns ErrModelUnknown and no partial instance.
func NewCpu(name string) (cpu *Cpu, err error) {
	model, err := FindModel(name)
	if err != nil {
		return
	}

	cpu = &Cpu{
		model: model,
		Priv:  PRV_M,
		Fp:    FpStatus{RoundMode: FRM_RNE, DefaultNan: true},
	}
	cpu.Csr[CSR_MISA] = model.Misa
	cpu.Realized = true

	return
}

// Model returns the catalog entry this CPU was instantiated from.
func (cpu *Cpu) Model() *Model {
	return cpu.model
}

// MmuIndex returns the memory access mode used for address translation.
func (cpu *Cpu) MmuIndex() int {
	return cpu.Priv
}

// RestoreState restores the interrupted pc from an instruction boundary
// marker, mapping a fault back to its source instruction.
func (cpu *Cpu) RestoreState(op Op) {
	cpu.Pc = op.Pc
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current architectural state as a string: pc, the
// 32 general registers four per line, selected machine CSRs, and the 32
// floating-point registers four per line.
func (cpu *Cpu) String() (text string) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "pc=0x%016x\n", cpu.Pc)
	for n := 0; n < 32; n++ {
		fmt.Fprintf(sb, " %-4s %016x", regnames[n], cpu.Gpr[n])
		if (n & 3) == 3 {
			fmt.Fprintf(sb, "\n")
		}
	}

	fmt.Fprintf(sb, " %-8s %016x\n", "MSTATUS", cpu.Csr[CSR_MSTATUS])
	fmt.Fprintf(sb, " %-8s %016x\n", "MIP", cpu.Csr[CSR_MIP])
	fmt.Fprintf(sb, " %-8s %016x\n", "MIE", cpu.Csr[CSR_MIE])

	for n := 0; n < 32; n++ {
		if (n & 3) == 0 {
			fmt.Fprintf(sb, "FPR%02d:", n)
		}
		fmt.Fprintf(sb, " %-4s %016x", fprRegnames[n], cpu.Fpr[n])
		if (n & 3) == 3 {
			fmt.Fprintf(sb, "\n")
		}
	}

	text = sb.String()
	return
}
