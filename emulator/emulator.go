// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator wires a riscv CPU, a guest program, and debug state
// into a translation-block front end.
package emulator

import (
	"iter"
	"log"
	"maps"

	"github.com/ezrec/rvemu/internal"
	"github.com/ezrec/rvemu/riscv"
)

// DEFAULT_MODEL is the general-purpose CPU model name.
const DEFAULT_MODEL = "riscv"

var _emulator_defines = map[string]string{
	"DEFAULT_MODEL": DEFAULT_MODEL,
}

// Emulator state: one CPU, its guest program, and the debug controls
// that shape block compilation.
type Emulator struct {
	Verbose bool // If set, enables verbose logging.
	*riscv.Cpu
	Program *riscv.Program // Guest code the compiler fetches from.
	Decoder riscv.Decoder  // Pluggable per-instruction decode capability.

	SingleStep bool // One-instruction blocks for this CPU (debugger attach).
	DebugStep  bool // Process-wide one-instruction override.
	MaxInsns   int  // Per-compile instruction bound; 0 selects the ceiling.

	breakpoint map[uint64]struct{}
}

// NewEmulator creates an emulator around a freshly instantiated CPU.
func NewEmulator(model string) (emu *Emulator, err error) {
	cpu, err := riscv.NewCpu(model)
	if err != nil {
		return
	}

	// Bindings are process-wide; realize them before the first compile.
	riscv.GlobalBindings()

	emu = &Emulator{
		Cpu:     cpu,
		Program: &riscv.Program{},
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		riscv.TranslateDefines(),
	)
}

// Assembler returns an assembler with this emulator's defines as
// predefined equates.
func (emu *Emulator) Assembler() (asm *riscv.Assembler) {
	asm = &riscv.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}
	return
}

// Reset positions the CPU at the program's first instruction.
func (emu *Emulator) Reset() (err error) {
	if emu.Program == nil || len(emu.Program.Insns) == 0 {
		err = ErrNoProgram
		return
	}

	emu.Cpu.Pc = emu.Program.Base()
	return
}

// AddBreakpoint arms a breakpoint at a guest address.
func (emu *Emulator) AddBreakpoint(pc uint64) {
	if emu.breakpoint == nil {
		emu.breakpoint = make(map[uint64]struct{}, 4)
	}
	emu.breakpoint[pc] = struct{}{}
}

// RemoveBreakpoint disarms a breakpoint.
func (emu *Emulator) RemoveBreakpoint(pc uint64) {
	delete(emu.breakpoint, pc)
}

// IsBreakpoint reports whether a breakpoint is armed at pc. The
// compiler queries it once per instruction boundary.
func (emu *Emulator) IsBreakpoint(pc uint64) (ok bool) {
	_, ok = emu.breakpoint[pc]
	return
}

// CompileBlock compiles one translation block starting at pc.
func (emu *Emulator) CompileBlock(pc uint64) (tb *riscv.TranslationBlock) {
	tb = &riscv.TranslationBlock{Pc: pc}

	req := &riscv.Request{
		Code:       emu.Program,
		Decoder:    emu.Decoder,
		Breakpoint: emu.IsBreakpoint,
		MaxInsns:   emu.MaxInsns,
		SingleStep: emu.SingleStep,
		DebugStep:  emu.DebugStep,
	}

	emu.Cpu.Translate(tb, req)

	if emu.Verbose {
		log.Printf("tb pc=0x%x size=%v insns=%v ops=%v\n",
			tb.Pc, tb.Size, tb.InsnCount, len(tb.Ops))
	}

	return
}
