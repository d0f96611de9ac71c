package riscv

import (
	"encoding/binary"
)

// Insn is one assembled guest instruction with its source context.
type Insn struct {
	LineNo    int
	Addr      uint64
	Word      uint32
	Words     []string // Source words, for listings.
	LinkLabel string   // Pending pc-relative label fixup.
}

// Program is an assembled run of guest instructions. It implements
// CodeMemory, so a compiled translation block can fetch from it.
type Program struct {
	Insns []Insn
}

// Base returns the guest address of the first instruction.
func (prog *Program) Base() (base uint64) {
	if len(prog.Insns) > 0 {
		base = prog.Insns[0].Addr
	}
	return
}

// End returns the guest address just past the last instruction.
func (prog *Program) End() (end uint64) {
	if len(prog.Insns) > 0 {
		last := prog.Insns[len(prog.Insns)-1]
		end = last.Addr + INSN_BYTES
	}
	return
}

// LoadInsn fetches the instruction word at pc. Addresses outside the
// program read as zero, which no decoder recognizes.
func (prog *Program) LoadInsn(pc uint64) (word uint32) {
	for n := range prog.Insns {
		if prog.Insns[n].Addr == pc {
			word = prog.Insns[n].Word
			break
		}
	}
	return
}

// Debug returns the source instruction covering pc, or nil.
func (prog *Program) Debug(pc uint64) (insn *Insn) {
	for n := range prog.Insns {
		if prog.Insns[n].Addr == pc {
			insn = &prog.Insns[n]
			break
		}
	}
	return
}

// Binary returns the program as little-endian instruction words.
func (prog *Program) Binary() (bins []byte) {
	for _, insn := range prog.Insns {
		bins = binary.LittleEndian.AppendUint32(bins, insn.Word)
	}
	return
}
