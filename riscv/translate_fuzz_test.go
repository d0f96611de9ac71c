package riscv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// FuzzTranslate drives block compilation with arbitrary start addresses
// and debug settings, checking the structural properties every block
// must satisfy.
func FuzzTranslate(f *testing.F) {
	f.Add(uint64(0x1000), uint16(512), uint16(0), false, false)
	f.Add(uint64(0x1ffc), uint16(1), uint16(0), true, false)
	f.Add(uint64(0), uint16(0), uint16(3), false, true)

	cpu, err := NewCpu("riscv")
	if err != nil {
		f.Fatal(err)
	}

	f.Fuzz(func(t *testing.T, start uint64, maxInsns uint16, bpOff uint16, singleStep bool, debugStep bool) {
		assert := assert.New(t)

		start &^= INSN_BYTES - 1
		bpPc := start + uint64(bpOff)*INSN_BYTES

		tb := &TranslationBlock{Pc: start}
		cpu.Translate(tb, &Request{
			Breakpoint: func(pc uint64) bool { return pc == bpPc },
			MaxInsns:   int(maxInsns),
			SingleStep: singleStep,
			DebugStep:  debugStep,
		})

		assert.GreaterOrEqual(tb.InsnCount, 1)
		assert.LessOrEqual(tb.InsnCount, TB_MAX_INSNS)
		assert.Equal(uint64(tb.InsnCount*INSN_BYTES), tb.Size)

		// Never spans past the starting page.
		pageEnd := (start & PAGE_MASK) + PAGE_SIZE
		assert.LessOrEqual(start+tb.Size, pageEnd)

		if singleStep {
			assert.Equal(1, tb.InsnCount)
			assert.Equal(OP_RAISE_DEBUG, tb.Ops[len(tb.Ops)-1].Kind)
		}

		// Every block opens with its own boundary marker.
		assert.Equal(OP_INSN_START, tb.Ops[0].Kind)
		assert.Equal(start, tb.Ops[0].Pc)
	})
}
