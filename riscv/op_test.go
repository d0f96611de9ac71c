package riscv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpString(t *testing.T) {
	assert := assert.New(t)

	tb := &TranslationBlock{Pc: 0x1000}

	assert.Equal("insn_start 0x1000", Op{Kind: OP_INSN_START, Pc: 0x1000}.String())
	assert.Equal("set_pc 0x1004", Op{Kind: OP_SET_PC, Pc: 0x1004}.String())
	assert.Equal("raise illegal_inst", Op{Kind: OP_RAISE, Cause: CAUSE_ILLEGAL_INST}.String())
	assert.Equal("raise_debug", Op{Kind: OP_RAISE_DEBUG}.String())
	assert.Equal("goto_tb 1", Op{Kind: OP_GOTO_TB, Slot: 1}.String())
	assert.Equal("exit_tb tb+1", Op{Kind: OP_EXIT_TB, Chain: tb, Slot: 1}.String())
	assert.Equal("exit_tb 0", Op{Kind: OP_EXIT_TB}.String())
}

func TestBlockStateString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("none", BS_NONE.String())
	assert.Equal("stop", BS_STOP.String())
	assert.Equal("branch", BS_BRANCH.String())
}
