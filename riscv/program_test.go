package riscv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgram(t *testing.T) {
	assert := assert.New(t)

	prog := testAssemble(t, `
.org 0x1000
	li a0, 1
	nop
`)

	assert.Equal(uint64(0x1000), prog.Base())
	assert.Equal(uint64(0x1008), prog.End())

	assert.Equal(uint32(0x00100513), prog.LoadInsn(0x1000))
	assert.Equal(uint32(0x00000013), prog.LoadInsn(0x1004))

	// Outside the program reads as zero.
	assert.Zero(prog.LoadInsn(0x0ffc))
	assert.Zero(prog.LoadInsn(0x1008))
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := testAssemble(t, `
.org 0x1000
	li a0, 1
`)

	insn := prog.Debug(0x1000)
	assert.NotNil(insn)
	assert.Equal(3, insn.LineNo)
	assert.Equal([]string{"li", "a0", "1"}, insn.Words)

	assert.Nil(prog.Debug(0x1004))
}

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	prog := testAssemble(t, "li a0, 1\nnop\n")

	bins := prog.Binary()
	assert.Equal([]byte{
		0x13, 0x05, 0x10, 0x00,
		0x13, 0x00, 0x00, 0x00,
	}, bins)
}

func TestProgram_Empty(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{}
	assert.Zero(prog.Base())
	assert.Zero(prog.End())
	assert.Zero(prog.LoadInsn(0))
	assert.Nil(prog.Debug(0))
	assert.Empty(prog.Binary())
}
