// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package riscv

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testAssemble(t *testing.T, source string) (prog *Program) {
	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(source))
	if err != nil {
		t.Fatal(err)
	}
	return
}

func TestAssembler_Empty(t *testing.T) {
	assert := assert.New(t)

	prog := testAssemble(t, "")
	assert.Empty(prog.Insns)
	assert.Zero(prog.Base())
	assert.Zero(prog.End())
}

func TestAssembler_Encodings(t *testing.T) {
	type testcase struct {
		source string
		word   uint32
	}

	testcases := map[string]testcase{
		"nop":       {"nop", 0x00000013},
		"li":        {"li a0, 1", 0x00100513},
		"mv":        {"mv a0, a1", 0x00058513},
		"addi":      {"addi a0, zero, 1", 0x00100513},
		"addi_neg":  {"addi sp, sp, -16", 0xff010113},
		"add":       {"add a0, a1, a2", 0x00c58533},
		"sub":       {"sub a0, a1, a2", 0x40c58533},
		"and":       {"and a0, a1, a2", 0x00c5f533},
		"lui":       {"lui a0, 0x12345", 0x12345537},
		"auipc":     {"auipc a0, 0", 0x00000517},
		"lw":        {"lw a0, 4(sp)", 0x00412503},
		"ld":        {"ld a0, 0(sp)", 0x00013503},
		"sw":        {"sw a0, 4(sp)", 0x00a12223},
		"slli":      {"slli a0, a0, 3", 0x00351513},
		"srai":      {"srai a0, a0, 3", 0x40355513},
		"jal":       {"jal ra, 8", 0x008000ef},
		"jalr":      {"jalr zero, 0(ra)", 0x00008067},
		"ret":       {"ret", 0x00008067},
		"ecall":     {"ecall", 0x00000073},
		"ebreak":    {"ebreak", 0x00100073},
		"csrrw":     {"csrrw zero, 0x300, t0", 0x30029073},
		"csrrsi":    {"csrrsi zero, 0x300, 8", 0x30046073},
		"x_numeric": {"addi x10, x0, 1", 0x00100513},
		"fp_alias":  {"mv a0, fp", 0x00040513},
	}

	for name, tc := range testcases {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			prog := testAssemble(t, tc.source)
			assert.Len(prog.Insns, 1)
			assert.Equal(tc.word, prog.Insns[0].Word)
		})
	}
}

func TestAssembler_Labels(t *testing.T) {
	assert := assert.New(t)

	prog := testAssemble(t, `
loop:	nop
	j loop
`)
	assert.Len(prog.Insns, 2)
	assert.Equal(uint32(0xffdff06f), prog.Insns[1].Word)
}

func TestAssembler_ForwardLabel(t *testing.T) {
	assert := assert.New(t)

	prog := testAssemble(t, `
	j end
	beq a0, a1, end
	nop
end:	nop
`)
	assert.Len(prog.Insns, 4)
	assert.Equal(uint32(0x00c0006f), prog.Insns[0].Word)
	assert.Equal(uint32(0x00b50463), prog.Insns[1].Word)

	// Fixups are resolved, not still pending.
	for _, insn := range prog.Insns {
		assert.Empty(insn.LinkLabel)
	}
}

func TestAssembler_Branch(t *testing.T) {
	assert := assert.New(t)

	prog := testAssemble(t, `
	beq a0, a1, out
	nop
out:	nop
`)
	assert.Equal(uint32(0x00b50463), prog.Insns[0].Word)
}

func TestAssembler_Comments(t *testing.T) {
	assert := assert.New(t)

	prog := testAssemble(t, `
# whole-line comment
	nop	# trailing comment
`)
	assert.Len(prog.Insns, 1)
}

func TestAssembler_Equ(t *testing.T) {
	assert := assert.New(t)

	prog := testAssemble(t, `
.equ FOO 0x10
	li a0, FOO
`)
	assert.Equal(uint32(0x01000513), prog.Insns[0].Word)
}

func TestAssembler_Org(t *testing.T) {
	assert := assert.New(t)

	prog := testAssemble(t, `
.org 0x1000
entry:	nop
	nop
`)
	assert.Equal(uint64(0x1000), prog.Base())
	assert.Equal(uint64(0x1008), prog.End())
	assert.Equal(uint64(0x1004), prog.Insns[1].Addr)
}

func TestAssembler_Expression(t *testing.T) {
	assert := assert.New(t)

	prog := testAssemble(t, `
.equ FOO 0x10
	li a0, $(FOO + 1)
	li a1, $(LINENO)
`)
	assert.Equal(uint32(0x01100513), prog.Insns[0].Word)
	// LINENO tracks the current source line.
	assert.Equal(uint32(0x00400593), prog.Insns[1].Word)
}

func TestAssembler_Predefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("BASE", "0x2000")

	prog, err := asm.Parse(strings.NewReader(`
.org BASE
	nop
`))
	assert.NoError(err)
	assert.Equal(uint64(0x2000), prog.Base())
}

func TestAssembler_Reparse(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader("first:\tnop\n\tnop\n"))
	assert.NoError(err)
	assert.Len(prog.Insns, 2)

	// Labels, equates, and instructions reset between parses.
	prog, err = asm.Parse(strings.NewReader("first:\tnop\n"))
	assert.NoError(err)
	assert.Len(prog.Insns, 1)
}

func TestAssembler_Errors(t *testing.T) {
	type testcase struct {
		source string
		expect error
	}

	testcases := map[string]testcase{
		"equ_syntax":    {".equ FOO", ErrEquateSyntax},
		"equ_dup":       {".equ FOO 1\n.equ FOO 2", ErrEquateDuplicate},
		"org_syntax":    {".org", ErrOrgSyntax},
		"label_dup":     {"a:\tnop\na:\tnop", ErrLabelDuplicate},
		"bad_opcode":    {"frobnicate a0", ErrOpcodeInvalid("")},
		"bad_register":  {"addi a0, q7, 1", ErrRegisterInvalid},
		"bad_args":      {"addi a0, a1", ErrOpcodeArgs},
		"imm_range":     {"addi a0, a1, 4096", ErrImmediateRange},
		"shift_range":   {"slli a0, a0, 64", ErrImmediateRange},
		"bad_mem":       {"lw a0, a1", ErrOpcodeArgs},
		"missing_label": {"j nowhere", ErrLabelMissing("nowhere")},
		"far_branch":    {"beq a0, a1, 0x10000", ErrTargetInvalid},
	}

	for name, tc := range testcases {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			asm := &Assembler{}
			prog, err := asm.Parse(strings.NewReader(tc.source))
			assert.ErrorIs(err, tc.expect)
			assert.Nil(prog)
		})
	}
}

func TestAssembler_ErrorLine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("\tnop\n\tfrobnicate a0\n"))

	var syntax *ErrSyntax
	assert.ErrorAs(err, &syntax)
	assert.Equal(2, syntax.LineNo)
	assert.Contains(syntax.Line, "frobnicate")
	assert.True(errors.Is(syntax.Err, ErrOpcodeInvalid("")))
}
