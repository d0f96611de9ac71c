// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package riscv

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a single pass assembler for the fixed-width RV64I
// instruction set: labels, equates, and compile-time $() expressions.
type Assembler struct {
	Verbose bool   // If set, verbosely logs the assembler actions.
	Insns   []Insn // List of generated instructions.

	predefine map[string]string // Predefines
	Label     map[string]uint64 // Map of jump labels to guest addresses.
	Equate    map[string]string // Map of equates.

	addr uint64 // Current guest address.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regMap maps register names (ABI and numeric) to indexes.
var regMap = func() (m map[string]uint32) {
	m = make(map[string]uint32, 65)
	for n, name := range regnames {
		m[name] = uint32(n)
		m[fmt.Sprintf("x%d", n)] = uint32(n)
	}
	m["fp"] = 8
	return
}()

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint64, err error) {
	v64, perr := strconv.ParseInt(word, 0, 64)
	if perr != nil {
		u64, uerr := strconv.ParseUint(word, 0, 64)
		if uerr != nil {
			err = ErrParseNumber(word)
			return
		}
		value = u64
		return
	}

	value = uint64(v64)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value64 uint64
		value64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt64(int64(value64))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint64(st_int64)
	return
}

// parseLine splits and pre-evaluates a single source line.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	re := regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#x", value)
	})
	if err != nil {
		return
	}

	// Operand commas are decoration.
	line = strings.ReplaceAll(line, ",", " ")

	words = strings.Fields(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	// .org ADDRESS
	if words[0] == ".org" {
		if len(words) != 2 {
			err = ErrOrgSyntax
			return
		}
		var addr uint64
		addr, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		asm.addr = addr
		words = words[:0]
		return
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]uint64, 16)
		}
		asm.Label[label] = asm.addr
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	return
}

// insnFormat selects the RV64I encoding layout.
type insnFormat int

const (
	fmtR insnFormat = iota
	fmtI
	fmtIShift
	fmtLoad
	fmtStore
	fmtB
	fmtU
	fmtJ
	fmtSys
	fmtCsr
)

type insnDef struct {
	format insnFormat
	opcode uint32
	funct3 uint32
	funct7 uint32 // funct6 for fmtIShift, system immediate for fmtSys
}

var insnMap = map[string]insnDef{
	"lui":   {fmtU, 0x37, 0, 0},
	"auipc": {fmtU, 0x17, 0, 0},

	"jal":  {fmtJ, 0x6f, 0, 0},
	"jalr": {fmtI, 0x67, 0, 0},

	"beq":  {fmtB, 0x63, 0, 0},
	"bne":  {fmtB, 0x63, 1, 0},
	"blt":  {fmtB, 0x63, 4, 0},
	"bge":  {fmtB, 0x63, 5, 0},
	"bltu": {fmtB, 0x63, 6, 0},
	"bgeu": {fmtB, 0x63, 7, 0},

	"lb":  {fmtLoad, 0x03, 0, 0},
	"lh":  {fmtLoad, 0x03, 1, 0},
	"lw":  {fmtLoad, 0x03, 2, 0},
	"ld":  {fmtLoad, 0x03, 3, 0},
	"lbu": {fmtLoad, 0x03, 4, 0},
	"lhu": {fmtLoad, 0x03, 5, 0},
	"lwu": {fmtLoad, 0x03, 6, 0},

	"sb": {fmtStore, 0x23, 0, 0},
	"sh": {fmtStore, 0x23, 1, 0},
	"sw": {fmtStore, 0x23, 2, 0},
	"sd": {fmtStore, 0x23, 3, 0},

	"addi":  {fmtI, 0x13, 0, 0},
	"slti":  {fmtI, 0x13, 2, 0},
	"sltiu": {fmtI, 0x13, 3, 0},
	"xori":  {fmtI, 0x13, 4, 0},
	"ori":   {fmtI, 0x13, 6, 0},
	"andi":  {fmtI, 0x13, 7, 0},
	"addiw": {fmtI, 0x1b, 0, 0},

	"slli": {fmtIShift, 0x13, 1, 0x00},
	"srli": {fmtIShift, 0x13, 5, 0x00},
	"srai": {fmtIShift, 0x13, 5, 0x10},

	"add":  {fmtR, 0x33, 0, 0x00},
	"sub":  {fmtR, 0x33, 0, 0x20},
	"sll":  {fmtR, 0x33, 1, 0x00},
	"slt":  {fmtR, 0x33, 2, 0x00},
	"sltu": {fmtR, 0x33, 3, 0x00},
	"xor":  {fmtR, 0x33, 4, 0x00},
	"srl":  {fmtR, 0x33, 5, 0x00},
	"sra":  {fmtR, 0x33, 5, 0x20},
	"or":   {fmtR, 0x33, 6, 0x00},
	"and":  {fmtR, 0x33, 7, 0x00},
	"addw": {fmtR, 0x3b, 0, 0x00},
	"subw": {fmtR, 0x3b, 0, 0x20},

	"ecall":  {fmtSys, 0x73, 0, 0},
	"ebreak": {fmtSys, 0x73, 0, 1},

	"csrrw":  {fmtCsr, 0x73, 1, 0},
	"csrrs":  {fmtCsr, 0x73, 2, 0},
	"csrrc":  {fmtCsr, 0x73, 3, 0},
	"csrrwi": {fmtCsr, 0x73, 5, 0},
	"csrrsi": {fmtCsr, 0x73, 6, 0},
	"csrrci": {fmtCsr, 0x73, 7, 0},
}

// getRegister gets the register index for a word.
func (asm *Assembler) getRegister(word string) (reg uint32, err error) {
	reg, ok := regMap[word]
	if !ok {
		err = ErrRegisterInvalid
	}
	return
}

// getImmediate gets a signed immediate, checked against [min, max].
func (asm *Assembler) getImmediate(word string, min, max int64) (imm int64, err error) {
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}

	imm = int64(value)
	if imm < min || imm > max {
		err = ErrImmediateRange
	}
	return
}

// memOperand matches the imm(reg) load/store operand form.
var memOperand = regexp.MustCompile(`^(-?[0-9a-fA-Fx]*)\(([a-z0-9]+)\)$`)

// getMemOperand splits an imm(reg) operand.
func (asm *Assembler) getMemOperand(word string) (base uint32, imm int64, err error) {
	match := memOperand.FindStringSubmatch(word)
	if match == nil {
		err = ErrOpcodeArgs
		return
	}

	if len(match[1]) != 0 {
		imm, err = asm.getImmediate(match[1], -2048, 2047)
		if err != nil {
			return
		}
	}

	base, err = asm.getRegister(match[2])
	return
}

func encodeR(def insnDef, rd, rs1, rs2 uint32) uint32 {
	return def.funct7<<25 | rs2<<20 | rs1<<15 | def.funct3<<12 | rd<<7 | def.opcode
}

func encodeI(def insnDef, rd, rs1 uint32, imm int64) uint32 {
	return uint32(imm&0xfff)<<20 | rs1<<15 | def.funct3<<12 | rd<<7 | def.opcode
}

func encodeS(def insnDef, rs1, rs2 uint32, imm int64) uint32 {
	return uint32((imm>>5)&0x7f)<<25 | rs2<<20 | rs1<<15 |
		def.funct3<<12 | uint32(imm&0x1f)<<7 | def.opcode
}

func encodeU(def insnDef, rd uint32, imm int64) uint32 {
	return uint32(imm&0xfffff)<<12 | rd<<7 | def.opcode
}

// encodeBImm scatters a pc-relative branch offset into its B-type bits.
func encodeBImm(off int64) uint32 {
	return uint32((off>>12)&0x1)<<31 | uint32((off>>5)&0x3f)<<25 |
		uint32((off>>1)&0xf)<<8 | uint32((off>>11)&0x1)<<7
}

// encodeJImm scatters a pc-relative jump offset into its J-type bits.
func encodeJImm(off int64) uint32 {
	return uint32((off>>20)&0x1)<<31 | uint32((off>>1)&0x3ff)<<21 |
		uint32((off>>11)&0x1)<<20 | uint32((off>>12)&0xff)<<12
}

// getTarget resolves a branch/jump target word: a known or forward
// label, or an absolute guest address. The pc-relative offset for a
// forward label is linked after the full program is parsed.
func (asm *Assembler) getTarget(word string) (off int64, link string, err error) {
	addr, ok := asm.Label[word]
	if !ok {
		var value uint64
		value, err = asm.valueOf(word)
		if err != nil {
			// Not yet defined; link after parsing.
			err = nil
			link = word
			return
		}
		addr = value
	}

	off = int64(addr) - int64(asm.addr)
	return
}

// checkBranchOffset validates a B-type offset.
func checkBranchOffset(off int64) (err error) {
	if off&1 != 0 || off < -4096 || off > 4094 {
		err = ErrTargetInvalid
	}
	return
}

// checkJumpOffset validates a J-type offset.
func checkJumpOffset(off int64) (err error) {
	if off&1 != 0 || off < -(1<<20) || off > (1<<20)-2 {
		err = ErrTargetInvalid
	}
	return
}

// parseWords assembles the words of a source line into one instruction.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := slices.Clone(words)
	mnemonic := words[0]
	args := words[1:]

	// Pseudo-instructions expand to their base form.
	switch mnemonic {
	case "nop":
		mnemonic, args = "addi", []string{"zero", "zero", "0"}
	case "li":
		if len(args) != 2 {
			err = ErrOpcodeArgs
			return
		}
		mnemonic, args = "addi", []string{args[0], "zero", args[1]}
	case "mv":
		if len(args) != 2 {
			err = ErrOpcodeArgs
			return
		}
		mnemonic, args = "addi", []string{args[0], args[1], "0"}
	case "j":
		if len(args) != 1 {
			err = ErrOpcodeArgs
			return
		}
		mnemonic, args = "jal", []string{"zero", args[0]}
	case "ret":
		if len(args) != 0 {
			err = ErrOpcodeArgs
			return
		}
		mnemonic, args = "jalr", []string{"zero", "0(ra)"}
	}

	def, ok := insnMap[mnemonic]
	if !ok {
		err = ErrOpcodeInvalid(mnemonic)
		return
	}

	var word uint32
	var link string

	switch def.format {
	case fmtR:
		if len(args) != 3 {
			err = ErrOpcodeArgs
			return
		}
		var rd, rs1, rs2 uint32
		if rd, err = asm.getRegister(args[0]); err != nil {
			return
		}
		if rs1, err = asm.getRegister(args[1]); err != nil {
			return
		}
		if rs2, err = asm.getRegister(args[2]); err != nil {
			return
		}
		word = encodeR(def, rd, rs1, rs2)

	case fmtI:
		if len(args) != 3 {
			// jalr rd, imm(rs1) is also accepted.
			if def.opcode == 0x67 && len(args) == 2 {
				var rd, rs1 uint32
				var imm int64
				if rd, err = asm.getRegister(args[0]); err != nil {
					return
				}
				if rs1, imm, err = asm.getMemOperand(args[1]); err != nil {
					return
				}
				word = encodeI(def, rd, rs1, imm)
				break
			}
			err = ErrOpcodeArgs
			return
		}
		var rd, rs1 uint32
		var imm int64
		if rd, err = asm.getRegister(args[0]); err != nil {
			return
		}
		if rs1, err = asm.getRegister(args[1]); err != nil {
			return
		}
		if imm, err = asm.getImmediate(args[2], -2048, 2047); err != nil {
			return
		}
		word = encodeI(def, rd, rs1, imm)

	case fmtIShift:
		if len(args) != 3 {
			err = ErrOpcodeArgs
			return
		}
		var rd, rs1 uint32
		var shamt int64
		if rd, err = asm.getRegister(args[0]); err != nil {
			return
		}
		if rs1, err = asm.getRegister(args[1]); err != nil {
			return
		}
		if shamt, err = asm.getImmediate(args[2], 0, 63); err != nil {
			return
		}
		word = encodeI(def, rd, rs1, int64(def.funct7)<<6|shamt)

	case fmtLoad:
		if len(args) != 2 {
			err = ErrOpcodeArgs
			return
		}
		var rd, rs1 uint32
		var imm int64
		if rd, err = asm.getRegister(args[0]); err != nil {
			return
		}
		if rs1, imm, err = asm.getMemOperand(args[1]); err != nil {
			return
		}
		word = encodeI(def, rd, rs1, imm)

	case fmtStore:
		if len(args) != 2 {
			err = ErrOpcodeArgs
			return
		}
		var rs2, rs1 uint32
		var imm int64
		if rs2, err = asm.getRegister(args[0]); err != nil {
			return
		}
		if rs1, imm, err = asm.getMemOperand(args[1]); err != nil {
			return
		}
		word = encodeS(def, rs1, rs2, imm)

	case fmtB:
		if len(args) != 3 {
			err = ErrOpcodeArgs
			return
		}
		var rs1, rs2 uint32
		var off int64
		if rs1, err = asm.getRegister(args[0]); err != nil {
			return
		}
		if rs2, err = asm.getRegister(args[1]); err != nil {
			return
		}
		if off, link, err = asm.getTarget(args[2]); err != nil {
			return
		}
		if len(link) == 0 {
			if err = checkBranchOffset(off); err != nil {
				return
			}
		}
		word = encodeR(def, 0, rs1, rs2) | encodeBImm(off)

	case fmtU:
		if len(args) != 2 {
			err = ErrOpcodeArgs
			return
		}
		var rd uint32
		var imm int64
		if rd, err = asm.getRegister(args[0]); err != nil {
			return
		}
		if imm, err = asm.getImmediate(args[1], -(1 << 19), (1<<20)-1); err != nil {
			return
		}
		word = encodeU(def, rd, imm)

	case fmtJ:
		if len(args) != 2 {
			err = ErrOpcodeArgs
			return
		}
		var rd uint32
		var off int64
		if rd, err = asm.getRegister(args[0]); err != nil {
			return
		}
		if off, link, err = asm.getTarget(args[1]); err != nil {
			return
		}
		if len(link) == 0 {
			if err = checkJumpOffset(off); err != nil {
				return
			}
		}
		word = rd<<7 | def.opcode | encodeJImm(off)

	case fmtSys:
		if len(args) != 0 {
			err = ErrOpcodeArgs
			return
		}
		word = def.funct7<<20 | def.opcode

	case fmtCsr:
		if len(args) != 3 {
			err = ErrOpcodeArgs
			return
		}
		var rd, src uint32
		var csr int64
		if rd, err = asm.getRegister(args[0]); err != nil {
			return
		}
		if csr, err = asm.getImmediate(args[1], 0, CSR_COUNT-1); err != nil {
			return
		}
		if def.funct3 >= 5 {
			// Immediate forms take a 5-bit zimm instead of rs1.
			var zimm int64
			if zimm, err = asm.getImmediate(args[2], 0, 31); err != nil {
				return
			}
			src = uint32(zimm)
		} else {
			if src, err = asm.getRegister(args[2]); err != nil {
				return
			}
		}
		word = uint32(csr)<<20 | src<<15 | def.funct3<<12 | rd<<7 | def.opcode
	}

	if asm.Verbose {
		log.Printf("0x%x: %08x %v\n", asm.addr, word, initial_words)
	}

	asm.Insns = append(asm.Insns, Insn{
		LineNo:    lineno,
		Addr:      asm.addr,
		Word:      word,
		Words:     initial_words,
		LinkLabel: link,
	})
	asm.addr += INSN_BYTES

	return
}

// Parse parses an input stream into a Program of guest instructions.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Insns = asm.Insns[:0]
	asm.addr = 0
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, "#")
		line = strings.TrimSpace(text_comment[0])

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	// Final linking of jump labels.
	for n := range asm.Insns {
		insn := &asm.Insns[n]

		if len(insn.LinkLabel) == 0 {
			continue
		}
		label := insn.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			lineno, line = insn.LineNo, strings.Join(insn.Words, " ")
			err = ErrLabelMissing(label)
			return
		}

		off := int64(addr) - int64(insn.Addr)
		switch insn.Word & 0x7f {
		case 0x63:
			err = checkBranchOffset(off)
			insn.Word |= encodeBImm(off)
		case 0x6f:
			err = checkJumpOffset(off)
			insn.Word |= encodeJImm(off)
		}
		insn.LinkLabel = ""
		if err != nil {
			lineno, line = insn.LineNo, strings.Join(insn.Words, " ")
			return
		}
	}

	prog = &Program{
		Insns: slices.Clone(asm.Insns),
	}

	return
}
