// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package riscv

import (
	"fmt"
	"iter"
	"maps"
)

// Guest page geometry. A translation block never spans a page boundary,
// since protection and validity are page-granular.
const (
	PAGE_BITS = 12
	PAGE_SIZE = uint64(1) << PAGE_BITS
	PAGE_MASK = ^(PAGE_SIZE - 1)
)

// INSN_BYTES is the fixed instruction width. Only the fixed-width
// encoding is supported; there is no compressed-extension handling.
const INSN_BYTES = 4

var _translate_defines = map[string]string{
	"PAGE_BITS":    fmt.Sprintf("%v", PAGE_BITS),
	"PAGE_SIZE":    fmt.Sprintf("%v", PAGE_SIZE),
	"TB_MAX_INSNS": fmt.Sprintf("%v", TB_MAX_INSNS),
	"OP_BUF_SIZE":  fmt.Sprintf("%v", OP_BUF_SIZE),
}

// TranslateDefines returns the assembler predefines for the compiler's
// fixed limits.
func TranslateDefines() iter.Seq2[string, string] {
	return maps.All(_translate_defines)
}

// BlockState tracks why the current block must terminate.
type BlockState int

const (
	BS_NONE   = BlockState(0) // Still compiling; outside the loop, an end-of-page stop
	BS_STOP   = BlockState(1) // Synchronous exit; resume at the stored pc
	BS_BRANCH = BlockState(2) // Instruction emitted its own exit sequence
)

var blockStateNames = [...]string{"none", "stop", "branch"}

func (bs BlockState) String() (text string) {
	if int(bs) < len(blockStateNames) {
		text = blockStateNames[bs]
	} else {
		text = fmt.Sprintf("bstate_%d", int(bs))
	}
	return
}

// CodeMemory fetches guest instruction words for compilation.
type CodeMemory interface {
	LoadInsn(pc uint64) uint32
}

// Decoder lowers a single guest instruction into operations. The
// implementation must consume exactly one fixed-width instruction per
// call; it may emit operations, set the context block state, and use the
// exception and chaining primitives.
type Decoder interface {
	DecodeOne(cpu *Cpu, ctx *Context)
}

// DecoderFunc adapts a plain function to the Decoder interface.
type DecoderFunc func(cpu *Cpu, ctx *Context)

func (fn DecoderFunc) DecodeOne(cpu *Cpu, ctx *Context) {
	fn(cpu, ctx)
}

// Request configures one block compilation. A zero MaxInsns selects the
// hard TB_MAX_INSNS ceiling. DebugStep forces one-instruction blocks for
// the whole compile, independent of the SingleStep debug mode.
type Request struct {
	Code       CodeMemory
	Decoder    Decoder
	Breakpoint func(pc uint64) bool

	MaxInsns   int
	SingleStep bool
	DebugStep  bool
}

// Context is the per-compilation state. It is created by Translate,
// owned exclusively by that call, and discarded when the block is done.
type Context struct {
	Tb     *TranslationBlock
	Pc     uint64 // Guest address of the instruction being compiled.
	Opcode uint32
	MemIdx int

	SingleStep bool
	BState     BlockState
}

// Emit appends one operation to the block being compiled.
func (ctx *Context) Emit(op Op) {
	ctx.Tb.Ops = append(ctx.Tb.Ops, op)
}

// SetPc emits a store of pc into the program counter binding.
func (ctx *Context) SetPc(pc uint64) {
	ctx.Emit(Op{Kind: OP_SET_PC, Pc: pc})
}

// RaiseException emits code that records the current pc and enters the
// fault handler with cause. It does not decide block termination; the
// caller sets BState as needed.
func (ctx *Context) RaiseException(cause Cause) {
	ctx.SetPc(ctx.Pc)
	ctx.Emit(Op{Kind: OP_RAISE, Cause: cause})
}

// RaiseExceptionAddr is RaiseException for address-related faults; the
// emitted entry also passes the pc binding's value as the faulting
// address.
func (ctx *Context) RaiseExceptionAddr(cause Cause) {
	ctx.SetPc(ctx.Pc)
	ctx.Emit(Op{Kind: OP_RAISE_ADDR, Cause: cause})
}

// RaiseDebug emits a debug stop, used for breakpoints and single-step.
func (ctx *Context) RaiseDebug() {
	ctx.Emit(Op{Kind: OP_RAISE_DEBUG})
}

// KillUnknown injects an exception for an undecodable instruction and
// terminates the block.
func (ctx *Context) KillUnknown(cause Cause) {
	ctx.RaiseException(cause)
	ctx.BState = BS_STOP
}

// UseGotoTb reports whether a block ending at dest may be chained with a
// direct, patchable jump. Chaining is only allowed when the jump stays
// on the block's starting page, and never while single-stepping.
func (ctx *Context) UseGotoTb(dest uint64) bool {
	if ctx.SingleStep {
		return false
	}

	return (ctx.Tb.Pc & PAGE_MASK) == (dest & PAGE_MASK)
}

// GotoTb emits a block exit to dest through chain slot n. When chaining
// is allowed the exit is direct and cacheable; the downstream cache may
// patch it once the destination block exists. Otherwise a generic exit
// is emitted, preceded by a debug stop when single-stepping so that
// single-step semantics hold across block boundaries.
func (ctx *Context) GotoTb(n int, dest uint64) {
	if ctx.UseGotoTb(dest) {
		ctx.Emit(Op{Kind: OP_GOTO_TB, Slot: n})
		ctx.SetPc(dest)
		ctx.Emit(Op{Kind: OP_EXIT_TB, Chain: ctx.Tb, Slot: n})
	} else {
		ctx.SetPc(dest)
		if ctx.SingleStep {
			ctx.RaiseDebug()
		}
		ctx.Emit(Op{Kind: OP_EXIT_TB})
	}
}

// Translate compiles one translation block starting at tb.Pc, appending
// operations to tb and populating its Size and InsnCount. Guest-code
// conditions never surface as errors: faults become emitted operations
// and the block simply stops.
func (cpu *Cpu) Translate(tb *TranslationBlock, req *Request) {
	pcStart := tb.Pc
	nextPageStart := (pcStart & PAGE_MASK) + PAGE_SIZE

	ctx := Context{
		Tb:         tb,
		Pc:         pcStart,
		MemIdx:     cpu.MmuIndex(),
		SingleStep: req.SingleStep,
	}

	maxInsns := req.MaxInsns
	if maxInsns <= 0 || maxInsns > TB_MAX_INSNS {
		maxInsns = TB_MAX_INSNS
	}

	numInsns := 0
	breakpointHit := false

	for ctx.BState == BS_NONE {
		ctx.Emit(Op{Kind: OP_INSN_START, Pc: ctx.Pc})
		numInsns++

		if req.Breakpoint != nil && req.Breakpoint(ctx.Pc) {
			ctx.SetPc(ctx.Pc)
			ctx.BState = BS_BRANCH
			ctx.RaiseDebug()
			// The address covered by the breakpoint must fall inside
			// [tb.Pc, tb.Pc+tb.Size) for the cache to clear it, so
			// advance past it before the block is sized below.
			ctx.Pc += INSN_BYTES
			breakpointHit = true
			break
		}

		if req.Code != nil {
			ctx.Opcode = req.Code.LoadInsn(ctx.Pc)
		}
		if req.Decoder != nil {
			req.Decoder.DecodeOne(cpu, &ctx)
		}
		ctx.Pc += INSN_BYTES

		if req.SingleStep {
			break
		}
		if ctx.Pc >= nextPageStart {
			break
		}
		if tb.full() {
			break
		}
		if numInsns >= maxInsns {
			break
		}
		if req.DebugStep {
			break
		}
	}

	if !breakpointHit {
		if req.SingleStep && ctx.BState != BS_BRANCH {
			if ctx.BState == BS_NONE {
				ctx.SetPc(ctx.Pc)
			}
			ctx.RaiseDebug()
		} else {
			switch ctx.BState {
			case BS_STOP:
				ctx.GotoTb(0, ctx.Pc)
			case BS_NONE:
				// End of page or capacity, not a control transfer.
				// DO NOT CHAIN: see GotoTb.
				ctx.SetPc(ctx.Pc)
				ctx.Emit(Op{Kind: OP_EXIT_TB})
			case BS_BRANCH:
				// Ops using BS_BRANCH generate their own exit sequence.
			}
		}
	}

	tb.Size = ctx.Pc - pcStart
	tb.InsnCount = numInsns
}
