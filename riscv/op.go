package riscv

import (
	"fmt"
)

// OpKind is the kind of an intermediate operation.
type OpKind int

const (
	OP_INSN_START  = OpKind(0) // Instruction boundary marker
	OP_SET_PC      = OpKind(1) // Store an immediate into the pc binding
	OP_RAISE       = OpKind(2) // Enter the fault handler with a cause
	OP_RAISE_ADDR  = OpKind(3) // As OP_RAISE, plus the faulting address
	OP_RAISE_DEBUG = OpKind(4) // Enter the debug stop entry point
	OP_GOTO_TB     = OpKind(5) // Patchable direct jump slot
	OP_EXIT_TB     = OpKind(6) // Return to the dispatcher
)

var opKindNames = [...]string{
	"insn_start", "set_pc", "raise", "raise_addr",
	"raise_debug", "goto_tb", "exit_tb",
}

func (kind OpKind) String() (text string) {
	if int(kind) < len(opKindNames) {
		text = opKindNames[kind]
	} else {
		text = fmt.Sprintf("op_%d", int(kind))
	}
	return
}

// Op is one intermediate operation emitted during compilation and
// consumed by the downstream executor.
type Op struct {
	Kind  OpKind
	Pc    uint64            // Boundary marker or pc store value.
	Cause Cause             // OP_RAISE, OP_RAISE_ADDR.
	Slot  int               // Chain slot for OP_GOTO_TB / OP_EXIT_TB.
	Chain *TranslationBlock // Chained exit link; nil exits to dispatch.
}

func (op Op) String() (text string) {
	switch op.Kind {
	case OP_INSN_START, OP_SET_PC:
		text = fmt.Sprintf("%v 0x%x", op.Kind, op.Pc)
	case OP_RAISE, OP_RAISE_ADDR:
		text = fmt.Sprintf("%v %v", op.Kind, op.Cause)
	case OP_GOTO_TB:
		text = fmt.Sprintf("%v %d", op.Kind, op.Slot)
	case OP_EXIT_TB:
		if op.Chain != nil {
			text = fmt.Sprintf("%v tb+%d", op.Kind, op.Slot)
		} else {
			text = fmt.Sprintf("%v 0", op.Kind)
		}
	default:
		text = op.Kind.String()
	}
	return
}

const (
	OP_BUF_SIZE  = 8192 // Operation buffer capacity per block.
	TB_MAX_INSNS = 2048 // Hard ceiling on instructions per block.
)

// TranslationBlock is one compiled unit covering a contiguous guest
// instruction range. The compiler populates Size, InsnCount, and Ops;
// the record is owned thereafter by the execution/caching layer.
type TranslationBlock struct {
	Pc        uint64 // Guest address of the first instruction.
	Size      uint64 // Guest bytes covered.
	InsnCount int
	Ops       []Op
}

func (tb *TranslationBlock) full() bool {
	return len(tb.Ops) >= OP_BUF_SIZE
}
