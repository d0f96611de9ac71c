package riscv

import (
	"fmt"
)

// Privilege levels.
const (
	PRV_U = 0 // User
	PRV_S = 1 // Supervisor
	PRV_H = 2 // Hypervisor (reserved)
	PRV_M = 3 // Machine
)

// Control/status register numbers used by instantiation and the
// diagnostic dump. The CSR file itself is indexed 0..CSR_COUNT-1.
const (
	CSR_FFLAGS   = 0x001
	CSR_FRM      = 0x002
	CSR_FCSR     = 0x003
	CSR_MSTATUS  = 0x300
	CSR_MISA     = 0x301
	CSR_MEDELEG  = 0x302
	CSR_MIDELEG  = 0x303
	CSR_MIE      = 0x304
	CSR_MTVEC    = 0x305
	CSR_MSCRATCH = 0x340
	CSR_MEPC     = 0x341
	CSR_MCAUSE   = 0x342
	CSR_MBADADDR = 0x343
	CSR_MIP      = 0x344

	CSR_COUNT = 4096
)

// Cause is a synchronous exception cause, recorded in mcause when the
// emitted fault entry point runs.
type Cause int

// mcause codes for synchronous exceptions.
const (
	CAUSE_MISALIGNED_FETCH = Cause(0x0)
	CAUSE_FAULT_FETCH      = Cause(0x1)
	CAUSE_ILLEGAL_INST     = Cause(0x2)
	CAUSE_BREAKPOINT       = Cause(0x3)
	CAUSE_MISALIGNED_LOAD  = Cause(0x4)
	CAUSE_FAULT_LOAD       = Cause(0x5)
	CAUSE_MISALIGNED_STORE = Cause(0x6)
	CAUSE_FAULT_STORE      = Cause(0x7)
	CAUSE_USER_ECALL       = Cause(0x8)
	CAUSE_SUPERVISOR_ECALL = Cause(0x9)
	CAUSE_HYPERVISOR_ECALL = Cause(0xa)
	CAUSE_MACHINE_ECALL    = Cause(0xb)
)

var causeNames = map[Cause]string{
	CAUSE_MISALIGNED_FETCH: "misaligned_fetch",
	CAUSE_FAULT_FETCH:      "fault_fetch",
	CAUSE_ILLEGAL_INST:     "illegal_inst",
	CAUSE_BREAKPOINT:       "breakpoint",
	CAUSE_MISALIGNED_LOAD:  "misaligned_load",
	CAUSE_FAULT_LOAD:       "fault_load",
	CAUSE_MISALIGNED_STORE: "misaligned_store",
	CAUSE_FAULT_STORE:      "fault_store",
	CAUSE_USER_ECALL:       "user_ecall",
	CAUSE_SUPERVISOR_ECALL: "supervisor_ecall",
	CAUSE_HYPERVISOR_ECALL: "hypervisor_ecall",
	CAUSE_MACHINE_ECALL:    "machine_ecall",
}

func (cause Cause) String() (text string) {
	text, ok := causeNames[cause]
	if !ok {
		text = fmt.Sprintf("cause_%#x", int(cause))
	}
	return
}
