// Package riscv implements the basic-block front end of a RISC-V dynamic
// binary translator.
//
// The package owns the architectural CPU state (general, floating-point,
// and control/status registers), the process-wide register binding table
// used by generated code, and the translation-block compiler that turns a
// contiguous run of guest instructions into an intermediate operation
// sequence for a downstream executor. Per-instruction decode is a
// pluggable capability (Decoder); the compiler only decides where a block
// ends, how block exits chain to other blocks, and how faults and debug
// stops are injected.
//
// A single-pass RV64I assembler is included for building guest code, with
// labels, equates, and compile-time $() expression evaluation.
package riscv
