// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/ezrec/rvemu/emulator"
	"github.com/ezrec/rvemu/riscv"
)

func main() {
	var compile string
	var model string
	var list bool
	var breakpoint string
	var entry string
	var singlestep bool
	var verbose bool

	flag.StringVar(&compile, "c", "", ".s file to assemble")
	flag.StringVar(&model, "m", emulator.DEFAULT_MODEL, "CPU model name")
	flag.BoolVar(&list, "l", false, "List CPU models")
	flag.StringVar(&breakpoint, "b", "", "Breakpoint address")
	flag.StringVar(&entry, "e", "", "Entry address (default: program start)")
	flag.BoolVar(&singlestep, "s", false, "Single-step mode")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if list {
		for name := range riscv.Models() {
			fmt.Printf("RISCV '%s'\n", name)
		}
		return
	}

	emu, err := emulator.NewEmulator(model)
	if err != nil {
		log.Fatalf("%v: %v", model, err)
	}
	emu.Verbose = verbose
	emu.SingleStep = singlestep

	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := emu.Assembler()
		emu.Program, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	}

	if len(breakpoint) != 0 {
		addr, err := strconv.ParseUint(breakpoint, 0, 64)
		if err != nil {
			log.Fatalf("%v: %v", breakpoint, err)
		}
		emu.AddBreakpoint(addr)
	}

	err = emu.Reset()
	if err != nil {
		log.Fatal(err)
	}

	if len(entry) != 0 {
		addr, err := strconv.ParseUint(entry, 0, 64)
		if err != nil {
			log.Fatalf("%v: %v", entry, err)
		}
		emu.Pc = addr
	}

	for pc := emu.Pc; pc < emu.Program.End(); {
		tb := emu.CompileBlock(pc)

		fmt.Printf("tb: pc=0x%x size=%v insns=%v\n", tb.Pc, tb.Size, tb.InsnCount)
		for _, op := range tb.Ops {
			text := ""
			if op.Kind == riscv.OP_INSN_START {
				insn := emu.Program.Debug(op.Pc)
				if insn != nil {
					text = fmt.Sprintf("\t# %v", insn.Words)
				}
			}
			fmt.Printf("  %v%v\n", op, text)
		}

		if tb.Size == 0 {
			break
		}
		pc += tb.Size

		if singlestep {
			break
		}
	}

	fmt.Println(emu.Cpu)
}
