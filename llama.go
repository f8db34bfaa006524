// This file is part of Llama.
//
// Llama is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Llama is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Llama.  If not, see <https://www.gnu.org/licenses/>.

// Llama is a Nintendo-3DS-style system emulator: an interpreting ARM9 and
// ARM11 core with the surrounding memory system and IO devices.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/jetsetilly/llama/debugger"
	"github.com/jetsetilly/llama/gui/sdl"
	"github.com/jetsetilly/llama/hardware"
	"github.com/jetsetilly/llama/loader"
	"github.com/jetsetilly/llama/logger"
	"github.com/jetsetilly/llama/performance"
)

func main() {
	debugMode := flag.Bool("debug", false, "start in the interactive debugger")
	guiMode := flag.Bool("gui", false, "open the display shell")
	perfMode := flag.Bool("performance", false, "run the performance monitor")
	echoLog := flag.Bool("log", false, "echo the emulation log to stderr")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: llama [options] <folder|.ctr9|.firm>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *echoLog {
		logger.SetEcho(os.Stderr)
	}

	if err := run(flag.Arg(0), *debugMode, *guiMode, *perfMode); err != nil {
		fmt.Fprintf(os.Stderr, "* %v\n", err)
		os.Exit(1)
	}
}

func run(romPath string, debugMode, guiMode, perfMode bool) error {
	ldr, err := loader.NewLoader(romPath)
	if err != nil {
		return err
	}

	ctr := hardware.NewCTR()

	if err := ldr.Load9(ctr.Mem9); err != nil {
		return err
	}
	if err := ldr.Load11(ctr.Mem11); err != nil {
		return err
	}
	ctr.Reset(ldr.Entrypoint9(), ldr.Entrypoint11())

	if perfMode {
		performance.Monitor(ctr)
	}

	if debugMode {
		dbg := debugger.NewDebugger(ctr)
		term, err := debugger.NewTerminal(dbg)
		if err != nil {
			return err
		}
		term.Run()
		ctr.Stop()
		return nil
	}

	ctr.Start()
	defer ctr.Stop()

	if guiMode {
		shell, err := sdl.NewShell(ctr)
		if err != nil {
			return err
		}
		defer shell.Destroy()
		shell.Run()
		return nil
	}

	// headless: run until interrupted
	intr := make(chan os.Signal, 1)
	signal.Notify(intr, os.Interrupt)
	<-intr

	ctr.Stop()
	logger.Tail(os.Stderr, 20)
	return nil
}
