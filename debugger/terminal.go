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

package debugger

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bradleyjkemp/memviz"
	"github.com/jetsetilly/llama/debugger/easyterm"
	"github.com/jetsetilly/llama/logger"
)

// Terminal is the interactive face of the debugger. Single keys drive the
// common operations (step, continue, pause); a colon opens a command line
// for everything else.
type Terminal struct {
	easyterm.EasyTerm

	dbg  *Debugger
	line *bufio.Reader
}

// NewTerminal is the preferred method of initialisation for the Terminal
// type.
func NewTerminal(dbg *Debugger) (*Terminal, error) {
	term := &Terminal{
		dbg:  dbg,
		line: bufio.NewReader(os.Stdin),
	}
	if err := term.Initialise(os.Stdin, os.Stdout); err != nil {
		return nil, err
	}
	return term, nil
}

const helpText = `
 s        step one instruction
 c        continue (resume the console)
 p        pause the console
 r        print registers
 h        this help
 q        quit
 :        command line. commands:
    m <addr> [len]      hex dump of memory
    w <addr> <val>      write a 32 bit word
    b <addr>            set breakpoint
    bd <addr>           delete breakpoint
    cpu <9|11>          select CPU
    log                 print the emulation log
    viz <file>          dump the hardware graph (graphviz)
`

// Run the terminal until the user quits.
func (term *Terminal) Run() {
	defer term.CleanUp()
	term.CBreakMode()

	term.TermPrint("llama debugger. h for help\r\n")
	term.prompt()

	for {
		k, err := term.TermRead()
		if err != nil {
			return
		}

		switch k {
		case 's':
			if term.dbg.Running() {
				term.TermPrint("pause before stepping\r\n")
				break
			}
			brk := term.dbg.Step()
			term.TermPrint(fmt.Sprintf("%08x [%s]\r\n", term.dbg.PauseAddr(), brk.Reason))
		case 'c':
			term.dbg.Resume()
			term.TermPrint("running\r\n")
		case 'p':
			term.dbg.Pause()
			term.TermPrint(fmt.Sprintf("paused at %08x\r\n", term.dbg.PauseAddr()))
		case 'r':
			term.TermPrint(strings.ReplaceAll(term.dbg.String(), "\n", "\r\n"))
			term.TermPrint(fmt.Sprintf("\r\nCPSR: %s\r\n", term.dbg.CPSR()))
		case 'h':
			term.TermPrint(strings.ReplaceAll(helpText, "\n", "\r\n"))
		case 'q':
			term.dbg.Pause()
			return
		case ':':
			term.CanonicalMode()
			term.TermPrint(":")
			input, err := term.line.ReadString('\n')
			if err == nil {
				term.command(strings.Fields(strings.TrimSpace(input)))
			}
			term.CBreakMode()
		}

		term.prompt()
	}
}

func (term *Terminal) prompt() {
	term.TermPrint("[llama] ")
}

func (term *Terminal) command(fields []string) {
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "m":
		if len(fields) < 2 {
			term.TermPrint("m <addr> [len]\n")
			return
		}
		addr, err := parseAddr(fields[1])
		if err != nil {
			term.TermPrint(err.Error() + "\n")
			return
		}
		length := 64
		if len(fields) > 2 {
			if l, err := strconv.Atoi(fields[2]); err == nil {
				length = l
			}
		}
		buf := make([]byte, length)
		if err := term.dbg.ReadMem(addr, buf); err != nil {
			term.TermPrint(err.Error() + "\n")
			return
		}
		for i := 0; i < len(buf); i += 16 {
			end := i + 16
			if end > len(buf) {
				end = len(buf)
			}
			term.TermPrint(fmt.Sprintf("%08x: % x\n", addr+uint32(i), buf[i:end]))
		}

	case "w":
		if len(fields) < 3 {
			term.TermPrint("w <addr> <val>\n")
			return
		}
		addr, err := parseAddr(fields[1])
		if err != nil {
			term.TermPrint(err.Error() + "\n")
			return
		}
		val, err := parseAddr(fields[2])
		if err != nil {
			term.TermPrint(err.Error() + "\n")
			return
		}
		term.dbg.WriteMem(addr, []byte{
			byte(val), byte(val >> 8), byte(val >> 16), byte(val >> 24),
		})

	case "b", "bd":
		if len(fields) < 2 {
			term.TermPrint("b <addr>\n")
			return
		}
		addr, err := parseAddr(fields[1])
		if err != nil {
			term.TermPrint(err.Error() + "\n")
			return
		}
		if fields[0] == "b" {
			term.dbg.SetBreakpoint(addr)
		} else {
			term.dbg.DelBreakpoint(addr)
		}

	case "cpu":
		if len(fields) > 1 && fields[1] == "11" {
			term.dbg.Select(CPU11)
		} else {
			term.dbg.Select(CPU9)
		}

	case "log":
		logger.Write(os.Stdout)

	case "viz":
		if len(fields) < 2 {
			term.TermPrint("viz <file>\n")
			return
		}
		f, err := os.Create(fields[1])
		if err != nil {
			term.TermPrint(err.Error() + "\n")
			return
		}
		defer f.Close()
		memviz.Map(f, term.dbg.Hardware())

	default:
		term.TermPrint("unrecognised command\n")
	}
}

func parseAddr(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad address: %s", s)
	}
	return uint32(v), nil
}
