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

// Package easyterm is a wrapper for "github.com/pkg/term/termios". It
// wraps the termios calls in functions with friendlier names and keeps
// hold of the attributes needed to restore the terminal on exit.
package easyterm

import (
	"fmt"
	"os"
	"sync"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// EasyTerm is the main container for posix terminals. usually embedded in
// other struct types.
type EasyTerm struct {
	input  *os.File
	output *os.File

	canAttr    unix.Termios
	rawAttr    unix.Termios
	cbreakAttr unix.Termios

	mu sync.Mutex
}

// Initialise the fields in the EasyTerm struct.
func (et *EasyTerm) Initialise(inputFile, outputFile *os.File) error {
	if inputFile == nil {
		return fmt.Errorf("easyterm requires an input file")
	}
	if outputFile == nil {
		return fmt.Errorf("easyterm requires an output file")
	}

	et.input = inputFile
	et.output = outputFile

	// prepare the attributes for the different terminal modes we'll be
	// using
	if err := termios.Tcgetattr(et.input.Fd(), &et.canAttr); err != nil {
		return err
	}
	et.cbreakAttr = et.canAttr
	termios.Cfmakecbreak(&et.cbreakAttr)
	et.rawAttr = et.canAttr
	termios.Cfmakeraw(&et.rawAttr)

	return nil
}

// CleanUp restores the terminal to canonical mode.
func (et *EasyTerm) CleanUp() {
	et.CanonicalMode()
}

// CanonicalMode puts terminal into normal, everyday canonical mode.
func (et *EasyTerm) CanonicalMode() {
	et.mu.Lock()
	defer et.mu.Unlock()

	termios.Tcsetattr(et.input.Fd(), termios.TCIFLUSH, &et.canAttr)
}

// RawMode puts terminal into raw mode.
func (et *EasyTerm) RawMode() {
	et.mu.Lock()
	defer et.mu.Unlock()

	termios.Tcsetattr(et.input.Fd(), termios.TCIFLUSH, &et.rawAttr)
}

// CBreakMode puts terminal into cbreak mode: input is available byte by
// byte without waiting for a newline.
func (et *EasyTerm) CBreakMode() {
	et.mu.Lock()
	defer et.mu.Unlock()

	termios.Tcsetattr(et.input.Fd(), termios.TCIFLUSH, &et.cbreakAttr)
}

// Flush makes sure the terminal's input/output buffers are empty.
func (et *EasyTerm) Flush() error {
	et.mu.Lock()
	defer et.mu.Unlock()

	if err := termios.Tcflush(et.input.Fd(), termios.TCIFLUSH); err != nil {
		return err
	}
	return termios.Tcflush(et.output.Fd(), termios.TCOFLUSH)
}

// TermPrint writes the string to the output file.
func (et *EasyTerm) TermPrint(s string) {
	et.output.WriteString(s)
}

// TermRead reads a single byte from the input file.
func (et *EasyTerm) TermRead() (byte, error) {
	b := make([]byte, 1)
	if _, err := et.input.Read(b); err != nil {
		return 0, err
	}
	return b[0], nil
}
