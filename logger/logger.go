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

// Package logger is the central log for the emulation. Log entries are
// accumulated and can be written out or tailed on demand; an echo writer
// can be attached for immediate output.
//
// Entries are tagged with the name of the emulated unit that produced them
// ("ARM9", "MMU", "PXI", etc.)
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

type entry struct {
	tag    string
	detail string
}

func (e entry) String() string {
	return fmt.Sprintf("%s: %s", e.tag, e.detail)
}

type logger struct {
	crit sync.Mutex

	entries []entry

	// the writer to which all new entries will be echoed
	echo io.Writer
}

// not exposing logger to the outside world. the package level functions
// operate on this single instance
var central = &logger{}

// Log adds a new entry to the central logger.
func Log(tag, detail string) {
	central.crit.Lock()
	defer central.crit.Unlock()

	// multi-line details become multiple entries under the same tag
	for _, d := range strings.Split(detail, "\n") {
		if d == "" {
			continue
		}
		e := entry{tag: tag, detail: d}
		central.entries = append(central.entries, e)
		if central.echo != nil {
			io.WriteString(central.echo, e.String())
			io.WriteString(central.echo, "\n")
		}
	}
}

// Logf adds a new formatted entry to the central logger.
func Logf(tag, detail string, args ...interface{}) {
	Log(tag, fmt.Sprintf(detail, args...))
}

// Clear all entries from the central logger.
func Clear() {
	central.crit.Lock()
	defer central.crit.Unlock()

	central.entries = central.entries[:0]
}

// SetEcho to the specified writer. A nil writer stops echoing.
func SetEcho(output io.Writer) {
	central.crit.Lock()
	defer central.crit.Unlock()

	central.echo = output
}

// Write contents of central logger to the specified writer.
func Write(output io.Writer) {
	central.crit.Lock()
	defer central.crit.Unlock()

	for _, e := range central.entries {
		io.WriteString(output, e.String())
		io.WriteString(output, "\n")
	}
}

// Tail writes the last N entries to the specified writer.
func Tail(output io.Writer, number int) {
	central.crit.Lock()
	defer central.crit.Unlock()

	s := len(central.entries) - number
	if s < 0 {
		s = 0
	}

	for _, e := range central.entries[s:] {
		io.WriteString(output, e.String())
		io.WriteString(output, "\n")
	}
}
