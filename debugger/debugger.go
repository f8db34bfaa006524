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

// Package debugger is the debugging surface over the console: pause and
// resume, memory and register access, single stepping and address
// breakpoints. The debugger only touches hardware state while the CPU
// threads are stopped.
package debugger

import (
	"github.com/jetsetilly/llama/hardware"
	"github.com/jetsetilly/llama/hardware/arm"
)

// Which CPU debugger commands apply to.
type Which int

// List of valid Which values.
const (
	CPU9 Which = iota
	CPU11
)

// Debugger is the facade over a stopped console.
type Debugger struct {
	ctr *hardware.CTR
	sel Which
}

// NewDebugger is the preferred method of initialisation for the Debugger
// type.
func NewDebugger(ctr *hardware.CTR) *Debugger {
	return &Debugger{ctr: ctr}
}

// Select the CPU subsequent commands apply to.
func (dbg *Debugger) Select(w Which) {
	dbg.sel = w
}

// Selected returns the currently selected CPU.
func (dbg *Debugger) Selected() Which {
	return dbg.sel
}

func (dbg *Debugger) cpu() *arm.ARM {
	if dbg.sel == CPU11 {
		return dbg.ctr.Arm11
	}
	return dbg.ctr.Arm9
}

// Pause the console.
func (dbg *Debugger) Pause() {
	dbg.ctr.Stop()
}

// Resume the console.
func (dbg *Debugger) Resume() {
	dbg.ctr.Start()
}

// Running returns true while the console is live.
func (dbg *Debugger) Running() bool {
	return dbg.ctr.Running()
}

// Step the selected CPU by one instruction, returning the break that ended
// the step.
func (dbg *Debugger) Step() arm.Break {
	return dbg.cpu().Step()
}

// PauseAddr is the address of the next instruction to execute on the
// selected CPU.
func (dbg *Debugger) PauseAddr() uint32 {
	return dbg.cpu().ExecutingPC()
}

// ReadMem fills buf from the selected CPU's physical address space,
// refusing IO addresses (reads there have side effects).
func (dbg *Debugger) ReadMem(addr uint32, buf []byte) error {
	return dbg.cpu().Mmgr().MainMem().DebugReadBuf(addr, buf)
}

// WriteMem stores buf into the selected CPU's physical address space.
func (dbg *Debugger) WriteMem(addr uint32, buf []byte) {
	dbg.cpu().Mmgr().MainMem().WriteBuf(addr, buf)
}

// Reg returns the value of the numbered register.
func (dbg *Debugger) Reg(i int) uint32 {
	return dbg.cpu().Reg(i)
}

// SetReg sets the value of the numbered register.
func (dbg *Debugger) SetReg(i int, v uint32) {
	dbg.cpu().SetReg(i, v)
}

// CPSR returns the current program status register.
func (dbg *Debugger) CPSR() arm.PSR {
	return dbg.cpu().CPSR()
}

// SetCPSR replaces the current program status register.
func (dbg *Debugger) SetCPSR(v uint32) {
	dbg.cpu().SetCPSR(v)
}

// SetBreakpoint adds a breakpoint at the address.
func (dbg *Debugger) SetBreakpoint(addr uint32) {
	dbg.cpu().SetBreakpoint(addr)
}

// DelBreakpoint removes the breakpoint at the address.
func (dbg *Debugger) DelBreakpoint(addr uint32) {
	dbg.cpu().DelBreakpoint(addr)
}

// HasBreakpoint returns true if a breakpoint exists at the address.
func (dbg *Debugger) HasBreakpoint(addr uint32) bool {
	return dbg.cpu().HasBreakpoint(addr)
}

// String is a summary of the selected CPU's state.
func (dbg *Debugger) String() string {
	return dbg.cpu().String()
}

// Hardware gives direct access to the console for tools (the graph dump,
// the display shell) that reach past the facade.
func (dbg *Debugger) Hardware() *hardware.CTR {
	return dbg.ctr
}
