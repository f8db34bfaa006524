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

// Package arm emulates the two CPU cores of the console: the ARMv5 ARM9
// and the ARMv6 ARM11. One interpreter serves both; the cores differ in
// their memory manager (MPU or MMU) and in a small number of instruction
// behaviours.
package arm

import (
	"fmt"
	"strings"

	"github.com/jetsetilly/llama/curated"
	"github.com/jetsetilly/llama/hardware/clock"
	"github.com/jetsetilly/llama/hardware/irq"
	"github.com/jetsetilly/llama/logger"
)

// Architecture selects the CPU variant.
type Architecture int

// List of valid Architecture values.
const (
	ARMv5 Architecture = iota
	ARMv6
)

func (a Architecture) String() string {
	if a == ARMv5 {
		return "ARM9"
	}
	return "ARM11"
}

// instrStatus is the result of one instruction: either execution continues
// with the next instruction in the block or the program counter has been
// replaced.
type instrStatus int

const (
	inBlock instrStatus = iota
	branched
)

// instFn executes one decoded ARM instruction.
type instFn func(arm *ARM, opcode uint32) instrStatus

// thumbFn executes one decoded Thumb instruction.
type thumbFn func(arm *ARM, opcode uint16) instrStatus

// BreakReason is the cause of the CPU exiting Run().
type BreakReason int

// List of valid BreakReason values.
const (
	LimitReached BreakReason = iota
	Breakpoint
	Halt
	Fault
)

func (r BreakReason) String() string {
	switch r {
	case LimitReached:
		return "limit reached"
	case Breakpoint:
		return "breakpoint"
	case Halt:
		return "halt"
	case Fault:
		return "fault"
	}
	return "unknown"
}

// Break is returned by Run(): the reason execution stopped and, for
// halts and faults, the error that unwound the instruction batch.
type Break struct {
	Reason BreakReason
	Error  error
}

// exception vector offsets
const (
	vecSwi = 0x08
	vecIrq = 0x18
)

// ARM is one CPU core.
type ARM struct {
	arch Architecture

	regs Registers
	cpsr PSR

	spsrFiq PSR
	spsrIrq PSR
	spsrSvc PSR
	spsrAbt PSR
	spsrUnd PSR

	mmgr Manager
	cp15 *SysControl

	irqLine *irq.Line
	clk     *clock.Clock

	// decode caches have the same structure as the line caches but are
	// keyed on raw instruction words. decoded functions are pure so the
	// sink is a no-op
	decodeCacheARM   *tinyCache[instFn, *ARM]
	decodeCacheThumb *tinyCache[thumbFn, *ARM]

	// breakpoints are armed so that stepping across one does not
	// immediately re-trigger it
	breakpoints map[uint32]*bool
}

// NewARM is the preferred method of initialisation for the ARM type.
func NewARM(arch Architecture, mmgr Manager, irqLine *irq.Line, clk *clock.Clock) *ARM {
	a := &ARM{
		arch:        arch,
		regs:        NewRegisters(ModeSvc),
		mmgr:        mmgr,
		irqLine:     irqLine,
		clk:         clk,
		breakpoints: make(map[uint32]*bool),
	}

	a.cp15 = NewSysControl()

	a.decodeCacheARM = newTinyCache[instFn, *ARM](
		func(_ *ARM, opcode uint32) instFn {
			return decodeARM(opcode)
		}, nil)
	a.decodeCacheThumb = newTinyCache[thumbFn, *ARM](
		func(_ *ARM, opcode uint32) thumbFn {
			return decodeThumb(uint16(opcode))
		}, nil)

	return a
}

// Reset the CPU to begin execution at the entry point, in supervisor mode
// with interrupts disabled.
func (a *ARM) Reset(entry uint32) {
	a.cpsr.SetMode(ModeSvc)
	a.cpsr.SetThumb(false)
	a.cpsr.SetFiqDisabled(true)
	a.cpsr.SetIrqDisabled(true)
	a.regs.Swap(ModeSvc)
	a.regs.active[rPC] = entry + a.pcOffset()
}

// pcOffset is the distance between the PC register and the address of the
// executing instruction: two instructions ahead in either state.
func (a *ARM) pcOffset() uint32 {
	if a.cpsr.Thumb() {
		return 4
	}
	return 8
}

// branch to the address. the PC register is left pointing two instructions
// ahead, as it does during straight-line execution.
func (a *ARM) branch(addr uint32) {
	a.regs.active[rPC] = addr + a.pcOffset()
}

// currentSPSR returns the saved status register for the current mode.
func (a *ARM) currentSPSR() *PSR {
	switch a.cpsr.Mode() {
	case ModeFiq:
		return &a.spsrFiq
	case ModeIrq:
		return &a.spsrIrq
	case ModeSvc:
		return &a.spsrSvc
	case ModeAbt:
		return &a.spsrAbt
	case ModeUnd:
		return &a.spsrUnd
	}
	panic(curated.Errorf("no SPSR in mode %s", a.cpsr.Mode()))
}

// spsrMakeCurrent copies the current mode's SPSR into the CPSR, swapping
// register banks if the restored mode differs.
func (a *ARM) spsrMakeCurrent() {
	spsr := *a.currentSPSR()
	a.cpsr = spsr
	a.regs.Swap(a.cpsr.Mode())
}

// setCPSR replaces the CPSR wholesale, swapping register banks if the mode
// field changes.
func (a *ARM) setCPSR(v uint32) {
	old := a.cpsr.Mode()
	a.cpsr.SetRaw(v)
	if a.cpsr.Mode() != old {
		a.regs.Swap(a.cpsr.Mode())
	}
}

// vectorBase honours the high-vector control bit of coprocessor 15.
func (a *ARM) vectorBase() uint32 {
	if a.cp15.highVectors {
		return 0xffff0000
	}
	return 0x00000000
}

// enterException switches to the target mode: the CPSR is saved to the
// target mode's SPSR, interrupts are disabled, the return address is
// placed in the banked LR and execution continues at the vector.
func (a *ARM) enterException(returnAddr uint32, mode Mode, vector uint32) {
	spsr := a.cpsr

	a.regs.Swap(mode)
	a.cpsr.SetMode(mode)
	a.cpsr.SetThumb(false)
	a.cpsr.SetIrqDisabled(true)
	if mode == ModeFiq {
		a.cpsr.SetFiqDisabled(true)
	}

	switch mode {
	case ModeFiq:
		a.spsrFiq = spsr
	case ModeIrq:
		a.spsrIrq = spsr
	case ModeSvc:
		a.spsrSvc = spsr
	case ModeAbt:
		a.spsrAbt = spsr
	case ModeUnd:
		a.spsrUnd = spsr
	}

	a.regs.active[rLR] = returnAddr
	a.branch(a.vectorBase() + vector)
}

// enterIrq is called between instructions when the interrupt line is high
// and the I bit is clear.
func (a *ARM) enterIrq() {
	// address of the instruction that would have executed next
	next := a.regs.active[rPC] - a.pcOffset()
	a.enterException(next+4, ModeIrq, vecIrq)
}

// findToggleBreakpoint arms and disarms the breakpoint at the address so
// that resuming from a hit does not immediately hit again.
func (a *ARM) findToggleBreakpoint(addr uint32) bool {
	if triggered, ok := a.breakpoints[addr]; ok {
		*triggered = !*triggered
		return *triggered
	}
	return false
}

// SetBreakpoint adds a breakpoint at the address.
func (a *ARM) SetBreakpoint(addr uint32) {
	f := false
	a.breakpoints[addr] = &f
}

// DelBreakpoint removes the breakpoint at the address.
func (a *ARM) DelBreakpoint(addr uint32) {
	delete(a.breakpoints, addr)
}

// HasBreakpoint returns true if a breakpoint exists at the address.
func (a *ARM) HasBreakpoint(addr uint32) bool {
	_, ok := a.breakpoints[addr]
	return ok
}

// Run executes up to maxInstructions instructions. It returns early on a
// breakpoint, when an unknown instruction halts the stream, or when a
// fatal error (unmapped address, MPU/MMU fault) unwinds the batch.
func (a *ARM) Run(maxInstructions int) (brk Break) {
	executed := 0

	defer func() {
		a.clk.Increment(uint64(executed))

		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok || !curated.IsAny(err) {
				panic(r)
			}
			logger.Logf(a.arch.String(), "%v", err)

			// an instruction word with no variant halts the instruction
			// stream; everything else is a fault
			if curated.Has(err, curated.DecodeUnknown) {
				brk = Break{Reason: Halt, Error: err}
			} else {
				brk = Break{Reason: Fault, Error: err}
			}
		}
	}()

	for ; executed < maxInstructions; executed++ {
		addr := a.regs.active[rPC] - a.pcOffset()

		if a.findToggleBreakpoint(addr) {
			return Break{Reason: Breakpoint}
		}

		if a.irqLine.IsHigh() && !a.cpsr.IrqDisabled() {
			a.enterIrq()
			continue
		}

		var status instrStatus
		if a.cpsr.Thumb() {
			opcode := a.mmgr.ImemRead16(addr)
			fn := a.decodeCacheThumb.getOr(uint32(opcode), a)
			status = (*fn)(a, opcode)
			if status == inBlock {
				a.regs.active[rPC] += 2
			}
		} else {
			opcode := a.mmgr.ImemRead32(addr)
			fn := a.decodeCacheARM.getOr(opcode, a)
			status = (*fn)(a, opcode)
			if status == inBlock {
				a.regs.active[rPC] += 4
			}
		}
	}

	return Break{Reason: LimitReached}
}

// Step executes a single instruction.
func (a *ARM) Step() Break {
	return a.Run(1)
}

// ExecutingPC is the address of the instruction about to execute: the PC
// register less the pipeline offset.
func (a *ARM) ExecutingPC() uint32 {
	return a.regs.active[rPC] - a.pcOffset()
}

// Reg returns the value of the numbered register.
func (a *ARM) Reg(i int) uint32 {
	return a.regs.Reg(i)
}

// SetReg sets the value of the numbered register.
func (a *ARM) SetReg(i int, v uint32) {
	a.regs.SetReg(i, v)
}

// CPSR returns a copy of the current program status register.
func (a *ARM) CPSR() PSR {
	return a.cpsr
}

// SetCPSR replaces the current program status register, swapping register
// banks if the mode changes.
func (a *ARM) SetCPSR(v uint32) {
	a.setCPSR(v)
}

// Mmgr returns the CPU's memory manager.
func (a *ARM) Mmgr() Manager {
	return a.mmgr
}

// Arch returns the CPU variant.
func (a *ARM) Arch() Architecture {
	return a.arch
}

func (a *ARM) String() string {
	s := strings.Builder{}
	for i, r := range a.regs.active {
		if i > 0 {
			if i%4 == 0 {
				s.WriteString("\n")
			} else {
				s.WriteString("\t")
			}
		}
		s.WriteString(fmt.Sprintf("R%-2d: %08x", i, r))
	}
	s.WriteString(fmt.Sprintf("\nCPSR: %s", a.cpsr.String()))
	return s.String()
}
