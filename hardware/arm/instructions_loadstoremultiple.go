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

package arm

import (
	"math/bits"

	"github.com/jetsetilly/llama/bitfield"
)

// lsmAddresses resolves the four LDM/STM addressing modes into the address
// of the lowest-numbered register and the base writeback value. Registers
// always transfer lowest-numbered-first at the lowest address.
func lsmAddresses(pBit, uBit, wBit bool, rnVal uint32, numRegisters uint32) (uint32, uint32) {
	var addr, wb uint32

	switch {
	case !pBit && uBit: // increment after
		addr = rnVal
		wb = rnVal + numRegisters*4
	case pBit && uBit: // increment before
		addr = rnVal + 4
		wb = rnVal + numRegisters*4
	case !pBit && !uBit: // decrement after
		addr = rnVal - numRegisters*4 + 4
		wb = rnVal - numRegisters*4
	case pBit && !uBit: // decrement before
		addr = rnVal - numRegisters*4
		wb = rnVal - numRegisters*4
	}

	if !wBit {
		return addr, rnVal
	}
	return addr, wb
}

func (a *ARM) lsmDecode(opcode uint32) (uint32, uint32) {
	registerList := bitfield.Extract(opcode, 0, 15)
	numRegisters := uint32(bits.OnesCount32(registerList))
	rnVal := a.regs.active[dpRn(opcode)]

	return lsmAddresses(lsPBit(opcode), lsUBit(opcode), lsWBit(opcode), rnVal, numRegisters)
}

// execLdm1 is the plain load-multiple.
//
// The base writeback is performed before each load so that, per the ARMv5
// architecture, a base register that also appears in the register list
// finishes with the loaded value rather than the writeback value.
func execLdm1(a *ARM, opcode uint32) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	addr, writeback := a.lsmDecode(opcode)
	registerList := bitfield.Extract(opcode, 0, 15)

	for i := 0; i < 15; i++ {
		if bitfield.IsSet(registerList, uint(i)) {
			a.regs.active[dpRn(opcode)] = writeback
			a.regs.active[i] = a.mmgr.DmemRead32(addr)
			addr += 4
		}
	}

	if bitfield.IsSet(registerList, 15) {
		a.regs.active[dpRn(opcode)] = writeback
		val := a.mmgr.DmemRead32(addr)
		a.cpsr.SetThumb(bitfield.IsSet(val, 0))
		a.branch(val &^ 1)
		return branched
	}
	return inBlock
}

// execLdm2 loads user-mode registers from a privileged mode: the user bank
// is swapped in for the duration of the transfer.
func execLdm2(a *ARM, opcode uint32) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	addr, _ := a.lsmDecode(opcode)
	registerList := bitfield.Extract(opcode, 0, 15)

	currentMode := a.cpsr.Mode()
	a.regs.Swap(ModeUsr)
	for i := 0; i < 15; i++ {
		if bitfield.IsSet(registerList, uint(i)) {
			a.regs.active[i] = a.mmgr.DmemRead32(addr)
			addr += 4
		}
	}
	a.regs.Swap(currentMode)
	return inBlock
}

// execLdm3 is the exception-return form: registers are loaded, the SPSR is
// restored into the CPSR and execution continues at the loaded PC.
func execLdm3(a *ARM, opcode uint32) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	addr, writeback := a.lsmDecode(opcode)
	registerList := bitfield.Extract(opcode, 0, 15)

	for i := 0; i < 15; i++ {
		if bitfield.IsSet(registerList, uint(i)) {
			a.regs.active[dpRn(opcode)] = writeback
			a.regs.active[i] = a.mmgr.DmemRead32(addr)
			addr += 4
		}
	}

	a.spsrMakeCurrent()
	dest := a.mmgr.DmemRead32(addr)
	a.branch(dest &^ 1)
	return branched
}

func execStm1(a *ARM, opcode uint32) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	addr, writeback := a.lsmDecode(opcode)
	registerList := bitfield.Extract(opcode, 0, 15)

	for i := 0; i < 16; i++ {
		if bitfield.IsSet(registerList, uint(i)) {
			a.mmgr.DmemWrite32(addr, a.regs.active[i])
			addr += 4
		}
	}

	if lsWBit(opcode) {
		a.regs.active[dpRn(opcode)] = writeback
	}
	return inBlock
}

// execStm2 stores user-mode registers from a privileged mode.
func execStm2(a *ARM, opcode uint32) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	addr, _ := a.lsmDecode(opcode)
	registerList := bitfield.Extract(opcode, 0, 15)

	currentMode := a.cpsr.Mode()
	a.regs.Swap(ModeUsr)
	for i := 0; i < 16; i++ {
		if bitfield.IsSet(registerList, uint(i)) {
			a.mmgr.DmemWrite32(addr, a.regs.active[i])
			addr += 4
		}
	}
	a.regs.Swap(currentMode)
	return inBlock
}
