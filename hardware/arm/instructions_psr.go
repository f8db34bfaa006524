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
	"github.com/jetsetilly/llama/logger"
)

// execMrs copies the CPSR or the current SPSR into a register.
func execMrs(a *ARM, opcode uint32) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	rd := dpRd(opcode)
	if bitfield.IsSet(opcode, 22) {
		a.regs.active[rd] = a.currentSPSR().Raw()
	} else {
		a.regs.active[rd] = a.cpsr.Raw()
	}
	return inBlock
}

// instrMsr writes to the CPSR or the current SPSR, masked by the field
// mask. A CPSR write takes every byte the field mask selects and applies
// no privilege check; an SPSR write is further limited to the user,
// privileged and state masks. A write that changes the mode field swaps
// the register banks.
func instrMsr(a *ARM, opcode uint32, immediate bool) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	fieldMask := bitfield.Extract(opcode, 16, 19)
	shifterOperand := bitfield.Extract(opcode, 0, 11)

	var val uint32
	if immediate {
		immed8 := bitfield.Extract(shifterOperand, 0, 7)
		rotate := bitfield.Extract(shifterOperand, 8, 11)
		val = bits.RotateLeft32(immed8, -int(rotate*2))
	} else {
		val = a.regs.active[bitfield.Extract(shifterOperand, 0, 3)]
	}

	const (
		unallocMask = 0x07ffff00
		userMask    = 0xf8000000
		privMask    = 0x0000000f
		stateMask   = 0x00000020
	)

	if val&unallocMask != 0 {
		logger.Log(a.arch.String(), "MSR write to reserved PSR bits")
	}

	var byteMask uint32
	for i := uint(0); i < 4; i++ {
		if bitfield.IsSet(fieldMask, i) {
			byteMask |= 0xff << (i * 8)
		}
	}

	if !bitfield.IsSet(opcode, 22) {
		// CPSR
		cleared := a.cpsr.Raw() &^ byteMask
		a.cpsr.SetRaw(cleared | val&byteMask)

		if bitfield.IsSet(fieldMask, 0) {
			// the mode field may have changed
			a.regs.Swap(a.cpsr.Mode())
		}
	} else {
		// SPSR
		spsr := a.currentSPSR()
		byteMask &= userMask | privMask | stateMask

		cleared := spsr.Raw() &^ byteMask
		spsr.SetRaw(cleared | val&byteMask)
	}

	return inBlock
}

func execMsr1(a *ARM, opcode uint32) instrStatus {
	return instrMsr(a, opcode, true)
}

func execMsr2(a *ARM, opcode uint32) instrStatus {
	return instrMsr(a, opcode, false)
}
