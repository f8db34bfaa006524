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
	"github.com/jetsetilly/llama/bitfield"
	"github.com/jetsetilly/llama/curated"
)

// instrBranchExchange is BX and BLX(2): the T bit follows bit zero of the
// target address.
func instrBranchExchange(a *ARM, opcode uint32, link bool) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	addr := a.regs.active[bitfield.Extract(opcode, 0, 3)]

	if link {
		a.regs.active[rLR] = a.regs.active[rPC] - 4
	}

	a.cpsr.SetThumb(bitfield.IsSet(addr, 0))
	a.branch(addr &^ 1)
	return branched
}

// execBbl is B and BL.
func execBbl(a *ARM, opcode uint32) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	signedImm24 := bitfield.Extract(opcode, 0, 23)

	if bitfield.IsSet(opcode, 24) {
		a.regs.active[rLR] = a.regs.active[rPC] - 4
	}

	pc := a.regs.active[rPC]
	a.branch(uint32(int32(pc) + bitfield.SignExtend(signedImm24, 24)<<2))
	return branched
}

func execBx(a *ARM, opcode uint32) instrStatus {
	return instrBranchExchange(a, opcode, false)
}

func execBlx2(a *ARM, opcode uint32) instrStatus {
	return instrBranchExchange(a, opcode, true)
}

// execModBlx is the immediate form of BLX: unconditional, always switches
// to Thumb state, with the H bit giving a halfword offset.
func execModBlx(a *ARM, opcode uint32) instrStatus {
	signedImm24 := bitfield.Extract(opcode, 0, 23)
	hBit := bitfield.Bit(opcode, 24)

	a.regs.active[rLR] = a.regs.active[rPC] - 4
	a.cpsr.SetThumb(true)

	pc := a.regs.active[rPC]
	a.branch(uint32(int32(pc)+bitfield.SignExtend(signedImm24, 24)<<2) + hBit<<1)
	return branched
}

// execSwi enters supervisor mode through the SWI vector.
func execSwi(a *ARM, opcode uint32) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	nextInstr := a.regs.active[rPC] - a.pcOffset()/2
	a.enterException(nextInstr, ModeSvc, vecSwi)
	return branched
}

// execBkpt is reached only through the Thumb BKPT delegation; the ARM
// encoding itself is not in the decode table.
func execBkpt(a *ARM, opcode uint32) instrStatus {
	immedLo := bitfield.Extract(opcode, 0, 3)
	immedHi := bitfield.Extract(opcode, 8, 19)
	panic(curated.Errorf("breakpoint instruction #%d at %08x", immedLo|immedHi<<4, a.ExecutingPC()))
}
