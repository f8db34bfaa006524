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

func coprocFields(opcode uint32) (crn, crm, op1, op2, cpNum int) {
	crn = int(bitfield.Extract(opcode, 16, 19))
	crm = int(bitfield.Extract(opcode, 0, 3))
	op1 = int(bitfield.Extract(opcode, 21, 23))
	op2 = int(bitfield.Extract(opcode, 5, 7))
	cpNum = int(bitfield.Extract(opcode, 8, 11))
	return crn, crm, op1, op2, cpNum
}

// execMcr writes a register to a coprocessor. The coprocessor returns a
// deferred effect which is applied to the CPU afterwards.
func execMcr(a *ARM, opcode uint32) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	crn, crm, op1, op2, cpNum := coprocFields(opcode)
	if cpNum != 15 {
		panic(curated.Errorf("MCR to unattached coprocessor %d", cpNum))
	}

	srcVal := a.regs.active[dpRd(opcode)]
	effect := a.cp15.MoveIn(crn, crm, op1, op2, srcVal)
	effect(a)

	return inBlock
}

// execMrc reads a coprocessor register. A destination of r15 sets the
// condition flags from the top four bits instead.
func execMrc(a *ARM, opcode uint32) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	crn, crm, op1, op2, cpNum := coprocFields(opcode)
	if cpNum != 15 {
		panic(curated.Errorf("MRC from unattached coprocessor %d", cpNum))
	}

	retval := a.cp15.MoveOut(crn, crm, op1, op2)

	rd := dpRd(opcode)
	if rd == rPC {
		a.cpsr.SetN(bitfield.IsSet(retval, 31))
		a.cpsr.SetZ(bitfield.IsSet(retval, 30))
		a.cpsr.SetC(bitfield.IsSet(retval, 29))
		a.cpsr.SetV(bitfield.IsSet(retval, 28))
	} else {
		a.regs.active[rd] = retval
	}

	return inBlock
}
