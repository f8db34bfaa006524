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
	"testing"

	"github.com/jetsetilly/llama/test"
)

func TestSwapRoundTrip(t *testing.T) {
	regs := NewRegisters(ModeSvc)

	for i := 0; i < NumRegisters; i++ {
		regs.SetReg(i, uint32(0x100+i))
	}

	// swap(a); swap(b); swap(a) restores the original window when no
	// writes occur between swaps
	regs.Swap(ModeIrq)
	regs.Swap(ModeFiq)
	regs.Swap(ModeSvc)

	for i := 0; i < NumRegisters; i++ {
		test.Equate(t, regs.Reg(i), uint32(0x100+i))
	}
}

func TestSwapSelfInverse(t *testing.T) {
	regs := NewRegisters(ModeSvc)
	regs.SetReg(13, 0xaaaa5555)

	// swapping to the current mode twice is the identity
	regs.Swap(ModeSvc)
	regs.Swap(ModeSvc)
	test.Equate(t, regs.Reg(13), uint32(0xaaaa5555))
}

func TestBankedRegisters(t *testing.T) {
	regs := NewRegisters(ModeSvc)

	regs.SetReg(13, 0x1000) // svc stack
	regs.SetReg(8, 0x8888)  // shared with non-fiq modes

	regs.Swap(ModeIrq)
	regs.SetReg(13, 0x2000) // irq stack

	// r8 is shared between svc and irq
	test.Equate(t, regs.Reg(8), uint32(0x8888))

	regs.Swap(ModeFiq)
	// fiq banks r8-r14: the shared value is hidden
	test.Equate(t, regs.Reg(8), uint32(0))
	test.Equate(t, regs.Reg(13), uint32(0))
	regs.SetReg(8, 0xf1f1)

	regs.Swap(ModeSvc)
	test.Equate(t, regs.Reg(13), uint32(0x1000))
	test.Equate(t, regs.Reg(8), uint32(0x8888))

	regs.Swap(ModeIrq)
	test.Equate(t, regs.Reg(13), uint32(0x2000))

	regs.Swap(ModeFiq)
	test.Equate(t, regs.Reg(8), uint32(0xf1f1))
}

func TestUsrSysShareBank(t *testing.T) {
	regs := NewRegisters(ModeUsr)
	regs.SetReg(13, 0x3000)

	regs.Swap(ModeSys)
	test.Equate(t, regs.Reg(13), uint32(0x3000))

	regs.Swap(ModeSvc)
	test.Equate(t, regs.Reg(13), uint32(0))

	regs.Swap(ModeUsr)
	test.Equate(t, regs.Reg(13), uint32(0x3000))
}
