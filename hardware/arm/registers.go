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

// register names
const (
	rSP = 13
	rLR = 14
	rPC = 15

	// NumRegisters in the active window
	NumRegisters = 16
)

// Registers is the general purpose register file: the 16 active registers
// and the per-mode shadow banks.
//
// r0 to r7 and the PC are shared by every mode. Fiq shadows r8 to r14; the
// other privileged modes shadow r13 and r14 only.
type Registers struct {
	active [NumRegisters]uint32
	mode   Mode

	basicBank [13]uint32
	usrBank   [2]uint32
	svcBank   [2]uint32
	abtBank   [2]uint32
	undBank   [2]uint32
	irqBank   [2]uint32
	fiqBank   [7]uint32
}

// NewRegisters is the preferred method of initialisation for the Registers
// type.
func NewRegisters(mode Mode) Registers {
	return Registers{mode: mode}
}

// bank returns the list of storage locations for r0-r14 in the specified
// mode, in register order.
func (r *Registers) bank(mode Mode) []*uint32 {
	b := make([]*uint32, 0, 15)

	n := 13
	if mode == ModeFiq {
		n = 8
	}
	for i := 0; i < n; i++ {
		b = append(b, &r.basicBank[i])
	}

	var shadow []uint32
	switch mode {
	case ModeUsr, ModeSys:
		shadow = r.usrBank[:]
	case ModeSvc:
		shadow = r.svcBank[:]
	case ModeAbt:
		shadow = r.abtBank[:]
	case ModeUnd:
		shadow = r.undBank[:]
	case ModeIrq:
		shadow = r.irqBank[:]
	case ModeFiq:
		shadow = r.fiqBank[:]
	}
	for i := range shadow {
		b = append(b, &shadow[i])
	}

	return b
}

// Swap stores the active window into the current mode's bank and loads the
// new mode's bank into the active window. Swapping to the current mode is
// harmless; two swaps through any intermediate mode restore the original
// window.
func (r *Registers) Swap(mode Mode) {
	for i, p := range r.bank(r.mode) {
		*p = r.active[i]
	}
	for i, p := range r.bank(mode) {
		r.active[i] = *p
	}
	r.mode = mode
}

// Reg returns the value of the numbered register in the active window.
func (r *Registers) Reg(i int) uint32 {
	return r.active[i]
}

// SetReg sets the value of the numbered register in the active window.
func (r *Registers) SetReg(i int, v uint32) {
	r.active[i] = v
}
