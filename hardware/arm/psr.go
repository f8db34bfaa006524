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
	"fmt"
	"strings"

	"github.com/jetsetilly/llama/bitfield"
)

// Mode is the processor mode held in the low five bits of the CPSR.
type Mode uint32

// List of valid Mode values.
const (
	ModeUsr Mode = 0b10000
	ModeFiq Mode = 0b10001
	ModeIrq Mode = 0b10010
	ModeSvc Mode = 0b10011
	ModeAbt Mode = 0b10111
	ModeUnd Mode = 0b11011
	ModeSys Mode = 0b11111
)

func (m Mode) String() string {
	switch m {
	case ModeUsr:
		return "usr"
	case ModeFiq:
		return "fiq"
	case ModeIrq:
		return "irq"
	case ModeSvc:
		return "svc"
	case ModeAbt:
		return "abt"
	case ModeUnd:
		return "und"
	case ModeSys:
		return "sys"
	}
	return fmt.Sprintf("bad mode %05b", uint32(m))
}

// PSR field positions
const (
	psrModeLo = 0
	psrModeHi = 4
	psrThumb  = 5
	psrFiq    = 6
	psrIrq    = 7
	psrQ      = 27
	psrV      = 28
	psrC      = 29
	psrZ      = 30
	psrN      = 31
)

// PSR is a program status register: the CPSR or one of the banked SPSRs.
type PSR struct {
	value uint32
}

// Raw returns the 32 bit register value.
func (psr PSR) Raw() uint32 {
	return psr.value
}

// SetRaw replaces the 32 bit register value.
func (psr *PSR) SetRaw(v uint32) {
	psr.value = v
}

// Mode returns the processor mode field.
func (psr PSR) Mode() Mode {
	return Mode(bitfield.Extract(psr.value, psrModeLo, psrModeHi))
}

// SetMode replaces the processor mode field.
func (psr *PSR) SetMode(m Mode) {
	psr.value = bitfield.Insert(psr.value, psrModeLo, psrModeHi, uint32(m))
}

// Thumb returns the state of the T bit.
func (psr PSR) Thumb() bool {
	return bitfield.IsSet(psr.value, psrThumb)
}

// SetThumb sets the T bit.
func (psr *PSR) SetThumb(t bool) {
	psr.value = bitfield.Insert(psr.value, psrThumb, psrThumb, boolBit(t))
}

// FiqDisabled returns the state of the F bit.
func (psr PSR) FiqDisabled() bool {
	return bitfield.IsSet(psr.value, psrFiq)
}

// SetFiqDisabled sets the F bit.
func (psr *PSR) SetFiqDisabled(f bool) {
	psr.value = bitfield.Insert(psr.value, psrFiq, psrFiq, boolBit(f))
}

// IrqDisabled returns the state of the I bit.
func (psr PSR) IrqDisabled() bool {
	return bitfield.IsSet(psr.value, psrIrq)
}

// SetIrqDisabled sets the I bit.
func (psr *PSR) SetIrqDisabled(i bool) {
	psr.value = bitfield.Insert(psr.value, psrIrq, psrIrq, boolBit(i))
}

// Saturation flag.
func (psr PSR) Q() bool { return bitfield.IsSet(psr.value, psrQ) }

// Overflow flag.
func (psr PSR) V() bool { return bitfield.IsSet(psr.value, psrV) }

// Carry flag.
func (psr PSR) C() bool { return bitfield.IsSet(psr.value, psrC) }

// Zero flag.
func (psr PSR) Z() bool { return bitfield.IsSet(psr.value, psrZ) }

// Negative flag.
func (psr PSR) N() bool { return bitfield.IsSet(psr.value, psrN) }

// SetQ sets the saturation flag.
func (psr *PSR) SetQ(b bool) { psr.value = bitfield.Insert(psr.value, psrQ, psrQ, boolBit(b)) }

// SetV sets the overflow flag.
func (psr *PSR) SetV(b bool) { psr.value = bitfield.Insert(psr.value, psrV, psrV, boolBit(b)) }

// SetC sets the carry flag.
func (psr *PSR) SetC(b bool) { psr.value = bitfield.Insert(psr.value, psrC, psrC, boolBit(b)) }

// SetZ sets the zero flag.
func (psr *PSR) SetZ(b bool) { psr.value = bitfield.Insert(psr.value, psrZ, psrZ, boolBit(b)) }

// SetN sets the negative flag.
func (psr *PSR) SetN(b bool) { psr.value = bitfield.Insert(psr.value, psrN, psrN, boolBit(b)) }

// SetNZ sets the negative and zero flags from a result value.
func (psr *PSR) SetNZ(result uint32) {
	psr.SetN(result&0x80000000 == 0x80000000)
	psr.SetZ(result == 0)
}

func (psr PSR) String() string {
	s := strings.Builder{}
	flag := func(set bool, r rune) {
		if set {
			s.WriteRune(r - 32)
		} else {
			s.WriteRune(r)
		}
	}
	flag(psr.N(), 'n')
	flag(psr.Z(), 'z')
	flag(psr.C(), 'c')
	flag(psr.V(), 'v')
	flag(psr.Q(), 'q')
	if psr.Thumb() {
		s.WriteString(" thumb")
	}
	s.WriteString(" " + psr.Mode().String())
	return s.String()
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
