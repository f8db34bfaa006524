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

package bitfield_test

import (
	"testing"

	"github.com/jetsetilly/llama/bitfield"
	"github.com/jetsetilly/llama/test"
)

func TestExtract(t *testing.T) {
	// field positions from an LDRH instruction: E0D490B4 is
	// LDRH R9, [R4], #4
	test.Equate(t, bitfield.Extract(0xe0d490b4, 28, 31), uint32(0xe))
	test.Equate(t, bitfield.Extract(0xe0d490b4, 16, 19), uint32(4))
	test.Equate(t, bitfield.Extract(0xe0d490b4, 12, 15), uint32(9))
	test.Equate(t, bitfield.Extract(0xe0d490b4, 0, 3), uint32(4))
}

func TestRoundTrip(t *testing.T) {
	v := uint32(0)
	v = bitfield.Insert(v, 0, 4, 0b10011)
	v = bitfield.Insert(v, 5, 5, 1)
	v = bitfield.Insert(v, 28, 31, 0b1010)

	test.Equate(t, bitfield.Extract(v, 0, 4), uint32(0b10011))
	test.Equate(t, bitfield.Extract(v, 5, 5), uint32(1))
	test.Equate(t, bitfield.Extract(v, 28, 31), uint32(0b1010))

	// insertion is masked to the field width
	v = bitfield.Insert(v, 5, 5, 0b10)
	test.Equate(t, bitfield.Extract(v, 5, 5), uint32(0))
	test.Equate(t, bitfield.Extract(v, 0, 4), uint32(0b10011))
}

func TestBit(t *testing.T) {
	test.Equate(t, bitfield.Bit(0x80000000, 31), uint32(1))
	test.Equate(t, bitfield.Bit(0x80000000, 30), uint32(0))
	test.Equate(t, bitfield.IsSet(0x00000020, 5), true)
}

func TestSignExtend(t *testing.T) {
	test.Equate(t, bitfield.SignExtend(0xff, 8), int32(-1))
	test.Equate(t, bitfield.SignExtend(0x7f, 8), int32(127))
	test.Equate(t, bitfield.SignExtend(0x800000, 24), int32(-8388608))
	test.Equate(t, bitfield.SignExtend(0x000400, 11), int32(-1024))
}
