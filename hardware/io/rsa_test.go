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

package io

import (
	"testing"

	"github.com/jetsetilly/llama/bitfield"
	"github.com/jetsetilly/llama/test"
)

func TestRsaModExp(t *testing.T) {
	dev := NewRsaDevice()

	// keyslot 0: modulus 7, exponent 3, message 5. all buffers are big
	// endian with the value in the last byte
	var word [0x100]byte

	word[0xff] = 7
	dev.WriteRegister(0x400, word[:])

	// the exponent arrives through the fifo, 4 bytes at a time
	word[0xff] = 3
	for i := 0; i < 0x100; i += 4 {
		dev.WriteRegister(0x200, word[i:i+4])
	}

	// the slot is ready once the full exponent has arrived
	test.Equate(t, bitfield.IsSet(readReg32(dev.Device, 0x100), rsaSlotKeySet), true)

	word[0xff] = 5
	dev.WriteRegister(0x800, word[:])

	// start: little-endian and normal-order bits set means no swizzling
	writeReg32(dev.Device, 0x000,
		1<<rsaCntBusy|1<<rsaCntLittleEndian|1<<rsaCntNormalOrder)

	// busy clears when the arithmetic is done
	test.Equate(t, bitfield.IsSet(readReg32(dev.Device, 0x000), rsaCntBusy), false)

	// 5^3 mod 7 == 6
	var result [0x100]byte
	dev.ReadRegister(0x800, result[:])
	test.Equate(t, result[0xff], uint8(6))
	test.Equate(t, result[0xfe], uint8(0))
}

func TestRsaEvenModulus(t *testing.T) {
	dev := NewRsaDevice()

	var word [0x100]byte
	word[0xff] = 8 // even modulus
	dev.WriteRegister(0x400, word[:])

	word[0xff] = 3
	for i := 0; i < 0x100; i += 4 {
		dev.WriteRegister(0x200, word[i:i+4])
	}

	word[0xff] = 5
	dev.WriteRegister(0x800, word[:])

	writeReg32(dev.Device, 0x000,
		1<<rsaCntBusy|1<<rsaCntLittleEndian|1<<rsaCntNormalOrder)

	// the hardware outputs zero for even moduli
	var result [0x100]byte
	dev.ReadRegister(0x800, result[:])
	for i := range result {
		if result[i] != 0 {
			t.Fatalf("expected a zero result for an even modulus")
		}
	}
}

func TestRsaSlotReset(t *testing.T) {
	dev := NewRsaDevice()

	var word [0x100]byte
	for i := 0; i < 0x100; i += 4 {
		dev.WriteRegister(0x200, word[i:i+4])
	}
	test.Equate(t, bitfield.IsSet(readReg32(dev.Device, 0x100), rsaSlotKeySet), true)

	// clearing the key-set bit resets the slot
	writeReg32(dev.Device, 0x100, 0)
	test.Equate(t, bitfield.IsSet(readReg32(dev.Device, 0x100), rsaSlotKeySet), false)
}
