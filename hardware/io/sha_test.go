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
	"crypto/sha1"
	"crypto/sha256"
	"testing"

	"github.com/jetsetilly/llama/test"
)

func TestShaStreaming(t *testing.T) {
	dev := NewShaDevice()

	// start hashing in SHA-256 mode
	writeReg32(dev.Device, 0x000, 1<<shaCntBusy|1<<shaCntBigEndian)

	// feed the message through the fifo window in two pieces
	dev.WriteRegister(0x080, []byte("ab"))
	dev.WriteRegister(0x080, []byte("c"))

	// final round latches the digest
	writeReg32(dev.Device, 0x000, 1<<shaCntFinalRound|1<<shaCntBigEndian)

	var digest [32]byte
	dev.ReadRegister(0x040, digest[:])

	want := sha256.Sum256([]byte("abc"))
	test.Equate(t, digest, want)
}

func TestShaModes(t *testing.T) {
	dev := NewShaDevice()

	// mode field 0b10 selects SHA-1
	writeReg32(dev.Device, 0x000, 1<<shaCntBusy|0b10<<shaCntHashModeLo|1<<shaCntBigEndian)
	dev.WriteRegister(0x080, []byte("abc"))
	writeReg32(dev.Device, 0x000, 1<<shaCntFinalRound|0b10<<shaCntHashModeLo|1<<shaCntBigEndian)

	var digest [20]byte
	dev.ReadRegister(0x040, digest[:])

	want := sha1.Sum([]byte("abc"))
	test.Equate(t, digest, want)
}
