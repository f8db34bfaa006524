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
	"hash"

	"github.com/jetsetilly/llama/bitfield"
)

// SHA CNT register fields
const (
	shaCntBusy       = 0
	shaCntFinalRound = 1
	shaCntBigEndian  = 3
	shaCntHashModeLo = 4
	shaCntHashModeHi = 5
	shaCntClearFifo  = 8
)

// ShaDevice is the streaming hash engine. Data is fed through the 64 byte
// fifo window; the digest is latched on the final-round write and read back
// through the hash window.
type ShaDevice struct {
	*Device

	hasher hash.Hash
	digest [32]byte

	cnt *Reg
}

// NewShaDevice is the preferred method of initialisation for the ShaDevice
// type.
func NewShaDevice() *ShaDevice {
	dev := &ShaDevice{
		Device: NewDevice("SHA"),
	}

	dev.cnt = dev.Reg32(0x000, 0, 0xffffffff, nil, dev.cntWrite)
	dev.Reg32(0x004, 0, 0xffffffff, nil, nil) // blk_cnt

	// digest window
	dev.Range(0x040, 0x20, func(pos uint32, buf []byte) {
		copy(buf, dev.digest[pos:])
	}, nil)

	// input fifo window. the engine is also a DMA destination through this
	// window; reads return zeroes
	dev.Range(0x080, 0x40,
		func(pos uint32, buf []byte) {
			for i := range buf {
				buf[i] = 0
			}
		},
		func(pos uint32, buf []byte) {
			if dev.hasher != nil {
				dev.hasher.Write(buf)
			}
		})

	return dev
}

func (dev *ShaDevice) cntWrite() {
	cnt := dev.cnt.Get()

	if bitfield.IsSet(cnt, shaCntFinalRound) {
		if dev.hasher != nil {
			sum := dev.hasher.Sum(nil)
			dev.digest = [32]byte{}
			copy(dev.digest[:], sum)
		}
		cnt = bitfield.Insert(cnt, shaCntFinalRound, shaCntFinalRound, 0)
		dev.cnt.SetUnchecked(cnt)
	}

	if !bitfield.IsSet(cnt, shaCntBusy) {
		dev.hasher = nil
	} else if dev.hasher == nil {
		switch bitfield.Extract(cnt, shaCntHashModeLo, shaCntHashModeHi) {
		case 0b00:
			dev.hasher = sha256.New()
		case 0b01:
			dev.hasher = sha256.New224()
		default:
			dev.hasher = sha1.New()
		}
	}

	// busy does not latch: the engine accepts data until told otherwise
	dev.cnt.SetUnchecked(bitfield.Insert(dev.cnt.Get(), shaCntBusy, shaCntBusy, 0))
}
