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
	"math/big"

	"github.com/jetsetilly/llama/bitfield"
	"github.com/jetsetilly/llama/logger"
)

// RSA CNT register fields
const (
	rsaCntBusy         = 0
	rsaCntKeyslotLo    = 4
	rsaCntKeyslotHi    = 5
	rsaCntLittleEndian = 8
	rsaCntNormalOrder  = 9
)

// RSA SLOTCNT register fields
const (
	rsaSlotKeySet  = 0
	rsaSlotKeyProt = 1
)

type rsaKeyslot struct {
	writePos int
	exponent [0x100]byte
	modulus  [0x100]byte
	ready    bool
}

// RsaDevice is the modular exponentiation engine.
type RsaDevice struct {
	*Device

	slots   [4]rsaKeyslot
	message [0x100]byte

	cnt     *Reg
	slotCnt [4]*Reg
	slotLen [4]*Reg
}

// NewRsaDevice is the preferred method of initialisation for the RsaDevice
// type.
func NewRsaDevice() *RsaDevice {
	dev := &RsaDevice{
		Device: NewDevice("RSA"),
	}

	dev.cnt = dev.Reg32(0x000, 0, 0xffffffff, nil, dev.cntWrite)
	dev.Reg32(0x0f0, 0, 0xffffffff, nil, nil)

	for i := 0; i < 4; i++ {
		i := i
		dev.slotCnt[i] = dev.Reg32(uint32(0x100+i*0x10), 0, 0xffffffff,
			func() { dev.slotCntRead(i) },
			func() { dev.slotCntWrite(i) })
		dev.slotLen[i] = dev.Reg32(uint32(0x104+i*0x10), 0x40, 0xffffffff, nil, nil)
	}

	// exponent fifo. write only, in 4 byte pieces
	dev.Range(0x200, 0x100, nil, dev.expWrite)

	// modulus window for the active keyslot
	dev.Range(0x400, 0x100,
		func(pos uint32, buf []byte) {
			copy(buf, dev.slots[dev.activeKeyslot()].modulus[pos:])
		},
		func(pos uint32, buf []byte) {
			copy(dev.slots[dev.activeKeyslot()].modulus[pos:], buf)
		})

	// message window
	dev.Range(0x800, 0x100,
		func(pos uint32, buf []byte) {
			copy(buf, dev.message[pos:])
		},
		func(pos uint32, buf []byte) {
			copy(dev.message[pos:], buf)
		})

	return dev
}

func (dev *RsaDevice) activeKeyslot() int {
	return int(bitfield.Extract(dev.cnt.Get(), rsaCntKeyslotLo, rsaCntKeyslotHi))
}

func (dev *RsaDevice) slotCntRead(i int) {
	v := dev.slotCnt[i].Get()
	v = bitfield.Insert(v, rsaSlotKeySet, rsaSlotKeySet, b2u(dev.slots[i].ready))
	dev.slotCnt[i].SetUnchecked(v)
}

func (dev *RsaDevice) slotCntWrite(i int) {
	// clearing the key-set bit resets the slot so a new exponent can be
	// streamed in
	if dev.slots[i].ready && !bitfield.IsSet(dev.slotCnt[i].Get(), rsaSlotKeySet) {
		dev.slots[i].ready = false
		dev.slots[i].writePos = 0
	}
}

// expWrite streams exponent words into the active keyslot. the slot is
// ready once all 0x100 bytes have arrived.
func (dev *RsaDevice) expWrite(pos uint32, buf []byte) {
	slot := &dev.slots[dev.activeKeyslot()]

	if bitfield.IsSet(dev.slotCnt[dev.activeKeyslot()].Get(), rsaSlotKeyProt) {
		logger.Log("RSA", "exponent write to protected keyslot")
		return
	}

	if slot.writePos == 0 {
		slot.exponent = [0x100]byte{}
	}

	for len(buf) > 0 && slot.writePos < 0x100 {
		n := copy(slot.exponent[slot.writePos:], buf)
		slot.writePos += n
		buf = buf[n:]
	}

	if slot.writePos >= 0x100 {
		slot.ready = true
	}
}

// wordSwap reverses the order of the 4 byte words in the buffer.
func wordSwap(buf []byte) {
	for i, j := 0, len(buf)-4; i < j; i, j = i+4, j-4 {
		for k := 0; k < 4; k++ {
			buf[i+k], buf[j+k] = buf[j+k], buf[i+k]
		}
	}
}

// byteSwapInner reverses the bytes within each 4 byte word.
func byteSwapInner(buf []byte) {
	for i := 0; i < len(buf); i += 4 {
		buf[i], buf[i+1], buf[i+2], buf[i+3] = buf[i+3], buf[i+2], buf[i+1], buf[i]
	}
}

// cntWrite starts the exponentiation: message = message^exponent mod
// modulus, with pre and post swizzles selected by the endian and word order
// bits.
func (dev *RsaDevice) cntWrite() {
	cnt := dev.cnt.Get()
	if !bitfield.IsSet(cnt, rsaCntBusy) {
		return
	}

	keyslot := dev.activeKeyslot()
	slot := &dev.slots[keyslot]
	if !slot.ready {
		logger.Logf("RSA", "keyslot %d used before exponent committed", keyslot)
	}

	base := make([]byte, 0x100)
	exponent := make([]byte, 0x100)
	modulus := make([]byte, 0x100)
	copy(base, dev.message[:])
	copy(exponent, slot.exponent[:])
	copy(modulus, slot.modulus[:])

	if !bitfield.IsSet(cnt, rsaCntLittleEndian) {
		byteSwapInner(modulus)
		byteSwapInner(base)
		byteSwapInner(exponent)
	}
	if !bitfield.IsSet(cnt, rsaCntNormalOrder) {
		wordSwap(modulus)
		wordSwap(base)
	}

	b := new(big.Int).SetBytes(base)
	e := new(big.Int).SetBytes(exponent)
	m := new(big.Int).SetBytes(modulus)

	// the hardware outputs zero for even moduli
	if m.Bit(0) == 0 {
		b.SetInt64(0)
	}

	var res *big.Int
	if m.Sign() == 0 {
		res = new(big.Int)
	} else {
		res = new(big.Int).Exp(b, e, m)
	}

	dev.message = [0x100]byte{}
	res.FillBytes(dev.message[:])

	if !bitfield.IsSet(cnt, rsaCntLittleEndian) {
		byteSwapInner(dev.message[:])
	}
	if !bitfield.IsSet(cnt, rsaCntNormalOrder) {
		wordSwap(dev.message[:])
	}

	dev.cnt.SetUnchecked(bitfield.Insert(dev.cnt.Get(), rsaCntBusy, rsaCntBusy, 0))
}
