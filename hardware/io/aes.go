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
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"os"

	"github.com/jetsetilly/llama/bitfield"
	"github.com/jetsetilly/llama/logger"
	"github.com/jetsetilly/llama/paths"
)

// AES CNT register fields
const (
	aesCntFifoInCountLo  = 0
	aesCntFifoInCountHi  = 4
	aesCntFifoOutCountLo = 5
	aesCntFifoOutCountHi = 9
	aesCntOutBigEndian   = 22
	aesCntInBigEndian    = 23
	aesCntOutNormalOrder = 24
	aesCntInNormalOrder  = 25
	aesCntUpdateKeyslot  = 26
	aesCntModeLo         = 27
	aesCntModeHi         = 29
	aesCntEnableIrq      = 30
	aesCntBusy           = 31
)

// AES KEYCNT register fields
const (
	aesKeyCntKeyslotLo      = 0
	aesKeyCntKeyslotHi      = 5
	aesKeyCntForceDsiKeygen = 6
	aesKeyCntFifoFlush      = 7
)

const aesNumKeyslots = 0x40

// aesKey is a 128 bit AES key.
type aesKey [0x10]byte

// the key derivation arithmetic works on the key as a big-endian 128 bit
// integer, represented as a high and low 64 bit pair.
type u128 struct {
	hi, lo uint64
}

func (k aesKey) int() u128 {
	return u128{
		hi: binary.BigEndian.Uint64(k[0:8]),
		lo: binary.BigEndian.Uint64(k[8:16]),
	}
}

func (v u128) key() aesKey {
	var k aesKey
	binary.BigEndian.PutUint64(k[0:8], v.hi)
	binary.BigEndian.PutUint64(k[8:16], v.lo)
	return k
}

func (v u128) xor(o u128) u128 {
	return u128{hi: v.hi ^ o.hi, lo: v.lo ^ o.lo}
}

func (v u128) add(o u128) u128 {
	lo := v.lo + o.lo
	hi := v.hi + o.hi
	if lo < v.lo {
		hi++
	}
	return u128{hi: hi, lo: lo}
}

func (v u128) rotl(n uint) u128 {
	n %= 128
	if n == 0 {
		return v
	}
	if n == 64 {
		return u128{hi: v.lo, lo: v.hi}
	}
	if n > 64 {
		v = u128{hi: v.lo, lo: v.hi}
		n -= 64
	}
	return u128{
		hi: v.hi<<n | v.lo>>(64-n),
		lo: v.lo<<n | v.hi>>(64-n),
	}
}

func (v u128) rotr(n uint) u128 {
	return v.rotl(128 - n%128)
}

// scrambleKey combines a keyX/keyY pair into the normal key for a slot.
// the dsi argument selects the alternative derivation used by the
// backwards-compatible keyslots.
func scrambleKey(keyx, keyy aesKey, dsi bool) aesKey {
	x := keyx.int()
	y := keyy.int()

	if dsi {
		c := u128{hi: 0xfffefb4e29590258, lo: 0x2a680f5f1a4f3e79}
		return x.xor(y).add(c).rotl(42).key()
	}

	c := u128{hi: 0x1ff9e9aac5fe0408, lo: 0x024591dc5d52768a}
	return x.rotl(2).xor(y).add(c).rotr(41).key()
}

// keyFifoState accumulates the four words of a key written through one of
// the key fifos.
type keyFifoState struct {
	pos int
	buf aesKey
}

// ecb adapts the raw block cipher to the same interface as the cipher
// stream/block modes.
type ecb struct {
	block   cipher.Block
	encrypt bool
}

func (e *ecb) crypt(dst, src []byte) {
	if e.encrypt {
		e.block.Encrypt(dst, src)
	} else {
		e.block.Decrypt(dst, src)
	}
}

// AesDevice is the command-driven AES engine.
type AesDevice struct {
	*Device

	activeKeyslot int
	blocksLeft    int

	// the active cipher process. nil when the engine is idle. processes one
	// 16 byte block at a time
	process func(dst, src []byte)

	keySlots  [aesNumKeyslots]aesKey
	keyxSlots [aesNumKeyslots]aesKey

	keyFifo  keyFifoState
	keyxFifo keyFifoState
	keyyFifo keyFifoState

	fifoIn  *fifo
	fifoOut *fifo
	ctr     [0x10]byte

	cnt       *Reg
	blkCnt    *Reg
	macBlkCnt *Reg
	regFifoIn *Reg
	regFifoOut *Reg
	keySel    *Reg
	keyCnt    *Reg
	regKeyFifo  *Reg
	regKeyxFifo *Reg
	regKeyyFifo *Reg
}

// NewAesDevice is the preferred method of initialisation for the AesDevice
// type.
func NewAesDevice() *AesDevice {
	dev := &AesDevice{
		Device:  NewDevice("AES"),
		fifoIn:  newFifo(16),
		fifoOut: newFifo(16),
	}

	dev.loadKeys()

	dev.cnt = dev.Reg32(0x000, 0, 0b11111111110111111111110000000000, dev.cntRead, dev.cntWrite)
	dev.macBlkCnt = dev.Reg16(0x004, 0, 0xffff, nil, nil)
	dev.blkCnt = dev.Reg16(0x006, 0, 0xffff, nil, nil)
	dev.regFifoIn = dev.Reg32(0x008, 0, 0xffffffff, nil, dev.fifoInWrite)
	dev.regFifoOut = dev.Reg32(0x00c, 0, 0, dev.fifoOutRead, nil)
	dev.keySel = dev.Reg8(0x010, 0, 0xff, nil, nil)
	dev.keyCnt = dev.Reg8(0x011, 0, 0xff, nil, dev.keyCntWrite)

	dev.regKeyFifo = dev.Reg32(0x100, 0, 0xffffffff, nil, func() { dev.keyFifoWrite(&dev.keyFifo, dev.regKeyFifo) })
	dev.regKeyxFifo = dev.Reg32(0x104, 0, 0xffffffff, nil, func() { dev.keyFifoWrite(&dev.keyxFifo, dev.regKeyxFifo) })
	dev.regKeyyFifo = dev.Reg32(0x108, 0, 0xffffffff, nil, func() { dev.keyFifoWrite(&dev.keyyFifo, dev.regKeyyFifo) })

	// write-only CTR window
	dev.Range(0x020, 0x10, nil, func(pos uint32, buf []byte) {
		copy(dev.ctr[pos:], buf)
	})

	// MAC and the four TWL key windows are accepted but have no effect
	dev.Range(0x030, 0x10, nil, nil)
	dev.Range(0x040, 0x30, nil, nil)
	dev.Range(0x070, 0x30, nil, nil)
	dev.Range(0x0a0, 0x30, nil, nil)
	dev.Range(0x0d0, 0x30, nil, nil)

	return dev
}

// loadKeys preloads the keyslot ring from the aeskeydb.bin resource.
func (dev *AesDevice) loadKeys() {
	p, err := paths.ResourcePath(paths.AesKeyDb)
	if err != nil {
		return
	}
	f, err := os.ReadFile(p)
	if err != nil {
		logger.Log("AES", "aeskeydb.bin not available, keyslots start empty")
		return
	}
	for i := range dev.keySlots {
		if len(f) < (i+1)*0x10 {
			break
		}
		copy(dev.keySlots[i][:], f[i*0x10:])
	}
	logger.Log("AES", "loaded keyslots from disk")
}

func (dev *AesDevice) cntRead() {
	dev.drainFifo()

	cnt := dev.cnt.Get()
	cnt = bitfield.Insert(cnt, aesCntFifoInCountLo, aesCntFifoInCountHi, uint32(dev.fifoIn.len()))
	cnt = bitfield.Insert(cnt, aesCntFifoOutCountLo, aesCntFifoOutCountHi, uint32(dev.fifoOut.len()))
	dev.cnt.SetUnchecked(cnt)
}

func (dev *AesDevice) cntWrite() {
	cnt := dev.cnt.Get()

	if bitfield.IsSet(cnt, aesCntUpdateKeyslot) {
		dev.activeKeyslot = int(dev.keySel.Get()) & (aesNumKeyslots - 1)
		dev.cnt.SetUnchecked(bitfield.Insert(cnt, aesCntUpdateKeyslot, aesCntUpdateKeyslot, 0))
		cnt = dev.cnt.Get()
	}

	if bitfield.IsSet(cnt, aesCntBusy) {
		dev.startProcess()
	}

	dev.drainFifo()
}

// startProcess prepares the cipher selected by the mode field. one block is
// processed for every four words popped from the input fifo.
func (dev *AesDevice) startProcess() {
	cnt := dev.cnt.Get()
	mode := bitfield.Extract(cnt, aesCntModeLo, aesCntModeHi)
	key := dev.keySlots[dev.activeKeyslot]

	// CTR/IV register, adjusted for the configured word order and
	// endianness
	ctr := make([]byte, 0x10)
	copy(ctr, dev.ctr[:])
	if bitfield.IsSet(cnt, aesCntInNormalOrder) {
		for i := 0; i < 8; i += 4 {
			for k := 0; k < 4; k++ {
				ctr[i+k], ctr[12-i+k] = ctr[12-i+k], ctr[i+k]
			}
		}
	}
	if !bitfield.IsSet(cnt, aesCntInBigEndian) {
		for i := 0; i < 0x10; i += 4 {
			ctr[i], ctr[i+1], ctr[i+2], ctr[i+3] = ctr[i+3], ctr[i+2], ctr[i+1], ctr[i]
		}
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		logger.Logf("AES", "cannot create cipher: %v", err)
		return
	}

	encrypt := mode&1 == 1
	switch mode {
	case 2, 3:
		stream := cipher.NewCTR(block, ctr)
		dev.process = stream.XORKeyStream
	case 4, 5:
		if encrypt {
			bm := cipher.NewCBCEncrypter(block, ctr)
			dev.process = bm.CryptBlocks
		} else {
			bm := cipher.NewCBCDecrypter(block, ctr)
			dev.process = bm.CryptBlocks
		}
	case 6, 7:
		e := &ecb{block: block, encrypt: encrypt}
		dev.process = e.crypt
	default:
		logger.Logf("AES", "unimplemented mode %d (CCM)", mode)
		return
	}

	dev.blocksLeft = int(dev.blkCnt.Get())
}

// drainFifo processes one block for every four words available in the
// input fifo, while there is room in the output fifo.
func (dev *AesDevice) drainFifo() {
	cnt := dev.cnt.Get()

	for dev.process != nil && dev.fifoIn.len() >= 4 && dev.fifoOut.len() <= 12 {
		var words [4]uint32
		for i := range words {
			words[i], _ = dev.fifoIn.pop()
		}
		if !bitfield.IsSet(cnt, aesCntInNormalOrder) {
			words[0], words[1], words[2], words[3] = words[3], words[2], words[1], words[0]
		}

		var in [16]byte
		for i, w := range words {
			binary.LittleEndian.PutUint32(in[i*4:], w)
		}

		var out [16]byte
		dev.process(out[:], in[:])

		for i := range words {
			words[i] = binary.LittleEndian.Uint32(out[i*4:])
		}
		if !bitfield.IsSet(cnt, aesCntOutNormalOrder) {
			words[0], words[1], words[2], words[3] = words[3], words[2], words[1], words[0]
		}
		for _, w := range words {
			dev.fifoOut.push(w)
		}

		dev.blocksLeft--
		if dev.blocksLeft <= 0 {
			dev.process = nil
			dev.cnt.SetUnchecked(bitfield.Insert(dev.cnt.Get(), aesCntBusy, aesCntBusy, 0))
		}
	}
}

func (dev *AesDevice) fifoInWrite() {
	cnt := dev.cnt.Get()
	word := dev.regFifoIn.Get()
	if !bitfield.IsSet(cnt, aesCntInBigEndian) {
		word = swapBytes32(word)
	}
	if !dev.fifoIn.push(word) {
		logger.Log("AES", "push to full input FIFO")
	}
	dev.drainFifo()
}

func (dev *AesDevice) fifoOutRead() {
	cnt := dev.cnt.Get()
	word, ok := dev.fifoOut.pop()
	if !ok {
		logger.Log("AES", "pop from empty output FIFO")
		return
	}
	if !bitfield.IsSet(cnt, aesCntOutBigEndian) {
		word = swapBytes32(word)
	}
	dev.regFifoOut.SetUnchecked(word)
}

func (dev *AesDevice) keyCntWrite() {
	keyCnt := dev.keyCnt.Get()
	if bitfield.IsSet(keyCnt, aesKeyCntFifoFlush) {
		dev.keyFifo.pos = 0
		dev.keyxFifo.pos = 0
		dev.keyyFifo.pos = 0
	}
}

// keyFifoWrite accumulates a key word. when sixteen bytes have arrived the
// key is committed to the keyslot named by KEYCNT; a completed keyY also
// runs the key scrambler.
func (dev *AesDevice) keyFifoWrite(state *keyFifoState, reg *Reg) {
	cnt := dev.cnt.Get()
	word := reg.Get()
	if !bitfield.IsSet(cnt, aesCntInBigEndian) {
		word = swapBytes32(word)
	}

	binary.LittleEndian.PutUint32(state.buf[state.pos:], word)
	state.pos += 4
	if state.pos < 0x10 {
		return
	}
	state.pos = 0

	keyCnt := dev.keyCnt.Get()
	keyslot := int(bitfield.Extract(keyCnt, aesKeyCntKeyslotLo, aesKeyCntKeyslotHi))
	dsi := bitfield.IsSet(keyCnt, aesKeyCntForceDsiKeygen)

	switch state {
	case &dev.keyFifo:
		dev.keySlots[keyslot] = state.buf
	case &dev.keyxFifo:
		dev.keyxSlots[keyslot] = state.buf
	case &dev.keyyFifo:
		dev.keySlots[keyslot] = scrambleKey(dev.keyxSlots[keyslot], state.buf, dsi)
	}
}

func swapBytes32(v uint32) uint32 {
	return v<<24 | (v&0xff00)<<8 | (v>>8)&0xff00 | v>>24
}
