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
	"encoding/binary"

	"github.com/jetsetilly/llama/bitfield"
	"github.com/jetsetilly/llama/hardware/memory"
	"github.com/jetsetilly/llama/logger"
)

// NDMA channel CNT register fields
const (
	ndmaCntDstWritebackLo = 10
	ndmaCntDstWritebackHi = 11
	ndmaCntSrcWritebackLo = 13
	ndmaCntSrcWritebackHi = 14
	ndmaCntXferSizeLo     = 16
	ndmaCntXferSizeHi     = 19
	ndmaCntImmedMode      = 28
	ndmaCntRepeatMode     = 29
	ndmaCntEnableIrq      = 30
	ndmaCntEnabled        = 31
)

// source writeback mode 3 selects the fill-data register instead of a
// source address
const ndmaSrcModeFill = 3

const ndmaNumChannels = 8

type ndmaChannel struct {
	src      *Reg
	dst      *Reg
	xferPos  *Reg
	writeCnt *Reg
	blockCnt *Reg
	fillData *Reg
	chanCnt  *Reg
}

// NdmaDevice is the channelised memory-to-memory copy engine.
type NdmaDevice struct {
	*Device
	mem *memory.Controller

	globalCnt *Reg
	channels  [ndmaNumChannels]ndmaChannel
}

// NewNdmaDevice is the preferred method of initialisation for the
// NdmaDevice type. The memory controller must be attached with SetMemory()
// before the device is used.
func NewNdmaDevice() *NdmaDevice {
	dev := &NdmaDevice{
		Device: NewDevice("NDMA"),
	}

	dev.globalCnt = dev.Reg32(0x000, 0, 0xffffffff, nil, nil)

	for i := 0; i < ndmaNumChannels; i++ {
		i := i
		base := uint32(0x004 + i*0x1c)
		ch := &dev.channels[i]
		ch.src = dev.Reg32(base+0x00, 0, 0xffffffff, nil, nil)
		ch.dst = dev.Reg32(base+0x04, 0, 0xffffffff, nil, nil)
		ch.xferPos = dev.Reg32(base+0x08, 0, 0xffffffff, nil, nil)
		ch.writeCnt = dev.Reg32(base+0x0c, 0, 0xffffffff, nil, nil)
		ch.blockCnt = dev.Reg32(base+0x10, 0, 0xffffffff, nil, nil)
		ch.fillData = dev.Reg32(base+0x14, 0, 0xffffffff, nil, nil)
		ch.chanCnt = dev.Reg32(base+0x18, 0, 0xffffffff, nil, func() {
			dev.processChannel(i)
		})
	}

	return dev
}

// SetMemory attaches the physical address space the engine copies through.
func (dev *NdmaDevice) SetMemory(mem *memory.Controller) {
	dev.mem = mem
}

// processChannel runs a whole transfer when the channel is started in
// immediate mode. Other startup modes wait on device timings that are not
// modelled; the channel is disabled so that software does not spin forever
// on the enable bit.
func (dev *NdmaDevice) processChannel(i int) {
	ch := &dev.channels[i]
	cnt := ch.chanCnt.Get()

	if !bitfield.IsSet(cnt, ndmaCntEnabled) {
		return
	}

	if !bitfield.IsSet(cnt, ndmaCntImmedMode) || bitfield.IsSet(cnt, ndmaCntRepeatMode) {
		logger.Logf("NDMA", "channel %d started in unimplemented mode", i)
		ch.chanCnt.SetUnchecked(bitfield.Insert(cnt, ndmaCntEnabled, ndmaCntEnabled, 0))
		return
	}

	lineWords := uint32(1) << bitfield.Extract(cnt, ndmaCntXferSizeLo, ndmaCntXferSizeHi)
	srcAddr := ch.src.Get()
	dstAddr := ch.dst.Get()
	totalWords := ch.writeCnt.Get() & 0xffffff

	srcMode := bitfield.Extract(cnt, ndmaCntSrcWritebackLo, ndmaCntSrcWritebackHi)
	dstMode := bitfield.Extract(cnt, ndmaCntDstWritebackLo, ndmaCntDstWritebackHi)

	buf := make([]byte, 4*lineWords)

	for burst := uint32(0); burst < totalWords/lineWords; burst++ {
		if srcMode == ndmaSrcModeFill {
			var fill [4]byte
			binary.LittleEndian.PutUint32(fill[:], ch.fillData.Get())
			for i := 0; i < len(buf); i += 4 {
				copy(buf[i:], fill[:])
			}
		} else {
			dev.mem.ReadBuf(srcAddr, buf)
			switch srcMode {
			case 0:
				srcAddr += 4 * lineWords
			case 1:
				srcAddr -= 4 * lineWords
			case 2:
				// fixed address
			}
		}

		dev.mem.WriteBuf(dstAddr, buf)
		switch dstMode {
		case 0:
			dstAddr += 4 * lineWords
		case 1:
			dstAddr -= 4 * lineWords
		case 2:
			// fixed address
		}
	}

	// immediate mode transfers complete at once
	ch.chanCnt.SetUnchecked(bitfield.Insert(cnt, ndmaCntEnabled, ndmaCntEnabled, 0))
}
