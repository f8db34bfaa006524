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
	"testing"

	"github.com/jetsetilly/llama/bitfield"
	"github.com/jetsetilly/llama/hardware/irq"
	"github.com/jetsetilly/llama/test"
)

func pxiWrite32(dev *PxiDevice, offset uint32, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	dev.WriteRegister(offset, buf[:])
}

func pxiRead32(dev *PxiDevice, offset uint32) uint32 {
	var buf [4]byte
	dev.ReadRegister(offset, buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

func pxiReadCnt(dev *PxiDevice) uint32 {
	var buf [2]byte
	dev.ReadRegister(0x004, buf[:])
	return uint32(binary.LittleEndian.Uint16(buf[:]))
}

func TestPxiFifo(t *testing.T) {
	rq9, _ := irq.NewChannel()
	rq11, _ := irq.NewChannel()
	end9, end11 := NewPxiChannel(rq9, rq11)

	// both fifos start empty
	cnt := pxiReadCnt(end9)
	test.Equate(t, bitfield.IsSet(cnt, pxiCntSendEmpty), true)
	test.Equate(t, bitfield.IsSet(cnt, pxiCntRecvEmpty), true)

	// a word sent from the ARM9 side is received on the ARM11 side
	pxiWrite32(end9, 0x008, 0xcafebabe)

	cnt = pxiReadCnt(end11)
	test.Equate(t, bitfield.IsSet(cnt, pxiCntRecvEmpty), false)

	test.Equate(t, pxiRead32(end11, 0x00c), uint32(0xcafebabe))

	cnt = pxiReadCnt(end11)
	test.Equate(t, bitfield.IsSet(cnt, pxiCntRecvEmpty), true)
}

func TestPxiFifoFull(t *testing.T) {
	rq9, _ := irq.NewChannel()
	rq11, _ := irq.NewChannel()
	end9, _ := NewPxiChannel(rq9, rq11)

	for i := uint32(0); i < 4; i++ {
		pxiWrite32(end9, 0x008, i)
	}

	cnt := pxiReadCnt(end9)
	test.Equate(t, bitfield.IsSet(cnt, pxiCntSendFull), true)
}

func TestPxiSyncIrq(t *testing.T) {
	rq9, line9 := irq.NewChannel()
	rq11, _ := irq.NewChannel()
	end9, end11 := NewPxiChannel(rq9, rq11)

	rq9.SetEnabled(uint32(irq.PxiSync))

	// triggering from the ARM11 side does nothing until the ARM9 side has
	// enabled sync interrupts
	end11.WriteRegister(0x003, []byte{1 << pxiSyncTriggerIrq9})
	test.Equate(t, line9.IsHigh(), false)

	end9.WriteRegister(0x003, []byte{1 << pxiSyncIrqEnabled})
	end11.WriteRegister(0x003, []byte{1 << pxiSyncTriggerIrq9})
	test.Equate(t, line9.IsHigh(), true)
}

func TestPxiSyncBytes(t *testing.T) {
	rq9, _ := irq.NewChannel()
	rq11, _ := irq.NewChannel()
	end9, end11 := NewPxiChannel(rq9, rq11)

	// a byte written on one side is read on the other
	end9.WriteRegister(0x001, []byte{0x42})

	var buf [1]byte
	end11.ReadRegister(0x000, buf[:])
	test.Equate(t, buf[0], uint8(0x42))
}
