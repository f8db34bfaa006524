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
	"sync/atomic"

	"github.com/jetsetilly/llama/bitfield"
	"github.com/jetsetilly/llama/hardware/irq"
	"github.com/jetsetilly/llama/logger"
)

// PXI CNT register fields
const (
	pxiCntSendEmpty = 0
	pxiCntSendFull  = 1
	pxiCntFlushSend = 3
	pxiCntRecvEmpty = 8
	pxiCntRecvFull  = 9
	pxiCntCannotRW  = 14
)

// PXI SYNC_CTRL register fields
const (
	pxiSyncTriggerIrq11 = 5
	pxiSyncTriggerIrq9  = 6
	pxiSyncIrqEnabled   = 7
)

// depth of the FIFO in each direction
const pxiFifoDepth = 4

// pxiEnd is one side of the inter-CPU channel. The tx channel of one end is
// the rx channel of the other.
type pxiEnd struct {
	name string

	tx chan uint32
	rx chan uint32

	syncTx *atomic.Uint32
	syncRx *atomic.Uint32

	irqEnabled      *atomic.Bool
	otherIrqEnabled *atomic.Bool

	// interrupt delivery to the CPU on the other side of the channel
	remoteIrqs *irq.Requests
}

// PxiDevice is one CPU's register face of the PXI channel.
type PxiDevice struct {
	*Device
	end pxiEnd

	syncRecv *Reg
	syncSend *Reg
	syncCtrl *Reg
	cnt      *Reg
	send     *Reg
	recv     *Reg
}

// NewPxiChannel creates the two connected register faces of the PXI
// channel. The irqs arguments are the interrupt aggregators of the ARM9 and
// ARM11 respectively.
func NewPxiChannel(irqs9 *irq.Requests, irqs11 *irq.Requests) (*PxiDevice, *PxiDevice) {
	nineToEleven := make(chan uint32, pxiFifoDepth)
	elevenToNine := make(chan uint32, pxiFifoDepth)
	syncNine := &atomic.Uint32{}
	syncEleven := &atomic.Uint32{}
	enabledNine := &atomic.Bool{}
	enabledEleven := &atomic.Bool{}

	end9 := pxiEnd{
		name:            "PXI9",
		tx:              nineToEleven,
		rx:              elevenToNine,
		syncTx:          syncEleven,
		syncRx:          syncNine,
		irqEnabled:      enabledNine,
		otherIrqEnabled: enabledEleven,
		remoteIrqs:      irqs11,
	}

	end11 := pxiEnd{
		name:            "PXI11",
		tx:              elevenToNine,
		rx:              nineToEleven,
		syncTx:          syncNine,
		syncRx:          syncEleven,
		irqEnabled:      enabledEleven,
		otherIrqEnabled: enabledNine,
		remoteIrqs:      irqs9,
	}

	return newPxiDevice(end9), newPxiDevice(end11)
}

func newPxiDevice(end pxiEnd) *PxiDevice {
	dev := &PxiDevice{
		Device: NewDevice(end.name),
		end:    end,
	}

	dev.syncRecv = dev.Reg8(0x000, 0, 0, func() {
		dev.syncRecv.SetUnchecked(dev.end.syncRx.Load() & 0xff)
	}, nil)

	dev.syncSend = dev.Reg8(0x001, 0, 0xff, nil, func() {
		dev.end.syncTx.Store(dev.syncSend.Get())
	})

	dev.Reg8(0x002, 0, 0xff, nil, nil)

	dev.syncCtrl = dev.Reg8(0x003, 0, 0xff, nil, dev.syncCtrlWrite)

	dev.cnt = dev.Reg16(0x004, 0, 0b1100010000001100, dev.cntRead, dev.cntWrite)
	dev.Reg16(0x006, 0, 0xffff, nil, nil)

	dev.send = dev.Reg32(0x008, 0, 0xffffffff, nil, dev.sendWrite)
	dev.recv = dev.Reg32(0x00c, 0, 0, dev.recvRead, nil)

	return dev
}

func (dev *PxiDevice) syncCtrlWrite() {
	ctrl := dev.syncCtrl.Get()

	if bitfield.IsSet(ctrl, pxiSyncTriggerIrq9) || bitfield.IsSet(ctrl, pxiSyncTriggerIrq11) {
		// only the opposite end of the channel can be targetted
		if dev.end.otherIrqEnabled.Load() {
			dev.end.remoteIrqs.Add(irq.PxiSync)
		}
	}

	// trigger bits do not latch
	ctrl = bitfield.Insert(ctrl, pxiSyncTriggerIrq11, pxiSyncTriggerIrq9, 0)
	dev.syncCtrl.SetUnchecked(ctrl)

	dev.end.irqEnabled.Store(bitfield.IsSet(ctrl, pxiSyncIrqEnabled))
}

func (dev *PxiDevice) cntRead() {
	cnt := dev.cnt.Get()
	cnt = bitfield.Insert(cnt, pxiCntSendEmpty, pxiCntSendEmpty, b2u(len(dev.end.tx) == 0))
	cnt = bitfield.Insert(cnt, pxiCntSendFull, pxiCntSendFull, b2u(len(dev.end.tx) == pxiFifoDepth))
	cnt = bitfield.Insert(cnt, pxiCntRecvEmpty, pxiCntRecvEmpty, b2u(len(dev.end.rx) == 0))
	cnt = bitfield.Insert(cnt, pxiCntRecvFull, pxiCntRecvFull, b2u(len(dev.end.rx) == pxiFifoDepth))
	dev.cnt.SetUnchecked(cnt)
}

func (dev *PxiDevice) cntWrite() {
	cnt := dev.cnt.Get()

	if bitfield.IsSet(cnt, pxiCntFlushSend) {
		// drain anything queued in the send direction
		for {
			select {
			case <-dev.end.tx:
			default:
				dev.cnt.SetUnchecked(bitfield.Insert(cnt, pxiCntFlushSend, pxiCntFlushSend, 0))
				return
			}
		}
	}

	if bitfield.IsSet(cnt, pxiCntCannotRW) {
		// error flag is cleared by writing it
		dev.cnt.SetUnchecked(bitfield.Insert(cnt, pxiCntCannotRW, pxiCntCannotRW, 0))
	}
}

func (dev *PxiDevice) sendWrite() {
	select {
	case dev.end.tx <- dev.send.Get():
	default:
		logger.Logf(dev.end.name, "send while FIFO full (%08x dropped)", dev.send.Get())
	}
}

func (dev *PxiDevice) recvRead() {
	select {
	case v := <-dev.end.rx:
		dev.recv.SetUnchecked(v)
	default:
		logger.Log(dev.end.name, "receive while FIFO empty")
	}
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
