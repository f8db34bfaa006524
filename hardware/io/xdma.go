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

	"github.com/jetsetilly/llama/hardware/memory"
	"github.com/jetsetilly/llama/logger"
)

// The XDMA engine executes a small microprogram fetched from memory. The
// instruction set implemented here is the subset the bootroms and kernels
// actually issue: MOV, LP, LPEND, WFP, LDP, NOP, END, GO, KILL and FLUSHP.

// xdmaThread is the execution state of the manager thread or one of the
// eight channel threads.
type xdmaThread struct {
	pc          uint32
	running     bool
	srcAddr     uint32
	dstAddr     uint32
	chanCtrl    uint32
	loopCtr     [2]uint32
	loopStartPC [2]uint32
}

// XdmaDevice is the microprogrammed DMA engine.
type XdmaDevice struct {
	*Device
	mem *memory.Controller

	// nil activeThread means the manager thread
	activeThread *int
	manager      xdmaThread
	channels     [8]xdmaThread

	dbgCmd   *Reg
	dbgInst0 *Reg
	dbgInst1 *Reg
}

// NewXdmaDevice is the preferred method of initialisation for the
// XdmaDevice type. The memory controller must be attached with SetMemory()
// before the device is used.
func NewXdmaDevice() *XdmaDevice {
	dev := &XdmaDevice{
		Device: NewDevice("XDMA"),
	}

	dev.Reg32(0x000, 0, 0xffffffff, nil, nil) // dm_status
	dev.Reg32(0x020, 0, 0xffffffff, nil, nil) // int_enable
	dev.Reg32(0x02c, 0, 0xffffffff, nil, nil) // int_clr
	dev.Reg32(0x100, 0, 0xffffffff, nil, nil) // csr0
	dev.Reg32(0xd00, 0, 0xffffffff, nil, nil) // dbg_status

	dev.dbgCmd = dev.Reg32(0xd04, 0, 0xffffffff, nil, dev.dbgCmdWrite)
	dev.dbgInst0 = dev.Reg32(0xd08, 0, 0xffffffff, nil, nil)
	dev.dbgInst1 = dev.Reg32(0xd0c, 0, 0xffffffff, nil, nil)

	return dev
}

// SetMemory attaches the physical address space the engine fetches programs
// from.
func (dev *XdmaDevice) SetMemory(mem *memory.Controller) {
	dev.mem = mem
}

func (dev *XdmaDevice) thread() *xdmaThread {
	if dev.activeThread == nil {
		return &dev.manager
	}
	return &dev.channels[*dev.activeThread]
}

// dbgCmdWrite executes a standalone instruction assembled from the debug
// instruction registers.
func (dev *XdmaDevice) dbgCmdWrite() {
	if dev.dbgCmd.Get()&0b11 != 0 {
		return
	}

	inst0 := dev.dbgInst0.Get()
	var buf [8]byte
	binary.LittleEndian.PutUint16(buf[0:], uint16(inst0>>16))
	binary.LittleEndian.PutUint32(buf[2:], dev.dbgInst1.Get())

	if inst0&1 == 1 {
		chn := int((inst0 >> 8) & 0b111)
		dev.activeThread = &chn
	} else {
		dev.activeThread = nil
	}

	dev.step(buf[:])
}

// fetch returns the eight bytes at the thread's program counter. programs
// are fetched through the physical address space like any other memory.
func (dev *XdmaDevice) fetch() []byte {
	buf := make([]byte, 8)
	dev.mem.ReadBuf(dev.thread().pc, buf)
	return buf
}

// step decodes and executes the single instruction at the start of buf.
func (dev *XdmaDevice) step(buf []byte) {
	op := buf[0]
	t := dev.thread()

	switch {
	case op == 0x00: // END
		t.running = false

	case op == 0x01: // KILL
		t.running = false

	case op == 0x18: // NOP
		t.pc += 1

	case op&0xfd == 0x20: // LP
		lc := (op >> 1) & 1
		t.loopCtr[lc] = uint32(buf[1])
		t.pc += 2
		t.loopStartPC[lc] = t.pc

	case op&0xe8 == 0x28: // LPEND
		lc := (op >> 2) & 1
		if t.loopCtr[lc] > 0 {
			t.loopCtr[lc]--
			t.pc = t.pc + 2 - uint32(buf[1])
		} else {
			t.pc += 2
		}

	case op == 0x25 || op == 0x27: // LDP
		logger.Logf("XDMA", "LDP from peripheral %d not implemented", buf[1]>>3)
		t.pc += 2

	case op&0xfc == 0x30: // WFP
		// peripheral synchronisation is not modelled; the wait completes
		// immediately
		t.pc += 2

	case op == 0x35: // FLUSHP
		t.pc += 2

	case op&0xfd == 0xa0: // GO
		chn := int(buf[1] & 0b111)
		addr := binary.LittleEndian.Uint32(buf[2:6])
		dev.runChannel(chn, addr)
		t.pc += 6

	case op == 0xbc: // MOV
		imm := binary.LittleEndian.Uint32(buf[2:6])
		switch buf[1] & 0b111 {
		case 0:
			t.srcAddr = imm
		case 1:
			t.chanCtrl = imm
		case 2:
			t.dstAddr = imm
		}
		t.pc += 6

	default:
		logger.Logf("XDMA", "unimplemented instruction %02x", op)
		t.running = false
	}
}

// runChannel executes a channel thread's program to completion.
func (dev *XdmaDevice) runChannel(chn int, addr uint32) {
	old := dev.activeThread
	dev.activeThread = &chn

	t := dev.thread()
	t.pc = addr
	t.running = true

	// bound the number of instructions so a malformed program cannot hang
	// the emulation
	for i := 0; t.running && i < 0x10000; i++ {
		dev.step(dev.fetch())
	}

	if t.running {
		logger.Logf("XDMA", "channel %d program did not end", chn)
		t.running = false
	}

	dev.activeThread = old
}
