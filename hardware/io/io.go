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

// Package io implements the memory-mapped devices. A device is a table of
// registers (width, default value, write mask, read/write side effects)
// plus optional ranged handlers for register arrays and data windows.
//
// Devices are grouped into blocks. Within a block the device is selected by
// bits 12 to 23 of the block-relative offset; the low 12 bits select the
// register within the device.
package io

import (
	"sync"

	"github.com/jetsetilly/llama/logger"
)

// device wraps a Device with the block-level mutex. register accesses are
// short and uncontended in practice but the DMA engines and the second CPU
// can arrive on other threads.
type device struct {
	crit sync.Mutex
	dev  *Device
}

// Block is a set of devices filling (part of) a 1MiB span of the physical
// address space. It implements the memory.Bus interface.
type Block struct {
	name    string
	devices map[uint32]*device
}

// NewBlock is the preferred method of initialisation for the Block type.
func NewBlock(name string) *Block {
	return &Block{
		name:    name,
		devices: make(map[uint32]*device),
	}
}

// Attach a device at the specified region number (bits 12 to 23 of the
// block-relative offset).
func (b *Block) Attach(region uint32, dev *Device) {
	b.devices[region] = &device{dev: dev}
}

// ReadRegister implements the memory.Bus interface.
func (b *Block) ReadRegister(offset uint32, buf []byte) {
	d, ok := b.devices[(offset>>12)&0xfff]
	if !ok {
		logger.Logf(b.name, "read of unattached io region: +%06x", offset)
		for i := range buf {
			buf[i] = 0
		}
		return
	}

	d.crit.Lock()
	defer d.crit.Unlock()
	d.dev.ReadRegister(offset&0xfff, buf)
}

// WriteRegister implements the memory.Bus interface.
func (b *Block) WriteRegister(offset uint32, buf []byte) {
	d, ok := b.devices[(offset>>12)&0xfff]
	if !ok {
		logger.Logf(b.name, "write of unattached io region: +%06x", offset)
		return
	}

	d.crit.Lock()
	defer d.crit.Unlock()
	d.dev.WriteRegister(offset&0xfff, buf)
}

// Region numbers for the ARM9 IO block at its physical base.
const (
	RegionConfig    = 0x00
	RegionIrq       = 0x01
	RegionNdma      = 0x02
	RegionTimer     = 0x03
	RegionEmmc      = 0x06
	RegionPxi9      = 0x08
	RegionAes       = 0x09
	RegionSha       = 0x0a
	RegionRsa       = 0x0b
	RegionXdma      = 0x0c
	RegionConfigExt = 0x10
	RegionOtp       = 0x12
)

// Region numbers for the shared IO block, relative to its base at
// 0x10100000.
const (
	RegionHid   = 0x46
	RegionPxi11 = 0x63
)
