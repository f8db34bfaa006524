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

	"github.com/jetsetilly/llama/hardware/memory/memorymap"
)

// GpuDevice models only the framebuffer select registers of the GPU: just
// enough for a display shell to find the pixels in VRAM. Rendering itself
// is not emulated.
type GpuDevice struct {
	*Device

	fbTopLeft0 *Reg
	fbTopLeft1 *Reg
	fbBotLeft0 *Reg
	fbBotLeft1 *Reg
	fbTopSel   *Reg
	fbBotSel   *Reg

	// published copies of the current framebuffer addresses. read by the
	// display shell without taking the device lock
	topAddr atomic.Uint32
	botAddr atomic.Uint32
}

// NewGpuDevice is the preferred method of initialisation for the GpuDevice
// type.
func NewGpuDevice() *GpuDevice {
	dev := &GpuDevice{
		Device: NewDevice("GPU"),
	}

	update := func() {
		if dev.fbTopSel.Get()&1 == 0 {
			dev.topAddr.Store(dev.fbTopLeft0.Get())
		} else {
			dev.topAddr.Store(dev.fbTopLeft1.Get())
		}
		if dev.fbBotSel.Get()&1 == 0 {
			dev.botAddr.Store(dev.fbBotLeft0.Get())
		} else {
			dev.botAddr.Store(dev.fbBotLeft1.Get())
		}
	}

	dev.fbTopLeft0 = dev.Reg32(0x468, memorymap.OriginVRAM, 0xffffffff, nil, update)
	dev.fbTopLeft1 = dev.Reg32(0x46c, memorymap.OriginVRAM, 0xffffffff, nil, update)
	dev.fbTopSel = dev.Reg32(0x478, 0, 0x1, nil, update)
	dev.fbBotLeft0 = dev.Reg32(0x568, memorymap.OriginVRAM+0x48600, 0xffffffff, nil, update)
	dev.fbBotLeft1 = dev.Reg32(0x56c, memorymap.OriginVRAM+0x48600, 0xffffffff, nil, update)
	dev.fbBotSel = dev.Reg32(0x578, 0, 0x1, nil, update)

	dev.topAddr.Store(memorymap.OriginVRAM)
	dev.botAddr.Store(memorymap.OriginVRAM + 0x48600)

	return dev
}

// Framebuffers returns the physical addresses of the currently selected top
// and bottom screen framebuffers.
func (dev *GpuDevice) Framebuffers() (top uint32, bottom uint32) {
	return dev.topAddr.Load(), dev.botAddr.Load()
}
