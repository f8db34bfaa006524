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
	"github.com/jetsetilly/llama/logger"
)

// NewConfigDevice creates the CONFIG system register device.
func NewConfigDevice() *Device {
	dev := NewDevice("CONFIG")

	var sysprot9 *Reg
	sysprot9 = dev.Reg8(0x000, 0, 0xff, nil, func() {
		if sysprot9.Get() != 0 {
			logger.Log("CONFIG", "ARM9 bootrom protection enabled")
		}
	})

	var sysprot11 *Reg
	sysprot11 = dev.Reg8(0x001, 0, 0xff, nil, func() {
		if sysprot11.Get() != 0 {
			logger.Log("CONFIG", "ARM11 bootrom protection enabled")
		}
	})

	dev.Reg8(0x002, 0, 0xff, nil, nil)    // reset11
	dev.Reg16(0x004, 0, 0xffff, nil, nil) // debugctl
	dev.Reg8(0x008, 0, 0xff, nil, nil)
	dev.Reg16(0x00c, 0, 0xffff, nil, nil) // cardctl
	dev.Reg8(0x010, 0, 0xff, nil, nil)    // cardstatus
	dev.Reg16(0x012, 0, 0xffff, nil, nil) // cardcycles0
	dev.Reg16(0x014, 0, 0xffff, nil, nil) // cardcycles1
	dev.Reg16(0x020, 0, 0xffff, nil, nil) // sdmmcctl
	dev.Reg16(0x022, 0, 0xffff, nil, nil)
	dev.Reg16(0x100, 0, 0xffff, nil, nil)
	dev.Reg8(0x200, 0, 0xff, nil, nil) // extmem_cnt

	return dev
}

// NewConfigExtDevice creates the extended CONFIG register device.
func NewConfigExtDevice() *Device {
	dev := NewDevice("CONFIGEXT")

	dev.Reg32(0x000, 0, 0xffffffff, nil, nil) // bootenv
	dev.Reg8(0x010, 0, 0xff, nil, nil)        // unitinfo
	dev.Reg8(0x014, 0, 0xff, nil, nil)        // twl_unitinfo

	return dev
}
