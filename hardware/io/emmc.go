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
	"os"

	"github.com/jetsetilly/llama/logger"
	"github.com/jetsetilly/llama/paths"
)

// EMMC IRQ status bits (STATUS0)
const (
	emmcStatusCmdResponseEnd = 1 << 0
	emmcStatusDataEnd        = 1 << 2
)

// EmmcDevice is a register-level model of the SD/MMC controller. Commands
// are acknowledged with empty responses; the data path is not modelled.
// The device reports whether NAND and SD card images are present on disk.
type EmmcDevice struct {
	*Device

	nandPresent bool
	sdPresent   bool

	cmd     *Reg
	portsel *Reg
	status0 *Reg
	resp    [8]*Reg
}

// NewEmmcDevice is the preferred method of initialisation for the
// EmmcDevice type.
func NewEmmcDevice() *EmmcDevice {
	dev := &EmmcDevice{
		Device: NewDevice("EMMC"),
	}

	dev.nandPresent = resourceExists(paths.NandImg)
	dev.sdPresent = resourceExists(paths.SdCardImg)
	logger.Logf("EMMC", "nand image: %v, sd image: %v", dev.nandPresent, dev.sdPresent)

	dev.cmd = dev.Reg16(0x000, 0, 0xffff, nil, dev.cmdWrite)
	dev.portsel = dev.Reg16(0x002, 0, 0xffff, nil, nil)
	dev.Reg16(0x004, 0, 0xffff, nil, nil) // cmdarg0
	dev.Reg16(0x006, 0, 0xffff, nil, nil) // cmdarg1
	dev.Reg16(0x008, 0, 0xffff, nil, nil) // stop
	dev.Reg16(0x00a, 0, 0xffff, nil, nil) // blkcount

	for i := range dev.resp {
		dev.resp[i] = dev.Reg16(uint32(0x00c+i*2), 0, 0, nil, nil)
	}

	dev.status0 = dev.Reg16(0x01c, 0, 0, nil, nil)
	dev.Reg16(0x01e, 0, 0xffff, nil, nil) // status1
	dev.Reg16(0x020, 0, 0xffff, nil, nil) // irq_mask0
	dev.Reg16(0x022, 0, 0xffff, nil, nil) // irq_mask1
	dev.Reg16(0x024, 0, 0xffff, nil, nil) // clkctl
	dev.Reg16(0x026, 0, 0xffff, nil, nil) // blklen
	dev.Reg16(0x028, 0, 0xffff, nil, nil) // opt
	dev.Reg16(0x030, 0, 0, nil, nil)      // data fifo
	dev.Reg16(0x0d8, 0, 0xffff, nil, nil) // datactl
	dev.Reg16(0x0e0, 0, 0xffff, nil, nil) // reset
	dev.Reg16(0x0f6, 0, 0xffff, nil, nil) // protected
	dev.Reg16(0x100, 0, 0xffff, nil, nil) // datactl32
	dev.Reg16(0x104, 0, 0xffff, nil, nil) // blklen32
	dev.Reg16(0x108, 0, 0xffff, nil, nil) // blkcount32

	return dev
}

func resourceExists(name string) bool {
	p, err := paths.ResourcePath(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// cmdWrite latches a command. Every command completes immediately with an
// all-zero response.
func (dev *EmmcDevice) cmdWrite() {
	index := dev.cmd.Get() & 0x3f
	logger.Logf("EMMC", "command %d (port %d)", index, dev.portsel.Get()&0x3)

	for i := range dev.resp {
		dev.resp[i].SetUnchecked(0)
	}
	dev.status0.SetUnchecked(dev.status0.Get() | emmcStatusCmdResponseEnd)
}
