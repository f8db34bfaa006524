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
	"github.com/jetsetilly/llama/hardware/irq"
)

// bits 30 and 31 of the enabled/pending registers are not wired to any
// interrupt source
const irqValidBits = 0x3fffffff

// IrqDevice is the register face of the interrupt aggregator.
type IrqDevice struct {
	*Device
	requests *irq.Requests

	enabled *Reg
	pending *Reg
}

// NewIrqDevice is the preferred method of initialisation for the IrqDevice
// type.
func NewIrqDevice(requests *irq.Requests) *IrqDevice {
	dev := &IrqDevice{
		Device:   NewDevice("IRQ"),
		requests: requests,
	}

	dev.enabled = dev.Reg32(0x000, 0, irqValidBits, nil, func() {
		dev.requests.SetEnabled(dev.enabled.Get())
	})

	dev.pending = dev.Reg32(0x004, 0, irqValidBits,
		func() {
			dev.pending.SetUnchecked(dev.requests.Pending())
		},
		func() {
			// writing acknowledges (clears) the written bits
			dev.pending.SetUnchecked(dev.requests.Acknowledge(dev.pending.Get()))
		})

	return dev
}
