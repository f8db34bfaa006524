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

// Button identifies one input on the console. The value is the bit
// position in the HID pad register.
type Button int

// List of valid Button values.
const (
	ButtonA Button = iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonRight
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonR
	ButtonL
	ButtonX
	ButtonY
)

// ButtonState is a press or release of one button.
type ButtonState struct {
	Button  Button
	Pressed bool
}

// HidDevice is the register face of the input hardware. Button changes
// arrive on a channel, typically fed by the GUI shell.
type HidDevice struct {
	*Device
	input chan ButtonState

	pad *Reg
}

// NewHidDevice is the preferred method of initialisation for the HidDevice
// type.
func NewHidDevice() *HidDevice {
	dev := &HidDevice{
		Device: NewDevice("HID"),
		input:  make(chan ButtonState, 32),
	}

	// a set bit means the button is released
	dev.pad = dev.Reg16(0x000, 0xffff, 0, dev.padRead, nil)
	dev.Reg16(0x002, 0, 0xffff, nil, nil)

	return dev
}

// Input returns the channel on which button changes are delivered.
func (dev *HidDevice) Input() chan<- ButtonState {
	return dev.input
}

func (dev *HidDevice) padRead() {
	pad := dev.pad.Get()
	for {
		select {
		case change := <-dev.input:
			if change.Pressed {
				pad &^= 1 << uint(change.Button)
			} else {
				pad |= 1 << uint(change.Button)
			}
		default:
			dev.pad.SetUnchecked(pad)
			return
		}
	}
}
