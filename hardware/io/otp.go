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

// OtpDevice exposes the 256 byte one-time-programmable area, loaded from
// the otp.bin resource.
type OtpDevice struct {
	*Device
	otp [0x100]byte
}

// NewOtpDevice is the preferred method of initialisation for the OtpDevice
// type.
func NewOtpDevice() *OtpDevice {
	dev := &OtpDevice{
		Device: NewDevice("OTP"),
	}

	if p, err := paths.ResourcePath(paths.Otp); err == nil {
		if f, err := os.ReadFile(p); err == nil && len(f) >= len(dev.otp) {
			copy(dev.otp[:], f)
			logger.Log("OTP", "loaded from disk")
		} else {
			logger.Log("OTP", "otp.bin not available, using zeroes")
		}
	}

	dev.Range(0x000, 0x100,
		func(pos uint32, buf []byte) {
			copy(buf, dev.otp[pos:])
		},
		func(pos uint32, buf []byte) {
			copy(dev.otp[pos:], buf)
		})

	dev.Reg32(0x100, 0, 0xffffffff, nil, nil) // twl_id0
	dev.Reg32(0x104, 0, 0xffffffff, nil, nil) // twl_id1

	return dev
}
