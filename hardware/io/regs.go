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

	"github.com/jetsetilly/llama/curated"
)

// Reg is a single memory-mapped register. The write mask controls which
// bits the CPU can change; the emulation itself writes through
// SetUnchecked().
type Reg struct {
	width     int // bytes: 1, 2 or 4
	value     uint32
	writeBits uint32
}

// Get the current register value.
func (r *Reg) Get() uint32 {
	return r.value
}

// Set the register value, honouring the write mask.
func (r *Reg) Set(v uint32) {
	r.value = (r.value &^ r.writeBits) | (v & r.writeBits)
}

// SetUnchecked sets the register value, ignoring the write mask.
func (r *Reg) SetUnchecked(v uint32) {
	r.value = v
}

func (r *Reg) load(buf []byte) {
	switch r.width {
	case 1:
		buf[0] = uint8(r.value)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(r.value))
	case 4:
		binary.LittleEndian.PutUint32(buf, r.value)
	}
}

func (r *Reg) save(buf []byte) {
	var v uint32
	switch r.width {
	case 1:
		v = uint32(buf[0])
	case 2:
		v = uint32(binary.LittleEndian.Uint16(buf))
	case 4:
		v = binary.LittleEndian.Uint32(buf)
	}
	r.Set(v)
}

// regEntry couples a register with its side effects. effects run with the
// owning device's critical section held.
type regEntry struct {
	reg     *Reg
	onRead  func()
	onWrite func()
}

// rangeEntry is a span of offsets handled as a whole. used for register
// arrays and data windows (OTP bytes, RSA modulus, SHA fifo, etc.)
type rangeEntry struct {
	offset  uint32
	size    uint32
	onRead  func(pos uint32, buf []byte)
	onWrite func(pos uint32, buf []byte)
}

// Device is a table of registers and ranged handlers at offsets within a
// 4KiB region of the IO space.
type Device struct {
	name    string
	regs    map[uint32]*regEntry
	ranges  []rangeEntry
}

// NewDevice is the preferred method of initialisation for the Device type.
func NewDevice(name string) *Device {
	return &Device{
		name: name,
		regs: make(map[uint32]*regEntry),
	}
}

// Name of the device, as used in log entries.
func (d *Device) Name() string {
	return d.name
}

func (d *Device) addReg(offset uint32, width int, def uint32, writeBits uint32, onRead func(), onWrite func()) *Reg {
	r := &Reg{width: width, value: def, writeBits: writeBits}
	d.regs[offset] = &regEntry{reg: r, onRead: onRead, onWrite: onWrite}
	return r
}

// Reg8 defines a one byte register at the offset.
func (d *Device) Reg8(offset uint32, def uint32, writeBits uint32, onRead func(), onWrite func()) *Reg {
	return d.addReg(offset, 1, def, writeBits, onRead, onWrite)
}

// Reg16 defines a two byte register at the offset.
func (d *Device) Reg16(offset uint32, def uint32, writeBits uint32, onRead func(), onWrite func()) *Reg {
	return d.addReg(offset, 2, def, writeBits, onRead, onWrite)
}

// Reg32 defines a four byte register at the offset.
func (d *Device) Reg32(offset uint32, def uint32, writeBits uint32, onRead func(), onWrite func()) *Reg {
	return d.addReg(offset, 4, def, writeBits, onRead, onWrite)
}

// Range defines a span of offsets handled by a single pair of functions.
func (d *Device) Range(offset uint32, size uint32, onRead func(pos uint32, buf []byte), onWrite func(pos uint32, buf []byte)) {
	d.ranges = append(d.ranges, rangeEntry{offset: offset, size: size, onRead: onRead, onWrite: onWrite})
}

// ReadRegister reads len(buf) bytes from the device starting at the offset.
// A read wider than the register at the offset continues with the next
// register.
func (d *Device) ReadRegister(offset uint32, buf []byte) {
	if e, ok := d.regs[offset]; ok {
		width := e.reg.width
		if len(buf)%width != 0 {
			panic(curated.Errorf(curated.UnimplementedIO, d.name, offset))
		}
		if e.onRead != nil {
			e.onRead()
		}
		e.reg.load(buf[:width])
		if len(buf) > width {
			// wide access takes in the next register too
			d.ReadRegister(offset+uint32(width), buf[width:])
		}
		return
	}

	for _, rng := range d.ranges {
		if offset >= rng.offset && offset < rng.offset+rng.size {
			if offset+uint32(len(buf)) > rng.offset+rng.size {
				panic(curated.Errorf(curated.UnimplementedIO, d.name, offset))
			}
			if rng.onRead != nil {
				rng.onRead(offset-rng.offset, buf)
			}
			return
		}
	}

	panic(curated.Errorf(curated.UnimplementedIO, d.name, offset))
}

// WriteRegister writes len(buf) bytes to the device starting at the offset.
// A write wider than the register at the offset continues with the next
// register.
func (d *Device) WriteRegister(offset uint32, buf []byte) {
	if e, ok := d.regs[offset]; ok {
		width := e.reg.width
		if len(buf)%width != 0 {
			panic(curated.Errorf(curated.UnimplementedIO, d.name, offset))
		}
		e.reg.save(buf[:width])
		if e.onWrite != nil {
			e.onWrite()
		}
		if len(buf) > width {
			d.WriteRegister(offset+uint32(width), buf[width:])
		}
		return
	}

	for _, rng := range d.ranges {
		if offset >= rng.offset && offset < rng.offset+rng.size {
			if offset+uint32(len(buf)) > rng.offset+rng.size {
				panic(curated.Errorf(curated.UnimplementedIO, d.name, offset))
			}
			if rng.onWrite != nil {
				rng.onWrite(offset-rng.offset, buf)
			}
			return
		}
	}

	panic(curated.Errorf(curated.UnimplementedIO, d.name, offset))
}
