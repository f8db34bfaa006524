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

// Package memory implements the physical address space of one CPU: an
// ordered mapping of base addresses to memory blocks. Blocks are plain RAM
// (unique to the CPU or shared between CPUs) or memory-mapped IO register
// busses.
//
// Fatal access errors (unmapped addresses, misaligned sized accesses) are
// raised as panics carrying curated errors. The CPU driver recovers them at
// the instruction batch boundary and surfaces them as a break reason.
package memory

import (
	"encoding/binary"
	"sort"

	"github.com/jetsetilly/llama/curated"
)

// Block is an addressable span of physical memory. Offsets passed to
// ReadBuf/WriteBuf are relative to the block's mapping base and are
// guaranteed to be inside the block.
type Block interface {
	Size() uint32
	ReadBuf(offset uint32, buf []byte)
	WriteBuf(offset uint32, buf []byte)
}

type mapping struct {
	base  uint32
	block Block
}

// Controller dispatches physical addresses to the mapped block. The zero
// value is an empty address space.
type Controller struct {
	mappings []mapping
}

// NewController is the preferred method of initialisation for the
// Controller type.
func NewController() *Controller {
	return &Controller{}
}

// MapRegion inserts a block at the specified base address. Blocks must not
// overlap; mapping the same base twice replaces the block.
func (mc *Controller) MapRegion(base uint32, block Block) {
	i := sort.Search(len(mc.mappings), func(i int) bool {
		return mc.mappings[i].base >= base
	})

	if i < len(mc.mappings) && mc.mappings[i].base == base {
		mc.mappings[i].block = block
		return
	}

	mc.mappings = append(mc.mappings, mapping{})
	copy(mc.mappings[i+1:], mc.mappings[i:])
	mc.mappings[i] = mapping{base: base, block: block}
}

// match finds the mapping with the greatest base less than or equal to the
// address, provided the address falls inside the block.
func (mc *Controller) match(address uint32) (mapping, bool) {
	i := sort.Search(len(mc.mappings), func(i int) bool {
		return mc.mappings[i].base > address
	})
	if i == 0 {
		return mapping{}, false
	}

	m := mc.mappings[i-1]
	if address-m.base >= m.block.Size() {
		return mapping{}, false
	}
	return m, true
}

func (mc *Controller) mustMatch(address uint32, size uint32) mapping {
	m, ok := mc.match(address)
	if !ok {
		panic(curated.Errorf(curated.UnmappedAddress, address))
	}
	if address%size != 0 {
		panic(curated.Errorf(curated.MisalignedAddress, size, address))
	}
	if address-m.base+size > m.block.Size() {
		panic(curated.Errorf(curated.UnmappedAddress, address))
	}
	return m
}

// Read8 returns the byte at the address.
func (mc *Controller) Read8(address uint32) uint8 {
	var buf [1]byte
	m := mc.mustMatch(address, 1)
	m.block.ReadBuf(address-m.base, buf[:])
	return buf[0]
}

// Read16 returns the naturally aligned 16 bit value at the address.
func (mc *Controller) Read16(address uint32) uint16 {
	var buf [2]byte
	m := mc.mustMatch(address, 2)
	m.block.ReadBuf(address-m.base, buf[:])
	return binary.LittleEndian.Uint16(buf[:])
}

// Read32 returns the naturally aligned 32 bit value at the address.
func (mc *Controller) Read32(address uint32) uint32 {
	var buf [4]byte
	m := mc.mustMatch(address, 4)
	m.block.ReadBuf(address-m.base, buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

// Read64 returns the naturally aligned 64 bit value at the address.
func (mc *Controller) Read64(address uint32) uint64 {
	var buf [8]byte
	m := mc.mustMatch(address, 8)
	m.block.ReadBuf(address-m.base, buf[:])
	return binary.LittleEndian.Uint64(buf[:])
}

// ReadLine returns the aligned 32 byte line at the address. This is the
// refill unit used by the CPU caches.
func (mc *Controller) ReadLine(address uint32) [LineSize]byte {
	var buf [LineSize]byte
	m := mc.mustMatch(address, LineSize)
	m.block.ReadBuf(address-m.base, buf[:])
	return buf
}

// Write8 stores a byte at the address.
func (mc *Controller) Write8(address uint32, val uint8) {
	m := mc.mustMatch(address, 1)
	m.block.WriteBuf(address-m.base, []byte{val})
}

// Write16 stores a naturally aligned 16 bit value at the address.
func (mc *Controller) Write16(address uint32, val uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], val)
	m := mc.mustMatch(address, 2)
	m.block.WriteBuf(address-m.base, buf[:])
}

// Write32 stores a naturally aligned 32 bit value at the address.
func (mc *Controller) Write32(address uint32, val uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], val)
	m := mc.mustMatch(address, 4)
	m.block.WriteBuf(address-m.base, buf[:])
}

// Write64 stores a naturally aligned 64 bit value at the address.
func (mc *Controller) Write64(address uint32, val uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], val)
	m := mc.mustMatch(address, 8)
	m.block.WriteBuf(address-m.base, buf[:])
}

// WriteLine stores an aligned 32 byte line at the address. This is the
// write-back unit used by the CPU caches.
func (mc *Controller) WriteLine(address uint32, line [LineSize]byte) {
	m := mc.mustMatch(address, LineSize)
	m.block.WriteBuf(address-m.base, line[:])
}

// ReadBuf fills buf from the address. The access may span adjacent blocks.
func (mc *Controller) ReadBuf(address uint32, buf []byte) {
	for len(buf) > 0 {
		m, ok := mc.match(address)
		if !ok {
			panic(curated.Errorf(curated.UnmappedAddress, address))
		}
		offset := address - m.base
		n := m.block.Size() - offset
		if n > uint32(len(buf)) {
			n = uint32(len(buf))
		}
		m.block.ReadBuf(offset, buf[:n])
		buf = buf[n:]
		address += n
	}
}

// WriteBuf stores buf at the address. The access may span adjacent blocks.
func (mc *Controller) WriteBuf(address uint32, buf []byte) {
	for len(buf) > 0 {
		m, ok := mc.match(address)
		if !ok {
			panic(curated.Errorf(curated.UnmappedAddress, address))
		}
		offset := address - m.base
		n := m.block.Size() - offset
		if n > uint32(len(buf)) {
			n = uint32(len(buf))
		}
		m.block.WriteBuf(offset, buf[:n])
		buf = buf[n:]
		address += n
	}
}

// DebugReadBuf is like ReadBuf but refuses to touch IO blocks, where a read
// can have side effects the debugger must not trigger. It returns an error
// rather than panicking.
func (mc *Controller) DebugReadBuf(address uint32, buf []byte) error {
	for len(buf) > 0 {
		m, ok := mc.match(address)
		if !ok {
			return curated.Errorf(curated.UnmappedAddress, address)
		}
		if _, ok := m.block.(*IO); ok {
			return curated.Errorf("debug read of io address: %08x", address)
		}
		offset := address - m.base
		n := m.block.Size() - offset
		if n > uint32(len(buf)) {
			n = uint32(len(buf))
		}
		m.block.ReadBuf(offset, buf[:n])
		buf = buf[n:]
		address += n
	}
	return nil
}
