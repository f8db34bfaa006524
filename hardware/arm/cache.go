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

package arm

import (
	"encoding/binary"

	"github.com/jetsetilly/llama/hardware/memory"
)

// tinyCache is a 64 slot direct-mapped cache. It backs the I/D line caches
// (where the value is a 32 byte line and the sink writes dirty lines back
// to the physical address space) and the decode caches (where the value is
// an executable function and the sink is nil).
//
// Collisions evict the current occupant. The sink always sees the key that
// is being evicted, never the key that missed.
const (
	cacheSizeBits = 6
	cacheSize     = 1 << cacheSizeBits
)

type srcFunc[T any, C any] func(ctx C, key uint32) T
type sinkFunc[T any, C any] func(ctx C, key uint32, val *T)

type tinyCache[T any, C any] struct {
	keys  [cacheSize]uint32
	vals  [cacheSize]T
	dirty [cacheSize]bool
	src   srcFunc[T, C]
	sink  sinkFunc[T, C]
}

func newTinyCache[T any, C any](src srcFunc[T, C], sink sinkFunc[T, C]) *tinyCache[T, C] {
	c := &tinyCache[T, C]{
		src:  src,
		sink: sink,
	}
	for i := range c.keys {
		c.keys[i] = ^uint32(0)
	}
	return c
}

// keyToIndex is the Knuth multiplicative hash, taking the top bits of the
// product.
func keyToIndex(key uint32) int {
	return int((key * 2654435761) >> (32 - cacheSizeBits))
}

func (c *tinyCache[T, C]) flush(idx int, ctx C) {
	if c.dirty[idx] {
		if c.sink != nil {
			c.sink(ctx, c.keys[idx], &c.vals[idx])
		}
		c.dirty[idx] = false
	}
}

// getOr returns the value for key, evicting and refilling the slot on a
// miss.
func (c *tinyCache[T, C]) getOr(key uint32, ctx C) *T {
	idx := keyToIndex(key)
	if c.keys[idx] != key {
		c.flush(idx, ctx)
		c.keys[idx] = key
		c.vals[idx] = c.src(ctx, key)
	}
	return &c.vals[idx]
}

// updateOr applies the updater to the value for key and marks the slot
// dirty, refilling on a miss first.
func (c *tinyCache[T, C]) updateOr(key uint32, updater func(key uint32, val *T), ctx C) {
	idx := keyToIndex(key)
	if c.keys[idx] != key {
		c.flush(idx, ctx)
		c.keys[idx] = key
		c.vals[idx] = c.src(ctx, key)
	}
	updater(key, &c.vals[idx])
	c.dirty[idx] = true
}

// invalidate writes back all dirty slots and resets all tags.
func (c *tinyCache[T, C]) invalidate(ctx C) {
	for i := 0; i < cacheSize; i++ {
		c.flush(i, ctx)
		c.keys[i] = ^uint32(0)
	}
}

// memCache is a line cache in front of the physical address space: 32 byte
// lines, write-back, write-allocate.
type memCache struct {
	lines *tinyCache[[memory.LineSize]byte, *memory.Controller]
}

func newMemCache() *memCache {
	return &memCache{
		lines: newTinyCache(
			func(mem *memory.Controller, key uint32) [memory.LineSize]byte {
				return mem.ReadLine(key)
			},
			func(mem *memory.Controller, key uint32, val *[memory.LineSize]byte) {
				mem.WriteLine(key, *val)
			},
		),
	}
}

func lineBase(addr uint32) (uint32, uint32) {
	return addr &^ (memory.LineSize - 1), addr & (memory.LineSize - 1)
}

func (mc *memCache) read8(addr uint32, mem *memory.Controller) uint8 {
	base, rem := lineBase(addr)
	line := mc.lines.getOr(base, mem)
	return line[rem]
}

func (mc *memCache) read16(addr uint32, mem *memory.Controller) uint16 {
	base, rem := lineBase(addr)
	line := mc.lines.getOr(base, mem)
	return binary.LittleEndian.Uint16(line[rem:])
}

func (mc *memCache) read32(addr uint32, mem *memory.Controller) uint32 {
	base, rem := lineBase(addr)
	line := mc.lines.getOr(base, mem)
	return binary.LittleEndian.Uint32(line[rem:])
}

func (mc *memCache) read64(addr uint32, mem *memory.Controller) uint64 {
	base, rem := lineBase(addr)
	line := mc.lines.getOr(base, mem)
	return binary.LittleEndian.Uint64(line[rem:])
}

func (mc *memCache) write8(addr uint32, val uint8, mem *memory.Controller) {
	base, rem := lineBase(addr)
	mc.lines.updateOr(base, func(_ uint32, line *[memory.LineSize]byte) {
		line[rem] = val
	}, mem)
}

func (mc *memCache) write16(addr uint32, val uint16, mem *memory.Controller) {
	base, rem := lineBase(addr)
	mc.lines.updateOr(base, func(_ uint32, line *[memory.LineSize]byte) {
		binary.LittleEndian.PutUint16(line[rem:], val)
	}, mem)
}

func (mc *memCache) write32(addr uint32, val uint32, mem *memory.Controller) {
	base, rem := lineBase(addr)
	mc.lines.updateOr(base, func(_ uint32, line *[memory.LineSize]byte) {
		binary.LittleEndian.PutUint32(line[rem:], val)
	}, mem)
}

func (mc *memCache) write64(addr uint32, val uint64, mem *memory.Controller) {
	base, rem := lineBase(addr)
	mc.lines.updateOr(base, func(_ uint32, line *[memory.LineSize]byte) {
		binary.LittleEndian.PutUint64(line[rem:], val)
	}, mem)
}

func (mc *memCache) invalidate(mem *memory.Controller) {
	mc.lines.invalidate(mem)
}
