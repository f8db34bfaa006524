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
	"testing"

	"github.com/jetsetilly/llama/hardware/memory"
	"github.com/jetsetilly/llama/test"
)

func TestTinyCacheSourceAndSink(t *testing.T) {
	var srcCalls, sinkCalls int
	var sinkKey uint32

	c := newTinyCache(
		func(_ struct{}, key uint32) uint32 {
			srcCalls++
			return key + 1
		},
		func(_ struct{}, key uint32, val *uint32) {
			sinkCalls++
			sinkKey = key
		},
	)

	// miss then hit
	v := c.getOr(0x100, struct{}{})
	test.Equate(t, *v, uint32(0x101))
	test.Equate(t, srcCalls, 1)
	v = c.getOr(0x100, struct{}{})
	test.Equate(t, *v, uint32(0x101))
	test.Equate(t, srcCalls, 1)

	// updating a cached slot marks it dirty but calls no function
	c.updateOr(0x100, func(_ uint32, val *uint32) { *val = 99 }, struct{}{})
	test.Equate(t, sinkCalls, 0)

	// invalidation flushes the dirty slot; the sink sees the dirty key
	c.invalidate(struct{}{})
	test.Equate(t, sinkCalls, 1)
	test.Equate(t, sinkKey, uint32(0x100))

	// tags are reset: the next access misses
	c.getOr(0x100, struct{}{})
	test.Equate(t, srcCalls, 2)
}

func TestTinyCacheEvictionSeesEvictedKey(t *testing.T) {
	// two keys that collide in the 64 slot direct-mapped cache. the hash
	// is multiplicative so keys whose products share the top six bits
	// collide; found by search here
	keyA := uint32(0)
	keyB := uint32(0)
	idx := keyToIndex(keyA)
	for k := uint32(1); ; k++ {
		if keyToIndex(k) == idx {
			keyB = k
			break
		}
	}

	var sinkKeys []uint32
	c := newTinyCache(
		func(_ struct{}, key uint32) uint32 { return key },
		func(_ struct{}, key uint32, val *uint32) {
			sinkKeys = append(sinkKeys, key)
		},
	)

	c.updateOr(keyA, func(_ uint32, val *uint32) { *val = 1 }, struct{}{})
	c.updateOr(keyB, func(_ uint32, val *uint32) { *val = 2 }, struct{}{})

	// the sink saw the evicted key, not the key that missed
	test.Equate(t, len(sinkKeys), 1)
	test.Equate(t, sinkKeys[0], keyA)
}

func TestMemCacheWriteBack(t *testing.T) {
	mem := memory.NewController()
	mem.MapRegion(0x0000, memory.NewUniqueRAM(64))

	mc := newMemCache()

	mem.Write32(0x0040, 0x01020304)

	// a cached read observes the physical value
	test.Equate(t, mc.read32(0x0040, mem), uint32(0x01020304))

	// a cached write is not visible physically until invalidation
	mc.write32(0x0040, 0x0a0b0c0d, mem)
	test.Equate(t, mem.Read32(0x0040), uint32(0x01020304))
	test.Equate(t, mc.read32(0x0040, mem), uint32(0x0a0b0c0d))

	mc.invalidate(mem)
	test.Equate(t, mem.Read32(0x0040), uint32(0x0a0b0c0d))

	// after invalidation every read observes the physical value
	mem.Write32(0x0040, 0x55667788)
	test.Equate(t, mc.read32(0x0040, mem), uint32(0x55667788))
}
