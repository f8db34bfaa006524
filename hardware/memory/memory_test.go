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

package memory_test

import (
	"testing"

	"github.com/jetsetilly/llama/curated"
	"github.com/jetsetilly/llama/hardware/memory"
	"github.com/jetsetilly/llama/test"
)

func TestBlockLookup(t *testing.T) {
	mc := memory.NewController()
	mc.MapRegion(0x0000, memory.NewUniqueRAM(1))
	mc.MapRegion(0x8000, memory.NewUniqueRAM(1))

	mc.Write32(0x0000, 0x11111111)
	mc.Write32(0x8000, 0x22222222)

	test.Equate(t, mc.Read32(0x0000), uint32(0x11111111))
	test.Equate(t, mc.Read32(0x8000), uint32(0x22222222))

	// the greatest base not greater than the address wins
	mc.Write8(0x83ff, 0x99)
	test.Equate(t, mc.Read8(0x83ff), uint8(0x99))
}

func TestSizedAccess(t *testing.T) {
	mc := memory.NewController()
	mc.MapRegion(0x0000, memory.NewUniqueRAM(1))

	mc.Write64(0x0000, 0x1122334455667788)
	test.Equate(t, mc.Read8(0x0000), uint8(0x88))
	test.Equate(t, mc.Read16(0x0000), uint16(0x7788))
	test.Equate(t, mc.Read32(0x0000), uint32(0x55667788))
	test.Equate(t, mc.Read32(0x0004), uint32(0x11223344))
	test.Equate(t, mc.Read64(0x0000), uint64(0x1122334455667788))
}

func TestUnmappedPanics(t *testing.T) {
	mc := memory.NewController()
	mc.MapRegion(0x0000, memory.NewUniqueRAM(1))

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected a panic for the unmapped address")
		}
		err, ok := r.(error)
		test.Equate(t, ok, true)
		test.Equate(t, curated.Is(err, curated.UnmappedAddress), true)
	}()
	mc.Read32(0x10000)
}

func TestMisalignedPanics(t *testing.T) {
	mc := memory.NewController()
	mc.MapRegion(0x0000, memory.NewUniqueRAM(1))

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected a panic for the misaligned access")
		}
		err, ok := r.(error)
		test.Equate(t, ok, true)
		test.Equate(t, curated.Is(err, curated.MisalignedAddress), true)
	}()
	mc.Read32(0x0002)
}

func TestBufSpansBlocks(t *testing.T) {
	mc := memory.NewController()
	mc.MapRegion(0x0000, memory.NewUniqueRAM(1))
	mc.MapRegion(0x0400, memory.NewUniqueRAM(1))

	src := []byte{0xde, 0xad, 0xbe, 0xef}
	mc.WriteBuf(0x03fe, src)

	buf := make([]byte, 4)
	mc.ReadBuf(0x03fe, buf)
	test.Equate(t, buf[0], uint8(0xde))
	test.Equate(t, buf[3], uint8(0xef))

	// the first two bytes landed in the first block, the rest in the
	// second
	test.Equate(t, mc.Read8(0x03ff), uint8(0xad))
	test.Equate(t, mc.Read8(0x0400), uint8(0xbe))
}

func TestSharedRAMInterleavedNodes(t *testing.T) {
	r := memory.NewSharedRAM(2)
	test.Equate(t, r.Size(), uint32(0x800))

	// a write straddling the 1KiB node boundary
	r.WriteBuf(0x3fe, []byte{0xff, 0x53, 0x28, 0xc6})

	buf := make([]byte, 4)
	r.ReadBuf(0x3fe, buf)
	test.Equate(t, buf[0], uint8(0xff))
	test.Equate(t, buf[1], uint8(0x53))
	test.Equate(t, buf[2], uint8(0x28))
	test.Equate(t, buf[3], uint8(0xc6))
}

type recordingBus struct {
	lastReadOffset  uint32
	lastWriteOffset uint32
	lastWrite       []byte
}

func (b *recordingBus) ReadRegister(offset uint32, buf []byte) {
	b.lastReadOffset = offset
	for i := range buf {
		buf[i] = 0x5a
	}
}

func (b *recordingBus) WriteRegister(offset uint32, buf []byte) {
	b.lastWriteOffset = offset
	b.lastWrite = append([]byte(nil), buf...)
}

func TestIOBlockDispatch(t *testing.T) {
	bus := &recordingBus{}
	mc := memory.NewController()
	mc.MapRegion(0x10000000, memory.NewIO(bus, 1024))

	mc.Write32(0x10008000, 0x01020304)
	test.Equate(t, bus.lastWriteOffset, uint32(0x8000))
	test.Equate(t, len(bus.lastWrite), 4)

	test.Equate(t, mc.Read16(0x10008004), uint16(0x5a5a))
	test.Equate(t, bus.lastReadOffset, uint32(0x8004))

	// the debugger must not read IO addresses
	err := mc.DebugReadBuf(0x10008000, make([]byte, 4))
	test.ExpectedFailure(t, err)
}
