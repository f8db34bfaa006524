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

package arm_test

import (
	"testing"

	"github.com/jetsetilly/llama/hardware/arm"
	"github.com/jetsetilly/llama/hardware/memory"
	"github.com/jetsetilly/llama/test"
)

func testMMU(t *testing.T) (*arm.MMU, *memory.Controller) {
	t.Helper()
	mem := memory.NewController()
	mem.MapRegion(0x00000000, memory.NewUniqueRAM(64))
	return arm.NewMMU(mem), mem
}

func TestMmuDisabledIsIdentity(t *testing.T) {
	mmu, mem := testMMU(t)

	mem.Write32(0x1234&^3, 0xcafe0000)
	test.Equate(t, mmu.Translate(0x1234), uint32(0x1234))
	test.Equate(t, mmu.DmemRead32(0x1234&^3), uint32(0xcafe0000))
}

func TestMmuSmallPage(t *testing.T) {
	mmu, mem := testMMU(t)

	// first level table at 0x1000: entry 0 is a coarse descriptor with
	// the second level table at 0x2000
	mem.Write32(0x1000, 0x2000|1)
	// second level entry 0: small page with base 0x8000
	mem.Write32(0x2000, 0x8000|2)

	mmu.SetPageTable(0, 0x1000)
	mmu.SetEnabled(true)

	mem.Write32(0x8000, 0x12345678)
	test.Equate(t, mmu.Translate(0x0000), uint32(0x8000))
	test.Equate(t, mmu.Translate(0x0abc), uint32(0x8abc))
	test.Equate(t, mmu.DmemRead32(0x0000), uint32(0x12345678))
}

func TestMmuLargePage(t *testing.T) {
	mmu, mem := testMMU(t)

	mem.Write32(0x1000, 0x2000|1)
	// second level entries 0..15 all describe the same 64KiB large page
	// with base 0x0000 (the hardware replicates large page descriptors)
	for i := uint32(0); i < 16; i++ {
		mem.Write32(0x2000+i*4, 0x0000|1)
	}

	mmu.SetPageTable(0, 0x1000)
	mmu.SetEnabled(true)

	test.Equate(t, mmu.Translate(0x0000), uint32(0x0000))
	test.Equate(t, mmu.Translate(0x9abc), uint32(0x9abc))
}

func TestMmuSection(t *testing.T) {
	mmu, mem := testMMU(t)

	// entry 0 maps the first megabyte as a section with base zero
	mem.Write32(0x1000, 0x0000|2)
	mmu.SetPageTable(0, 0x1000)
	mmu.SetEnabled(true)

	test.Equate(t, mmu.Translate(0x00042440), uint32(0x00042440))
}

func TestMmuPagesel(t *testing.T) {
	mmu, mem := testMMU(t)

	// two first level tables, both mapping sections at base zero. a high
	// address selects the second table
	mem.Write32(0x1000, 0x0000|2)
	mem.Write32(0x3000+4*0xe00, 0x0000|2)

	mmu.SetPageTable(0, 0x1000)
	mmu.SetPageTable(1, 0x3000)
	mmu.SetPagesel(2)
	mmu.SetEnabled(true)

	// top two bits zero: first table
	test.Equate(t, mmu.Translate(0x00000100), uint32(0x100))
	// top two bits non-zero: second table. 0xe0000000 indexes entry
	// 0xe00 of the table
	test.Equate(t, mmu.Translate(0xe0000100), uint32(0x100))
}

func TestMmuFault(t *testing.T) {
	mmu, mem := testMMU(t)

	// entry 0 is a fault descriptor
	mem.Write32(0x1000, 0)
	mmu.SetPageTable(0, 0x1000)
	mmu.SetEnabled(true)

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected a fault for an unmapped virtual address")
		}
	}()
	mmu.Translate(0x0000)
}
