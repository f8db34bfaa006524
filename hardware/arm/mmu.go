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
	"github.com/jetsetilly/llama/bitfield"
	"github.com/jetsetilly/llama/curated"
	"github.com/jetsetilly/llama/hardware/memory"
)

// first level descriptor types
const (
	l1Fault = iota
	l1Coarse
	l1Section
	l1Reserved
)

// second level descriptor types (backwards-compatible layout)
const (
	l2Fault = iota
	l2LargePage
	l2SmallPage
	l2ExtPage
)

// MMU is the ARMv6 memory management unit: a two level page table walk
// from virtual to physical addresses. The MMU holds I and D line caches
// that can be enabled and invalidated, but reads and writes go straight to
// the physical address space after translation; they never go through the
// caches.
type MMU struct {
	enabled       bool
	icacheEnabled bool
	dcacheEnabled bool

	// pagesel splits the address space between the two page tables: an
	// address whose top pagesel bits are non-zero uses the second table
	pagesel    uint
	pageTables [2]uint32

	// the backwards-compatible flag selects the ARMv5 second-level
	// descriptor layout instead of the ARMv6 one
	backcompatWalk bool

	mem    *memory.Controller
	icache *memCache
	dcache *memCache
}

// NewMMU is the preferred method of initialisation for the MMU type.
func NewMMU(mem *memory.Controller) *MMU {
	return &MMU{
		backcompatWalk: true,
		mem:            mem,
		icache:         newMemCache(),
		dcache:         newMemCache(),
	}
}

// SetPageTable sets one of the two translation table base addresses.
func (m *MMU) SetPageTable(idx int, base uint32) {
	m.pageTables[idx] = base
}

// SetPagesel sets the number of leading address bits that select the
// second page table.
func (m *MMU) SetPagesel(n uint) {
	m.pagesel = n
}

// SetBackcompatWalk selects the second-level descriptor layout.
func (m *MMU) SetBackcompatWalk(b bool) {
	m.backcompatWalk = b
}

func (m *MMU) selectPageTable(vaddr uint32) uint32 {
	if m.pagesel == 0 || bitfield.Extract(vaddr, uint(32-m.pagesel), 31) == 0 {
		return m.pageTables[0]
	}
	return m.pageTables[1]
}

func (m *MMU) walkL2(table uint32, vaddr uint32) uint32 {
	descAddr := table + 4*bitfield.Extract(vaddr, 12, 19)
	desc := m.mem.Read32(descAddr)

	if m.backcompatWalk {
		switch bitfield.Extract(desc, 0, 1) {
		case l2Fault:
			panic(curated.Errorf(curated.MmuFault, vaddr))
		case l2LargePage:
			return bitfield.Extract(desc, 16, 31)<<16 | bitfield.Extract(vaddr, 0, 15)
		default: // small and extended pages share the base field
			return bitfield.Extract(desc, 12, 31)<<12 | bitfield.Extract(vaddr, 0, 11)
		}
	}

	// the v6 layout distinguishes page sizes by two separate flag bits.
	// bit 0 of a small page descriptor is the execute-never bit
	large := bitfield.IsSet(desc, 0)
	small := bitfield.IsSet(desc, 1)
	switch {
	case small:
		return bitfield.Extract(desc, 12, 31)<<12 | bitfield.Extract(vaddr, 0, 11)
	case large:
		return bitfield.Extract(desc, 16, 31)<<16 | bitfield.Extract(vaddr, 0, 15)
	}
	panic(curated.Errorf(curated.MmuFault, vaddr))
}

func (m *MMU) walkL1(table uint32, vaddr uint32) uint32 {
	descAddr := table + 4*bitfield.Extract(vaddr, 20, 31)
	desc := m.mem.Read32(descAddr)

	switch bitfield.Extract(desc, 0, 1) {
	case l1Coarse:
		return m.walkL2(bitfield.Extract(desc, 10, 31)<<10, vaddr)
	case l1Section:
		if bitfield.IsSet(desc, 18) {
			// supersection
			return bitfield.Extract(desc, 24, 31)<<24 | bitfield.Extract(vaddr, 0, 23)
		}
		return bitfield.Extract(desc, 20, 31)<<20 | bitfield.Extract(vaddr, 0, 19)
	}
	panic(curated.Errorf(curated.MmuFault, vaddr))
}

// Translate a virtual address to a physical address. Identity when the MMU
// is disabled.
func (m *MMU) Translate(vaddr uint32) uint32 {
	if !m.enabled {
		return vaddr
	}
	return m.walkL1(m.selectPageTable(vaddr), vaddr)
}

// SetEnabled implements the Manager interface.
func (m *MMU) SetEnabled(enabled bool) {
	m.enabled = enabled
}

// ImemRead16 implements the Manager interface.
func (m *MMU) ImemRead16(addr uint32) uint16 {
	return m.mem.Read16(m.Translate(addr))
}

// ImemRead32 implements the Manager interface.
func (m *MMU) ImemRead32(addr uint32) uint32 {
	return m.mem.Read32(m.Translate(addr))
}

// DmemRead8 implements the Manager interface.
func (m *MMU) DmemRead8(addr uint32) uint8 {
	return m.mem.Read8(m.Translate(addr))
}

// DmemRead16 implements the Manager interface.
func (m *MMU) DmemRead16(addr uint32) uint16 {
	return m.mem.Read16(m.Translate(addr))
}

// DmemRead32 implements the Manager interface.
func (m *MMU) DmemRead32(addr uint32) uint32 {
	return m.mem.Read32(m.Translate(addr))
}

// DmemRead64 implements the Manager interface.
func (m *MMU) DmemRead64(addr uint32) uint64 {
	return m.mem.Read64(m.Translate(addr))
}

// DmemWrite8 implements the Manager interface.
func (m *MMU) DmemWrite8(addr uint32, val uint8) {
	m.mem.Write8(m.Translate(addr), val)
}

// DmemWrite16 implements the Manager interface.
func (m *MMU) DmemWrite16(addr uint32, val uint16) {
	m.mem.Write16(m.Translate(addr), val)
}

// DmemWrite32 implements the Manager interface.
func (m *MMU) DmemWrite32(addr uint32, val uint32) {
	m.mem.Write32(m.Translate(addr), val)
}

// DmemWrite64 implements the Manager interface.
func (m *MMU) DmemWrite64(addr uint32, val uint64) {
	m.mem.Write64(m.Translate(addr), val)
}

// ICacheSetEnabled implements the Manager interface.
func (m *MMU) ICacheSetEnabled(enabled bool) {
	m.icacheEnabled = enabled
	if !enabled {
		m.ICacheInvalidate()
	}
}

// ICacheInvalidate implements the Manager interface.
func (m *MMU) ICacheInvalidate() {
	m.icache.invalidate(m.mem)
}

// DCacheSetEnabled implements the Manager interface.
func (m *MMU) DCacheSetEnabled(enabled bool) {
	m.dcacheEnabled = enabled
	if !enabled {
		m.DCacheInvalidate()
	}
}

// DCacheInvalidate implements the Manager interface.
func (m *MMU) DCacheInvalidate() {
	m.dcache.invalidate(m.mem)
}

// MainMem implements the Manager interface.
func (m *MMU) MainMem() *memory.Controller {
	return m.mem
}
