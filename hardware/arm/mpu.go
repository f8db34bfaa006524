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
	"github.com/jetsetilly/llama/curated"
	"github.com/jetsetilly/llama/hardware/memory"
)

// NumMpuRegions supported by the protection unit.
const NumMpuRegions = 8

// MPU is the ARMv5 memory protection unit: eight regions, no translation.
// When disabled all accesses pass straight through to the physical address
// space and the caches are bypassed.
type MPU struct {
	enabled       bool
	icacheEnabled bool
	dcacheEnabled bool

	// an address belongs to the highest-indexed enabled region whose
	// significant bits match
	regionEnabled    uint8
	regionUseICache  uint8
	regionUseDCache  uint8
	regionBaseSigbit [NumMpuRegions]uint32
	regionSizeExp    [NumMpuRegions]uint32

	mem    *memory.Controller
	icache *memCache
	dcache *memCache
}

// NewMPU is the preferred method of initialisation for the MPU type.
func NewMPU(mem *memory.Controller) *MPU {
	return &MPU{
		mem:    mem,
		icache: newMemCache(),
		dcache: newMemCache(),
	}
}

// regionMask selects the region for the address, scanning from the highest
// index. Faults if no enabled region matches.
func (m *MPU) regionMask(addr uint32) uint8 {
	for i := NumMpuRegions - 1; i >= 0; i-- {
		bit := uint8(1) << uint(i)
		if m.regionEnabled&bit != 0 && addr>>m.regionSizeExp[i] == m.regionBaseSigbit[i] {
			return bit
		}
	}
	panic(curated.Errorf(curated.MpuFault, addr))
}

// SetRegion programs one protection region.
func (m *MPU) SetRegion(idx int, enabled bool, baseSigbits uint32, sizeExp uint32) {
	bit := uint8(1) << uint(idx)
	if enabled {
		m.regionEnabled |= bit
	} else {
		m.regionEnabled &^= bit
	}
	m.regionBaseSigbit[idx] = baseSigbits
	m.regionSizeExp[idx] = sizeExp
}

// SetRegionICache sets the per-region instruction cacheability bits.
func (m *MPU) SetRegionICache(bits uint8) {
	m.regionUseICache = bits
}

// SetRegionDCache sets the per-region data cacheability bits.
func (m *MPU) SetRegionDCache(bits uint8) {
	m.regionUseDCache = bits
}

func (m *MPU) icacheLive() bool {
	return m.enabled && m.icacheEnabled
}

func (m *MPU) dcacheLive() bool {
	return m.enabled && m.dcacheEnabled
}

// SetEnabled implements the Manager interface.
func (m *MPU) SetEnabled(enabled bool) {
	m.enabled = enabled
}

// ImemRead16 implements the Manager interface.
func (m *MPU) ImemRead16(addr uint32) uint16 {
	if m.icacheLive() && m.regionUseICache&m.regionMask(addr) != 0 {
		return m.icache.read16(addr, m.mem)
	}
	if m.enabled {
		m.regionMask(addr)
	}
	return m.mem.Read16(addr)
}

// ImemRead32 implements the Manager interface.
func (m *MPU) ImemRead32(addr uint32) uint32 {
	if m.icacheLive() && m.regionUseICache&m.regionMask(addr) != 0 {
		return m.icache.read32(addr, m.mem)
	}
	if m.enabled {
		m.regionMask(addr)
	}
	return m.mem.Read32(addr)
}

// dcached returns true if the address should go through the data cache.
func (m *MPU) dcached(addr uint32) bool {
	if m.dcacheLive() && m.regionUseDCache&m.regionMask(addr) != 0 {
		return true
	}
	if m.enabled {
		m.regionMask(addr)
	}
	return false
}

// DmemRead8 implements the Manager interface.
func (m *MPU) DmemRead8(addr uint32) uint8 {
	if m.dcached(addr) {
		return m.dcache.read8(addr, m.mem)
	}
	return m.mem.Read8(addr)
}

// DmemRead16 implements the Manager interface.
func (m *MPU) DmemRead16(addr uint32) uint16 {
	if m.dcached(addr) {
		return m.dcache.read16(addr, m.mem)
	}
	return m.mem.Read16(addr)
}

// DmemRead32 implements the Manager interface.
func (m *MPU) DmemRead32(addr uint32) uint32 {
	if m.dcached(addr) {
		return m.dcache.read32(addr, m.mem)
	}
	return m.mem.Read32(addr)
}

// DmemRead64 implements the Manager interface.
func (m *MPU) DmemRead64(addr uint32) uint64 {
	if m.dcached(addr) {
		return m.dcache.read64(addr, m.mem)
	}
	return m.mem.Read64(addr)
}

// DmemWrite8 implements the Manager interface.
func (m *MPU) DmemWrite8(addr uint32, val uint8) {
	if m.dcached(addr) {
		m.dcache.write8(addr, val, m.mem)
		return
	}
	m.mem.Write8(addr, val)
}

// DmemWrite16 implements the Manager interface.
func (m *MPU) DmemWrite16(addr uint32, val uint16) {
	if m.dcached(addr) {
		m.dcache.write16(addr, val, m.mem)
		return
	}
	m.mem.Write16(addr, val)
}

// DmemWrite32 implements the Manager interface.
func (m *MPU) DmemWrite32(addr uint32, val uint32) {
	if m.dcached(addr) {
		m.dcache.write32(addr, val, m.mem)
		return
	}
	m.mem.Write32(addr, val)
}

// DmemWrite64 implements the Manager interface.
func (m *MPU) DmemWrite64(addr uint32, val uint64) {
	if m.dcached(addr) {
		m.dcache.write64(addr, val, m.mem)
		return
	}
	m.mem.Write64(addr, val)
}

// ICacheSetEnabled implements the Manager interface. Disabling the cache
// invalidates it.
func (m *MPU) ICacheSetEnabled(enabled bool) {
	m.icacheEnabled = enabled
	if !enabled {
		m.ICacheInvalidate()
	}
}

// ICacheInvalidate implements the Manager interface.
func (m *MPU) ICacheInvalidate() {
	m.icache.invalidate(m.mem)
}

// DCacheSetEnabled implements the Manager interface. Disabling the cache
// invalidates it.
func (m *MPU) DCacheSetEnabled(enabled bool) {
	m.dcacheEnabled = enabled
	if !enabled {
		m.DCacheInvalidate()
	}
}

// DCacheInvalidate implements the Manager interface.
func (m *MPU) DCacheInvalidate() {
	m.dcache.invalidate(m.mem)
}

// MainMem implements the Manager interface.
func (m *MPU) MainMem() *memory.Controller {
	return m.mem
}
