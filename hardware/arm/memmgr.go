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
	"github.com/jetsetilly/llama/hardware/memory"
)

// Manager is the memory management capability presented to the CPU core:
// either the region-based MPU of the ARM9 or the page-table MMU of the
// ARM11. It owns the instruction and data line caches.
type Manager interface {
	SetEnabled(enabled bool)

	ImemRead16(addr uint32) uint16
	ImemRead32(addr uint32) uint32

	DmemRead8(addr uint32) uint8
	DmemRead16(addr uint32) uint16
	DmemRead32(addr uint32) uint32
	DmemRead64(addr uint32) uint64

	DmemWrite8(addr uint32, val uint8)
	DmemWrite16(addr uint32, val uint16)
	DmemWrite32(addr uint32, val uint32)
	DmemWrite64(addr uint32, val uint64)

	ICacheSetEnabled(enabled bool)
	ICacheInvalidate()
	DCacheSetEnabled(enabled bool)
	DCacheInvalidate()

	// MainMem is the physical address space behind the manager. used by
	// the debugger and the loader, which bypass the caches
	MainMem() *memory.Controller
}
