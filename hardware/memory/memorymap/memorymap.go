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

// Package memorymap records the physical address maps of the two CPUs.
// Sizes are in KiB, matching the units used by the memory block
// constructors.
package memorymap

// The ARM9 view of the address space.
const (
	// ITCM is physically 32KiB, mirrored every 0x8000 bytes up to
	// OriginITCMMirrors
	OriginITCM        = 0x00000000
	SizeITCM          = 0x20
	MirrorITCM        = 0x00008000
	OriginITCMMirrors = 0x08000000

	// internal RAM, private to the ARM9
	OriginA9RAM = 0x08000000
	SizeA9RAM   = 0x400

	// memory mapped IO. the ARM9 block is private; the shared block is
	// visible to both CPUs
	OriginIO9      = 0x10000000
	SizeIO9        = 0x400
	OriginIOShared = 0x10100000
	SizeIOShared   = 0x400

	OriginVRAM = 0x18000000
	SizeVRAM   = 0x1800

	OriginDSPRAM = 0x1ff00000
	SizeDSPRAM   = 0x200

	OriginAXIWRAM = 0x1ff80000
	SizeAXIWRAM   = 0x200

	OriginFCRAM = 0x20000000
	SizeFCRAM   = 0x20000

	OriginDTCM = 0xfff00000
	SizeDTCM   = 0x10

	OriginBootrom = 0xffff0000
	SizeBootrom   = 0x40
)

// The ARM11 view of the address space. Shared blocks appear at the same
// physical addresses as on the ARM9 side.
const (
	OriginIO11     = 0x10200000
	SizeIO11       = 0x400
	OriginPriv11   = 0x17e00000
	SizePriv11     = 0x8
	OriginBootrom11 = 0x00000000
	SizeBootrom11   = 0x40
)

// Number of ITCM mirrors below OriginITCMMirrors.
const NumITCMMirrors = OriginITCMMirrors / MirrorITCM
