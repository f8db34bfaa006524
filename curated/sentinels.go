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

package curated

// sentinel patterns for errors that need to be identified by other parts of
// the emulation. errors created from other patterns are still curated errors
// but nothing ever needs to pick them out of an error chain.
const (
	// physical memory access with no mapped block
	UnmappedAddress = "unmapped address: %08x"

	// sized access that does not honour natural alignment
	MisalignedAddress = "misaligned %d byte access: %08x"

	// MPU enabled but no region claims the address
	MpuFault = "mpu fault: %08x"

	// MMU page walk hit a fault descriptor
	MmuFault = "mmu fault: %08x"

	// instruction recognised by the decoder but with no implementation
	UnimplementedInstruction = "unimplemented instruction: %08x at %08x"

	// the decoder returned no variant for the instruction word
	DecodeUnknown = "unknown instruction: %08x at %08x"

	// IO register recognised but with no implementation
	UnimplementedIO = "unimplemented io register: %s +%03x"

	// file based resources (nand, otp, aes key database, etc.)
	MissingResource = "missing resource: %v"

	// loader errors
	LoaderError = "loader: %v"
)
