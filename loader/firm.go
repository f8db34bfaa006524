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

package loader

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/jetsetilly/llama/curated"
	"github.com/jetsetilly/llama/hardware/memory"
)

// FIRM header layout
const (
	firmHeaderSize  = 0x200
	firmEntry11     = 0x8
	firmEntry9      = 0xc
	firmSections    = 0x40
	firmSectionSize = 0x30
	firmNumSections = 4
)

type firmSection struct {
	dataOffs uint32
	dstAddr  uint32
	size     uint32
}

// FirmLoader loads a FIRM image: a 0x200 byte header followed by up to
// four sections destined for physical memory.
type FirmLoader struct {
	filename string

	entry9  uint32
	entry11 uint32

	sections []firmSection
}

// NewFirmLoader is the preferred method of initialisation for the
// FirmLoader type.
func NewFirmLoader(filename string) (*FirmLoader, error) {
	f, err := os.ReadFile(filename)
	if err != nil {
		return nil, curated.Errorf(curated.LoaderError, err)
	}
	if len(f) < firmHeaderSize || !bytes.Equal(f[:4], []byte("FIRM")) {
		return nil, curated.Errorf(curated.LoaderError, "not a FIRM image")
	}

	ldr := &FirmLoader{
		filename: filename,
		entry11:  binary.LittleEndian.Uint32(f[firmEntry11:]),
		entry9:   binary.LittleEndian.Uint32(f[firmEntry9:]),
	}

	for i := 0; i < firmNumSections; i++ {
		h := f[firmSections+i*firmSectionSize:]
		s := firmSection{
			dataOffs: binary.LittleEndian.Uint32(h[0x0:]),
			dstAddr:  binary.LittleEndian.Uint32(h[0x4:]),
			size:     binary.LittleEndian.Uint32(h[0x8:]),
		}
		// sections with no payload are placeholders
		if s.size != 0 {
			ldr.sections = append(ldr.sections, s)
		}
	}

	return ldr, nil
}

// Entrypoint9 implements the Loader interface.
func (ldr *FirmLoader) Entrypoint9() uint32 {
	return ldr.entry9
}

// Entrypoint11 implements the Loader interface.
func (ldr *FirmLoader) Entrypoint11() uint32 {
	return ldr.entry11
}

// Load9 implements the Loader interface.
func (ldr *FirmLoader) Load9(mem *memory.Controller) error {
	f, err := os.ReadFile(ldr.filename)
	if err != nil {
		return curated.Errorf(curated.LoaderError, err)
	}

	for _, s := range ldr.sections {
		if uint32(len(f)) < s.dataOffs+s.size {
			return curated.Errorf(curated.LoaderError, "FIRM section extends past end of file")
		}
		mem.WriteBuf(s.dstAddr, f[s.dataOffs:s.dataOffs+s.size])
	}
	return nil
}

// Load11 implements the Loader interface. FIRM sections can only target
// ARM9-accessible memory so there is nothing to do on the ARM11 side.
func (ldr *FirmLoader) Load11(mem *memory.Controller) error {
	return nil
}
