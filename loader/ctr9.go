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
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jetsetilly/llama/curated"
	"github.com/jetsetilly/llama/hardware/memory"
)

const descFilename = "desc.json"

// descBinfile is one binary file in a desc.json.
type descBinfile struct {
	Bin   string `json:"bin"`
	VAddr string `json:"vAddr"`
}

// desc is the json description at the root of a ctr9 folder.
type desc struct {
	EntryPoint   string        `json:"entryPoint"`
	EntryPoint11 string        `json:"entryPoint11"`
	BinFiles     []descBinfile `json:"binFiles"`
	BinFiles11   []descBinfile `json:"binFiles11"`
}

// Ctr9Loader loads a folder of raw binaries as described by its desc.json.
type Ctr9Loader struct {
	path string

	entry9  uint32
	entry11 uint32

	binfiles   []binfile
	binfiles11 []binfile
}

type binfile struct {
	path  string
	vaddr uint32
}

// NewCtr9Loader is the preferred method of initialisation for the
// Ctr9Loader type.
func NewCtr9Loader(path string) (*Ctr9Loader, error) {
	f, err := os.ReadFile(filepath.Join(path, descFilename))
	if err != nil {
		return nil, curated.Errorf(curated.LoaderError, err)
	}

	var d desc
	if err := json.Unmarshal(f, &d); err != nil {
		return nil, curated.Errorf(curated.LoaderError, err)
	}

	ldr := &Ctr9Loader{path: path}

	if ldr.entry9, err = parseHex(d.EntryPoint); err != nil {
		return nil, curated.Errorf(curated.LoaderError, err)
	}
	if ldr.entry11, err = parseHex(d.EntryPoint11); err != nil {
		return nil, curated.Errorf(curated.LoaderError, err)
	}

	for _, b := range d.BinFiles {
		vaddr, err := parseHex(b.VAddr)
		if err != nil {
			return nil, curated.Errorf(curated.LoaderError, err)
		}
		ldr.binfiles = append(ldr.binfiles, binfile{path: filepath.Join(path, b.Bin), vaddr: vaddr})
	}
	for _, b := range d.BinFiles11 {
		vaddr, err := parseHex(b.VAddr)
		if err != nil {
			return nil, curated.Errorf(curated.LoaderError, err)
		}
		ldr.binfiles11 = append(ldr.binfiles11, binfile{path: filepath.Join(path, b.Bin), vaddr: vaddr})
	}

	return ldr, nil
}

func parseHex(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	return uint32(v), err
}

func loadBinfile(b binfile, mem *memory.Controller) error {
	f, err := os.ReadFile(b.path)
	if err != nil {
		return curated.Errorf(curated.LoaderError, err)
	}
	mem.WriteBuf(b.vaddr, f)
	return nil
}

// Entrypoint9 implements the Loader interface.
func (ldr *Ctr9Loader) Entrypoint9() uint32 {
	return ldr.entry9
}

// Entrypoint11 implements the Loader interface.
func (ldr *Ctr9Loader) Entrypoint11() uint32 {
	return ldr.entry11
}

// Load9 implements the Loader interface.
func (ldr *Ctr9Loader) Load9(mem *memory.Controller) error {
	for _, b := range ldr.binfiles {
		if err := loadBinfile(b, mem); err != nil {
			return err
		}
	}
	return nil
}

// Load11 implements the Loader interface.
func (ldr *Ctr9Loader) Load11(mem *memory.Controller) error {
	for _, b := range ldr.binfiles11 {
		if err := loadBinfile(b, mem); err != nil {
			return err
		}
	}
	return nil
}
