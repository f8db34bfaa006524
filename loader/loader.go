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

// Package loader reads program images from disk into the physical address
// spaces of the console. Two formats are supported: ctr9 folders (a
// desc.json naming binary files and their load addresses) and FIRM images.
package loader

import (
	"path/filepath"
	"strings"

	"github.com/jetsetilly/llama/curated"
	"github.com/jetsetilly/llama/hardware/memory"
)

// Loader is a program image that can populate the address spaces of both
// CPUs.
type Loader interface {
	Entrypoint9() uint32
	Entrypoint11() uint32
	Load9(mem *memory.Controller) error
	Load11(mem *memory.Controller) error
}

// NewLoader creates the loader appropriate to the path: a folder or .ctr9
// bundle with a desc.json, or a .firm image.
func NewLoader(path string) (Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ctr9":
		return NewCtr9Loader(path)
	case ".firm":
		return NewFirmLoader(path)
	case "":
		return NewCtr9Loader(path)
	}
	return nil, curated.Errorf(curated.LoaderError, "unrecognised extension for "+path)
}
