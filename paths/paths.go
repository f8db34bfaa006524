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

// Package paths resolves the files the emulation persists between sessions:
// the SD card image, the NAND image and card identity, the AES key database
// and the OTP dump. They all live under $HOME/.config/llama/
package paths

import (
	"os"
	"path/filepath"
)

// the base configuration directory, relative to the user's home directory
const baseDir = ".config/llama"

// Canonical names of the files the emulation persists.
const (
	SdCardImg = "sd.fat"
	NandImg   = "nand.bin"
	NandCid   = "nand-cid.bin"
	AesKeyDb  = "aeskeydb.bin"
	Otp       = "otp.bin"
)

// ResourcePath returns the full path of the named resource file, creating
// the configuration directory if it does not yet exist.
func ResourcePath(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(home, baseDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}

	return filepath.Join(dir, name), nil
}
