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

package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/jetsetilly/llama/hardware/memory"
	"github.com/jetsetilly/llama/loader"
	"github.com/jetsetilly/llama/test"
)

func testMem() *memory.Controller {
	mem := memory.NewController()
	mem.MapRegion(0x20000000, memory.NewUniqueRAM(1024))
	return mem
}

func TestCtr9Loader(t *testing.T) {
	dir := t.TempDir()

	descJson := `{
		"entryPoint": "0x20000000",
		"entryPoint11": "0x20010000",
		"binFiles": [ {"bin": "payload.bin", "vAddr": "0x20000000"} ],
		"binFiles11": []
	}`
	err := os.WriteFile(filepath.Join(dir, "desc.json"), []byte(descJson), 0644)
	test.ExpectedSuccess(t, err)

	payload := []byte{0x05, 0x10, 0xa0, 0xe3} // MOV R1, #5
	err = os.WriteFile(filepath.Join(dir, "payload.bin"), payload, 0644)
	test.ExpectedSuccess(t, err)

	ldr, err := loader.NewLoader(dir)
	test.ExpectedSuccess(t, err)

	test.Equate(t, ldr.Entrypoint9(), uint32(0x20000000))
	test.Equate(t, ldr.Entrypoint11(), uint32(0x20010000))

	mem := testMem()
	test.ExpectedSuccess(t, ldr.Load9(mem))
	test.Equate(t, mem.Read32(0x20000000), uint32(0xe3a01005))
}

func TestCtr9MissingDesc(t *testing.T) {
	_, err := loader.NewLoader(t.TempDir())
	test.ExpectedFailure(t, err)
}

func TestFirmLoader(t *testing.T) {
	dir := t.TempDir()

	payload := []byte{0xde, 0xad, 0xbe, 0xef}

	firm := make([]byte, 0x200+len(payload))
	copy(firm, []byte("FIRM"))
	binary.LittleEndian.PutUint32(firm[0x8:], 0x20010000)  // entry11
	binary.LittleEndian.PutUint32(firm[0xc:], 0x20000000)  // entry9
	// section 0: payload at the end of the header
	binary.LittleEndian.PutUint32(firm[0x40:], 0x200)        // data offset
	binary.LittleEndian.PutUint32(firm[0x44:], 0x20000100)   // destination
	binary.LittleEndian.PutUint32(firm[0x48:], uint32(len(payload)))
	// sections 1..3 have size zero and are ignored
	copy(firm[0x200:], payload)

	path := filepath.Join(dir, "boot.firm")
	err := os.WriteFile(path, firm, 0644)
	test.ExpectedSuccess(t, err)

	ldr, err := loader.NewLoader(path)
	test.ExpectedSuccess(t, err)

	test.Equate(t, ldr.Entrypoint9(), uint32(0x20000000))
	test.Equate(t, ldr.Entrypoint11(), uint32(0x20010000))

	mem := testMem()
	test.ExpectedSuccess(t, ldr.Load9(mem))
	test.Equate(t, mem.Read8(0x20000100), uint8(0xde))
	test.Equate(t, mem.Read8(0x20000103), uint8(0xef))
}

func TestFirmBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.firm")

	firm := make([]byte, 0x200)
	copy(firm, []byte("MRIF"))
	err := os.WriteFile(path, firm, 0644)
	test.ExpectedSuccess(t, err)

	_, err = loader.NewLoader(path)
	test.ExpectedFailure(t, err)
}
