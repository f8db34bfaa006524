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
	"testing"

	"github.com/jetsetilly/llama/test"
)

func TestPsrRoundTrip(t *testing.T) {
	var psr PSR

	psr.SetMode(ModeIrq)
	psr.SetThumb(true)
	psr.SetFiqDisabled(true)
	psr.SetIrqDisabled(true)
	psr.SetQ(true)
	psr.SetV(true)
	psr.SetC(true)
	psr.SetZ(true)
	psr.SetN(true)

	test.Equate(t, psr.Mode(), ModeIrq)
	test.Equate(t, psr.Thumb(), true)
	test.Equate(t, psr.FiqDisabled(), true)
	test.Equate(t, psr.IrqDisabled(), true)
	test.Equate(t, psr.Q(), true)
	test.Equate(t, psr.V(), true)
	test.Equate(t, psr.C(), true)
	test.Equate(t, psr.Z(), true)
	test.Equate(t, psr.N(), true)

	// bit-exact: mode 10010, T, F, I, Q, V, C, Z, N
	test.Equate(t, psr.Raw(), uint32(0xf80000f2))

	psr.SetThumb(false)
	psr.SetZ(false)
	test.Equate(t, psr.Raw(), uint32(0xb80000d2))
}

func TestPsrFieldIsolation(t *testing.T) {
	var psr PSR
	psr.SetRaw(0xffffffff)

	psr.SetMode(ModeSvc)
	test.Equate(t, psr.Mode(), ModeSvc)

	// neighbouring bits are untouched
	test.Equate(t, psr.Thumb(), true)
	test.Equate(t, psr.Raw()&0xffffffe0, uint32(0xffffffe0))
}
