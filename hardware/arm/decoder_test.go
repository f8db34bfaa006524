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
	"reflect"
	"testing"

	"github.com/jetsetilly/llama/test"
)

func fnEq(a, b instFn) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func TestDecodeKnownEncodings(t *testing.T) {
	encodings := []struct {
		opcode uint32
		fn     instFn
	}{
		{0xe3a01005, execMov},   // MOV R1, #5
		{0xe0810002, execAdd},   // ADD R0, R1, R2
		{0xe3500000, execCmp},   // CMP R0, #0
		{0xeb000000, execBbl},   // BL +0
		{0xea000000, execBbl},   // B +0
		{0xe12fff11, execBx},    // BX R1
		{0xe12fff31, execBlx2},  // BLX R1
		{0xfa000000, execModBlx}, // BLX +0 (immediate)
		{0xe16f1f12, execClz},   // CLZ R1, R2
		{0xe10f1000, execMrs},   // MRS R1, CPSR
		{0xe129f001, execMsr2},  // MSR CPSR_fc, R1
		{0xe329f013, execMsr1},  // MSR CPSR_fc, #19
		{0xe0030291, execMul},   // MUL R3, R1, R2
		{0xe0234291, execMla},   // MLA R3, R1, R2, R4
		{0xe0843291, execUmull}, // UMULL R3, R4, R1, R2
		{0xe0c43291, execSmull}, // SMULL R3, R4, R1, R2
		{0xe0a43291, execUmlal}, // UMLAL R3, R4, R1, R2
		{0xe0e43291, execSmlal}, // SMLAL R3, R4, R1, R2
		{0xe5910000, execLdr},   // LDR R0, [R1]
		{0xe5d10000, execLdrb},  // LDRB R0, [R1]
		{0xe5810000, execStr},   // STR R0, [R1]
		{0xe5c10000, execStrb},  // STRB R0, [R1]
		{0xe1d100b0, execLdrh},  // LDRH R0, [R1]
		{0xe1c100b0, execStrh},  // STRH R0, [R1]
		{0xe1d100d0, execLdrsb}, // LDRSB R0, [R1]
		{0xe1d100f0, execLdrsh}, // LDRSH R0, [R1]
		{0xe1c200d0, execLdrd},  // LDRD R0, [R2]
		{0xe1c200f0, execStrd},  // STRD R0, [R2]
		{0xe1010092, execSwp},   // SWP R0, R2, [R1]
		{0xe1410092, execSwpb},  // SWPB R0, R2, [R1]
		{0xe8bd00f0, execLdm1},  // LDMIA SP!, {R4-R7}
		{0xe8dd00f0, execLdm2},  // LDMIA SP, {R4-R7}^
		{0xe8fd8000, execLdm3},  // LDMIA SP!, {PC}^
		{0xe92d000f, execStm1},  // STMDB SP!, {R0-R3}
		{0xe94d000f, execStm2},  // STMDB SP, {R0-R3}^
		{0xee060f10, execMcr},   // MCR p15, 0, R0, c6, c0, 0
		{0xee110f10, execMrc},   // MRC p15, 0, R0, c1, c0, 0
		{0xef000001, execSwi},   // SWI #1
	}

	for _, e := range encodings {
		fn := decodeARM(e.opcode)
		if !fnEq(fn, e.fn) {
			t.Errorf("wrong variant for %08x", e.opcode)
		}
	}
}

func TestDecodeUnknown(t *testing.T) {
	// the canonical undefined instruction space
	test.Equate(t, fnEq(decodeARM(0xe7f000f0), execUndefined), true)
}

func TestDecodeTotality(t *testing.T) {
	// every word decodes to exactly one variant (possibly the undefined
	// one). a sparse sweep keeps the test quick
	for op := uint32(0); op < 0xffff; op++ {
		word := op<<16 | op
		fn := decodeARM(word)
		if fn == nil {
			t.Fatalf("no decode result for %08x", word)
		}
	}
}

func TestFieldExtraction(t *testing.T) {
	// LDRH R9, [R4], #4 : rd and rn fields recovered from the encoding
	opcode := uint32(0xe0d490b4)
	test.Equate(t, fnEq(decodeARM(opcode), execLdrh), true)
	test.Equate(t, dpRd(opcode), 9)
	test.Equate(t, dpRn(opcode), 4)
}
