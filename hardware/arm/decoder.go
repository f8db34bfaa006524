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
	"github.com/jetsetilly/llama/curated"
)

// The ARM decoder is generated from the tabular encodings below. Each
// group has one or more outer patterns; when an outer pattern accepts the
// word, the group's entries are tried in order and the first whose pattern
// accepts the word names the instruction. Within a group, more specific
// encodings appear earlier.
//
// Patterns are 32 significant characters of '0', '1' and 'x' (don't care);
// underscores separate fields and are ignored.

type pattern struct {
	mask  uint32
	match uint32
}

// maskMatch converts a pattern string to its mask/match pair.
func maskMatch(s string) pattern {
	var p pattern
	n := 0
	for _, c := range s {
		switch c {
		case '0':
			p.mask = p.mask<<1 | 1
			p.match <<= 1
			n++
		case '1':
			p.mask = p.mask<<1 | 1
			p.match = p.match<<1 | 1
			n++
		case 'x':
			p.mask <<= 1
			p.match <<= 1
			n++
		case '_', ' ':
			// separator
		default:
			panic("bad character in decoder pattern: " + s)
		}
	}
	if n != 32 {
		panic("decoder pattern is not 32 bits: " + s)
	}
	return p
}

func (p pattern) accepts(encoding uint32) bool {
	return encoding&p.mask == p.match
}

type decodeEntry struct {
	pattern pattern
	fn      instFn
}

type decodeGroup struct {
	outer   []pattern
	entries []decodeEntry
}

func entry(s string, fn instFn) decodeEntry {
	return decodeEntry{pattern: maskMatch(s), fn: fn}
}

func outer(ss ...string) []pattern {
	ps := make([]pattern, len(ss))
	for i, s := range ss {
		ps[i] = maskMatch(s)
	}
	return ps
}

var armDecodeGroups []decodeGroup

func init() {
	armDecodeGroups = []decodeGroup{
		{
			// unconditional instructions
			outer: outer("1111_xxxxxxxxxxxxxxxxxxxxxxxxxxxx"),
			entries: []decodeEntry{
				entry("1111101_x_xxxxxxxxxxxxxxxxxxxxxxxx", execModBlx),
			},
		},

		{
			// data processing: immediate shift, register shift, immediate
			outer: outer(
				"xxxx_000_xxxxxxxxxxxxxxxxxxxx_0_xxxx",
				"xxxx_000_xxxxxxxxxxxxxxxxx_0_xx_1_xxxx",
				"xxxx_001_xxxxxxxxxxxxxxxxxxxxxxxxx",
			),
			entries: []decodeEntry{
				entry("xxxx_00x_0000_x_xxxx_xxxx_xxxxxxxxxxxx", execAnd),
				entry("xxxx_00x_0001_x_xxxx_xxxx_xxxxxxxxxxxx", execEor),
				entry("xxxx_00x_0010_x_xxxx_xxxx_xxxxxxxxxxxx", execSub),
				entry("xxxx_00x_0011_x_xxxx_xxxx_xxxxxxxxxxxx", execRsb),
				entry("xxxx_00x_0100_x_xxxx_xxxx_xxxxxxxxxxxx", execAdd),
				entry("xxxx_00x_0101_x_xxxx_xxxx_xxxxxxxxxxxx", execAdc),
				entry("xxxx_00x_0110_x_xxxx_xxxx_xxxxxxxxxxxx", execSbc),
				entry("xxxx_00x_0111_x_xxxx_xxxx_xxxxxxxxxxxx", execRsc),
				entry("xxxx_00x_1000_1_xxxx_0000_xxxxxxxxxxxx", execTst),
				entry("xxxx_00x_1001_1_xxxx_0000_xxxxxxxxxxxx", execTeq),
				entry("xxxx_00x_1010_1_xxxx_0000_xxxxxxxxxxxx", execCmp),
				entry("xxxx_00x_1011_1_xxxx_0000_xxxxxxxxxxxx", execCmn),
				entry("xxxx_00x_1100_x_xxxx_xxxx_xxxxxxxxxxxx", execOrr),
				entry("xxxx_00x_1101_x_0000_xxxx_xxxxxxxxxxxx", execMov),
				entry("xxxx_00x_1110_x_xxxx_xxxx_xxxxxxxxxxxx", execBic),
				entry("xxxx_00x_1111_x_0000_xxxx_xxxxxxxxxxxx", execMvn),
			},
		},

		{
			// miscellaneous instructions
			outer: outer(
				"xxxx_00010_xx_0_xxxxxxxxxxxxxxx_0_xxxx",
				"xxxx_00010_xx_0_xxxxxxxxxxxx_0_xx_1_xxxx",
			),
			entries: []decodeEntry{
				entry("xxxx_000100101111111111110011_xxxx", execBlx2),
				entry("xxxx_000100101111111111110001_xxxx", execBx),
				entry("xxxx_000101101111_xxxx_1111_0001_xxxx", execClz),
				entry("xxxx_00010_x_00_1111_xxxx_000000000000", execMrs),
				entry("xxxx_00010_x_10_xxxx_111100000000_xxxx", execMsr2),
			},
		},

		{
			// multiplies and extra load/stores
			outer: outer("xxxx_000_xxxxxxxxxxxxxxxxx_1_xx_1_xxxx"),
			entries: []decodeEntry{
				entry("xxxx_000_xxxx_0_xxxx_xxxx_xxxx_1101_xxxx", execLdrd),
				entry("xxxx_000_xxxx_1_xxxx_xxxx_xxxx_1011_xxxx", execLdrh),
				entry("xxxx_000_xxxx_1_xxxx_xxxx_xxxx_1101_xxxx", execLdrsb),
				entry("xxxx_000_xxxx_1_xxxx_xxxx_xxxx_1111_xxxx", execLdrsh),
				entry("xxxx_0000001_x_xxxx_xxxx_xxxx_1001_xxxx", execMla),
				entry("xxxx_0000000_x_xxxx_0000_xxxx_1001_xxxx", execMul),
				entry("xxxx_0000111_x_xxxx_xxxx_xxxx_1001_xxxx", execSmlal),
				entry("xxxx_0000110_x_xxxx_xxxx_xxxx_1001_xxxx", execSmull),
				entry("xxxx_000_xxxx_0_xxxx_xxxx_xxxx_1111_xxxx", execStrd),
				entry("xxxx_000_xxxx_0_xxxx_xxxx_xxxx_1011_xxxx", execStrh),
				entry("xxxx_00010000_xxxx_xxxx_0000_1001_xxxx", execSwp),
				entry("xxxx_00010100_xxxx_xxxx_0000_1001_xxxx", execSwpb),
				entry("xxxx_0000101_x_xxxx_xxxx_xxxx_1001_xxxx", execUmlal),
				entry("xxxx_0000100_x_xxxx_xxxx_xxxx_1001_xxxx", execUmull),
			},
		},

		{
			// load/store: immediate offset, scaled register offset
			outer: outer(
				"xxxx_010_xxxxxxxxxxxxxxxxxxxxxxxxx",
				"xxxx_011_xxxxxxxxxxxxxxxxxxxx_0_xxxx",
			),
			entries: []decodeEntry{
				entry("xxxx_01x_xx_0_x_1_xxxx_xxxx_xxxxxxxxxxxx", execLdr),
				entry("xxxx_01x_xx_1_x_1_xxxx_xxxx_xxxxxxxxxxxx", execLdrb),
				entry("xxxx_01x_xx_0_x_0_xxxx_xxxx_xxxxxxxxxxxx", execStr),
				entry("xxxx_01x_xx_1_x_0_xxxx_xxxx_xxxxxxxxxxxx", execStrb),
			},
		},

		{
			// load/store multiple
			outer: outer("xxxx_100_xxxxxxxxxxxxxxxxxxxxxxxxx"),
			entries: []decodeEntry{
				entry("xxxx_100_xx_0_x_1_xxxx_xxxxxxxxxxxxxxxx", execLdm1),
				entry("xxxx_100_xx_101_xxxx_0_xxxxxxxxxxxxxxx", execLdm2),
				entry("xxxx_100_xx_1_x_1_xxxx_1_xxxxxxxxxxxxxxx", execLdm3),
				entry("xxxx_100_xx_0_x_0_xxxx_xxxxxxxxxxxxxxxx", execStm1),
				entry("xxxx_100_xx_100_xxxx_xxxxxxxxxxxxxxxx", execStm2),
			},
		},

		{
			// branches, coprocessor transfers, status transfers, SWI
			outer: outer("xxxx_xxxxxxxxxxxxxxxxxxxxxxxxxxxx"),
			entries: []decodeEntry{
				entry("xxxx_101_x_xxxxxxxxxxxxxxxxxxxxxxxx", execBbl),
				entry("xxxx_1110_xxx_0_xxxx_xxxx_xxxx_xxx_1_xxxx", execMcr),
				entry("xxxx_1110_xxx_1_xxxx_xxxx_xxxx_xxx_1_xxxx", execMrc),
				entry("xxxx_00110_x_10_xxxx_1111_xxxxxxxxxxxx", execMsr1),
				entry("xxxx_1111_xxxxxxxxxxxxxxxxxxxxxxxx", execSwi),
			},
		},
	}
}

// decodeARM maps an instruction word to its executable function. Words
// with no variant decode to a function that halts the instruction stream.
func decodeARM(opcode uint32) instFn {
	for _, g := range armDecodeGroups {
		matched := false
		for _, o := range g.outer {
			if o.accepts(opcode) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		for _, e := range g.entries {
			if e.pattern.accepts(opcode) {
				return e.fn
			}
		}
	}
	return execUndefined
}

// execUndefined is the variant for instruction words that match no
// encoding.
func execUndefined(a *ARM, opcode uint32) instrStatus {
	panic(curated.Errorf(curated.DecodeUnknown, opcode, a.ExecutingPC()))
}
