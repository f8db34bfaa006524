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
	"math/bits"

	"github.com/jetsetilly/llama/bitfield"
	"github.com/jetsetilly/llama/curated"
)

// addressing mode fields common to the load/store encodings
func lsPBit(opcode uint32) bool { return bitfield.IsSet(opcode, 24) }
func lsUBit(opcode uint32) bool { return bitfield.IsSet(opcode, 23) }
func lsWBit(opcode uint32) bool { return bitfield.IsSet(opcode, 21) }

// makeAddresses resolves the pre/post indexing and writeback bits into the
// address used for the transfer and the value written back to the base
// register.
func makeAddresses(baseAddr uint32, offset uint32, uBit, pBit, wBit bool) (lsAddr uint32, wbAddr uint32) {
	modAddr := baseAddr - offset
	if uBit {
		modAddr = baseAddr + offset
	}

	switch {
	case pBit && !wBit: // pre-indexed, writeback disabled
		return modAddr, baseAddr
	case pBit && wBit: // pre-indexed, writeback enabled
		return modAddr, modAddr
	case !pBit && !wBit: // post-indexed, writeback enabled
		return baseAddr, modAddr
	}
	// post-indexed with the W bit set is unpredictable
	panic(curated.Errorf("unpredictable writeback mode"))
}

// decodeNormalAddress handles the word/byte addressing modes: a twelve bit
// immediate or a scaled register offset.
func (a *ARM) decodeNormalAddress(opcode uint32) (uint32, uint32) {
	var offset uint32

	if dpIBit(opcode) {
		// register offset, possibly scaled
		rm := int(bitfield.Extract(opcode, 0, 3))
		shift := bitfield.Extract(opcode, 5, 6)
		shiftImm := bitfield.Extract(opcode, 7, 11)

		preShift := a.regs.active[rm]
		switch shift {
		case 0b00:
			offset = preShift << shiftImm
		case 0b01:
			if shiftImm == 0 {
				offset = 0
			} else {
				offset = preShift >> shiftImm
			}
		case 0b10:
			if shiftImm == 0 {
				if bitfield.IsSet(preShift, 31) {
					offset = 0xffffffff
				} else {
					offset = 0
				}
			} else {
				offset = uint32(int32(preShift) >> shiftImm)
			}
		case 0b11:
			if shiftImm == 0 {
				offset = boolBit(a.cpsr.C())<<31 | preShift>>1
			} else {
				offset = bits.RotateLeft32(preShift, -int(shiftImm))
			}
		}
	} else {
		offset = bitfield.Extract(opcode, 0, 11)
	}

	return makeAddresses(a.regs.active[dpRn(opcode)], offset,
		lsUBit(opcode), lsPBit(opcode), lsWBit(opcode))
}

// decodeMiscAddress handles the halfword/doubleword/signed addressing
// modes: a split eight bit immediate or a plain register offset.
func (a *ARM) decodeMiscAddress(opcode uint32) (uint32, uint32) {
	var offset uint32

	if bitfield.IsSet(opcode, 22) {
		offset = bitfield.Extract(opcode, 0, 3) | bitfield.Extract(opcode, 8, 11)<<4
	} else {
		offset = a.regs.active[bitfield.Extract(opcode, 0, 3)]
	}

	return makeAddresses(a.regs.active[dpRn(opcode)], offset,
		lsUBit(opcode), lsPBit(opcode), lsWBit(opcode))
}

// instrLoad is LDR and LDRB. Unaligned word loads take the rotation path.
func instrLoad(a *ARM, opcode uint32, byteAccess bool) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	rd := dpRd(opcode)
	addr, wb := a.decodeNormalAddress(opcode)

	var val uint32
	if byteAccess {
		val = uint32(a.mmgr.DmemRead8(addr))
	} else {
		val = a.mmgr.DmemRead32(addr &^ 0b11)
		val = bits.RotateLeft32(val, -int(8*bitfield.Extract(addr, 0, 1)))
	}

	a.regs.active[dpRn(opcode)] = wb

	if rd == rPC {
		a.cpsr.SetThumb(bitfield.IsSet(val, 0))
		a.branch(val &^ 1)
		return branched
	}
	a.regs.active[rd] = val
	return inBlock
}

// instrStore is STR and STRB.
func instrStore(a *ARM, opcode uint32, byteAccess bool) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	addr, wb := a.decodeNormalAddress(opcode)
	val := a.regs.active[dpRd(opcode)]

	a.regs.active[dpRn(opcode)] = wb

	if byteAccess {
		a.mmgr.DmemWrite8(addr, uint8(val))
	} else {
		a.mmgr.DmemWrite32(addr&^0b11, val)
	}
	return inBlock
}

type miscLsType int

const (
	lsDoubleword miscLsType = iota
	lsHalfword
	lsSignedByte
	lsSignedHalfword
)

// instrLoadMisc is LDRD, LDRH, LDRSB and LDRSH.
func instrLoadMisc(a *ARM, opcode uint32, ty miscLsType) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	rd := dpRd(opcode)
	addr, wb := a.decodeMiscAddress(opcode)
	a.regs.active[dpRn(opcode)] = wb

	var val uint32
	switch ty {
	case lsDoubleword:
		// rd must be even and not r14
		val64 := a.mmgr.DmemRead64(addr)
		a.regs.active[rd] = uint32(val64)
		a.regs.active[rd+1] = uint32(val64 >> 32)
		return inBlock
	case lsHalfword:
		val = uint32(a.mmgr.DmemRead16(addr))
	case lsSignedByte:
		val = uint32(int32(int8(a.mmgr.DmemRead8(addr))))
	case lsSignedHalfword:
		val = uint32(int32(int16(a.mmgr.DmemRead16(addr))))
	}

	a.regs.active[rd] = val
	return inBlock
}

// instrStoreMisc is STRD and STRH.
func instrStoreMisc(a *ARM, opcode uint32, ty miscLsType) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	rd := dpRd(opcode)
	addr, wb := a.decodeMiscAddress(opcode)
	a.regs.active[dpRn(opcode)] = wb

	switch ty {
	case lsDoubleword:
		val := uint64(a.regs.active[rd]) | uint64(a.regs.active[rd+1])<<32
		a.mmgr.DmemWrite64(addr, val)
	case lsHalfword:
		a.mmgr.DmemWrite16(addr, uint16(a.regs.active[rd]))
	default:
		panic(curated.Errorf("invalid miscellaneous store type"))
	}
	return inBlock
}

func execLdr(a *ARM, opcode uint32) instrStatus {
	return instrLoad(a, opcode, false)
}

func execLdrb(a *ARM, opcode uint32) instrStatus {
	return instrLoad(a, opcode, true)
}

func execStr(a *ARM, opcode uint32) instrStatus {
	return instrStore(a, opcode, false)
}

func execStrb(a *ARM, opcode uint32) instrStatus {
	return instrStore(a, opcode, true)
}

func execLdrd(a *ARM, opcode uint32) instrStatus {
	return instrLoadMisc(a, opcode, lsDoubleword)
}

func execLdrh(a *ARM, opcode uint32) instrStatus {
	return instrLoadMisc(a, opcode, lsHalfword)
}

func execLdrsb(a *ARM, opcode uint32) instrStatus {
	return instrLoadMisc(a, opcode, lsSignedByte)
}

func execLdrsh(a *ARM, opcode uint32) instrStatus {
	return instrLoadMisc(a, opcode, lsSignedHalfword)
}

func execStrd(a *ARM, opcode uint32) instrStatus {
	return instrStoreMisc(a, opcode, lsDoubleword)
}

func execStrh(a *ARM, opcode uint32) instrStatus {
	return instrStoreMisc(a, opcode, lsHalfword)
}

func execSwp(a *ARM, opcode uint32) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	addr := a.regs.active[dpRn(opcode)]
	newVal := a.regs.active[bitfield.Extract(opcode, 0, 3)]

	tmp := a.mmgr.DmemRead32(addr)
	a.mmgr.DmemWrite32(addr, newVal)
	a.regs.active[dpRd(opcode)] = tmp
	return inBlock
}

func execSwpb(a *ARM, opcode uint32) instrStatus {
	if !condPassed(dpCond(opcode), &a.cpsr) {
		return inBlock
	}

	addr := a.regs.active[dpRn(opcode)]
	newVal := a.regs.active[bitfield.Extract(opcode, 0, 3)]

	tmp := a.mmgr.DmemRead8(addr)
	a.mmgr.DmemWrite8(addr, uint8(newVal))
	a.regs.active[dpRd(opcode)] = uint32(tmp)
	return inBlock
}
