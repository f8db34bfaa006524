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
	"github.com/jetsetilly/llama/bitfield"
	"github.com/jetsetilly/llama/curated"
)

// The Thumb interpreter. Most 16 bit instructions are executed by
// reconstructing the equivalent 32 bit ARM encoding (condition field AL)
// and delegating to the ARM executor. Forms with no clean ARM equivalent
// are implemented directly.
//
// The decode order below goes from the most specific top-bit patterns to
// the least, mirroring the format numbering of the ARMv5 Thumb ISA.
func decodeThumb(opcode uint16) thumbFn {
	switch {
	case opcode&0xff00 == 0xdf00:
		// software interrupt
		return thumbSwi
	case opcode&0xff00 == 0xbe00:
		// software breakpoint
		return thumbBkpt
	case opcode&0xf000 == 0xd000:
		// format 16 - conditional branch
		return thumbCondBranch
	case opcode&0xf800 == 0xe000:
		// format 18 - unconditional branch
		return thumbUncondBranch
	case opcode&0xe000 == 0xe000:
		// format 19 - long branch with link (and the BLX suffix)
		return thumbLongBranch
	case opcode&0xf000 == 0xc000:
		// format 15 - multiple load/store
		return thumbMultipleLoadStore
	case opcode&0xf600 == 0xb400:
		// format 14 - push/pop registers
		return thumbPushPop
	case opcode&0xff00 == 0xb000:
		// format 13 - add offset to stack pointer
		return thumbAdjustSP
	case opcode&0xf000 == 0xa000:
		// format 12 - load address
		return thumbLoadAddress
	case opcode&0xf000 == 0x9000:
		// format 11 - SP-relative load/store
		return thumbSPRelativeLoadStore
	case opcode&0xf000 == 0x8000:
		// format 10 - load/store halfword
		return thumbLoadStoreHalfword
	case opcode&0xe000 == 0x6000:
		// format 9 - load/store with immediate offset
		return thumbLoadStoreImmOffset
	case opcode&0xf200 == 0x5200:
		// format 8 - load/store sign-extended byte/halfword
		return thumbLoadStoreSignExtended
	case opcode&0xf200 == 0x5000:
		// format 7 - load/store with register offset
		return thumbLoadStoreRegOffset
	case opcode&0xf800 == 0x4800:
		// format 6 - PC-relative load
		return thumbPCRelativeLoad
	case opcode&0xfc00 == 0x4400:
		// format 5 - hi register operations/branch exchange
		return thumbHiRegisterOps
	case opcode&0xfc00 == 0x4000:
		// format 4 - ALU operations
		return thumbALUOperations
	case opcode&0xe000 == 0x2000:
		// format 3 - move/compare/add/subtract immediate
		return thumbMovCmpAddSubImm
	case opcode&0xf800 == 0x1800:
		// format 2 - add/subtract
		return thumbAddSubtract
	case opcode&0xe000 == 0x0000:
		// format 1 - move shifted register
		return thumbMoveShiftedRegister
	}

	return thumbUndefined
}

func thumbUndefined(a *ARM, opcode uint16) instrStatus {
	panic(curated.Errorf(curated.DecodeUnknown, uint32(opcode), a.ExecutingPC()))
}

// field accessors shared by most formats
func tRd(opcode uint16) uint32 { return uint32(opcode & 0x07) }
func tRm(opcode uint16) uint32 { return uint32(opcode>>3) & 0x07 }
func tRn(opcode uint16) uint32 { return uint32(opcode>>3) & 0x07 }

func thumbMoveShiftedRegister(a *ARM, opcode uint16) instrStatus {
	op := uint32(opcode>>11) & 0x03
	imm5 := uint32(opcode>>6) & 0x1f
	rm := tRm(opcode)
	rd := tRd(opcode)

	// MOVS rd, rm, <shift> #imm5
	arminst := 0xe1b00000 | rd<<12 | imm5<<7 | op<<5 | rm
	return execMov(a, arminst)
}

func thumbAddSubtract(a *ARM, opcode uint16) instrStatus {
	imm := uint32(opcode>>10)&0x01 == 0x01
	sub := uint32(opcode>>9)&0x01 == 0x01
	rmOrImm := uint32(opcode>>6) & 0x07
	rn := tRn(opcode)
	rd := tRd(opcode)

	var arminst uint32
	switch {
	case !imm && !sub:
		// ADDS rd, rn, rm
		arminst = 0xe0900000 | rn<<16 | rd<<12 | rmOrImm
		return execAdd(a, arminst)
	case !imm && sub:
		// SUBS rd, rn, rm
		arminst = 0xe0500000 | rn<<16 | rd<<12 | rmOrImm
		return execSub(a, arminst)
	case imm && !sub:
		// ADDS rd, rn, #imm3
		arminst = 0xe2900000 | rn<<16 | rd<<12 | rmOrImm
		return execAdd(a, arminst)
	default:
		// SUBS rd, rn, #imm3
		arminst = 0xe2500000 | rn<<16 | rd<<12 | rmOrImm
		return execSub(a, arminst)
	}
}

func thumbMovCmpAddSubImm(a *ARM, opcode uint16) instrStatus {
	op := uint32(opcode>>11) & 0x03
	rd := uint32(opcode>>8) & 0x07
	imm8 := uint32(opcode & 0xff)

	switch op {
	case 0b00:
		// MOVS rd, #imm8
		return execMov(a, 0xe3b00000|rd<<12|imm8)
	case 0b01:
		// CMP rd, #imm8
		return execCmp(a, 0xe3500000|rd<<16|imm8)
	case 0b10:
		// ADDS rd, rd, #imm8
		return execAdd(a, 0xe2900000|rd<<16|rd<<12|imm8)
	default:
		// SUBS rd, rd, #imm8
		return execSub(a, 0xe2500000|rd<<16|rd<<12|imm8)
	}
}

func thumbALUOperations(a *ARM, opcode uint16) instrStatus {
	op := uint32(opcode>>6) & 0x0f
	rm := tRm(opcode)
	rd := tRd(opcode)

	switch op {
	case 0b0000: // AND
		return execAnd(a, 0xe0100000|rd<<16|rd<<12|rm)
	case 0b0001: // EOR
		return execEor(a, 0xe0300000|rd<<16|rd<<12|rm)
	case 0b0010: // LSL
		return execMov(a, 0xe1b00010|rd<<12|rm<<8|rd)
	case 0b0011: // LSR
		return execMov(a, 0xe1b00030|rd<<12|rm<<8|rd)
	case 0b0100: // ASR
		return execMov(a, 0xe1b00050|rd<<12|rm<<8|rd)
	case 0b0101: // ADC
		return execAdc(a, 0xe0b00000|rd<<16|rd<<12|rm)
	case 0b0110: // SBC
		return execSbc(a, 0xe0d00000|rd<<16|rd<<12|rm)
	case 0b0111: // ROR
		return execMov(a, 0xe1b00070|rd<<12|rm<<8|rd)
	case 0b1000: // TST
		return execTst(a, 0xe1100000|rd<<16|rm)
	case 0b1001: // NEG
		return execRsb(a, 0xe2700000|rm<<16|rd<<12)
	case 0b1010: // CMP
		return execCmp(a, 0xe1500000|rd<<16|rm)
	case 0b1011: // CMN
		return execCmn(a, 0xe1700000|rd<<16|rm)
	case 0b1100: // ORR
		return execOrr(a, 0xe1900000|rd<<16|rd<<12|rm)
	case 0b1101: // MUL
		return execMul(a, 0xe0100090|rd<<16|rm<<8|rd)
	case 0b1110: // BIC
		return execBic(a, 0xe1d00000|rd<<16|rd<<12|rm)
	default: // MVN
		return execMvn(a, 0xe1f00000|rd<<12|rm)
	}
}

func thumbHiRegisterOps(a *ARM, opcode uint16) instrStatus {
	op := uint32(opcode>>8) & 0x03
	h1 := uint32(opcode>>7) & 0x01
	h2 := uint32(opcode>>6) & 0x01
	rm := tRm(opcode) | h2<<3
	rd := tRd(opcode) | h1<<3

	switch op {
	case 0b00:
		// ADD rd, rd, rm (flags unchanged)
		return execAdd(a, 0xe0800000|rd<<16|rd<<12|rm)
	case 0b01:
		// CMP rd, rm
		return execCmp(a, 0xe1500000|rd<<16|rm)
	case 0b10:
		// MOV rd, rm (flags unchanged)
		return execMov(a, 0xe1a00000|rd<<12|rm)
	default:
		// BX/BLX rm
		link := h1 == 1
		addr := a.regs.active[rm]

		if link {
			a.regs.active[rLR] = (a.regs.active[rPC] - 2) | 1
		}

		a.cpsr.SetThumb(bitfield.IsSet(addr, 0))
		a.branch(addr &^ 1)
		return branched
	}
}

// thumbPCRelativeLoad reads a word from the current literal pool. The PC
// is read word-aligned.
func thumbPCRelativeLoad(a *ARM, opcode uint16) instrStatus {
	rd := uint32(opcode>>8) & 0x07
	imm8 := uint32(opcode & 0xff)

	addr := (a.regs.active[rPC] &^ 0b11) + imm8*4
	a.regs.active[rd] = a.mmgr.DmemRead32(addr)
	return inBlock
}

func thumbLoadStoreRegOffset(a *ARM, opcode uint16) instrStatus {
	load := opcode&0x0800 == 0x0800
	byteAccess := opcode&0x0400 == 0x0400
	rm := uint32(opcode>>6) & 0x07
	rn := tRn(opcode)
	rd := tRd(opcode)

	switch {
	case load && byteAccess:
		return execLdrb(a, 0xe7d00000|rn<<16|rd<<12|rm)
	case load:
		return execLdr(a, 0xe7900000|rn<<16|rd<<12|rm)
	case byteAccess:
		return execStrb(a, 0xe7c00000|rn<<16|rd<<12|rm)
	default:
		return execStr(a, 0xe7800000|rn<<16|rd<<12|rm)
	}
}

func thumbLoadStoreSignExtended(a *ARM, opcode uint16) instrStatus {
	hBit := opcode&0x0800 == 0x0800
	sBit := opcode&0x0400 == 0x0400
	rm := uint32(opcode>>6) & 0x07
	rn := tRn(opcode)
	rd := tRd(opcode)

	switch {
	case !sBit && !hBit:
		// STRH rd, [rn, rm]
		return execStrh(a, 0xe18000b0|rn<<16|rd<<12|rm)
	case !sBit && hBit:
		// LDRH rd, [rn, rm]
		return execLdrh(a, 0xe19000b0|rn<<16|rd<<12|rm)
	case sBit && !hBit:
		// LDRSB rd, [rn, rm]
		return execLdrsb(a, 0xe19000d0|rn<<16|rd<<12|rm)
	default:
		// LDRSH rd, [rn, rm]
		return execLdrsh(a, 0xe19000f0|rn<<16|rd<<12|rm)
	}
}

func thumbLoadStoreImmOffset(a *ARM, opcode uint16) instrStatus {
	byteAccess := opcode&0x1000 == 0x1000
	load := opcode&0x0800 == 0x0800
	imm5 := uint32(opcode>>6) & 0x1f
	rn := tRn(opcode)
	rd := tRd(opcode)

	if byteAccess {
		if load {
			return execLdrb(a, 0xe5d00000|rn<<16|rd<<12|imm5)
		}
		return execStrb(a, 0xe5c00000|rn<<16|rd<<12|imm5)
	}

	// word accesses scale the immediate by four. the aligned forms read
	// and write directly
	addr := a.regs.active[rn] + imm5*4
	if load {
		a.regs.active[rd] = a.mmgr.DmemRead32(addr)
	} else {
		a.mmgr.DmemWrite32(addr, a.regs.active[rd])
	}
	return inBlock
}

func thumbLoadStoreHalfword(a *ARM, opcode uint16) instrStatus {
	load := opcode&0x0800 == 0x0800
	imm5 := uint32(opcode>>6) & 0x1f
	rn := tRn(opcode)
	rd := tRd(opcode)

	// the split immediate of the ARM halfword addressing mode
	hi := (imm5 >> 3) << 8
	lo := (imm5 & 0x07) << 1

	if load {
		return execLdrh(a, 0xe1d000b0|rn<<16|rd<<12|hi|lo)
	}
	return execStrh(a, 0xe1c000b0|rn<<16|rd<<12|hi|lo)
}

func thumbSPRelativeLoadStore(a *ARM, opcode uint16) instrStatus {
	load := opcode&0x0800 == 0x0800
	rd := uint32(opcode>>8) & 0x07
	imm8 := uint32(opcode & 0xff)

	if load {
		return execLdr(a, 0xe59d0000|rd<<12|imm8*4)
	}
	return execStr(a, 0xe58d0000|rd<<12|imm8*4)
}

func thumbLoadAddress(a *ARM, opcode uint16) instrStatus {
	sp := opcode&0x0800 == 0x0800
	rd := uint32(opcode>>8) & 0x07
	imm8 := uint32(opcode & 0xff)

	// ADD rd, PC/SP, #imm8*4. the rotate field turns the byte immediate
	// into a word offset
	if sp {
		return execAdd(a, 0xe28d0f00|rd<<12|imm8)
	}
	return execAdd(a, 0xe28f0f00|rd<<12|imm8)
}

func thumbAdjustSP(a *ARM, opcode uint16) instrStatus {
	imm7 := uint32(opcode & 0x7f)

	if opcode&0x0080 == 0x0080 {
		// SUB SP, SP, #imm7*4
		return execSub(a, 0xe24ddf00|imm7)
	}
	// ADD SP, SP, #imm7*4
	return execAdd(a, 0xe28ddf00|imm7)
}

func thumbPushPop(a *ARM, opcode uint16) instrStatus {
	load := opcode&0x0800 == 0x0800
	rBit := uint32(opcode>>8) & 0x01
	registerList := uint32(opcode & 0xff)

	if load {
		// POP: LDMIA SP!, {list, PC if R}
		return execLdm1(a, 0xe8bd0000|rBit<<15|registerList)
	}
	// PUSH: STMDB SP!, {list, LR if R}
	return execStm1(a, 0xe92d0000|rBit<<14|registerList)
}

func thumbMultipleLoadStore(a *ARM, opcode uint16) instrStatus {
	load := opcode&0x0800 == 0x0800
	rn := uint32(opcode>>8) & 0x07
	registerList := uint32(opcode & 0xff)

	if load {
		// writeback is suppressed when the base register is in the list
		wBit := uint32(1)
		if registerList&(1<<rn) != 0 {
			wBit = 0
		}
		return execLdm1(a, 0xe8900000|wBit<<21|rn<<16|registerList)
	}
	return execStm1(a, 0xe8a00000|rn<<16|registerList)
}

func thumbCondBranch(a *ARM, opcode uint16) instrStatus {
	cond := uint32(opcode>>8) & 0x0f
	imm8 := uint32(opcode & 0xff)

	if !condPassed(cond, &a.cpsr) {
		return inBlock
	}

	addr := uint32(int32(a.regs.active[rPC]) + bitfield.SignExtend(imm8, 8)<<1)
	a.branch(addr)
	return branched
}

func thumbUncondBranch(a *ARM, opcode uint16) instrStatus {
	imm11 := uint32(opcode & 0x7ff)

	addr := uint32(int32(a.regs.active[rPC]) + bitfield.SignExtend(imm11, 11)<<1)
	a.branch(addr)
	return branched
}

// thumbLongBranch is the two-instruction BL/BLX sequence: the first half
// stages the high part of the offset in LR, the second half completes the
// branch and leaves the return address (with bit zero set) in LR.
func thumbLongBranch(a *ARM, opcode uint16) instrStatus {
	hBits := uint32(opcode>>11) & 0x03
	offset11 := uint32(opcode & 0x7ff)

	switch hBits {
	case 0b01:
		// second half of BLX: target is ARM state
		addr := (a.regs.active[rLR] + offset11<<1) & 0xfffffffc
		a.regs.active[rLR] = (a.regs.active[rPC] - 2) | 1
		a.cpsr.SetThumb(false)
		a.branch(addr)
		return branched
	case 0b10:
		// first half: stage the high offset
		a.regs.active[rLR] = uint32(int32(a.regs.active[rPC]) + bitfield.SignExtend(offset11, 11)<<12)
		return inBlock
	case 0b11:
		// second half of BL
		addr := a.regs.active[rLR] + offset11<<1
		a.regs.active[rLR] = (a.regs.active[rPC] - 2) | 1
		a.branch(addr)
		return branched
	}

	return thumbUndefined(a, opcode)
}

func thumbSwi(a *ARM, opcode uint16) instrStatus {
	imm8 := uint32(opcode & 0xff)
	return execSwi(a, 0xef000000|imm8)
}

func thumbBkpt(a *ARM, opcode uint16) instrStatus {
	immedLo := uint32(opcode) & 0x0f
	immedHi := uint32(opcode>>4) & 0x0f
	return execBkpt(a, 0xe1200070|immedHi<<8|immedLo)
}
