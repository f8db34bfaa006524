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
	"github.com/jetsetilly/llama/logger"
)

// control register fields (CP15 register 1)
const (
	cp15CtrlUseMpu      = 0
	cp15CtrlUseDcache   = 2
	cp15CtrlUseIcache   = 12
	cp15CtrlHighVectors = 13
)

// Effect is a deferred change to CPU state produced by a coprocessor
// write. Returning the change rather than applying it directly means the
// coprocessor never needs a reference back into the CPU.
type Effect func(a *ARM)

// SysControl is coprocessor 15: the system control coprocessor hosting the
// MPU configuration and the cache maintenance operations.
type SysControl struct {
	control        uint32
	dcacheability  uint32
	icacheability  uint32
	bufferability  uint32
	daccessPerms   uint32
	iaccessPerms   uint32
	memRegions     [NumMpuRegions]uint32
	dcacheLockdown uint32
	icacheLockdown uint32
	dtcmSize       uint32
	itcmSize       uint32

	// mirrored out of the control register for cheap access on exception
	// entry
	highVectors bool
}

// NewSysControl is the preferred method of initialisation for the
// SysControl type.
func NewSysControl() *SysControl {
	return &SysControl{}
}

// mpuOf returns the CPU's memory manager as an MPU, or nil if the CPU has
// an MMU instead.
func mpuOf(a *ARM) *MPU {
	m, _ := a.mmgr.(*MPU)
	return m
}

// MoveIn handles an MCR write to the coprocessor. The returned effect is
// applied to the CPU after the coprocessor call returns.
func (cp *SysControl) MoveIn(crn, crm, op1, op2 int, val uint32) Effect {
	if op1 != 0 {
		panic(curated.Errorf("cp15 write with opcode1 %d", op1))
	}

	effect := Effect(func(a *ARM) {})

	switch crn {
	case 1:
		switch op2 {
		case 0b000:
			cp.control = val
			cp.highVectors = bitfield.IsSet(val, cp15CtrlHighVectors)

			effect = func(a *ARM) {
				a.mmgr.SetEnabled(bitfield.IsSet(val, cp15CtrlUseMpu))
				a.mmgr.ICacheSetEnabled(bitfield.IsSet(val, cp15CtrlUseIcache))
				a.mmgr.DCacheSetEnabled(bitfield.IsSet(val, cp15CtrlUseDcache))
			}
		default:
			panic(curated.Errorf("cp15 control write with opcode2 %d", op2))
		}

	case 2:
		switch op2 {
		case 0:
			cp.dcacheability = val
			effect = func(a *ARM) {
				if m := mpuOf(a); m != nil {
					m.SetRegionDCache(uint8(val))
				}
			}
		case 1:
			cp.icacheability = val
			effect = func(a *ARM) {
				if m := mpuOf(a); m != nil {
					m.SetRegionICache(uint8(val))
				}
			}
		default:
			panic(curated.Errorf("cp15 cacheability write with opcode2 %d", op2))
		}

	case 3:
		cp.bufferability = val

	case 5:
		switch op2 {
		case 0, 2:
			cp.daccessPerms = val
		case 1, 3:
			cp.iaccessPerms = val
		default:
			panic(curated.Errorf("cp15 access perms write with opcode2 %d", op2))
		}

	case 6:
		// protection region base and size
		idx := crm
		cp.memRegions[idx] = val

		enabled := bitfield.IsSet(val, 0)
		sizeExp := bitfield.Extract(val, 1, 5) + 1
		baseSigbits := (bitfield.Extract(val, 12, 31) << 12) >> sizeExp

		effect = func(a *ARM) {
			if m := mpuOf(a); m != nil {
				m.SetRegion(idx, enabled, baseSigbits, sizeExp)
			}
		}

	case 7:
		// cache maintenance
		switch {
		case crm == 5 && op2 <= 2:
			effect = func(a *ARM) { a.mmgr.ICacheInvalidate() }
		case crm == 6 && op2 <= 2:
			effect = func(a *ARM) { a.mmgr.DCacheInvalidate() }
		case crm == 7 && op2 == 0:
			effect = func(a *ARM) {
				a.mmgr.ICacheInvalidate()
				a.mmgr.DCacheInvalidate()
			}
		case crm == 10 && op2 <= 2:
			effect = func(a *ARM) { a.mmgr.DCacheInvalidate() }
		case crm == 14 && op2 <= 2:
			effect = func(a *ARM) { a.mmgr.DCacheInvalidate() }
		default:
			logger.Logf("CP15", "cache maintenance op crm=%d op2=%d not implemented", crm, op2)
		}

	case 9:
		switch {
		case crm == 0 && op2 == 0:
			cp.dcacheLockdown = val
		case crm == 0 && op2 == 1:
			cp.icacheLockdown = val
		case crm == 1 && op2 == 0:
			cp.dtcmSize = val
		case crm == 1 && op2 == 1:
			cp.itcmSize = val
		default:
			panic(curated.Errorf("cp15 lockdown write crm=%d op2=%d", crm, op2))
		}

	default:
		panic(curated.Errorf("cp15 write to coproc register %d", crn))
	}

	return effect
}

// MoveOut handles an MRC read from the coprocessor.
func (cp *SysControl) MoveOut(crn, crm, op1, op2 int) uint32 {
	if op1 != 0 {
		panic(curated.Errorf("cp15 read with opcode1 %d", op1))
	}

	switch crn {
	case 1:
		if op2 == 0 {
			return cp.control
		}
	case 2:
		switch op2 {
		case 0:
			return cp.dcacheability
		case 1:
			return cp.icacheability
		}
	case 3:
		return cp.bufferability
	case 5:
		switch op2 {
		case 0, 2:
			return cp.daccessPerms
		case 1, 3:
			return cp.iaccessPerms
		}
	case 6:
		return cp.memRegions[crm]
	case 9:
		switch {
		case crm == 0 && op2 == 0:
			return cp.dcacheLockdown
		case crm == 0 && op2 == 1:
			return cp.icacheLockdown
		case crm == 1 && op2 == 0:
			return cp.dtcmSize
		case crm == 1 && op2 == 1:
			return cp.itcmSize
		}
	}

	panic(curated.Errorf("cp15 read from coproc register %d (crm=%d op2=%d)", crn, crm, op2))
}
