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

package arm_test

import (
	"testing"

	"github.com/jetsetilly/llama/hardware/arm"
	"github.com/jetsetilly/llama/hardware/clock"
	"github.com/jetsetilly/llama/hardware/irq"
	"github.com/jetsetilly/llama/hardware/memory"
	"github.com/jetsetilly/llama/test"
)

// testCore builds an ARM9-style core with 64KiB of RAM at address zero
// and 1MiB of RAM at 0x20000000.
func testCore(t *testing.T) (*arm.ARM, *memory.Controller, *irq.Requests) {
	t.Helper()

	mem := memory.NewController()
	mem.MapRegion(0x00000000, memory.NewUniqueRAM(64))
	mem.MapRegion(0x20000000, memory.NewUniqueRAM(1024))

	rq, line := irq.NewChannel()
	clk := clock.NewClock(rq)

	cpu := arm.NewARM(arm.ARMv5, arm.NewMPU(mem), line, clk)
	return cpu, mem, rq
}

func TestMovImmediate(t *testing.T) {
	cpu, mem, _ := testCore(t)

	// MOV R1, #5
	mem.Write32(0x0000, 0xe3a01005)
	cpu.Reset(0x0000)

	flags := cpu.CPSR().Raw() & 0xf0000000

	brk := cpu.Step()
	test.Equate(t, brk.Reason, arm.LimitReached)
	test.Equate(t, cpu.Reg(1), uint32(5))
	test.Equate(t, cpu.CPSR().Raw()&0xf0000000, flags)
	test.Equate(t, cpu.ExecutingPC(), uint32(4))
}

func TestAddNoFlags(t *testing.T) {
	cpu, mem, _ := testCore(t)

	// ADD R0, R1, R2 with the S bit clear
	mem.Write32(0x0000, 0xe0810002)
	cpu.Reset(0x0000)
	cpu.SetReg(1, 0x7fffffff)
	cpu.SetReg(2, 1)

	cpu.Step()
	test.Equate(t, cpu.Reg(0), uint32(0x80000000))
	test.Equate(t, cpu.CPSR().V(), false)
	test.Equate(t, cpu.CPSR().N(), false)
}

func TestCmpZero(t *testing.T) {
	cpu, mem, _ := testCore(t)

	// CMP R0, #0 with R0 == 0
	mem.Write32(0x0000, 0xe3500000)
	cpu.Reset(0x0000)
	cpu.SetReg(0, 0)

	cpu.Step()
	test.Equate(t, cpu.CPSR().Z(), true)
	test.Equate(t, cpu.CPSR().N(), false)
	test.Equate(t, cpu.CPSR().C(), true)
	test.Equate(t, cpu.CPSR().V(), false)
}

func TestBranchLink(t *testing.T) {
	cpu, mem, _ := testCore(t)

	// BL +0
	mem.Write32(0x0000, 0xeb000000)
	cpu.Reset(0x0000)

	oldPC := cpu.Reg(15)

	cpu.Step()
	test.Equate(t, cpu.Reg(14), oldPC-4)
	test.Equate(t, cpu.Reg(15), oldPC+8)
}

func TestThumbMovImmediate(t *testing.T) {
	cpu, mem, _ := testCore(t)

	// Thumb MOV R0, #5
	mem.Write16(0x0000, 0x2005)
	cpu.Reset(0x0000)

	psr := cpu.CPSR()
	psr.SetThumb(true)
	cpu.SetCPSR(psr.Raw())
	cpu.SetReg(15, 0x0004) // thumb pipeline offset

	cpu.Step()
	test.Equate(t, cpu.Reg(0), uint32(5))
	test.Equate(t, cpu.ExecutingPC(), uint32(2))
}

func TestSwiEntersSupervisor(t *testing.T) {
	cpu, mem, _ := testCore(t)

	// SWI #0 at 0x100
	mem.Write32(0x0100, 0xef000000)
	cpu.Reset(0x0100)

	cpu.Step()
	test.Equate(t, cpu.CPSR().Mode(), arm.ModeSvc)
	test.Equate(t, cpu.CPSR().IrqDisabled(), true)
	// the SWI vector
	test.Equate(t, cpu.ExecutingPC(), uint32(0x08))
	// return address is the instruction after the SWI
	test.Equate(t, cpu.Reg(14), uint32(0x104))
}

func TestIrqEntry(t *testing.T) {
	cpu, mem, rq := testCore(t)

	// two NOP-alike instructions (MOV R0, R0)
	mem.Write32(0x0000, 0xe1a00000)
	mem.Write32(0x0004, 0xe1a00000)
	cpu.Reset(0x0000)

	// clear the I bit so the interrupt is taken
	psr := cpu.CPSR()
	psr.SetIrqDisabled(false)
	cpu.SetCPSR(psr.Raw())

	rq.SetEnabled(uint32(irq.Timer0))
	rq.Add(irq.Timer0)

	cpu.Step()
	test.Equate(t, cpu.CPSR().Mode(), arm.ModeIrq)
	test.Equate(t, cpu.CPSR().IrqDisabled(), true)
	// the IRQ vector
	test.Equate(t, cpu.ExecutingPC(), uint32(0x18))
	// LR points one instruction past the interrupted instruction
	test.Equate(t, cpu.Reg(14), uint32(0x04))
}

func TestBreakpoint(t *testing.T) {
	cpu, mem, _ := testCore(t)

	mem.Write32(0x0000, 0xe3a01005) // MOV R1, #5
	mem.Write32(0x0004, 0xe3a02006) // MOV R2, #6
	cpu.Reset(0x0000)

	cpu.SetBreakpoint(0x0004)

	brk := cpu.Run(100)
	test.Equate(t, brk.Reason, arm.Breakpoint)
	test.Equate(t, cpu.ExecutingPC(), uint32(0x0004))
	test.Equate(t, cpu.Reg(1), uint32(5))
	test.Equate(t, cpu.Reg(2), uint32(0))

	// the armed breakpoint does not re-trigger when stepping across it
	brk = cpu.Step()
	test.Equate(t, brk.Reason, arm.LimitReached)
	test.Equate(t, cpu.Reg(2), uint32(6))
}

func TestUnknownInstructionHalts(t *testing.T) {
	cpu, mem, _ := testCore(t)

	// an encoding in the undefined instruction space halts the
	// instruction stream, distinct from a memory fault
	mem.Write32(0x0000, 0xe7f000f0)
	cpu.Reset(0x0000)

	brk := cpu.Step()
	test.Equate(t, brk.Reason, arm.Halt)
	test.ExpectedFailure(t, brk.Error)
}

func TestUnmappedAddressFaults(t *testing.T) {
	cpu, mem, _ := testCore(t)

	// LDR R0, [R1] with R1 pointing nowhere
	mem.Write32(0x0000, 0xe5910000)
	cpu.Reset(0x0000)
	cpu.SetReg(1, 0x40000000)

	brk := cpu.Step()
	test.Equate(t, brk.Reason, arm.Fault)
}

func TestMpuDCacheReadback(t *testing.T) {
	cpu, mem, _ := testCore(t)

	mpu := cpu.Mmgr().(*arm.MPU)

	// region 0 covers [0x20000000, 0x20100000) with the data cache
	// enabled: size exponent 20, significant bits 0x200. no instruction
	// is executed in this test so no other region is needed
	mpu.SetRegion(0, true, 0x200, 20)
	mpu.SetRegionDCache(0x01)
	mpu.SetEnabled(true)
	mpu.DCacheSetEnabled(true)

	mpu.DmemWrite32(0x20000000, 0xdeadbeef)

	// read back through the cache
	test.Equate(t, mpu.DmemRead32(0x20000000), uint32(0xdeadbeef))

	// the write has not reached the physical address space yet
	test.Equate(t, mem.Read32(0x20000000), uint32(0))

	// invalidation writes the dirty line back
	mpu.DCacheInvalidate()
	test.Equate(t, mem.Read32(0x20000000), uint32(0xdeadbeef))
}

func TestMpuFault(t *testing.T) {
	cpu, mem, _ := testCore(t)

	mem.Write32(0x0000, 0xe5910000) // LDR R0, [R1]
	cpu.Reset(0x0000)
	cpu.SetReg(1, 0x20000000)

	mpu := cpu.Mmgr().(*arm.MPU)
	// only region 0, covering low memory. the load target is outside it
	mpu.SetRegion(0, true, 0x0, 20)
	mpu.SetEnabled(true)

	brk := cpu.Step()
	test.Equate(t, brk.Reason, arm.Fault)
}

func TestCp15MpuProgramming(t *testing.T) {
	cpu, mem, _ := testCore(t)

	// R0 holds the region descriptor: base 0x20000000, size exponent 20
	// (size field 19), enabled
	// MCR p15, 0, R0, c6, c0, 0
	mem.Write32(0x0000, 0xee060f10)
	// R1 holds the dcacheability bits
	// MCR p15, 0, R1, c2, c0, 0
	mem.Write32(0x0004, 0xee021f10)
	// R2 holds the control word: MPU on, dcache on
	// MCR p15, 0, R2, c1, c0, 0
	mem.Write32(0x0008, 0xee012f10)

	cpu.Reset(0x0000)
	cpu.SetReg(0, 0x20000000|(19<<1)|1)
	cpu.SetReg(1, 0x00000001)
	cpu.SetReg(2, (1<<0)|(1<<2))

	mpu := cpu.Mmgr().(*arm.MPU)

	// the MPU only switches on with the final instruction so every fetch
	// in this program still passes through
	brk := cpu.Run(3)
	test.Equate(t, brk.Reason, arm.LimitReached)

	// a write through the newly cached region stays in the cache until
	// invalidation
	mpu.DmemWrite32(0x20000000, 0xcafef00d)
	test.Equate(t, mem.Read32(0x20000000), uint32(0))
	mpu.DCacheInvalidate()
	test.Equate(t, mem.Read32(0x20000000), uint32(0xcafef00d))
}

func TestLdmStm(t *testing.T) {
	cpu, mem, _ := testCore(t)

	// STMDB SP!, {R0-R3} ; LDMIA SP!, {R4-R7}
	mem.Write32(0x0000, 0xe92d000f)
	mem.Write32(0x0004, 0xe8bd00f0)
	cpu.Reset(0x0000)

	cpu.SetReg(0, 0x11111111)
	cpu.SetReg(1, 0x22222222)
	cpu.SetReg(2, 0x33333333)
	cpu.SetReg(3, 0x44444444)
	cpu.SetReg(13, 0x1000)

	cpu.Run(2)

	test.Equate(t, cpu.Reg(13), uint32(0x1000))
	test.Equate(t, cpu.Reg(4), uint32(0x11111111))
	test.Equate(t, cpu.Reg(5), uint32(0x22222222))
	test.Equate(t, cpu.Reg(6), uint32(0x33333333))
	test.Equate(t, cpu.Reg(7), uint32(0x44444444))

	// lowest-numbered register at the lowest address
	test.Equate(t, mem.Read32(0x1000-16), uint32(0x11111111))
	test.Equate(t, mem.Read32(0x1000-4), uint32(0x44444444))
}

func TestRotatedUnalignedLoad(t *testing.T) {
	cpu, mem, _ := testCore(t)

	// LDR R0, [R1] with R1 unaligned by one byte
	mem.Write32(0x0000, 0xe5910000)
	mem.Write32(0x1000, 0x44332211)
	cpu.Reset(0x0000)
	cpu.SetReg(1, 0x1001)

	cpu.Step()
	// the aligned word rotated right by eight bits
	test.Equate(t, cpu.Reg(0), uint32(0x11443322))
}
