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

// Package hardware assembles the console: two CPU cores with their
// physical address spaces, the memory-mapped devices, the system clocks
// and the interrupt channels.
package hardware

import (
	"sync"
	"sync/atomic"

	"github.com/jetsetilly/llama/hardware/arm"
	"github.com/jetsetilly/llama/hardware/clock"
	"github.com/jetsetilly/llama/hardware/io"
	"github.com/jetsetilly/llama/hardware/irq"
	"github.com/jetsetilly/llama/hardware/memory"
	"github.com/jetsetilly/llama/hardware/memory/memorymap"
	"github.com/jetsetilly/llama/logger"
)

// number of instructions each CPU executes between checks of the stop
// flag. also the batch size for clock advancement
const runBatch = 1000

// CTR is the console.
type CTR struct {
	Mem9  *memory.Controller
	Mem11 *memory.Controller

	Irq9  *irq.Requests
	Irq11 *irq.Requests

	Clock9  *clock.Clock
	Clock11 *clock.Clock

	Arm9  *arm.ARM
	Arm11 *arm.ARM

	Gpu *io.GpuDevice
	Hid *io.HidDevice

	running atomic.Bool
	stop    atomic.Bool
	wg      sync.WaitGroup

	// the break that ended the most recent run of each CPU
	Break9  arm.Break
	Break11 arm.Break
}

// NewCTR is the preferred method of initialisation for the CTR type.
func NewCTR() *CTR {
	ctr := &CTR{}

	// interrupt channels, one per CPU
	var line9, line11 *irq.Line
	ctr.Irq9, line9 = irq.NewChannel()
	ctr.Irq11, line11 = irq.NewChannel()

	// the system clock drives the ARM9 timer block
	timerStates := io.NewTimerStates()
	ctr.Clock9 = clock.NewClock(ctr.Irq9)
	ctr.Clock9.Register(timerStates)
	ctr.Clock11 = clock.NewClock(ctr.Irq11)

	// shared RAM blocks appear in both address spaces
	vram := memory.NewSharedRAM(memorymap.SizeVRAM)
	dspram := memory.NewSharedRAM(memorymap.SizeDSPRAM)
	axiwram := memory.NewSharedRAM(memorymap.SizeAXIWRAM)
	fcram := memory.NewSharedRAM(memorymap.SizeFCRAM)
	bootrom := memory.NewSharedRAM(memorymap.SizeBootrom)

	// device set
	pxi9, pxi11 := io.NewPxiChannel(ctr.Irq9, ctr.Irq11)
	ndma := io.NewNdmaDevice()
	xdma := io.NewXdmaDevice()
	ctr.Gpu = io.NewGpuDevice()
	ctr.Hid = io.NewHidDevice()

	io9 := io.NewBlock("IO9")
	io9.Attach(io.RegionConfig, io.NewConfigDevice())
	io9.Attach(io.RegionIrq, io.NewIrqDevice(ctr.Irq9).Device)
	io9.Attach(io.RegionNdma, ndma.Device)
	io9.Attach(io.RegionTimer, io.NewTimerDevice(timerStates).Device)
	io9.Attach(io.RegionEmmc, io.NewEmmcDevice().Device)
	io9.Attach(io.RegionPxi9, pxi9.Device)
	io9.Attach(io.RegionAes, io.NewAesDevice().Device)
	io9.Attach(io.RegionSha, io.NewShaDevice().Device)
	io9.Attach(io.RegionRsa, io.NewRsaDevice().Device)
	io9.Attach(io.RegionXdma, xdma.Device)
	io9.Attach(io.RegionConfigExt, io.NewConfigExtDevice())
	io9.Attach(io.RegionOtp, io.NewOtpDevice().Device)

	ioShared := io.NewBlock("IOShared")
	ioShared.Attach(io.RegionHid, ctr.Hid.Device)
	ioShared.Attach(io.RegionPxi11, pxi11.Device)

	io11 := io.NewBlock("IO11")
	io11.Attach(io.RegionIrq, io.NewIrqDevice(ctr.Irq11).Device)

	ioGpu := io.NewBlock("IOGPU")
	ioGpu.Attach(0x0, ctr.Gpu.Device)

	// the ARM9 view of the address space
	ctr.Mem9 = memory.NewController()
	itcm := memory.NewUniqueRAM(memorymap.SizeITCM)
	for i := uint32(0); i < memorymap.NumITCMMirrors; i++ {
		ctr.Mem9.MapRegion(memorymap.OriginITCM+i*memorymap.MirrorITCM, itcm)
	}
	ctr.Mem9.MapRegion(memorymap.OriginA9RAM, memory.NewUniqueRAM(memorymap.SizeA9RAM))
	ctr.Mem9.MapRegion(memorymap.OriginIO9, memory.NewIO(io9, memorymap.SizeIO9))
	ctr.Mem9.MapRegion(memorymap.OriginIOShared, memory.NewIO(ioShared, memorymap.SizeIOShared))
	ctr.Mem9.MapRegion(memorymap.OriginVRAM, vram)
	ctr.Mem9.MapRegion(memorymap.OriginDSPRAM, dspram)
	ctr.Mem9.MapRegion(memorymap.OriginAXIWRAM, axiwram)
	ctr.Mem9.MapRegion(memorymap.OriginFCRAM, fcram)
	ctr.Mem9.MapRegion(memorymap.OriginDTCM, memory.NewUniqueRAM(memorymap.SizeDTCM))
	ctr.Mem9.MapRegion(memorymap.OriginBootrom, bootrom)

	// the ARM11 view of the address space
	ctr.Mem11 = memory.NewController()
	ctr.Mem11.MapRegion(memorymap.OriginBootrom11, bootrom)
	ctr.Mem11.MapRegion(memorymap.OriginIOShared, memory.NewIO(ioShared, memorymap.SizeIOShared))
	ctr.Mem11.MapRegion(memorymap.OriginIO11, memory.NewIO(io11, memorymap.SizeIO11))
	ctr.Mem11.MapRegion(0x10400000, memory.NewIO(ioGpu, 0x4))
	ctr.Mem11.MapRegion(memorymap.OriginPriv11, memory.NewUniqueRAM(memorymap.SizePriv11))
	ctr.Mem11.MapRegion(memorymap.OriginVRAM, vram)
	ctr.Mem11.MapRegion(memorymap.OriginDSPRAM, dspram)
	ctr.Mem11.MapRegion(memorymap.OriginAXIWRAM, axiwram)
	ctr.Mem11.MapRegion(memorymap.OriginFCRAM, fcram)
	ctr.Mem11.MapRegion(memorymap.OriginBootrom, bootrom)

	// the DMA engines copy through the ARM9 address space
	ndma.SetMemory(ctr.Mem9)
	xdma.SetMemory(ctr.Mem9)

	// the cores
	ctr.Arm9 = arm.NewARM(arm.ARMv5, arm.NewMPU(ctr.Mem9), line9, ctr.Clock9)
	ctr.Arm11 = arm.NewARM(arm.ARMv6, arm.NewMMU(ctr.Mem11), line11, ctr.Clock11)

	return ctr
}

// Reset both CPUs to their entry points.
func (ctr *CTR) Reset(entry9 uint32, entry11 uint32) {
	ctr.Arm9.Reset(entry9)
	ctr.Arm11.Reset(entry11)
}

// Start the CPU threads. Returns immediately; each thread runs until Stop()
// is called or its CPU breaks for any reason other than reaching the batch
// limit (breakpoint, halt or fault).
func (ctr *CTR) Start() {
	if ctr.running.Swap(true) {
		return
	}
	ctr.stop.Store(false)

	run := func(cpu *arm.ARM, brk *arm.Break) {
		defer ctr.wg.Done()
		for !ctr.stop.Load() {
			*brk = cpu.Run(runBatch)
			if brk.Reason != arm.LimitReached {
				logger.Logf(cpu.Arch().String(), "stopped: %s", brk.Reason)
				if brk.Error != nil {
					logger.Logf(cpu.Arch().String(), "%v", brk.Error)
				}
				return
			}
		}
	}

	ctr.wg.Add(2)
	go run(ctr.Arm9, &ctr.Break9)
	go run(ctr.Arm11, &ctr.Break11)
}

// Stop the CPU threads and wait for them to exit. The hardware may then be
// inspected and modified safely.
func (ctr *CTR) Stop() {
	if !ctr.running.Load() {
		return
	}
	ctr.stop.Store(true)
	ctr.wg.Wait()
	ctr.running.Store(false)
}

// Running returns true while the CPU threads are live.
func (ctr *CTR) Running() bool {
	return ctr.running.Load()
}
