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

// Package irq implements the interrupt aggregator for one CPU. Devices add
// pending bits through the Requests end; the CPU samples the Line end
// between instructions.
//
// The invariant maintained by every mutation is:
//
//	line == (pending & enabled != 0)
package irq

import (
	"sync"
	"sync/atomic"
)

// Type identifies an interrupt source as a bit in the pending/enabled
// masks.
type Type uint32

// Interrupt sources seen by the ARM9.
const (
	Dmac1_0 Type = 1 << iota
	Dmac1_1
	Dmac1_2
	Dmac1_3
	Dmac1_4
	Dmac1_5
	Dmac1_6
	Dmac1_7
	Timer0
	Timer1
	Timer2
	Timer3
	PxiSync
	PxiNotFull
	PxiNotEmpty
	Aes
	Sdio1
	Sdio1Async
	Sdio3
	Sdio3Async
	DebugRecv
	DebugSend
	Rsa
	CtrCard1
	CtrCard2
	Cgc
	CgcDet
	DsCard
	Dmac2
	Dmac2Abort
)

// Line is the aggregated interrupt line sampled by the CPU.
type Line struct {
	high atomic.Bool
}

// IsHigh returns true if any enabled interrupt is pending.
func (l *Line) IsHigh() bool {
	return l.high.Load()
}

// Requests accumulates pending interrupts and drives the Line.
type Requests struct {
	crit    sync.Mutex
	pending uint32
	enabled uint32
	line    *Line
}

// NewChannel creates a connected Requests/Line pair.
func NewChannel() (*Requests, *Line) {
	line := &Line{}
	return &Requests{line: line}, line
}

// must be called with the critical section lock held
func (rq *Requests) update() {
	rq.line.high.Store(rq.pending&rq.enabled != 0)
}

// Pending returns the current pending mask.
func (rq *Requests) Pending() uint32 {
	rq.crit.Lock()
	defer rq.crit.Unlock()
	return rq.pending
}

// SetEnabled replaces the enabled mask.
func (rq *Requests) SetEnabled(enabled uint32) {
	rq.crit.Lock()
	defer rq.crit.Unlock()
	rq.enabled = enabled
	rq.update()
}

// Enabled returns the current enabled mask.
func (rq *Requests) Enabled() uint32 {
	rq.crit.Lock()
	defer rq.crit.Unlock()
	return rq.enabled
}

// Acknowledge clears the specified pending bits, returning the new pending
// mask.
func (rq *Requests) Acknowledge(irqs uint32) uint32 {
	rq.crit.Lock()
	defer rq.crit.Unlock()
	rq.pending &^= irqs
	rq.update()
	return rq.pending
}

// Add raises an interrupt.
func (rq *Requests) Add(t Type) {
	rq.crit.Lock()
	defer rq.crit.Unlock()
	rq.pending |= uint32(t)
	rq.update()
}

// Clear lowers an interrupt that has not been acknowledged.
func (rq *Requests) Clear(t Type) {
	rq.crit.Lock()
	defer rq.crit.Unlock()
	rq.pending &^= uint32(t)
	rq.update()
}
