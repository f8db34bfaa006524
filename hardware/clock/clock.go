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

// Package clock implements the system clock. The CPU driver increments the
// clock after every batch of instructions; registered tickers (the timer
// block) advance their state machines in response and may raise interrupts.
package clock

import (
	"sync"
	"sync/atomic"

	"github.com/jetsetilly/llama/hardware/irq"
)

// Ticker is any state machine that advances with the cycle counter.
type Ticker interface {
	Tick(cycles uint64, irqs *irq.Requests)
}

// Clock is the monotonic cycle counter for one CPU.
type Clock struct {
	counter atomic.Uint64

	crit    sync.Mutex
	irqs    *irq.Requests
	tickers []Ticker
}

// NewClock is the preferred method of initialisation for the Clock type.
func NewClock(irqs *irq.Requests) *Clock {
	return &Clock{irqs: irqs}
}

// Register a ticker to be advanced on every Increment.
func (clk *Clock) Register(t Ticker) {
	clk.crit.Lock()
	defer clk.crit.Unlock()
	clk.tickers = append(clk.tickers, t)
}

// Increment the cycle counter by the specified number of cycles.
func (clk *Clock) Increment(cycles uint64) {
	clk.counter.Add(cycles)

	clk.crit.Lock()
	defer clk.crit.Unlock()
	for _, t := range clk.tickers {
		t.Tick(cycles, clk.irqs)
	}
}

// Cycles returns the current value of the cycle counter.
func (clk *Clock) Cycles() uint64 {
	return clk.counter.Load()
}
