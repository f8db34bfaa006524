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

package io

import (
	"sync"

	"github.com/jetsetilly/llama/bitfield"
	"github.com/jetsetilly/llama/hardware/irq"
)

// CNT register fields
const (
	cntPrescalerLo = 0
	cntPrescalerHi = 1
	cntCountUp     = 2
	cntIrqEnable   = 6
	cntStarted     = 7
)

// prescalerShift converts the two bit prescaler field to the shift applied
// to the cycle counter: divide by 1, 64, 256 or 1024.
var prescalerShift = [4]uint{0, 6, 8, 10}

type timerState struct {
	started    bool
	shift      uint
	countUp    bool
	irqEnable  bool
	startCycle uint64

	// number of times this timer has wrapped past 0xffff, as of the last
	// Tick(). used for overflow interrupt detection and count-up chaining
	overflows uint64
}

// TimerStates is the clock-driven half of the timer block. It is shared
// between the TimerDevice (register accesses on the CPU thread) and the
// system clock (Tick on every instruction batch).
type TimerStates struct {
	crit   sync.Mutex
	cycles uint64
	timers [4]timerState
}

// NewTimerStates is the preferred method of initialisation for the
// TimerStates type.
func NewTimerStates() *TimerStates {
	return &TimerStates{}
}

// raw count of timer i: derived from the cycle counter, not stored
func (ts *TimerStates) raw(i int) uint64 {
	t := &ts.timers[i]
	if !t.started {
		return 0
	}
	return (ts.cycles - t.startCycle) >> t.shift
}

// value of timer i as seen through the VAL register
func (ts *TimerStates) value(i int) uint16 {
	t := &ts.timers[i]
	if t.countUp {
		// count-up timers advance once for every overflow of the previous
		// timer
		prev := (i + 3) % 4
		return uint16(ts.timers[prev].overflows)
	}
	return uint16(ts.raw(i))
}

// Tick implements the clock.Ticker interface. Any timer crossing the 16
// bit boundary with interrupts enabled raises its IRQ bit.
func (ts *TimerStates) Tick(cycles uint64, irqs *irq.Requests) {
	ts.crit.Lock()
	defer ts.crit.Unlock()

	ts.cycles += cycles

	for i := range ts.timers {
		t := &ts.timers[i]
		if !t.started || t.countUp {
			continue
		}
		overflows := ts.raw(i) >> 16
		if overflows != t.overflows {
			t.overflows = overflows
			if t.irqEnable {
				irqs.Add(irq.Timer0 << uint(i))
			}
		}
	}
}

// TimerDevice is the register face of the timer block.
type TimerDevice struct {
	*Device
	states *TimerStates

	val [4]*Reg
	cnt [4]*Reg
}

// NewTimerDevice is the preferred method of initialisation for the
// TimerDevice type.
func NewTimerDevice(states *TimerStates) *TimerDevice {
	dev := &TimerDevice{
		Device: NewDevice("TIMER"),
		states: states,
	}

	for i := 0; i < 4; i++ {
		i := i
		dev.val[i] = dev.Reg16(uint32(i*4), 0, 0xffff,
			func() { dev.valRead(i) }, nil)
		dev.cnt[i] = dev.Reg16(uint32(i*4+2), 0, 0xffff,
			nil, func() { dev.cntWrite(i) })
	}

	return dev
}

// cntWrite records the start cycle when the started bit transitions from
// false to true.
func (dev *TimerDevice) cntWrite(i int) {
	cnt := dev.cnt[i].Get()

	dev.states.crit.Lock()
	defer dev.states.crit.Unlock()

	t := &dev.states.timers[i]
	started := bitfield.IsSet(cnt, cntStarted)

	if started && !t.started {
		t.startCycle = dev.states.cycles
		t.overflows = 0
	}

	t.started = started
	t.shift = prescalerShift[bitfield.Extract(cnt, cntPrescalerLo, cntPrescalerHi)]
	t.countUp = bitfield.IsSet(cnt, cntCountUp)
	t.irqEnable = bitfield.IsSet(cnt, cntIrqEnable)
}

// valRead derives the current timer value from the cycle counter.
func (dev *TimerDevice) valRead(i int) {
	dev.states.crit.Lock()
	defer dev.states.crit.Unlock()

	dev.val[i].SetUnchecked(uint32(dev.states.value(i)))
}
