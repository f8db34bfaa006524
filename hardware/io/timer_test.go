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
	"encoding/binary"
	"testing"

	"github.com/jetsetilly/llama/hardware/irq"
	"github.com/jetsetilly/llama/test"
)

func timerWrite16(dev *TimerDevice, offset uint32, v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	dev.WriteRegister(offset, buf[:])
}

func timerRead16(dev *TimerDevice, offset uint32) uint16 {
	var buf [2]byte
	dev.ReadRegister(offset, buf[:])
	return binary.LittleEndian.Uint16(buf[:])
}

func TestTimerValueDerivation(t *testing.T) {
	rq, _ := irq.NewChannel()
	states := NewTimerStates()
	dev := NewTimerDevice(states)

	// run a while before the timer starts: the value is relative to the
	// start cycle
	states.Tick(1000, rq)

	// start timer 0 with prescaler 64 (field value 1)
	timerWrite16(dev, 0x002, 1<<cntStarted|1)

	states.Tick(6400, rq)
	test.Equate(t, timerRead16(dev, 0x000), uint16(100))

	// prescaler 1 on timer 1
	timerWrite16(dev, 0x006, 1<<cntStarted)
	states.Tick(0x12345, rq)
	test.Equate(t, timerRead16(dev, 0x004), uint16(0x12345&0xffff))
	// timer 0 kept counting from its own start cycle
	test.Equate(t, timerRead16(dev, 0x000), uint16((6400+0x12345)>>6))
}

func TestTimerOverflowIrq(t *testing.T) {
	rq, line := irq.NewChannel()
	rq.SetEnabled(uint32(irq.Timer0))

	states := NewTimerStates()
	dev := NewTimerDevice(states)

	// prescaler 1, irq on overflow
	timerWrite16(dev, 0x002, 1<<cntStarted|1<<cntIrqEnable)

	states.Tick(0xffff, rq)
	test.Equate(t, line.IsHigh(), false)

	// crossing the 16 bit boundary raises the interrupt
	states.Tick(1, rq)
	test.Equate(t, line.IsHigh(), true)
	test.Equate(t, rq.Pending()&uint32(irq.Timer0), uint32(irq.Timer0))
}

func TestTimerCountUpChaining(t *testing.T) {
	rq, _ := irq.NewChannel()
	states := NewTimerStates()
	dev := NewTimerDevice(states)

	// timer 0 free-running, timer 1 counting timer 0 overflows
	timerWrite16(dev, 0x002, 1<<cntStarted)
	timerWrite16(dev, 0x006, 1<<cntStarted|1<<cntCountUp)

	// three overflows of timer 0
	states.Tick(0x30000, rq)
	test.Equate(t, timerRead16(dev, 0x004), uint16(3))
}
