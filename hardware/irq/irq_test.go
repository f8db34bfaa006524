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

package irq_test

import (
	"testing"

	"github.com/jetsetilly/llama/hardware/irq"
	"github.com/jetsetilly/llama/test"
)

func TestLineInvariant(t *testing.T) {
	rq, line := irq.NewChannel()

	// nothing pending, nothing enabled
	test.Equate(t, line.IsHigh(), false)

	// pending but not enabled
	rq.Add(irq.Timer0)
	test.Equate(t, line.IsHigh(), false)
	test.Equate(t, rq.Pending(), uint32(irq.Timer0))

	// enabling an unrelated interrupt does not raise the line
	rq.SetEnabled(uint32(irq.Timer1))
	test.Equate(t, line.IsHigh(), false)

	// enabling the pending interrupt raises the line
	rq.SetEnabled(uint32(irq.Timer0 | irq.Timer1))
	test.Equate(t, line.IsHigh(), true)

	// acknowledging drops the line
	p := rq.Acknowledge(uint32(irq.Timer0))
	test.Equate(t, p, uint32(0))
	test.Equate(t, line.IsHigh(), false)
}

func TestAcknowledgeIsSelective(t *testing.T) {
	rq, line := irq.NewChannel()
	rq.SetEnabled(^uint32(0))

	rq.Add(irq.PxiSync)
	rq.Add(irq.Aes)
	test.Equate(t, line.IsHigh(), true)

	// acknowledging one of the two leaves the line high
	p := rq.Acknowledge(uint32(irq.PxiSync))
	test.Equate(t, p, uint32(irq.Aes))
	test.Equate(t, line.IsHigh(), true)

	rq.Acknowledge(uint32(irq.Aes))
	test.Equate(t, line.IsHigh(), false)
}
