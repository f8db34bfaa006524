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

// Package performance provides runtime monitoring of the emulation: a
// live statsview server for the Go runtime metrics and a periodic summary
// of emulated cycle throughput.
package performance

import (
	"time"

	"github.com/go-echarts/statsview"

	"github.com/jetsetilly/llama/hardware"
	"github.com/jetsetilly/llama/logger"
)

// interval between throughput log entries
const reportInterval = 5 * time.Second

// Monitor starts the statsview server and a goroutine that periodically
// logs the emulated cycle rate of both CPUs. Monitoring runs for the life
// of the process.
func Monitor(ctr *hardware.CTR) {
	mgr := statsview.New()
	go func() {
		// Start() blocks serving the metrics pages
		mgr.Start()
	}()

	go func() {
		last9 := ctr.Clock9.Cycles()
		last11 := ctr.Clock11.Cycles()

		for range time.Tick(reportInterval) {
			c9 := ctr.Clock9.Cycles()
			c11 := ctr.Clock11.Cycles()

			secs := uint64(reportInterval / time.Second)
			logger.Logf("performance", "ARM9 %d cyc/s, ARM11 %d cyc/s",
				(c9-last9)/secs, (c11-last11)/secs)

			last9 = c9
			last11 = c11
		}
	}()
}
