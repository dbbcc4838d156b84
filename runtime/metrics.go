// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import "github.com/vechain/lottery/metrics"

var (
	metricExecCount    = metrics.LazyLoadCounterVec("runtime_exec_count", []string{"op", "result"})
	metricExecDuration = metrics.LazyLoadHistogramVec("runtime_exec_duration_ms", []string{"op"}, metrics.Bucket1s)
	metricMinedEvents  = metrics.LazyLoadCounter("runtime_mined_events_count")
)
