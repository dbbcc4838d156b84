// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"math"
	"math/big"
	"strconv"

	"github.com/vechain/lottery/metrics"
)

var (
	productionsCounter = metrics.LazyLoadCounterVec("pos_productions_count", []string{"instance"})
	difficultyGauge    = metrics.LazyLoadGaugeVec("pos_difficulty", []string{"instance"})
)

func instanceLabel(index uint32) string {
	return strconv.FormatUint(uint64(index), 10)
}

func setDifficultyGauge(index uint32, difficulty *big.Int) {
	v := int64(math.MaxInt64)
	if difficulty == nil {
		v = 0
	} else if difficulty.IsInt64() {
		v = difficulty.Int64()
	}
	difficultyGauge().SetWithLabel(v, map[string]string{"instance": instanceLabel(index)})
}
