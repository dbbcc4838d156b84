// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lottery

import (
	"github.com/holiman/uint256"

	"github.com/vechain/lottery/thor"
)

const maxDeviationFactor = 4

var (
	maxUint256     = new(uint256.Int).SetAllOne()
	adjustmentBase = uint256.NewInt(thor.AdjustmentBase)
)

// AdjustDifficulty moves difficulty up when the last production came
// within target ticks and down otherwise. adjustment is in parts per
// million of the current difficulty. The step grows with the deviation
// from target, up to four times. The result never drops below minDifficulty.
func AdjustDifficulty(difficulty *uint256.Int, ticksSinceLast, target, adjustment uint64, minDifficulty *uint256.Int) *uint256.Int {
	step, overflow := new(uint256.Int).MulDivOverflow(difficulty, uint256.NewInt(adjustment), adjustmentBase)
	if overflow {
		step.Set(maxUint256)
	}

	var deviation uint64
	if ticksSinceLast > target {
		deviation = ticksSinceLast - target
	} else {
		deviation = target - ticksSinceLast
	}
	k := uint64(maxDeviationFactor)
	if target > 0 && deviation < target {
		k = min(1+3*deviation/target, maxDeviationFactor)
	}

	if _, overflow := step.AddOverflow(step, uint256.NewInt(1)); overflow {
		step.Set(maxUint256)
	}
	if _, overflow := step.MulOverflow(step, uint256.NewInt(k)); overflow {
		step.Set(maxUint256)
	}

	out := new(uint256.Int)
	if ticksSinceLast <= target {
		if _, overflow := out.AddOverflow(difficulty, step); overflow {
			out.Set(maxUint256)
		}
		return out
	}
	if difficulty.Lt(step) {
		return out.Set(minDifficulty)
	}
	out.Sub(difficulty, step)
	if out.Lt(minDifficulty) {
		out.Set(minDifficulty)
	}
	return out
}
