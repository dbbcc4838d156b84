// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lottery

import (
	"math"

	"github.com/holiman/uint256"

	"github.com/vechain/lottery/builtin/reverts"
	"github.com/vechain/lottery/thor"
)

// Never is returned by WhenCanProduce when the account cannot become
// eligible within the current seed rotation.
const Never uint32 = math.MaxUint32

// maxDistance is log2(2^256) in fixed point.
var maxDistance = 256 * thor.Log2Scale

// Draw returns the pseudo random draw of account under seed.
func Draw(account thor.Address, seed thor.Bytes32) *uint256.Int {
	h := thor.Keccak256(account.Bytes(), seed.Bytes())
	return new(uint256.Int).SetBytes32(h[:])
}

// threshold returns difficulty * (256e6 - log2(draw)), the value
// weight * passed has to exceed.
func threshold(account thor.Address, seed thor.Bytes32, difficulty *uint256.Int) (*uint256.Int, bool) {
	distance := maxDistance - Log2Times1M(Draw(account, seed))
	return new(uint256.Int).MulOverflow(difficulty, uint256.NewInt(distance))
}

// CanProduce decides whether account holding weight is eligible after
// passed ticks of the rotation seeded by seed.
// An overflowing threshold is never reached, an overflowing product of
// weight and passed always exceeds the threshold.
func CanProduce(account thor.Address, weight *uint256.Int, passed uint64, seed thor.Bytes32, difficulty *uint256.Int) (bool, error) {
	if weight.IsZero() {
		return false, reverts.ErrNoStake
	}
	rhs, overflow := threshold(account, seed, difficulty)
	if overflow {
		return false, nil
	}
	lhs, overflow := new(uint256.Int).MulOverflow(weight, uint256.NewInt(passed))
	if overflow {
		return true, nil
	}
	return lhs.Gt(rhs), nil
}

// Passed returns the ticks passed in the current rotation, in [1, 256].
// It is 0 until tick moves past goal.
func Passed(goal, tick uint32) uint64 {
	if tick <= goal {
		return 0
	}
	r := (tick - goal) % thor.SeedRotationInterval
	if r == 0 {
		return uint64(thor.SeedRotationInterval)
	}
	return uint64(r)
}

// SeedTick returns the tick whose block id seeds the current rotation.
// A rotation lasts 256 ticks, the next seed applies from tick 257 on.
func SeedTick(goal, tick uint32) uint32 {
	if tick <= goal {
		return goal
	}
	return goal + (tick-goal-1)/thor.SeedRotationInterval*thor.SeedRotationInterval
}

// FirstEligible returns the smallest passed count at which the account
// becomes eligible, or false if that takes more than a rotation.
func FirstEligible(account thor.Address, weight *uint256.Int, seed thor.Bytes32, difficulty *uint256.Int) (uint64, bool) {
	if weight.IsZero() {
		return 0, false
	}
	rhs, overflow := threshold(account, seed, difficulty)
	if overflow {
		return 0, false
	}
	p := new(uint256.Int).Div(rhs, weight)
	if !p.IsUint64() || p.Uint64() >= uint64(thor.SeedRotationInterval) {
		return 0, false
	}
	return p.Uint64() + 1, true
}
