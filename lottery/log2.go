// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lottery

import (
	"math/bits"

	"github.com/holiman/uint256"

	"github.com/vechain/lottery/thor"
)

const fractionBits = 20

// Log2Times1M returns floor(log2(x) * 1e6), up to the precision of 20
// fraction bits. It is 0 for x <= 1.
func Log2Times1M(x *uint256.Int) uint64 {
	if x.IsZero() || (x.IsUint64() && x.Uint64() == 1) {
		return 0
	}
	n := uint64(x.BitLen() - 1)

	// m/2^63 is x scaled into [1, 2)
	var m uint64
	if n >= 63 {
		m = new(uint256.Int).Rsh(x, uint(n-63)).Uint64()
	} else {
		m = x.Uint64() << (63 - n)
	}

	var frac uint64
	for range fractionBits {
		hi, lo := bits.Mul64(m, m)
		frac <<= 1
		if hi >= 1<<63 {
			frac |= 1
			m = hi
		} else {
			m = hi<<1 | lo>>63
		}
	}
	return n*thor.Log2Scale + frac*thor.Log2Scale>>fractionBits
}
