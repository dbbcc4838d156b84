// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/vechain/lottery/thor"
)

// Bitmask is a growable bit set keyed by uint32, stored as 256-bit words.
type Bitmask struct {
	context *Context
	basePos thor.Bytes32
}

func NewBitmask(context *Context, pos thor.Bytes32) *Bitmask {
	return &Bitmask{context: context, basePos: pos}
}

func (b *Bitmask) word(i uint32) (thor.Bytes32, thor.Bytes32, error) {
	pos := thor.Blake2b(thor.Uint32ToBytes32(i/256).Bytes(), b.basePos.Bytes())
	w, err := b.context.state.GetStorage(b.context.address, pos)
	return pos, w, err
}

// bit position inside a big-endian word, bit 0 being the least significant.
func locate(i uint32) (byteIndex int, mask byte) {
	bit := i % 256
	return 31 - int(bit/8), 1 << (bit % 8)
}

// Get returns whether bit i is set.
func (b *Bitmask) Get(i uint32) (bool, error) {
	_, w, err := b.word(i)
	if err != nil {
		return false, err
	}
	idx, mask := locate(i)
	return w[idx]&mask != 0, nil
}

// MarkAndCheck sets bit i and returns whether it was already set.
func (b *Bitmask) MarkAndCheck(i uint32) (bool, error) {
	pos, w, err := b.word(i)
	if err != nil {
		return false, err
	}
	idx, mask := locate(i)
	if w[idx]&mask != 0 {
		return true, nil
	}
	w[idx] |= mask
	b.context.state.SetStorage(b.context.address, pos, w)
	return false, nil
}
