// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "math/big"

// account is the per address ledger entry.
type account struct {
	MaturingAmount    *big.Int
	MaturingDeadline  uint64
	StakedAmount      *big.Int
	ReleasingAmount   *big.Int
	ReleasingDeadline uint64
}

func (a *account) normalize() *account {
	if a.MaturingAmount == nil {
		a.MaturingAmount = new(big.Int)
	}
	if a.StakedAmount == nil {
		a.StakedAmount = new(big.Int)
	}
	if a.ReleasingAmount == nil {
		a.ReleasingAmount = new(big.Int)
	}
	return a
}

// IsEmpty returns true if no capital is held for the account.
func (a *account) IsEmpty() bool {
	return a.MaturingAmount.Sign() == 0 && a.StakedAmount.Sign() == 0 && a.ReleasingAmount.Sign() == 0
}

// settle returns a copy of the account with matured capital counted as staked.
func (a *account) settle(now uint64) *account {
	out := &account{
		MaturingAmount:    new(big.Int).Set(a.MaturingAmount),
		MaturingDeadline:  a.MaturingDeadline,
		StakedAmount:      new(big.Int).Set(a.StakedAmount),
		ReleasingAmount:   new(big.Int).Set(a.ReleasingAmount),
		ReleasingDeadline: a.ReleasingDeadline,
	}
	if out.MaturingAmount.Sign() > 0 && now >= out.MaturingDeadline {
		out.StakedAmount.Add(out.StakedAmount, out.MaturingAmount)
		out.MaturingAmount.SetUint64(0)
	}
	return out
}
