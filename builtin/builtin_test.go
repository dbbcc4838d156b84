// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/thor"
)

func TestAddresses(t *testing.T) {
	seen := make(map[thor.Address]string)
	for _, c := range []*contract{
		Token.contract, Staking.contract, Workers.contract,
		Selector.contract, Sidechain.contract, PoS.contract,
		RewardPool("RewardPool0").contract,
	} {
		assert.Equal(t, thor.NameToAddress(c.Name), c.Address)
		_, dup := seen[c.Address]
		assert.False(t, dup, c.Name)
		seen[c.Address] = c.Name
	}
}

func TestWithState(t *testing.T) {
	st := state.NewMem()
	assert.Equal(t, Token.Address, Token.WithState(st).Address())
	assert.Equal(t, Staking.Address, Staking.WithState(st).Address())
	assert.Equal(t, Selector.Address, Selector.WithState(st, nil).Address())
	assert.Equal(t, PoS.Address, PoS.WithState(st, nil).Address())
	assert.Equal(t, RewardPool("RewardPool1").Address, RewardPool("RewardPool1").WithState(st).Address())
}
