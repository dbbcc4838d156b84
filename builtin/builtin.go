// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/vechain/lottery/builtin/rewards"
	"github.com/vechain/lottery/builtin/sidechain"
	"github.com/vechain/lottery/builtin/staking"
	"github.com/vechain/lottery/builtin/token"
	"github.com/vechain/lottery/builtin/workers"
	"github.com/vechain/lottery/lottery"
	"github.com/vechain/lottery/pos"
	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/thor"
)

// Builtin contracts binding.
var (
	Token     = &tokenContract{newContract("Token")}
	Staking   = &stakingContract{newContract("Staking")}
	Workers   = &workersContract{newContract("Workers")}
	Selector  = &selectorContract{newContract("Selector")}
	Sidechain = &sidechainContract{newContract("Sidechain")}
	PoS       = &posContract{newContract("PoS")}
)

type contract struct {
	Name    string
	Address thor.Address
}

func newContract(name string) *contract {
	return &contract{name, thor.NameToAddress(name)}
}

type (
	tokenContract      struct{ *contract }
	stakingContract    struct{ *contract }
	workersContract    struct{ *contract }
	selectorContract   struct{ *contract }
	sidechainContract  struct{ *contract }
	posContract        struct{ *contract }
	rewardPoolContract struct{ *contract }
)

// RewardPool binds the reward pool registered under name.
func RewardPool(name string) *rewardPoolContract {
	return &rewardPoolContract{newContract(name)}
}

func (t *tokenContract) WithState(state *state.State) *token.Token {
	return token.New(t.Address, state)
}

func (s *stakingContract) WithState(state *state.State) *staking.Staking {
	return staking.New(s.Address, state)
}

func (w *workersContract) WithState(state *state.State) *workers.Workers {
	return workers.New(w.Address, state)
}

func (s *selectorContract) WithState(state *state.State, seeker lottery.Seeker) *lottery.Selector {
	return lottery.New(s.Address, state, seeker)
}

func (s *sidechainContract) WithState(state *state.State) *sidechain.Sidechain {
	return sidechain.New(s.Address, state)
}

func (p *posContract) WithState(state *state.State, seeker lottery.Seeker) *pos.Registry {
	return pos.New(p.Address, state, seeker)
}

func (r *rewardPoolContract) WithState(state *state.State) *rewards.Pool {
	return rewards.New(r.Address, state)
}
