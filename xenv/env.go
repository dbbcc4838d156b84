// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"github.com/vechain/lottery/lottery"
	"github.com/vechain/lottery/state"
)

// BlockContext block context.
type BlockContext struct {
	Number uint32 // the tick
	Time   uint64 // unix seconds
}

// Environment an env to execute built-in operations.
type Environment struct {
	state    *state.State
	seeker   lottery.Seeker
	blockCtx *BlockContext
}

// New create a new env.
func New(state *state.State, seeker lottery.Seeker, blockCtx *BlockContext) *Environment {
	return &Environment{
		state:    state,
		seeker:   seeker,
		blockCtx: blockCtx,
	}
}

func (env *Environment) State() *state.State         { return env.state }
func (env *Environment) Seeker() lottery.Seeker      { return env.seeker }
func (env *Environment) BlockContext() *BlockContext { return env.blockCtx }
