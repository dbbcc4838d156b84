// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/lottery/state"
)

func TestEnvironment(t *testing.T) {
	st := state.NewMem()
	blk := &BlockContext{Number: 7, Time: 70}
	env := New(st, nil, blk)

	assert.Same(t, st, env.State())
	assert.Nil(t, env.Seeker())
	assert.Equal(t, uint32(7), env.BlockContext().Number)
	assert.Equal(t, uint64(70), env.BlockContext().Time)
}
