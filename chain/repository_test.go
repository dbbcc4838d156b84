// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/lottery/block"
	"github.com/vechain/lottery/lvldb"
	"github.com/vechain/lottery/thor"
)

func newGenesis() *block.Header {
	return new(block.Builder).
		ParentID(block.GenesisParentID()).
		Timestamp(1000).
		Build()
}

func newBlock(parent *block.Header, ts uint64) *block.Header {
	return new(block.Builder).
		ParentID(parent.ID()).
		Timestamp(ts).
		StateRoot(thor.Blake2b(parent.ID().Bytes())).
		Build()
}

func TestRepository(t *testing.T) {
	db := lvldb.NewMem()
	defer db.Close()

	genesis := newGenesis()
	repo, err := NewRepository(db, genesis)
	require.NoError(t, err)
	assert.Equal(t, genesis.ID(), repo.BestBlock().ID())
	assert.Equal(t, genesis, repo.GenesisBlock())

	b1 := newBlock(genesis, 1010)
	require.NoError(t, repo.AddBlock(b1))
	assert.Equal(t, uint32(1), repo.BestBlock().Number())

	got, err := repo.GetBlockHeader(b1.ID())
	require.NoError(t, err)
	assert.Equal(t, b1.ID(), got.ID())
	assert.Equal(t, b1.Timestamp(), got.Timestamp())

	id, err := repo.GetBlockID(1)
	require.NoError(t, err)
	assert.Equal(t, b1.ID(), id)

	_, err = repo.GetBlockID(2)
	assert.True(t, repo.IsNotFound(err))

	_, err = repo.GetBlockHeader(thor.Bytes32{1})
	assert.True(t, repo.IsNotFound(err))

	// reopen
	repo2, err := NewRepository(db, genesis)
	require.NoError(t, err)
	assert.Equal(t, b1.ID(), repo2.BestBlock().ID())

	other := new(block.Builder).ParentID(block.GenesisParentID()).Timestamp(1).Build()
	_, err = NewRepository(db, other)
	assert.Error(t, err)
}

func TestAddBlockRejects(t *testing.T) {
	repo, err := NewRepository(lvldb.NewMem(), newGenesis())
	require.NoError(t, err)

	b1 := newBlock(repo.BestBlock(), 1010)
	require.NoError(t, repo.AddBlock(b1))

	// not on top of best
	assert.Error(t, repo.AddBlock(newBlock(repo.GenesisBlock(), 1020)))
	// time goes backwards
	assert.Error(t, repo.AddBlock(newBlock(b1, 1000)))
	assert.Equal(t, b1.ID(), repo.BestBlock().ID())
}

func TestGetBlockIDWindow(t *testing.T) {
	repo, err := NewRepository(lvldb.NewMem(), newGenesis())
	require.NoError(t, err)

	ids := []thor.Bytes32{repo.GenesisBlock().ID()}
	for i := 1; i <= 300; i++ {
		b := newBlock(repo.BestBlock(), uint64(1000+i*10))
		require.NoError(t, repo.AddBlock(b))
		ids = append(ids, b.ID())
	}
	best := repo.BestBlock().Number()
	require.Equal(t, uint32(300), best)

	oldest := best + 1 - thor.SeedWindow
	for _, num := range []uint32{oldest, oldest + 1, best - 1, best} {
		id, err := repo.GetBlockID(num)
		require.NoError(t, err, "block %d", num)
		assert.Equal(t, ids[num], id)
	}
	for _, num := range []uint32{0, oldest - 1, best + 1} {
		_, err := repo.GetBlockID(num)
		assert.True(t, repo.IsNotFound(err), "block %d", num)
	}
}
