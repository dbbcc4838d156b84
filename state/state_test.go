// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/lottery/lvldb"
	"github.com/vechain/lottery/thor"
)

func TestStorage(t *testing.T) {
	st := NewMem()
	addr := thor.NameToAddress("Staking")
	key := thor.BytesToBytes32([]byte("key"))

	v, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	value := thor.BytesToBytes32([]byte{1, 2, 3})
	st.SetStorage(addr, key, value)
	v, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, value, v)

	st.SetStorage(addr, key, thor.Bytes32{})
	raw, err := st.GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestStructuredStorage(t *testing.T) {
	st := NewMem()
	addr := thor.NameToAddress("PoS")
	key := thor.BytesToBytes32([]byte("entry"))

	type entry struct {
		A uint64
		B []byte
	}
	in := entry{A: 7, B: []byte("payload")}
	require.NoError(t, st.EncodeStorage(addr, key, func() ([]byte, error) {
		return rlp.EncodeToBytes(&in)
	}))

	var out entry
	require.NoError(t, st.DecodeStorage(addr, key, func(raw []byte) error {
		return rlp.DecodeBytes(raw, &out)
	}))
	assert.Equal(t, in, out)

	// lists are hashed when read as a word
	word, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.False(t, word.IsZero())

	failure := errors.New("encode")
	err = st.EncodeStorage(addr, key, func() ([]byte, error) { return nil, failure })
	assert.ErrorIs(t, err, failure)
}

func TestCheckpointRevertsStorageAndEvents(t *testing.T) {
	st := NewMem()
	addr := thor.NameToAddress("Token")
	key := thor.BytesToBytes32([]byte("k"))

	st.SetStorage(addr, key, thor.BytesToBytes32([]byte{1}))
	st.AddEvent(&thor.Event{Address: addr})

	rev := st.NewCheckpoint()
	st.SetStorage(addr, key, thor.BytesToBytes32([]byte{2}))
	st.AddEvent(&thor.Event{Address: addr})
	assert.Len(t, st.Events(), 2)

	st.RevertTo(rev)
	v, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, thor.BytesToBytes32([]byte{1}), v)
	assert.Len(t, st.Events(), 1)
}

func TestStageCommit(t *testing.T) {
	db := lvldb.NewMem()
	defer db.Close()

	addr := thor.NameToAddress("Rewards")
	k1 := thor.BytesToBytes32([]byte("k1"))
	k2 := thor.BytesToBytes32([]byte("k2"))

	st := New(db)
	st.SetStorage(addr, k1, thor.BytesToBytes32([]byte{1}))
	st.SetStorage(addr, k2, thor.BytesToBytes32([]byte{2}))
	st.SetStorage(addr, k2, thor.BytesToBytes32([]byte{3}))

	stage := st.Stage(thor.Bytes32{})
	assert.Equal(t, 2, stage.Len())

	batch := db.NewBatch()
	require.NoError(t, stage.Commit(batch))
	require.NoError(t, batch.Write())

	reloaded := New(db)
	v, err := reloaded.GetStorage(addr, k2)
	require.NoError(t, err)
	assert.Equal(t, thor.BytesToBytes32([]byte{3}), v)

	// same changes on the same parent give the same root
	other := NewMem()
	other.SetStorage(addr, k2, thor.BytesToBytes32([]byte{3}))
	other.SetStorage(addr, k1, thor.BytesToBytes32([]byte{1}))
	assert.Equal(t, stage.Root(), other.Stage(thor.Bytes32{}).Root())
	assert.NotEqual(t, stage.Root(), other.Stage(stage.Root()).Root())

	// clearing a slot deletes it
	reloaded.SetStorage(addr, k1, thor.Bytes32{})
	batch = db.NewBatch()
	require.NoError(t, reloaded.Stage(stage.Root()).Commit(batch))
	require.NoError(t, batch.Write())
	has, err := db.Has(storageBucket.Key(storageDBKey(storageKey{addr, k1})))
	require.NoError(t, err)
	assert.False(t, has)
}
