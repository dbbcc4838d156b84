// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/lottery/block"
	"github.com/vechain/lottery/test/datagen"
	"github.com/vechain/lottery/thor"
)

var (
	stakeID    = thor.EventID("Stake(address,uint256)")
	producedID = thor.EventID("BlockProduced(uint32,uint32,address)")
)

func newHeader(parent thor.Bytes32, ts uint64) *block.Header {
	return new(block.Builder).ParentID(parent).Timestamp(ts).Build()
}

// writeBlocks writes n blocks, each with a Stake event from addrs[0] and a
// BlockProduced event from addrs[1].
func writeBlocks(t *testing.T, db *LogDB, n int, addrs [2]thor.Address, user thor.Bytes32) []*block.Header {
	var (
		headers []*block.Header
		parent  = block.GenesisParentID()
	)
	for i := 0; i < n; i++ {
		h := newHeader(parent, uint64(1000+i*10))
		evs := thor.Events{
			{Address: addrs[0], Topics: []thor.Bytes32{stakeID, user}, Data: []byte{byte(i)}},
			{Address: addrs[1], Topics: []thor.Bytes32{producedID}, Data: datagen.RandBytes(8)},
		}
		require.NoError(t, db.Write(h, evs))
		headers = append(headers, h)
		parent = h.ID()
	}
	return headers
}

func TestFilterEvents(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	addrs := [2]thor.Address{datagen.RandAddress(), datagen.RandAddress()}
	user := datagen.RandomHash()
	headers := writeBlocks(t, db, 10, addrs, user)

	ctx := context.Background()

	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 20)
	assert.Equal(t, headers[0].ID(), all[0].BlockID)
	assert.Equal(t, uint32(0), all[0].BlockNumber)
	assert.Equal(t, uint32(1), all[1].Index)
	assert.Equal(t, addrs[0], all[0].Address)
	assert.Equal(t, stakeID, *all[0].Topics[0])
	assert.Equal(t, user, *all[0].Topics[1])
	assert.Nil(t, all[0].Topics[2])
	assert.Equal(t, []byte{0}, all[0].Data)

	tests := []struct {
		name   string
		filter *EventFilter
		want   int
	}{
		{"by address", &EventFilter{CriteriaSet: []*EventCriteria{{Address: &addrs[1]}}}, 10},
		{"by topic", &EventFilter{CriteriaSet: []*EventCriteria{{Topics: [5]*thor.Bytes32{nil, &user}}}}, 10},
		{"or", &EventFilter{CriteriaSet: []*EventCriteria{{Address: &addrs[0]}, {Topics: [5]*thor.Bytes32{&producedID}}}}, 20},
		{"address and topic mismatch", &EventFilter{CriteriaSet: []*EventCriteria{{Address: &addrs[1], Topics: [5]*thor.Bytes32{&stakeID}}}}, 0},
		{"range", &EventFilter{Range: &Range{From: 2, To: 4}}, 6},
		{"empty range", &EventFilter{Range: &Range{From: 4, To: 2}}, 0},
		{"limit", &EventFilter{Options: &Options{Offset: 5, Limit: 3}}, 3},
		{"range and address", &EventFilter{
			Range:       &Range{From: 8, To: 100},
			CriteriaSet: []*EventCriteria{{Address: &addrs[0]}},
		}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.FilterEvents(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	desc, err := db.FilterEvents(ctx, &EventFilter{Order: DESC, Options: &Options{Limit: 1}})
	require.NoError(t, err)
	require.Len(t, desc, 1)
	assert.Equal(t, uint32(9), desc[0].BlockNumber)
	assert.Equal(t, uint32(1), desc[0].Index)
}

func TestNewestAndTruncate(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	_, ok, err := db.NewestBlockNumber()
	require.NoError(t, err)
	assert.False(t, ok)

	writeBlocks(t, db, 5, [2]thor.Address{datagen.RandAddress(), datagen.RandAddress()}, datagen.RandomHash())
	num, ok, err := db.NewestBlockNumber()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(4), num)

	require.NoError(t, db.Truncate(3))
	num, _, err = db.NewestBlockNumber()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), num)
}

func TestFilterCancelled(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()
	writeBlocks(t, db, 2, [2]thor.Address{datagen.RandAddress(), datagen.RandAddress()}, datagen.RandomHash())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = db.FilterEvents(ctx, nil)
	assert.Error(t, err)
}

func TestFileDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.db")
	db, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())
	assert.NotEmpty(t, db.DriverVersion())
	writeBlocks(t, db, 3, [2]thor.Address{datagen.RandAddress(), datagen.RandAddress()}, datagen.RandomHash())
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	all, err := db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}
