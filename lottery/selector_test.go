// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lottery

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/lottery/builtin/reverts"
	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/test/datagen"
	"github.com/vechain/lottery/thor"
)

var errNotFound = errors.New("not found")

// fakeSeeker serves ids of blocks up to best within the seed window.
type fakeSeeker struct {
	best uint32
}

func (f *fakeSeeker) GetBlockID(num uint32) (thor.Bytes32, error) {
	if num > f.best || f.best-num > thor.SeedWindow {
		return thor.Bytes32{}, errNotFound
	}
	return thor.Blake2b(thor.Uint32ToBytes32(num).Bytes()), nil
}

func (f *fakeSeeker) IsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}

func newSelector(best uint32) (*Selector, *fakeSeeker) {
	seeker := &fakeSeeker{best: best}
	return New(thor.NameToAddress("Selector"), state.NewMem(), seeker), seeker
}

func defaultParams() Params {
	return Params{
		MinDifficulty:       big.NewInt(1),
		InitialDifficulty:   big.NewInt(1_000_000),
		AdjustmentParameter: 50_000,
		TargetInterval:      40,
	}
}

func TestInstantiate(t *testing.T) {
	sel, _ := newSelector(0)
	owner := datagen.RandAddress()

	p := defaultParams()
	p.TargetInterval = 30
	_, err := sel.Instantiate(owner, p, 10)
	assert.ErrorIs(t, err, reverts.ErrIntervalTooSmall)

	p = defaultParams()
	p.InitialDifficulty = big.NewInt(0)
	_, err = sel.Instantiate(owner, p, 10)
	assert.ErrorIs(t, err, reverts.ErrInvalidAmount)

	for want := uint32(0); want < 3; want++ {
		index, err := sel.Instantiate(owner, defaultParams(), 10)
		require.NoError(t, err)
		assert.Equal(t, want, index)
	}

	count, err := sel.Count()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), count)

	got, err := sel.Owner(1)
	require.NoError(t, err)
	assert.Equal(t, owner, got)
	anchor, err := sel.SeedAnchor(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), anchor)
	last, err := sel.LastProductionTick(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), last)
	d, err := sel.Difficulty(1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), d)
	m, err := sel.MinDifficulty(1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), m)
	target, err := sel.TargetInterval(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), target)
	adj, err := sel.AdjustmentParameter(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000), adj)

	_, err = sel.Difficulty(3)
	assert.ErrorIs(t, err, reverts.ErrInstanceInactive)
}

func TestSelectorEligibility(t *testing.T) {
	sel, seeker := newSelector(10)
	owner := datagen.RandAddress()
	index, err := sel.Instantiate(owner, defaultParams(), 10)
	require.NoError(t, err)

	account := datagen.RandAddress()
	weight := big.NewInt(1e11)

	_, err = sel.CanProduce(index, account, big.NewInt(0), 20)
	assert.ErrorIs(t, err, reverts.ErrNoStake)

	// goal is anchor + 1
	ok, err := sel.CanProduce(index, account, weight, 11)
	require.NoError(t, err)
	assert.False(t, ok)

	when, err := sel.WhenCanProduce(index, account, weight, 11)
	require.NoError(t, err)
	assert.Equal(t, Never, when)

	seeker.best = 11
	when, err = sel.WhenCanProduce(index, account, weight, 12)
	require.NoError(t, err)
	require.NotEqual(t, Never, when)
	assert.Greater(t, when, uint32(11))

	if when > 12 {
		ok, err = sel.CanProduce(index, account, weight, when-1)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	seeker.best = when - 1
	ok, err = sel.CanProduce(index, account, weight, when)
	require.NoError(t, err)
	assert.True(t, ok)

	seed, err := sel.SelectionSeed(index, when)
	require.NoError(t, err)
	assert.Equal(t, thor.Blake2b(thor.Uint32ToBytes32(11).Bytes()), seed)
}

func TestSelectorProduce(t *testing.T) {
	sel, seeker := newSelector(0)
	owner := datagen.RandAddress()
	index, err := sel.Instantiate(owner, defaultParams(), 0)
	require.NoError(t, err)

	account := datagen.RandAddress()
	huge := new(big.Int).Lsh(big.NewInt(1), 200)

	seeker.best = 1
	assert.ErrorIs(t, sel.Produce(datagen.RandAddress(), index, account, huge, 2), reverts.ErrUnauthorized)
	assert.ErrorIs(t, sel.Produce(owner, index, account, big.NewInt(1), 2), reverts.ErrNotEligible)
	require.NoError(t, sel.Produce(owner, index, account, huge, 2))

	d, err := sel.Difficulty(index)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Cmp(big.NewInt(1_000_000)), "fast production raises difficulty")

	// lottery restarts at the production tick
	ok, err := sel.CanProduce(index, account, huge, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = sel.CanProduce(index, datagen.RandAddress(), huge, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	evs := sel.sctx.State().Events().Filter(sel.Address(), DifficultyAdjustedEvent)
	assert.Len(t, evs, 1)
}

func TestSelectorSeedExpired(t *testing.T) {
	sel, seeker := newSelector(0)
	index, err := sel.Instantiate(datagen.RandAddress(), defaultParams(), 0)
	require.NoError(t, err)

	// seed block not mined yet
	_, err = sel.CanProduce(index, datagen.RandAddress(), big.NewInt(1), 5)
	assert.ErrorIs(t, err, reverts.ErrSeedExpired)

	// seed block out of window
	seeker.best = 1000
	_, err = sel.SelectionSeed(index, 100)
	assert.ErrorIs(t, err, reverts.ErrSeedExpired)
	_, err = sel.SelectionSeed(index, 1000)
	assert.NoError(t, err, "rotation moves the seed forward")

	seeker.best = 2000
	_, err = sel.SelectionSeed(index, 300)
	assert.ErrorIs(t, err, reverts.ErrSeedExpired)
}
