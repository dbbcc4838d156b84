// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/lottery/builtin/reverts"
	"github.com/vechain/lottery/builtin/rewards"
	"github.com/vechain/lottery/builtin/sidechain"
	"github.com/vechain/lottery/builtin/staking"
	"github.com/vechain/lottery/builtin/token"
	"github.com/vechain/lottery/builtin/workers"
	"github.com/vechain/lottery/lottery"
	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/test/datagen"
	"github.com/vechain/lottery/thor"
	"github.com/vechain/lottery/xenv"
)

var errNotFound = errors.New("not found")

type fakeSeeker struct{}

func (fakeSeeker) GetBlockID(num uint32) (thor.Bytes32, error) {
	return thor.Blake2b([]byte("block"), thor.Uint32ToBytes32(num).Bytes()), nil
}

func (fakeSeeker) IsNotFound(err error) bool { return errors.Is(err, errNotFound) }

var (
	hugeStake = new(big.Int).Lsh(big.NewInt(1), 200)
	stakeTime = uint64(0)
	prodTime  = uint64(1000)
)

type fixture struct {
	t        *testing.T
	st       *state.State
	admin    thor.Address
	registry *Registry
	token    *token.Token
	staking  *staking.Staking
	workers  *workers.Workers
}

func newFixture(t *testing.T) *fixture {
	st := state.NewMem()
	f := &fixture{
		t:        t,
		st:       st,
		admin:    datagen.RandAddress(),
		registry: New(thor.NameToAddress("PoS"), st, fakeSeeker{}),
		token:    token.New(thor.NameToAddress("Token"), st),
		staking:  staking.New(thor.NameToAddress("Staking"), st),
		workers:  workers.New(thor.NameToAddress("Workers"), st),
	}
	require.NoError(t, f.staking.Initialize(f.token.Address(), 10, 10))
	require.NoError(t, f.registry.Initialize(f.admin, thor.NameToAddress("Selector"), thor.NameToAddress("Sidechain")))
	return f
}

func (f *fixture) config(variant Variant, reward int64) Config {
	return Config{
		Variant:    variant,
		Staking:    f.staking.Address(),
		Workers:    f.workers.Address(),
		RewardPool: datagen.RandAddress(),
		Token:      f.token.Address(),
		Selector: lottery.Params{
			MinDifficulty:       big.NewInt(1),
			InitialDifficulty:   big.NewInt(1_000_000),
			AdjustmentParameter: 50_000,
			TargetInterval:      40,
		},
		Rewards: rewards.Config{
			MinReward:   big.NewInt(reward),
			MaxReward:   big.NewInt(reward),
			Numerator:   big.NewInt(1),
			Denominator: big.NewInt(1),
		},
		RewardDelay: 2,
	}
}

// instantiate creates an instance at tick and funds its pool.
func (f *fixture) instantiate(cfg Config, tick uint32, funds int64) uint32 {
	index, err := f.registry.Instantiate(f.admin, cfg, &xenv.BlockContext{Number: tick, Time: prodTime})
	require.NoError(f.t, err)
	require.NoError(f.t, f.token.Mint(cfg.RewardPool, big.NewInt(funds)))
	return index
}

// producer stakes amount for a fresh owner and authorizes a fresh worker on index.
func (f *fixture) producer(index uint32, amount *big.Int) (owner, worker thor.Address) {
	owner, worker = datagen.RandAddress(), datagen.RandAddress()
	if amount.Sign() > 0 {
		require.NoError(f.t, f.token.Mint(owner, amount))
		require.NoError(f.t, f.token.Approve(owner, f.staking.Address(), amount))
		require.NoError(f.t, f.staking.Stake(owner, amount, stakeTime))
	}
	require.NoError(f.t, f.workers.Hire(owner, worker))
	require.NoError(f.t, f.workers.AcceptJob(worker))
	require.NoError(f.t, f.workers.Authorize(owner, worker, f.registry.Scope(index)))
	return owner, worker
}

func (f *fixture) balance(addr thor.Address) int64 {
	bal, err := f.token.BalanceOf(addr)
	require.NoError(f.t, err)
	return bal.Int64()
}

func (f *fixture) difficulty(index uint32) *big.Int {
	d, err := f.registry.GetDifficulty(index)
	require.NoError(f.t, err)
	return d
}

func blk(tick uint32) *xenv.BlockContext {
	return &xenv.BlockContext{Number: tick, Time: prodTime}
}

func TestInstantiate(t *testing.T) {
	f := newFixture(t)

	cfg := f.config(Simple, 100)
	_, err := f.registry.Instantiate(datagen.RandAddress(), cfg, blk(1))
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	small := f.config(Simple, 100)
	small.Selector.TargetInterval = 30
	_, err = f.registry.Instantiate(f.admin, small, blk(1))
	assert.ErrorIs(t, err, reverts.ErrIntervalTooSmall)

	bad := f.config(Variant(7), 100)
	_, err = f.registry.Instantiate(f.admin, bad, blk(1))
	assert.ErrorIs(t, err, reverts.ErrInvalidVariant)

	index := f.instantiate(cfg, 1, 0)
	assert.Equal(t, uint32(0), index)
	_, err = f.registry.Instantiate(f.admin, cfg, blk(1))
	assert.ErrorIs(t, err, reverts.ErrDuplicateRewardPool)

	inst, err := f.registry.Instance(index)
	require.NoError(t, err)
	assert.True(t, inst.Active)
	assert.Equal(t, Simple, inst.Variant)
	assert.Equal(t, cfg.RewardPool, inst.RewardPool)
	assert.Zero(t, inst.ProductionCount)

	addrs, indices, err := f.registry.GetSubInstances(index, datagen.RandAddress())
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{thor.NameToAddress("Selector")}, addrs)
	assert.Equal(t, []uint32{inst.SelectorIndex}, indices)

	count, err := f.registry.Count()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), count)

	_, err = f.registry.Instance(1)
	assert.ErrorIs(t, err, reverts.ErrInstanceInactive)

	evs := f.st.Events().Filter(f.registry.Address(), NewChainEvent)
	assert.Len(t, evs, 1)
}

// Difficulty goes up after a fast production and down after a slow one.
func TestDifficultyFeedback(t *testing.T) {
	f := newFixture(t)
	index := f.instantiate(f.config(Simple, 1), 10, 1_000_000)
	_, worker := f.producer(index, hugeStake)
	initial := f.difficulty(index)

	_, err := f.registry.ProduceBlock(worker, index, blk(12))
	require.NoError(t, err)
	afterFirst := f.difficulty(index)
	assert.Equal(t, 1, afterFirst.Cmp(initial))

	_, err = f.registry.ProduceBlock(worker, index, blk(12+40+5))
	require.NoError(t, err)
	afterSecond := f.difficulty(index)
	assert.Equal(t, -1, afterSecond.Cmp(afterFirst))
}

func TestBeneficiarySplit(t *testing.T) {
	f := newFixture(t)
	index := f.instantiate(f.config(Simple, 100_000), 10, 1_000_000)
	owner, worker := f.producer(index, hugeStake)
	ben := datagen.RandAddress()

	assert.ErrorIs(t, f.registry.AddBeneficiary(owner, index, ben, 10001), reverts.ErrSplitTooLarge)
	assert.ErrorIs(t, f.registry.AddBeneficiary(owner, 5, ben, 100), reverts.ErrInstanceInactive)
	assert.ErrorIs(t, f.registry.AddBeneficiary(owner, index, thor.Address{}, 5000), reverts.ErrInvalidAmount)
	require.NoError(t, f.registry.AddBeneficiary(owner, index, thor.Address{}, 0))

	require.NoError(t, f.registry.AddBeneficiary(owner, index, ben, 5000))
	_, err := f.registry.ProduceBlock(worker, index, blk(12))
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), f.balance(owner))
	assert.Equal(t, int64(50_000), f.balance(ben))

	require.NoError(t, f.registry.AddBeneficiary(owner, index, ben, 10000))
	_, err = f.registry.ProduceBlock(worker, index, blk(14))
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), f.balance(owner))
	assert.Equal(t, int64(150_000), f.balance(ben))

	got, split, err := f.registry.GetBeneficiary(index, owner)
	require.NoError(t, err)
	assert.Equal(t, ben, got)
	assert.Equal(t, uint64(10000), split)

	evs := f.st.Events().Filter(f.registry.Address(), BeneficiaryAddedEvent)
	assert.Len(t, evs, 3)
}

func TestProduceRejections(t *testing.T) {
	f := newFixture(t)
	index := f.instantiate(f.config(Simple, 100), 10, 1_000_000)

	// authorized, but nothing staked
	_, unstaked := f.producer(index, big.NewInt(0))
	_, err := f.registry.ProduceBlock(unstaked, index, blk(12))
	assert.ErrorIs(t, err, reverts.ErrNoStake)

	// staked, but the owner never authorized the caller
	owner, _ := f.producer(index, hugeStake)
	stranger := datagen.RandAddress()
	require.NoError(t, f.workers.Hire(owner, stranger))
	require.NoError(t, f.workers.AcceptJob(stranger))
	_, err = f.registry.ProduceBlock(stranger, index, blk(12))
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	// authorized for another instance only
	other := f.instantiate(f.config(Simple, 100), 10, 1_000_000)
	_, worker := f.producer(other, hugeStake)
	_, err = f.registry.ProduceBlock(worker, index, blk(12))
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	// too early: the lottery opens after the selection delay
	_, err = f.registry.ProduceBlock(worker, other, blk(11))
	assert.ErrorIs(t, err, reverts.ErrNotEligible)

	// stake not matured yet
	_, err = f.registry.ProduceBlock(worker, other, &xenv.BlockContext{Number: 12, Time: stakeTime + 1})
	assert.ErrorIs(t, err, reverts.ErrNoStake)

	_, err = f.registry.ProduceSidechainBlock(worker, other, sidechain.NoParent, nil, blk(12))
	assert.ErrorIs(t, err, reverts.ErrInvalidVariant)
}

func TestSelfOwnedProducer(t *testing.T) {
	f := newFixture(t)
	index := f.instantiate(f.config(Simple, 100), 10, 1_000_000)

	owner := datagen.RandAddress()
	require.NoError(t, f.token.Mint(owner, hugeStake))
	require.NoError(t, f.token.Approve(owner, f.staking.Address(), hugeStake))
	require.NoError(t, f.staking.Stake(owner, hugeStake, stakeTime))

	_, err := f.registry.ProduceBlock(owner, index, blk(12))
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	require.NoError(t, f.workers.Authorize(owner, owner, f.registry.Scope(index)))
	seq, err := f.registry.ProduceBlock(owner, index, blk(12))
	require.NoError(t, err)
	assert.Equal(t, int64(100), f.balance(owner))

	rec, err := f.registry.Record(index, seq)
	require.NoError(t, err)
	assert.Equal(t, owner, rec.Producer)
	assert.Equal(t, owner, rec.Worker)
	assert.Equal(t, uint32(12), rec.Tick)
}

func TestProductionRecords(t *testing.T) {
	f := newFixture(t)
	index := f.instantiate(f.config(Simple, 10), 10, 1_000_000)
	owner, worker := f.producer(index, hugeStake)

	concerned, err := f.registry.IsConcerned(index, owner, blk(11))
	require.NoError(t, err)
	assert.True(t, concerned)
	concerned, err = f.registry.IsConcerned(index, worker, blk(11))
	require.NoError(t, err)
	assert.False(t, concerned)

	ok, err := f.registry.CanProduce(index, owner, blk(12))
	require.NoError(t, err)
	assert.True(t, ok)
	when, err := f.registry.WhenCanProduce(index, owner, blk(12))
	require.NoError(t, err)
	assert.Equal(t, uint32(12), when)

	for i, tick := range []uint32{12, 14, 16} {
		seq, err := f.registry.ProduceBlock(worker, index, blk(tick))
		require.NoError(t, err)
		assert.Equal(t, uint32(i), seq)

		// nobody wins twice at the same tick
		ok, err := f.registry.CanProduce(index, owner, blk(tick))
		require.NoError(t, err)
		assert.False(t, ok)
		_, err = f.registry.ProduceBlock(worker, index, blk(tick))
		assert.ErrorIs(t, err, reverts.ErrNotEligible)
	}

	inst, err := f.registry.Instance(index)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), inst.ProductionCount)
	assert.Equal(t, owner, inst.LastProducer)

	rec, err := f.registry.Record(index, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(14), rec.Tick)
	assert.Equal(t, worker, rec.Worker)
	_, err = f.registry.Record(index, 3)
	assert.ErrorIs(t, err, reverts.ErrInvalidBlock)

	seed, err := f.registry.GetSelectionSeed(index, blk(18))
	require.NoError(t, err)
	want, _ := fakeSeeker{}.GetBlockID(17)
	assert.Equal(t, want, seed)

	evs := f.st.Events().Filter(f.registry.Address(), BlockProducedEvent)
	assert.Len(t, evs, 3)
}

func TestSidechainClaims(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(Sidechain, 1_000)
	index := f.instantiate(cfg, 10, 1_000_000)
	owner, worker := f.producer(index, hugeStake)
	ben := datagen.RandAddress()
	require.NoError(t, f.registry.AddBeneficiary(owner, index, ben, 2000))

	_, err := f.registry.ProduceBlock(worker, index, blk(12))
	assert.ErrorIs(t, err, reverts.ErrInvalidVariant)

	parent := sidechain.NoParent
	for i, tick := range []uint32{12, 14, 16} {
		seq, err := f.registry.ProduceSidechainBlock(worker, index, parent, []byte{byte(i)}, blk(tick))
		require.NoError(t, err)
		assert.Equal(t, uint32(i), seq)
		parent = seq
	}
	_, err = f.registry.ProduceSidechainBlock(worker, index, 9, nil, blk(18))
	assert.ErrorIs(t, err, reverts.ErrInvalidParent)

	// nothing paid before claiming
	assert.Zero(t, f.balance(owner))

	valid, producer, err := f.registry.IsValidBlock(index, 0, cfg.RewardDelay)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, owner, producer)

	_, err = f.registry.ClaimRewards(index, []uint32{1})
	assert.ErrorIs(t, err, reverts.ErrInvalidBlock)

	paid, err := f.registry.ClaimRewards(index, []uint32{0})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000), paid)
	assert.Equal(t, int64(800), f.balance(owner))
	assert.Equal(t, int64(200), f.balance(ben))

	_, err = f.registry.ClaimRewards(index, []uint32{0})
	assert.ErrorIs(t, err, reverts.ErrAlreadyRewarded)

	simple := f.instantiate(f.config(Simple, 1), 10, 10)
	_, err = f.registry.ClaimRewards(simple, []uint32{0})
	assert.ErrorIs(t, err, reverts.ErrInvalidVariant)
}

func TestTerminate(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(Simple, 0)
	cfg.Rewards.MaxReward = big.NewInt(1_000_000)
	index := f.instantiate(cfg, 10, 500)
	_, worker := f.producer(index, hugeStake)

	assert.ErrorIs(t, f.registry.Terminate(datagen.RandAddress(), index), reverts.ErrUnauthorized)
	assert.ErrorIs(t, f.registry.Terminate(f.admin, index), reverts.ErrRewardPoolNotEmpty)

	// the ratio of 1/1 drains the pool at once
	_, err := f.registry.ProduceBlock(worker, index, blk(12))
	require.NoError(t, err)
	require.NoError(t, f.registry.Terminate(f.admin, index))

	inst, err := f.registry.Instance(index)
	require.NoError(t, err)
	assert.False(t, inst.Active)

	_, err = f.registry.ProduceBlock(worker, index, blk(14))
	assert.ErrorIs(t, err, reverts.ErrInstanceInactive)
	assert.ErrorIs(t, f.registry.Terminate(f.admin, index), reverts.ErrInstanceInactive)

	evs := f.st.Events().Filter(f.registry.Address(), TerminatedEvent)
	assert.Len(t, evs, 1)
}

func TestVariantText(t *testing.T) {
	for _, v := range []Variant{Simple, Sidechain} {
		text, err := v.MarshalText()
		require.NoError(t, err)
		var decoded Variant
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, v, decoded)
	}
	var v Variant
	assert.Error(t, v.UnmarshalText([]byte("pow")))
	assert.Equal(t, "unknown", Variant(9).String())
}
