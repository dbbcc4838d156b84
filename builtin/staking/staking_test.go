// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/lottery/builtin/reverts"
	"github.com/vechain/lottery/builtin/token"
	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/test/datagen"
	"github.com/vechain/lottery/thor"
)

const (
	maturation = uint64(100)
	release    = uint64(200)
)

type fixture struct {
	staking *Staking
	token   *token.Token
}

func newFixture(t *testing.T, users ...thor.Address) *fixture {
	st := state.NewMem()
	tk := token.New(thor.NameToAddress("Token"), st)
	stk := New(thor.NameToAddress("Staking"), st)
	require.NoError(t, stk.Initialize(tk.Address(), maturation, release))
	for _, u := range users {
		require.NoError(t, tk.Mint(u, big.NewInt(1000)))
		require.NoError(t, tk.Approve(u, stk.Address(), big.NewInt(1_000_000)))
	}
	return &fixture{staking: stk, token: tk}
}

func (f *fixture) staked(t *testing.T, user thor.Address, now uint64) int64 {
	v, err := f.staking.GetStakedBalance(user, now)
	require.NoError(t, err)
	return v.Int64()
}

func (f *fixture) maturing(t *testing.T, user thor.Address, now uint64) int64 {
	v, err := f.staking.GetMaturingBalance(user, now)
	require.NoError(t, err)
	return v.Int64()
}

func (f *fixture) releasing(t *testing.T, user thor.Address, now uint64) int64 {
	v, err := f.staking.GetReleasingBalance(user, now)
	require.NoError(t, err)
	return v.Int64()
}

func (f *fixture) balance(t *testing.T, user thor.Address) int64 {
	v, err := f.token.BalanceOf(user)
	require.NoError(t, err)
	return v.Int64()
}

func TestInitialize(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.staking.Initialize(f.token.Address(), 1, 1))

	m, err := f.staking.MaturationPeriod()
	require.NoError(t, err)
	assert.Equal(t, maturation, m)
	r, err := f.staking.ReleasePeriod()
	require.NoError(t, err)
	assert.Equal(t, release, r)
}

func TestStakeMatures(t *testing.T) {
	user := datagen.RandAddress()
	f := newFixture(t, user)
	now := uint64(1000)

	require.NoError(t, f.staking.Stake(user, big.NewInt(5), now))
	assert.Equal(t, int64(0), f.staked(t, user, now))
	assert.Equal(t, int64(5), f.maturing(t, user, now))
	assert.Equal(t, int64(995), f.balance(t, user))

	ts, err := f.staking.GetMaturingTimestamp(user, now)
	require.NoError(t, err)
	assert.Equal(t, now+maturation, ts)

	assert.Equal(t, int64(0), f.staked(t, user, now+maturation-1))
	assert.Equal(t, int64(5), f.staked(t, user, now+maturation+1))
	assert.Equal(t, int64(0), f.maturing(t, user, now+maturation+1))
}

func TestUnstakeTakesMaturingFirst(t *testing.T) {
	user := datagen.RandAddress()
	f := newFixture(t, user)
	now := uint64(1000)

	require.NoError(t, f.staking.Stake(user, big.NewInt(5), now))
	now += maturation + 1
	require.NoError(t, f.staking.Stake(user, big.NewInt(5), now))
	assert.Equal(t, int64(5), f.staked(t, user, now))
	assert.Equal(t, int64(5), f.maturing(t, user, now))

	require.NoError(t, f.staking.Unstake(user, big.NewInt(5), now))
	assert.Equal(t, int64(5), f.staked(t, user, now))
	assert.Equal(t, int64(0), f.maturing(t, user, now))

	require.NoError(t, f.staking.Unstake(user, big.NewInt(5), now))
	assert.Equal(t, int64(0), f.staked(t, user, now))
	assert.Equal(t, int64(10), f.releasing(t, user, now))

	err := f.staking.Unstake(user, big.NewInt(1), now)
	assert.ErrorIs(t, err, reverts.ErrInsufficientBalance)
}

func TestStakeReusesReleasing(t *testing.T) {
	user := datagen.RandAddress()
	f := newFixture(t, user)
	now := uint64(1000)

	require.NoError(t, f.staking.Stake(user, big.NewInt(5), now))
	now += maturation + 1
	require.NoError(t, f.staking.Unstake(user, big.NewInt(5), now))
	assert.Equal(t, int64(5), f.releasing(t, user, now))
	assert.Equal(t, int64(0), f.maturing(t, user, now))
	before := f.balance(t, user)

	require.NoError(t, f.staking.Stake(user, big.NewInt(5), now))
	assert.Equal(t, int64(0), f.releasing(t, user, now))
	assert.Equal(t, int64(5), f.maturing(t, user, now))
	assert.Equal(t, before, f.balance(t, user), "no transfer for the reused part")

	// partly reused, partly transferred
	require.NoError(t, f.staking.Unstake(user, big.NewInt(3), now))
	require.NoError(t, f.staking.Stake(user, big.NewInt(10), now))
	assert.Equal(t, before-7, f.balance(t, user))
	assert.Equal(t, int64(12), f.maturing(t, user, now))
}

func TestWithdraw(t *testing.T) {
	user := datagen.RandAddress()
	f := newFixture(t, user)
	now := uint64(1000)

	require.NoError(t, f.staking.Stake(user, big.NewInt(10), now))
	require.NoError(t, f.staking.Unstake(user, big.NewInt(4), now))

	assert.ErrorIs(t, f.staking.Withdraw(user, big.NewInt(4), now+release-1), reverts.ErrReleaseNotReady)
	assert.ErrorIs(t, f.staking.Withdraw(user, big.NewInt(5), now+release), reverts.ErrReleaseNotReady)

	require.NoError(t, f.staking.Withdraw(user, big.NewInt(4), now+release))
	assert.Equal(t, int64(994), f.balance(t, user))
	assert.Equal(t, int64(0), f.releasing(t, user, now+release))

	evs := f.staking.sctx.State().Events()
	assert.Len(t, evs.Filter(f.staking.Address(), StakeEvent), 1)
	assert.Len(t, evs.Filter(f.staking.Address(), UnstakeEvent), 1)
	assert.Len(t, evs.Filter(f.staking.Address(), WithdrawEvent), 1)
}

func TestRejections(t *testing.T) {
	user := datagen.RandAddress()
	f := newFixture(t, user)

	for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(-1)} {
		assert.ErrorIs(t, f.staking.Stake(user, amount, 1), reverts.ErrInvalidAmount)
		assert.ErrorIs(t, f.staking.Unstake(user, amount, 1), reverts.ErrInvalidAmount)
		assert.ErrorIs(t, f.staking.Withdraw(user, amount, 1), reverts.ErrInvalidAmount)
	}

	assert.ErrorIs(t, f.staking.Stake(user, big.NewInt(1001), 1), reverts.ErrInsufficientFunds)
	assert.ErrorIs(t, f.staking.Stake(datagen.RandAddress(), big.NewInt(1), 1), reverts.ErrInsufficientFunds)
}

type ledgerOp struct {
	Kind    uint8
	User    uint8
	Amount  uint8
	Advance uint8
}

func TestConservation(t *testing.T) {
	users := []thor.Address{datagen.RandAddress(), datagen.RandAddress(), datagen.RandAddress()}
	f := newFixture(t, users...)

	var ops []ledgerOp
	fuzz.NewWithSeed(42).NilChance(0).NumElements(300, 600).Fuzz(&ops)

	deposited := make(map[thor.Address]*big.Int)
	withdrawn := make(map[thor.Address]*big.Int)
	for _, u := range users {
		deposited[u] = new(big.Int)
		withdrawn[u] = new(big.Int)
	}

	now := uint64(1)
	for _, op := range ops {
		user := users[int(op.User)%len(users)]
		amount := big.NewInt(int64(op.Amount % 32))
		now += uint64(op.Advance)

		before := f.balance(t, user)
		var err error
		switch op.Kind % 3 {
		case 0:
			err = f.staking.Stake(user, amount, now)
		case 1:
			err = f.staking.Unstake(user, amount, now)
		case 2:
			err = f.staking.Withdraw(user, amount, now)
		}
		if err != nil {
			assert.True(t, reverts.IsRevertErr(err), "unexpected internal error %v", err)
		}
		after := f.balance(t, user)
		if after < before {
			deposited[user].Add(deposited[user], big.NewInt(before-after))
		} else {
			withdrawn[user].Add(withdrawn[user], big.NewInt(after-before))
		}

		total := new(big.Int)
		for _, u := range users {
			held := new(big.Int).Add(
				big.NewInt(f.maturing(t, u, now)+f.staked(t, u, now)),
				big.NewInt(f.releasing(t, u, now)),
			)
			assert.Equal(t, new(big.Int).Sub(deposited[u], withdrawn[u]), held, "user %v", u)
			total.Add(total, held)
		}
		assert.Equal(t, total.Int64(), f.balance(t, f.staking.Address()))
	}
}
