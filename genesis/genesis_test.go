// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vechain/lottery/builtin"
	"github.com/vechain/lottery/genesis"
	"github.com/vechain/lottery/lvldb"
	"github.com/vechain/lottery/pos"
	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/thor"
)

func TestDevnet(t *testing.T) {
	gene := genesis.NewDevnet()
	assert.Equal(t, "devnet", gene.Name())

	db := lvldb.NewMem()
	defer db.Close()

	header, events, err := gene.Build(db)
	require.NoError(t, err)
	assert.Equal(t, gene.ID(), header.ID())
	assert.Equal(t, uint32(0), header.Number())
	assert.Equal(t, genesis.DevnetLaunchTime, header.Timestamp())
	assert.NotEmpty(t, events)

	st := state.New(db)
	cfg := genesis.DevConfig()

	bal, err := builtin.Token.WithState(st).BalanceOf(genesis.DevAccounts()[1].Address)
	require.NoError(t, err)
	assert.Equal(t, cfg.Accounts[1].Balance.Big(), bal)

	period, err := builtin.Staking.WithState(st).MaturationPeriod()
	require.NoError(t, err)
	assert.Equal(t, cfg.Staking.MaturationPeriod, period)

	registry := builtin.PoS.WithState(st, nil)
	admin, err := registry.Admin()
	require.NoError(t, err)
	assert.Equal(t, genesis.DevAccounts()[0].Address, admin)

	count, err := registry.Count()
	require.NoError(t, err)
	require.Equal(t, uint32(2), count)

	inst, err := registry.Instance(1)
	require.NoError(t, err)
	assert.Equal(t, pos.Sidechain, inst.Variant)
	assert.Equal(t, builtin.RewardPool("RewardPool.Sidechain").Address, inst.RewardPool)

	poolBalance, err := builtin.RewardPool("RewardPool.Simple").WithState(st).Balance()
	require.NoError(t, err)
	assert.Equal(t, cfg.Instances[0].Funding.Big(), poolBalance)
}

func TestCustomNetValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(g *genesis.CustomGenesis)
	}{
		{"no admin", func(g *genesis.CustomGenesis) { g.Admin = thor.Address{} }},
		{"zero balance", func(g *genesis.CustomGenesis) {
			g.Accounts[0].Balance = genesis.NewHexOrDecimal256(big.NewInt(0))
		}},
		{"no pool", func(g *genesis.CustomGenesis) { g.Instances[0].Pool = "" }},
		{"shared pool", func(g *genesis.CustomGenesis) { g.Instances[1].Pool = g.Instances[0].Pool }},
		{"bad interval", func(g *genesis.CustomGenesis) { g.Instances[0].TargetInterval = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := genesis.DevConfig()
			tt.modify(gen)
			_, err := genesis.NewCustomNet(gen)
			assert.Error(t, err)
		})
	}
}

func TestExtraDataChangesID(t *testing.T) {
	a, err := genesis.NewCustomNet(genesis.DevConfig())
	require.NoError(t, err)

	cfg := genesis.DevConfig()
	cfg.ExtraData = "lottery"
	b, err := genesis.NewCustomNet(cfg)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
}

func TestCustomGenesisYAML(t *testing.T) {
	doc := `
launchTime: 1000
admin: "0x000000000000000000000000000000000000aa01"
accounts:
  - address: "0x000000000000000000000000000000000000aa02"
    balance: 0x3e8
staking:
  maturationPeriod: 30
  releasePeriod: 60
instances:
  - variant: sidechain
    pool: Pool
    funding: "5000"
    minDifficulty: 1
    initialDifficulty: 100
    targetInterval: 40
    rewardDenominator: 10
    rewardDelay: 3
`
	var gen genesis.CustomGenesis
	require.NoError(t, yaml.Unmarshal([]byte(doc), &gen))
	assert.Equal(t, uint64(1000), gen.LaunchTime)
	assert.Equal(t, thor.MustParseAddress("0x000000000000000000000000000000000000aa01"), gen.Admin)
	assert.Equal(t, big.NewInt(1000), gen.Accounts[0].Balance.Big())
	assert.Equal(t, pos.Sidechain, gen.Instances[0].Variant)
	assert.Equal(t, big.NewInt(5000), gen.Instances[0].Funding.Big())
	assert.Equal(t, big.NewInt(0), gen.Instances[0].MaxReward.Big())

	_, err := genesis.NewCustomNet(&gen)
	require.NoError(t, err)

	// json round trip keeps amounts
	data, err := json.Marshal(gen.Accounts[0])
	require.NoError(t, err)
	var acc genesis.Account
	require.NoError(t, json.Unmarshal(data, &acc))
	assert.Equal(t, big.NewInt(1000), acc.Balance.Big())
}
