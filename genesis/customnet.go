// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"errors"
	"fmt"

	"github.com/vechain/lottery/builtin"
	"github.com/vechain/lottery/builtin/rewards"
	"github.com/vechain/lottery/lottery"
	"github.com/vechain/lottery/pos"
	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/thor"
	"github.com/vechain/lottery/xenv"
)

// NewCustomNet create custom network genesis.
func NewCustomNet(gen *CustomGenesis) (*Genesis, error) {
	if gen.Admin.IsZero() {
		return nil, errors.New("admin must be set")
	}
	for _, a := range gen.Accounts {
		if a.Balance == nil || a.Balance.Big().Sign() < 1 {
			return nil, fmt.Errorf("%s: balance must be a non-zero integer", a.Address)
		}
	}
	pools := make(map[string]bool)
	for i, inst := range gen.Instances {
		if inst.Pool == "" {
			return nil, fmt.Errorf("instance %d: pool name must be set", i)
		}
		if pools[inst.Pool] {
			return nil, fmt.Errorf("instance %d: pool %s used twice", i, inst.Pool)
		}
		pools[inst.Pool] = true
		if inst.Funding.Big().Sign() < 0 {
			return nil, fmt.Errorf("instance %d: funding must be a non-negative integer", i)
		}
	}

	launchTime := gen.LaunchTime
	builder := new(Builder).
		Timestamp(launchTime).
		State(func(st *state.State) error {
			tk := builtin.Token.WithState(st)
			for _, a := range gen.Accounts {
				if err := tk.Mint(a.Address, a.Balance.Big()); err != nil {
					return err
				}
			}
			if err := builtin.Staking.WithState(st).Initialize(
				builtin.Token.Address,
				gen.Staking.MaturationPeriod,
				gen.Staking.ReleasePeriod,
			); err != nil {
				return err
			}
			return builtin.PoS.WithState(st, nil).Initialize(gen.Admin, builtin.Selector.Address, builtin.Sidechain.Address)
		}).
		State(func(st *state.State) error {
			// instances are created at tick 0, no seed is read
			registry := builtin.PoS.WithState(st, nil)
			blk := &xenv.BlockContext{Number: 0, Time: launchTime}
			for i, inst := range gen.Instances {
				pool := builtin.RewardPool(inst.Pool)
				if _, err := registry.Instantiate(gen.Admin, instanceConfig(&inst, pool.Address), blk); err != nil {
					return fmt.Errorf("instance %d: %w", i, err)
				}
				if funding := inst.Funding.Big(); funding.Sign() > 0 {
					if err := builtin.Token.WithState(st).Mint(pool.Address, funding); err != nil {
						return err
					}
				}
			}
			return nil
		})

	if len(gen.ExtraData) > 0 {
		var extra [28]byte
		copy(extra[:], gen.ExtraData)
		builder.ExtraData(extra)
	}

	id, err := builder.ComputeID()
	if err != nil {
		return nil, err
	}
	return &Genesis{builder, id, "customnet"}, nil
}

func instanceConfig(inst *Instance, pool thor.Address) pos.Config {
	return pos.Config{
		Variant:    inst.Variant,
		Staking:    builtin.Staking.Address,
		Workers:    builtin.Workers.Address,
		RewardPool: pool,
		Token:      builtin.Token.Address,
		Selector: lottery.Params{
			MinDifficulty:       inst.MinDifficulty.Big(),
			InitialDifficulty:   inst.InitialDifficulty.Big(),
			AdjustmentParameter: inst.AdjustmentParameter,
			TargetInterval:      inst.TargetInterval,
			SelectionDelay:      inst.SelectionDelay,
		},
		Rewards: rewards.Config{
			MinReward:   inst.MinReward.Big(),
			MaxReward:   inst.MaxReward.Big(),
			Numerator:   inst.RewardNumerator.Big(),
			Denominator: inst.RewardDenominator.Big(),
		},
		RewardDelay: inst.RewardDelay,
	}
}
