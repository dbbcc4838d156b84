// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/lottery/builtin/reverts"
	"github.com/vechain/lottery/builtin/rewards"
	"github.com/vechain/lottery/builtin/sidechain"
	"github.com/vechain/lottery/builtin/solidity"
	"github.com/vechain/lottery/builtin/workers"
	"github.com/vechain/lottery/thor"
	"github.com/vechain/lottery/xenv"
)

// ProduceBlock records a production on a Simple instance and pays the
// producer. caller is the worker, the reward goes to its owner.
func (r *Registry) ProduceBlock(caller thor.Address, index uint32, blk *xenv.BlockContext) (uint32, error) {
	return r.produce(caller, index, Simple, sidechain.NoParent, nil, blk)
}

// ProduceSidechainBlock records a production on a Sidechain instance,
// appending payload on top of block parent.
func (r *Registry) ProduceSidechainBlock(caller thor.Address, index, parent uint32, payload []byte, blk *xenv.BlockContext) (uint32, error) {
	return r.produce(caller, index, Sidechain, parent, payload, blk)
}

func (r *Registry) produce(caller thor.Address, index uint32, variant Variant, parent uint32, payload []byte, blk *xenv.BlockContext) (uint32, error) {
	logger.Debug("producing", "index", index, "worker", caller, "tick", blk.Number)
	seq, owner, err := r.doProduce(caller, index, variant, parent, payload, blk)
	if err != nil {
		logger.Info("produce failed", "index", index, "worker", caller, "error", err)
		return 0, err
	}
	productionsCounter().AddWithLabel(1, map[string]string{"instance": instanceLabel(index)})
	if difficulty, err := r.GetDifficulty(index); err == nil {
		setDifficultyGauge(index, difficulty)
	}
	logger.Info("produced", "index", index, "seq", seq, "owner", owner, "tick", blk.Number)
	return seq, nil
}

func (r *Registry) doProduce(caller thor.Address, index uint32, variant Variant, parent uint32, payload []byte, blk *xenv.BlockContext) (uint32, thor.Address, error) {
	inst, err := r.activeInstance(index)
	if err != nil {
		return 0, thor.Address{}, err
	}
	if inst.Variant != variant {
		return 0, thor.Address{}, reverts.Wrap(reverts.ErrInvalidVariant, "instance is "+inst.Variant.String())
	}

	wk := workers.New(inst.Workers, r.state())
	owner, err := wk.GetOwner(caller)
	if err != nil {
		return 0, thor.Address{}, err
	}
	authorized, err := wk.IsAuthorized(caller, r.Scope(index))
	if err != nil {
		return 0, thor.Address{}, err
	}
	if !authorized {
		return 0, thor.Address{}, reverts.Wrap(reverts.ErrUnauthorized, "worker not authorized by "+owner.String())
	}

	weight, err := r.weight(inst, owner, blk)
	if err != nil {
		return 0, thor.Address{}, err
	}
	if weight.Sign() == 0 {
		return 0, thor.Address{}, reverts.ErrNoStake
	}

	sel, err := r.selector()
	if err != nil {
		return 0, thor.Address{}, err
	}
	if err := sel.Produce(r.Address(), inst.SelectorIndex, owner, weight, blk.Number); err != nil {
		return 0, thor.Address{}, err
	}
	seq := inst.ProductionCount
	if err := r.records.Set(recordKey(index, seq), &ProductionRecord{
		Producer: owner,
		Worker:   caller,
		Tick:     blk.Number,
		Time:     blk.Time,
		Payload:  payload,
	}); err != nil {
		return 0, thor.Address{}, errors.Wrap(err, "failed to set record")
	}
	if variant == Sidechain {
		sc, err := r.sidechain()
		if err != nil {
			return 0, thor.Address{}, err
		}
		scSeq, err := sc.Insert(index, parent, owner, blk.Number, payload)
		if err != nil {
			return 0, thor.Address{}, err
		}
		if scSeq != seq {
			return 0, thor.Address{}, errors.Errorf("sidechain sequence %d diverged from production %d", scSeq, seq)
		}
	}
	inst.ProductionCount++
	inst.LastProducer = owner
	if err := r.setInstance(index, inst); err != nil {
		return 0, thor.Address{}, err
	}

	if variant == Simple {
		ben, split, err := r.GetBeneficiary(index, owner)
		if err != nil {
			return 0, thor.Address{}, err
		}
		if _, err := rewards.New(inst.RewardPool, r.state()).PayReward(r.Address(), index, seq, owner, ben, split); err != nil {
			return 0, thor.Address{}, err
		}
	}

	if err := r.sctx.Emit(BlockProducedEvent,
		[]thor.Bytes32{thor.Uint32ToBytes32(index), thor.Uint32ToBytes32(seq), solidity.AddressTopic(owner)},
		caller, blk.Number, payload); err != nil {
		return 0, thor.Address{}, err
	}
	return seq, owner, nil
}

// IsValidBlock tells whether production seq of a Sidechain instance is on
// the deepest branch and buried depth blocks deep. It returns the owner
// credited for it.
func (r *Registry) IsValidBlock(index, seq, depth uint32) (bool, thor.Address, error) {
	inst, err := r.Instance(index)
	if err != nil {
		return false, thor.Address{}, err
	}
	if inst.Variant != Sidechain {
		return false, thor.Address{}, reverts.Wrap(reverts.ErrInvalidVariant, "instance is "+inst.Variant.String())
	}
	sc, err := r.sidechain()
	if err != nil {
		return false, thor.Address{}, err
	}
	return sc.IsValidBlock(index, seq, depth)
}

// ClaimRewards pays the delayed rewards of Sidechain productions that are
// buried RewardDelay blocks deep.
func (r *Registry) ClaimRewards(index uint32, sequences []uint32) (*big.Int, error) {
	logger.Debug("claiming rewards", "index", index, "count", len(sequences))
	inst, err := r.Instance(index)
	if err != nil {
		return nil, err
	}
	if inst.Variant != Sidechain {
		return nil, reverts.Wrap(reverts.ErrInvalidVariant, "rewards of "+inst.Variant.String()+" instances are paid at once")
	}
	paid, err := rewards.New(inst.RewardPool, r.state()).Claim(r.Address(), index, r, inst.RewardDelay, sequences)
	if err != nil {
		logger.Info("claim failed", "index", index, "error", err)
		return nil, err
	}
	logger.Info("rewards claimed", "index", index, "count", len(sequences), "paid", paid)
	return paid, nil
}
