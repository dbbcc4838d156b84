// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"math/big"
	"strconv"

	"github.com/pkg/errors"

	"github.com/vechain/lottery/builtin/reverts"
	"github.com/vechain/lottery/builtin/rewards"
	"github.com/vechain/lottery/builtin/sidechain"
	"github.com/vechain/lottery/builtin/solidity"
	"github.com/vechain/lottery/builtin/staking"
	"github.com/vechain/lottery/log"
	"github.com/vechain/lottery/lottery"
	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/thor"
	"github.com/vechain/lottery/xenv"
)

var (
	logger = log.WithContext("pkg", "pos")

	slotAdmin         = thor.BytesToBytes32([]byte("pos-admin"))
	slotSelector      = thor.BytesToBytes32([]byte("pos-selector"))
	slotSidechain     = thor.BytesToBytes32([]byte("pos-sidechain"))
	slotCount         = thor.BytesToBytes32([]byte("pos-count"))
	slotInstances     = thor.BytesToBytes32([]byte("pos-instances"))
	slotPools         = thor.BytesToBytes32([]byte("pos-pools"))
	slotRecords       = thor.BytesToBytes32([]byte("pos-records"))
	slotBeneficiaries = thor.BytesToBytes32([]byte("pos-beneficiaries"))

	NewChainEvent         = thor.EventID("NewChain(uint32,uint8,address,address,address,uint32)")
	BlockProducedEvent    = thor.EventID("BlockProduced(uint32,uint32,address,address,uint32,bytes)")
	BeneficiaryAddedEvent = thor.EventID("BeneficiaryAdded(uint32,address,address,uint64)")
	TerminatedEvent       = thor.EventID("Terminated(uint32)")
)

func SetLogger(l log.Logger) {
	logger = l
}

// Registry orchestrates the production instances: it checks who may
// produce, records productions and triggers the reward payouts.
type Registry struct {
	sctx          *solidity.Context
	seeker        lottery.Seeker
	admin         *solidity.Address
	selectorAddr  *solidity.Address
	sidechainAddr *solidity.Address
	count         *solidity.Uint256
	instances     *solidity.Mapping[thor.Bytes32, *Instance]
	pools         *solidity.Mapping[thor.Address, bool]
	records       *solidity.Mapping[thor.Bytes32, *ProductionRecord]
	beneficiaries *solidity.Mapping[thor.Bytes32, *beneficiary]
}

// New create a new instance.
func New(addr thor.Address, state *state.State, seeker lottery.Seeker) *Registry {
	sctx := solidity.NewContext(addr, state)
	return &Registry{
		sctx:          sctx,
		seeker:        seeker,
		admin:         solidity.NewAddress(sctx, slotAdmin),
		selectorAddr:  solidity.NewAddress(sctx, slotSelector),
		sidechainAddr: solidity.NewAddress(sctx, slotSidechain),
		count:         solidity.NewUint256(sctx, slotCount),
		instances:     solidity.NewMapping[thor.Bytes32, *Instance](sctx, slotInstances),
		pools:         solidity.NewMapping[thor.Address, bool](sctx, slotPools),
		records:       solidity.NewMapping[thor.Bytes32, *ProductionRecord](sctx, slotRecords),
		beneficiaries: solidity.NewMapping[thor.Bytes32, *beneficiary](sctx, slotBeneficiaries),
	}
}

func (r *Registry) Address() thor.Address {
	return r.sctx.Address()
}

func (r *Registry) state() *state.State {
	return r.sctx.State()
}

// Initialize sets the admin and the shared selector and sidechain contracts.
func (r *Registry) Initialize(admin, selectorAddr, sidechainAddr thor.Address) error {
	current, err := r.admin.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return errors.New("registry already initialized")
	}
	if admin.IsZero() {
		return errors.New("zero admin address")
	}
	r.admin.Set(admin)
	r.selectorAddr.Set(selectorAddr)
	r.sidechainAddr.Set(sidechainAddr)
	return nil
}

// Admin returns the address allowed to instantiate and terminate.
func (r *Registry) Admin() (thor.Address, error) {
	return r.admin.Get()
}

func (r *Registry) onlyAdmin(caller thor.Address) error {
	admin, err := r.admin.Get()
	if err != nil {
		return err
	}
	if caller != admin {
		return reverts.Wrap(reverts.ErrUnauthorized, "admin only")
	}
	return nil
}

func (r *Registry) selector() (*lottery.Selector, error) {
	addr, err := r.selectorAddr.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get selector")
	}
	return lottery.New(addr, r.state(), r.seeker), nil
}

func (r *Registry) sidechain() (*sidechain.Sidechain, error) {
	addr, err := r.sidechainAddr.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sidechain")
	}
	return sidechain.New(addr, r.state()), nil
}

// Count returns the number of instances created, terminated ones included.
func (r *Registry) Count() (uint32, error) {
	c, err := r.count.Get()
	if err != nil {
		return 0, err
	}
	return uint32(c.Uint64()), nil
}

// Instance returns instance index.
func (r *Registry) Instance(index uint32) (*Instance, error) {
	count, err := r.Count()
	if err != nil {
		return nil, err
	}
	if index >= count {
		return nil, reverts.Wrap(reverts.ErrInstanceInactive, "unknown instance "+strconv.FormatUint(uint64(index), 10))
	}
	inst, err := r.instances.Get(thor.Uint32ToBytes32(index))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get instance")
	}
	return inst, nil
}

func (r *Registry) activeInstance(index uint32) (*Instance, error) {
	inst, err := r.Instance(index)
	if err != nil {
		return nil, err
	}
	if !inst.Active {
		return nil, reverts.Wrap(reverts.ErrInstanceInactive, "instance "+strconv.FormatUint(uint64(index), 10)+" terminated")
	}
	return inst, nil
}

func (r *Registry) setInstance(index uint32, inst *Instance) error {
	if err := r.instances.Set(thor.Uint32ToBytes32(index), inst); err != nil {
		return errors.Wrap(err, "failed to set instance")
	}
	return nil
}

// Scope is the authorization scope workers need for instance index.
func (r *Registry) Scope(index uint32) thor.Bytes32 {
	return thor.Blake2b(r.Address().Bytes(), thor.Uint32ToBytes32(index).Bytes())
}

func recordKey(index, seq uint32) thor.Bytes32 {
	return thor.Blake2b(thor.Uint32ToBytes32(index).Bytes(), thor.Uint32ToBytes32(seq).Bytes())
}

func beneficiaryKey(index uint32, owner thor.Address) thor.Bytes32 {
	return thor.Blake2b(thor.Uint32ToBytes32(index).Bytes(), owner.Bytes())
}

// Instantiate creates a new instance with its selector and reward pool.
func (r *Registry) Instantiate(caller thor.Address, cfg Config, blk *xenv.BlockContext) (uint32, error) {
	logger.Debug("instantiating", "variant", cfg.Variant, "pool", cfg.RewardPool)
	index, err := r.instantiate(caller, cfg, blk)
	if err != nil {
		logger.Info("instantiate failed", "pool", cfg.RewardPool, "error", err)
		return 0, err
	}
	logger.Info("instantiated", "index", index, "variant", cfg.Variant)
	return index, nil
}

func (r *Registry) instantiate(caller thor.Address, cfg Config, blk *xenv.BlockContext) (uint32, error) {
	if err := r.onlyAdmin(caller); err != nil {
		return 0, err
	}
	if cfg.Variant != Simple && cfg.Variant != Sidechain {
		return 0, reverts.Wrap(reverts.ErrInvalidVariant, "unknown variant")
	}
	if cfg.Staking.IsZero() || cfg.Workers.IsZero() || cfg.RewardPool.IsZero() || cfg.Token.IsZero() {
		return 0, reverts.Wrap(reverts.ErrInvalidAmount, "zero collaborator address")
	}

	bound, err := r.pools.Get(cfg.RewardPool)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get pool binding")
	}
	pool := rewards.New(cfg.RewardPool, r.state())
	initialized, err := pool.IsInitialized()
	if err != nil {
		return 0, err
	}
	if bound || initialized {
		return 0, reverts.Wrap(reverts.ErrDuplicateRewardPool, cfg.RewardPool.String())
	}

	sel, err := r.selector()
	if err != nil {
		return 0, err
	}
	selectorIndex, err := sel.Instantiate(r.Address(), cfg.Selector, blk.Number)
	if err != nil {
		return 0, err
	}
	if err := pool.Initialize(r.Address(), cfg.Token, cfg.Rewards); err != nil {
		return 0, err
	}
	if err := r.pools.Set(cfg.RewardPool, true); err != nil {
		return 0, errors.Wrap(err, "failed to bind pool")
	}

	index, err := r.Count()
	if err != nil {
		return 0, err
	}
	inst := &Instance{
		Variant:       cfg.Variant,
		Staking:       cfg.Staking,
		Workers:       cfg.Workers,
		RewardPool:    cfg.RewardPool,
		SelectorIndex: selectorIndex,
		RewardDelay:   cfg.RewardDelay,
		Active:        true,
	}
	if err := r.setInstance(index, inst); err != nil {
		return 0, err
	}
	r.count.Set(new(big.Int).SetUint64(uint64(index) + 1))
	setDifficultyGauge(index, cfg.Selector.InitialDifficulty)

	return index, r.sctx.Emit(NewChainEvent,
		[]thor.Bytes32{thor.Uint32ToBytes32(index)},
		uint8(cfg.Variant), cfg.Staking, cfg.Workers, cfg.RewardPool, selectorIndex)
}

// AddBeneficiary routes split basis points of the rewards of caller on
// instance index to beneficiary. It replaces any previous setting.
func (r *Registry) AddBeneficiary(caller thor.Address, index uint32, addr thor.Address, split uint64) error {
	if split > thor.SplitBase {
		return reverts.ErrSplitTooLarge
	}
	if split > 0 && addr.IsZero() {
		return reverts.Wrap(reverts.ErrInvalidAmount, "split to the zero address")
	}
	if _, err := r.activeInstance(index); err != nil {
		return err
	}
	if err := r.beneficiaries.Set(beneficiaryKey(index, caller), &beneficiary{Address: addr, Split: split}); err != nil {
		return errors.Wrap(err, "failed to set beneficiary")
	}
	logger.Debug("beneficiary added", "index", index, "owner", caller, "beneficiary", addr, "split", split)
	return r.sctx.Emit(BeneficiaryAddedEvent,
		[]thor.Bytes32{thor.Uint32ToBytes32(index), solidity.AddressTopic(caller)},
		addr, split)
}

// GetBeneficiary returns the beneficiary of owner on instance index and its split.
func (r *Registry) GetBeneficiary(index uint32, owner thor.Address) (thor.Address, uint64, error) {
	b, err := r.beneficiaries.Get(beneficiaryKey(index, owner))
	if err != nil {
		return thor.Address{}, 0, errors.Wrap(err, "failed to get beneficiary")
	}
	return b.Address, b.Split, nil
}

// Terminate deactivates an instance whose pool is drained.
func (r *Registry) Terminate(caller thor.Address, index uint32) error {
	if err := r.onlyAdmin(caller); err != nil {
		return err
	}
	inst, err := r.activeInstance(index)
	if err != nil {
		return err
	}
	balance, err := rewards.New(inst.RewardPool, r.state()).Balance()
	if err != nil {
		return err
	}
	if balance.Sign() != 0 {
		return reverts.Wrap(reverts.ErrRewardPoolNotEmpty, balance.String()+" left")
	}
	inst.Active = false
	if err := r.setInstance(index, inst); err != nil {
		return err
	}
	logger.Info("instance terminated", "index", index)
	return r.sctx.Emit(TerminatedEvent, []thor.Bytes32{thor.Uint32ToBytes32(index)})
}

// Record returns production seq of instance index.
func (r *Registry) Record(index, seq uint32) (*ProductionRecord, error) {
	inst, err := r.Instance(index)
	if err != nil {
		return nil, err
	}
	if seq >= inst.ProductionCount {
		return nil, reverts.Wrap(reverts.ErrInvalidBlock, "unknown production "+strconv.FormatUint(uint64(seq), 10))
	}
	rec, err := r.records.Get(recordKey(index, seq))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get record")
	}
	return rec, nil
}

func (r *Registry) weight(inst *Instance, user thor.Address, blk *xenv.BlockContext) (*big.Int, error) {
	return staking.New(inst.Staking, r.state()).GetStakedBalance(user, blk.Time)
}

// CanProduce tells whether user is eligible on instance index now.
func (r *Registry) CanProduce(index uint32, user thor.Address, blk *xenv.BlockContext) (bool, error) {
	inst, err := r.activeInstance(index)
	if err != nil {
		return false, err
	}
	weight, err := r.weight(inst, user, blk)
	if err != nil {
		return false, err
	}
	sel, err := r.selector()
	if err != nil {
		return false, err
	}
	return sel.CanProduce(inst.SelectorIndex, user, weight, blk.Number)
}

// WhenCanProduce returns the tick at which user becomes eligible in the
// current rotation, or lottery.Never.
func (r *Registry) WhenCanProduce(index uint32, user thor.Address, blk *xenv.BlockContext) (uint32, error) {
	inst, err := r.activeInstance(index)
	if err != nil {
		return 0, err
	}
	weight, err := r.weight(inst, user, blk)
	if err != nil {
		return 0, err
	}
	sel, err := r.selector()
	if err != nil {
		return 0, err
	}
	return sel.WhenCanProduce(inst.SelectorIndex, user, weight, blk.Number)
}

// IsConcerned reports whether user holds weight on instance index.
func (r *Registry) IsConcerned(index uint32, user thor.Address, blk *xenv.BlockContext) (bool, error) {
	inst, err := r.Instance(index)
	if err != nil {
		return false, err
	}
	weight, err := r.weight(inst, user, blk)
	if err != nil {
		return false, err
	}
	return weight.Sign() > 0, nil
}

// GetSubInstances returns the selector backing instance index.
func (r *Registry) GetSubInstances(index uint32, _ thor.Address) ([]thor.Address, []uint32, error) {
	inst, err := r.Instance(index)
	if err != nil {
		return nil, nil, err
	}
	addr, err := r.selectorAddr.Get()
	if err != nil {
		return nil, nil, err
	}
	return []thor.Address{addr}, []uint32{inst.SelectorIndex}, nil
}

// GetDifficulty returns the current difficulty of instance index.
func (r *Registry) GetDifficulty(index uint32) (*big.Int, error) {
	inst, err := r.Instance(index)
	if err != nil {
		return nil, err
	}
	sel, err := r.selector()
	if err != nil {
		return nil, err
	}
	return sel.Difficulty(inst.SelectorIndex)
}

// GetSelectionSeed returns the seed in force for instance index.
func (r *Registry) GetSelectionSeed(index uint32, blk *xenv.BlockContext) (thor.Bytes32, error) {
	inst, err := r.Instance(index)
	if err != nil {
		return thor.Bytes32{}, err
	}
	sel, err := r.selector()
	if err != nil {
		return thor.Bytes32{}, err
	}
	return sel.SelectionSeed(inst.SelectorIndex, blk.Number)
}
