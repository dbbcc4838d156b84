// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lottery

import (
	"math/big"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/lottery/builtin/reverts"
	"github.com/vechain/lottery/builtin/solidity"
	"github.com/vechain/lottery/log"
	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/thor"
)

var (
	logger = log.WithContext("pkg", "lottery")

	slotCount     = thor.BytesToBytes32([]byte("selector-count"))
	slotInstances = thor.BytesToBytes32([]byte("selector-instances"))

	DifficultyAdjustedEvent = thor.EventID("DifficultyAdjusted(uint256,uint256,uint32)")
)

func SetLogger(l log.Logger) {
	logger = l
}

// Seeker resolves the id of a mined block, the source of selection seeds.
type Seeker interface {
	GetBlockID(num uint32) (thor.Bytes32, error)
	IsNotFound(err error) bool
}

// Params configures a selector instance.
type Params struct {
	MinDifficulty       *big.Int
	InitialDifficulty   *big.Int
	AdjustmentParameter uint64 // ppm of current difficulty
	TargetInterval      uint64 // ticks
	SelectionDelay      uint32 // ticks between the seed anchor and the first eligible tick, defaults to 1
}

type instance struct {
	Owner               thor.Address
	MinDifficulty       *big.Int
	Difficulty          *big.Int
	AdjustmentParameter uint64
	TargetInterval      uint64
	SelectionDelay      uint32
	SeedAnchor          uint32
	LastProductionTick  uint32
}

func (i *instance) goal() uint32 {
	return i.SeedAnchor + i.SelectionDelay
}

func (i *instance) difficulty() *uint256.Int {
	return uint256.MustFromBig(i.Difficulty)
}

// Selector runs the eligibility lottery and the difficulty controller of
// many independent instances.
type Selector struct {
	sctx      *solidity.Context
	seeker    Seeker
	count     *solidity.Uint256
	instances *solidity.Mapping[thor.Bytes32, *instance]
}

// New create a new instance.
func New(addr thor.Address, state *state.State, seeker Seeker) *Selector {
	sctx := solidity.NewContext(addr, state)
	return &Selector{
		sctx:      sctx,
		seeker:    seeker,
		count:     solidity.NewUint256(sctx, slotCount),
		instances: solidity.NewMapping[thor.Bytes32, *instance](sctx, slotInstances),
	}
}

func (s *Selector) Address() thor.Address {
	return s.sctx.Address()
}

// Count returns the number of instances created.
func (s *Selector) Count() (uint32, error) {
	c, err := s.count.Get()
	if err != nil {
		return 0, err
	}
	return uint32(c.Uint64()), nil
}

func (s *Selector) get(index uint32) (*instance, error) {
	count, err := s.Count()
	if err != nil {
		return nil, err
	}
	if index >= count {
		return nil, reverts.Wrap(reverts.ErrInstanceInactive, "unknown selector "+strconv.FormatUint(uint64(index), 10))
	}
	inst, err := s.instances.Get(thor.Uint32ToBytes32(index))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get selector")
	}
	return inst, nil
}

func (s *Selector) set(index uint32, inst *instance) error {
	if err := s.instances.Set(thor.Uint32ToBytes32(index), inst); err != nil {
		return errors.Wrap(err, "failed to set selector")
	}
	return nil
}

// Instantiate creates an instance owned by caller, anchored at tick.
func (s *Selector) Instantiate(caller thor.Address, params Params, tick uint32) (uint32, error) {
	if params.TargetInterval <= uint64(thor.MinTargetInterval) {
		return 0, reverts.Wrap(reverts.ErrIntervalTooSmall, "target interval must exceed "+strconv.FormatUint(uint64(thor.MinTargetInterval), 10))
	}
	minDifficulty := new(big.Int)
	if params.MinDifficulty != nil {
		minDifficulty.Set(params.MinDifficulty)
	}
	initial := new(big.Int)
	if params.InitialDifficulty != nil {
		initial.Set(params.InitialDifficulty)
	}
	if initial.Cmp(minDifficulty) < 0 || initial.BitLen() > 256 {
		return 0, reverts.Wrap(reverts.ErrInvalidAmount, "initial difficulty out of range")
	}
	delay := params.SelectionDelay
	if delay == 0 {
		delay = thor.DefaultSelectionDelay
	}

	index, err := s.Count()
	if err != nil {
		return 0, err
	}
	if err := s.set(index, &instance{
		Owner:               caller,
		MinDifficulty:       minDifficulty,
		Difficulty:          initial,
		AdjustmentParameter: params.AdjustmentParameter,
		TargetInterval:      params.TargetInterval,
		SelectionDelay:      delay,
		SeedAnchor:          tick,
		LastProductionTick:  tick,
	}); err != nil {
		return 0, err
	}
	s.count.Set(new(big.Int).SetUint64(uint64(index) + 1))
	logger.Debug("selector instantiated", "index", index, "owner", caller, "difficulty", initial, "target", params.TargetInterval)
	return index, nil
}

func (s *Selector) seed(inst *instance, tick uint32) (thor.Bytes32, error) {
	seedTick := SeedTick(inst.goal(), tick)
	id, err := s.seeker.GetBlockID(seedTick)
	if err != nil {
		if s.seeker.IsNotFound(err) {
			return thor.Bytes32{}, reverts.Wrap(reverts.ErrSeedExpired, "seed tick "+strconv.FormatUint(uint64(seedTick), 10))
		}
		return thor.Bytes32{}, errors.Wrap(err, "failed to get seed")
	}
	return id, nil
}

func toWeight(weight *big.Int) *uint256.Int {
	if weight == nil || weight.Sign() <= 0 {
		return new(uint256.Int)
	}
	if weight.BitLen() > 256 {
		return new(uint256.Int).Set(maxUint256)
	}
	return uint256.MustFromBig(weight)
}

func (s *Selector) canProduce(inst *instance, account thor.Address, weight *big.Int, tick uint32) (bool, error) {
	w := toWeight(weight)
	if w.IsZero() {
		return false, reverts.ErrNoStake
	}
	goal := inst.goal()
	if tick <= goal {
		return false, nil
	}
	seed, err := s.seed(inst, tick)
	if err != nil {
		return false, err
	}
	return CanProduce(account, w, Passed(goal, tick), seed, inst.difficulty())
}

// CanProduce tells whether account with weight is eligible at tick.
func (s *Selector) CanProduce(index uint32, account thor.Address, weight *big.Int, tick uint32) (bool, error) {
	inst, err := s.get(index)
	if err != nil {
		return false, err
	}
	return s.canProduce(inst, account, weight, tick)
}

// Produce checks eligibility, adjusts the difficulty and restarts the
// lottery from tick. Only the owner of the instance may call it.
func (s *Selector) Produce(caller thor.Address, index uint32, account thor.Address, weight *big.Int, tick uint32) error {
	inst, err := s.get(index)
	if err != nil {
		return err
	}
	if caller != inst.Owner {
		return reverts.Wrap(reverts.ErrUnauthorized, "not the selector owner")
	}
	ok, err := s.canProduce(inst, account, weight, tick)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.ErrNotEligible
	}

	before := inst.difficulty()
	after := AdjustDifficulty(before, uint64(tick-inst.LastProductionTick), inst.TargetInterval, inst.AdjustmentParameter, uint256.MustFromBig(inst.MinDifficulty))
	inst.Difficulty = after.ToBig()
	inst.SeedAnchor = tick
	inst.LastProductionTick = tick
	if err := s.set(index, inst); err != nil {
		return err
	}
	logger.Debug("difficulty adjusted", "index", index, "from", before.Dec(), "to", after.Dec(), "tick", tick)
	return s.sctx.Emit(DifficultyAdjustedEvent, []thor.Bytes32{thor.Uint32ToBytes32(index)}, inst.Difficulty, tick)
}

// WhenCanProduce returns the first tick of the current rotation at which
// account becomes eligible, or Never.
func (s *Selector) WhenCanProduce(index uint32, account thor.Address, weight *big.Int, tick uint32) (uint32, error) {
	inst, err := s.get(index)
	if err != nil {
		return 0, err
	}
	w := toWeight(weight)
	goal := inst.goal()
	if w.IsZero() || tick <= goal {
		return Never, nil
	}
	seed, err := s.seed(inst, tick)
	if err != nil {
		return 0, err
	}
	passed, ok := FirstEligible(account, w, seed, inst.difficulty())
	if !ok {
		return Never, nil
	}
	return SeedTick(goal, tick) + uint32(passed), nil
}

// SelectionSeed returns the seed in force at tick.
func (s *Selector) SelectionSeed(index uint32, tick uint32) (thor.Bytes32, error) {
	inst, err := s.get(index)
	if err != nil {
		return thor.Bytes32{}, err
	}
	return s.seed(inst, tick)
}

func (s *Selector) Difficulty(index uint32) (*big.Int, error) {
	inst, err := s.get(index)
	if err != nil {
		return nil, err
	}
	return inst.Difficulty, nil
}

func (s *Selector) MinDifficulty(index uint32) (*big.Int, error) {
	inst, err := s.get(index)
	if err != nil {
		return nil, err
	}
	return inst.MinDifficulty, nil
}

func (s *Selector) TargetInterval(index uint32) (uint64, error) {
	inst, err := s.get(index)
	if err != nil {
		return 0, err
	}
	return inst.TargetInterval, nil
}

func (s *Selector) AdjustmentParameter(index uint32) (uint64, error) {
	inst, err := s.get(index)
	if err != nil {
		return 0, err
	}
	return inst.AdjustmentParameter, nil
}

func (s *Selector) SeedAnchor(index uint32) (uint32, error) {
	inst, err := s.get(index)
	if err != nil {
		return 0, err
	}
	return inst.SeedAnchor, nil
}

func (s *Selector) LastProductionTick(index uint32) (uint32, error) {
	inst, err := s.get(index)
	if err != nil {
		return 0, err
	}
	return inst.LastProductionTick, nil
}

func (s *Selector) Owner(index uint32) (thor.Address, error) {
	inst, err := s.get(index)
	if err != nil {
		return thor.Address{}, err
	}
	return inst.Owner, nil
}
