// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/binary"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/vechain/lottery/builtin"
	"github.com/vechain/lottery/builtin/rewards"
	"github.com/vechain/lottery/builtin/sidechain"
	"github.com/vechain/lottery/log"
	"github.com/vechain/lottery/pos"
	"github.com/vechain/lottery/runtime"
	"github.com/vechain/lottery/thor"
	"github.com/vechain/lottery/xenv"
)

var logger = log.WithContext("pkg", "possim")

// Simulator drives producers against the registry, one host block per tick.
type Simulator struct {
	rt  *runtime.Runtime
	cfg *Config

	// productions of Sidechain instances waiting to be claimed
	unclaimed map[uint32][]uint32

	events chan *runtime.Notification
	sub    event.Subscription

	mu     sync.Mutex
	counts map[uint32]map[thor.Address]int // instance => owner => productions
}

// NewSimulator creates a simulator on rt, which must run on the genesis of cfg.
func NewSimulator(rt *runtime.Runtime, cfg *Config) *Simulator {
	s := &Simulator{
		rt:        rt,
		cfg:       cfg,
		unclaimed: make(map[uint32][]uint32),
		events:    make(chan *runtime.Notification, 64),
		counts:    make(map[uint32]map[thor.Address]int),
	}
	s.sub = rt.SubscribeEvents(s.events)
	return s
}

// Setup stakes, hires workers, authorizes and sets beneficiaries, then mines
// the block holding all of it.
func (s *Simulator) Setup() error {
	for i := range s.cfg.Producers {
		p := &s.cfg.Producers[i]
		err := s.rt.Exec("setup", func(env *xenv.Environment) error {
			return setupProducer(env, p)
		})
		if err != nil {
			return errors.Wrapf(err, "setup producer %v", p.Owner)
		}
	}
	return s.mine()
}

func setupProducer(env *xenv.Environment, p *Producer) error {
	st := env.State()
	blk := env.BlockContext()
	amount := p.Stake.Big()

	if err := builtin.Token.WithState(st).Approve(p.Owner, builtin.Staking.Address, amount); err != nil {
		return err
	}
	if err := builtin.Staking.WithState(st).Stake(p.Owner, amount, blk.Time); err != nil {
		return err
	}

	wk := builtin.Workers.WithState(st)
	producer := p.producer()
	if producer != p.Owner {
		if err := wk.Hire(p.Owner, producer); err != nil {
			return err
		}
		if err := wk.AcceptJob(producer); err != nil {
			return err
		}
	}

	registry := builtin.PoS.WithState(st, env.Seeker())
	for _, idx := range p.Instances {
		if err := wk.Authorize(p.Owner, producer, registry.Scope(idx)); err != nil {
			return err
		}
		if p.Beneficiary != nil {
			if err := registry.AddBeneficiary(p.Owner, idx, *p.Beneficiary, p.Split); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Simulator) mine() error {
	header, err := s.rt.Mine()
	if err != nil {
		return err
	}
	return s.rt.SetTime(header.Timestamp() + s.cfg.BlockInterval)
}

// Run simulates ticks host blocks. Every tick, each producer tries every
// instance it takes part in.
func (s *Simulator) Run(ctx context.Context, ticks uint32, bar *pb.ProgressBar) error {
	for range ticks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		for idx := range s.cfg.Genesis.Instances {
			if err := s.tick(uint32(idx)); err != nil {
				return err
			}
		}
		if err := s.mine(); err != nil {
			return err
		}
		if bar != nil {
			bar.Increment()
		}
	}
	return nil
}

func (s *Simulator) tick(index uint32) error {
	inst, err := s.instance(index)
	if err != nil {
		return err
	}
	if !inst.Active {
		return nil
	}
	drained, err := s.drained(inst)
	if err != nil {
		return err
	}
	if drained && inst.Variant == pos.Simple {
		// a production would fail paying the reward
		logger.Trace("pool drained", "index", index)
		return nil
	}
	for i := range s.cfg.Producers {
		p := &s.cfg.Producers[i]
		if !takesPart(p, index) {
			continue
		}
		ok, err := s.canProduce(index, p.Owner)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		// a production resets the ramp, nobody else is eligible in this tick
		return s.produce(index, inst.Variant, p)
	}
	if inst.Variant == pos.Sidechain && !drained {
		return s.claim(index)
	}
	return nil
}

// drained tells whether the reward pool of inst can no longer pay.
func (s *Simulator) drained(inst *pos.Instance) (empty bool, err error) {
	err = s.rt.View(func(env *xenv.Environment) error {
		reward, err := rewards.New(inst.RewardPool, env.State()).GetCurrentReward()
		if err != nil {
			return err
		}
		empty = reward.Sign() == 0
		return nil
	})
	return
}

func takesPart(p *Producer, index uint32) bool {
	for _, idx := range p.Instances {
		if idx == index {
			return true
		}
	}
	return false
}

func (s *Simulator) instance(index uint32) (inst *pos.Instance, err error) {
	err = s.rt.View(func(env *xenv.Environment) error {
		inst, err = builtin.PoS.WithState(env.State(), env.Seeker()).Instance(index)
		return err
	})
	return
}

func (s *Simulator) canProduce(index uint32, owner thor.Address) (ok bool, err error) {
	err = s.rt.View(func(env *xenv.Environment) error {
		registry := builtin.PoS.WithState(env.State(), env.Seeker())
		concerned, err := registry.IsConcerned(index, owner, env.BlockContext())
		if err != nil || !concerned {
			return err
		}
		ok, err = registry.CanProduce(index, owner, env.BlockContext())
		return err
	})
	return
}

func (s *Simulator) produce(index uint32, variant pos.Variant, p *Producer) error {
	var seq uint32
	err := s.rt.Exec("produce", func(env *xenv.Environment) error {
		registry := builtin.PoS.WithState(env.State(), env.Seeker())
		blk := env.BlockContext()
		if variant == pos.Simple {
			var err error
			seq, err = registry.ProduceBlock(p.producer(), index, blk)
			return err
		}
		parent, ok, err := builtin.Sidechain.WithState(env.State()).Deepest(index)
		if err != nil {
			return err
		}
		if !ok {
			parent = sidechain.NoParent
		}
		payload := thor.Blake2b(p.Owner.Bytes(), thor.Uint32ToBytes32(blk.Number).Bytes())
		seq, err = registry.ProduceSidechainBlock(p.producer(), index, parent, payload.Bytes(), blk)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "produce on instance %d", index)
	}
	if variant == pos.Sidechain {
		s.unclaimed[index] = append(s.unclaimed[index], seq)
	}
	return nil
}

// claim pays every waiting production that is buried deep enough.
func (s *Simulator) claim(index uint32) error {
	var ready, waiting []uint32
	err := s.rt.View(func(env *xenv.Environment) error {
		registry := builtin.PoS.WithState(env.State(), env.Seeker())
		inst, err := registry.Instance(index)
		if err != nil {
			return err
		}
		for _, seq := range s.unclaimed[index] {
			valid, _, err := registry.IsValidBlock(index, seq, inst.RewardDelay)
			if err != nil {
				return err
			}
			if valid {
				ready = append(ready, seq)
			} else {
				waiting = append(waiting, seq)
			}
		}
		return nil
	})
	if err != nil || len(ready) == 0 {
		return err
	}

	var paid *big.Int
	if err := s.rt.Exec("claim", func(env *xenv.Environment) error {
		var err error
		paid, err = builtin.PoS.WithState(env.State(), env.Seeker()).ClaimRewards(index, ready)
		return err
	}); err != nil {
		return errors.Wrapf(err, "claim on instance %d", index)
	}
	logger.Debug("claimed", "index", index, "count", len(ready), "paid", paid)
	s.unclaimed[index] = waiting
	return nil
}

// Watch counts productions from the runtime event feed until ctx is done.
func (s *Simulator) Watch(ctx context.Context) error {
	defer s.sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			// pick up what was delivered before the end
			for {
				select {
				case n := <-s.events:
					s.count(n)
				default:
					return nil
				}
			}
		case err := <-s.sub.Err():
			return err
		case n := <-s.events:
			s.count(n)
		}
	}
}

func (s *Simulator) count(n *runtime.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range n.Events.Filter(builtin.PoS.Address, pos.BlockProducedEvent) {
		if len(ev.Topics) < 4 {
			continue
		}
		index := binary.BigEndian.Uint32(ev.Topics[1][28:])
		owner := thor.BytesToAddress(ev.Topics[3].Bytes())
		if s.counts[index] == nil {
			s.counts[index] = make(map[thor.Address]int)
		}
		s.counts[index][owner]++
	}
}

// ProducerCount is the number of productions credited to an owner.
type ProducerCount struct {
	Owner thor.Address
	Count int
}

// Counts returns productions per instance, most productive first.
func (s *Simulator) Counts(index uint32) []ProducerCount {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ProducerCount
	for owner, n := range s.counts[index] {
		out = append(out, ProducerCount{owner, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Owner.String() < out[j].Owner.String()
	})
	return out
}
