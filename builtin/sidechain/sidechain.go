// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sidechain

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/vechain/lottery/builtin/reverts"
	"github.com/vechain/lottery/builtin/solidity"
	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/thor"
)

// NoParent marks the genesis block of a sidechain.
const NoParent = ^uint32(0)

// Block is an entry of the auxiliary chain.
type Block struct {
	Parent   uint32
	Depth    uint32
	Producer thor.Address
	Tick     uint32
	DataHash thor.Bytes32
	Hash     thor.Bytes32
}

type head struct {
	Count   uint32
	Deepest uint32
}

// Sidechain is a hash linked tree of blocks per instance, where the first
// block to reach a depth becomes the deepest.
type Sidechain struct {
	sctx *solidity.Context
}

// New create a new instance.
func New(addr thor.Address, state *state.State) *Sidechain {
	return &Sidechain{solidity.NewContext(addr, state)}
}

func (s *Sidechain) heads() *solidity.Mapping[thor.Bytes32, *head] {
	return solidity.NewMapping[thor.Bytes32, *head](s.sctx, thor.BytesToBytes32([]byte("sidechain-heads")))
}

func (s *Sidechain) blocks(index uint32) *solidity.Mapping[thor.Bytes32, *Block] {
	return solidity.NewMapping[thor.Bytes32, *Block](s.sctx, thor.Blake2b([]byte("sidechain-blocks"), thor.Uint32ToBytes32(index).Bytes()))
}

func (s *Sidechain) getHead(index uint32) (*head, error) {
	h, err := s.heads().Get(thor.Uint32ToBytes32(index))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sidechain head")
	}
	return h, nil
}

// Count returns the number of blocks of instance index.
func (s *Sidechain) Count(index uint32) (uint32, error) {
	h, err := s.getHead(index)
	if err != nil {
		return 0, err
	}
	return h.Count, nil
}

// Block returns block seq of instance index.
func (s *Sidechain) Block(index, seq uint32) (*Block, error) {
	h, err := s.getHead(index)
	if err != nil {
		return nil, err
	}
	if seq >= h.Count {
		return nil, reverts.Wrap(reverts.ErrInvalidBlock, "unknown block "+strconv.FormatUint(uint64(seq), 10))
	}
	b, err := s.blocks(index).Get(thor.Uint32ToBytes32(seq))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sidechain block")
	}
	return b, nil
}

// Deepest returns the sequence of the deepest block. ok is false for an empty chain.
func (s *Sidechain) Deepest(index uint32) (seq uint32, ok bool, err error) {
	h, err := s.getHead(index)
	if err != nil {
		return 0, false, err
	}
	return h.Deepest, h.Count > 0, nil
}

// Insert appends a block on top of parent. The first block of a chain takes NoParent.
func (s *Sidechain) Insert(index, parent uint32, producer thor.Address, tick uint32, payload []byte) (uint32, error) {
	h, err := s.getHead(index)
	if err != nil {
		return 0, err
	}
	b := &Block{
		Parent:   parent,
		Producer: producer,
		Tick:     tick,
		DataHash: thor.Keccak256(payload),
	}

	var parentHash thor.Bytes32
	if h.Count == 0 {
		if parent != NoParent {
			return 0, reverts.Wrap(reverts.ErrInvalidParent, "first block takes no parent")
		}
	} else {
		if parent == NoParent || parent >= h.Count {
			return 0, reverts.Wrap(reverts.ErrInvalidParent, "unknown parent "+strconv.FormatUint(uint64(parent), 10))
		}
		p, err := s.blocks(index).Get(thor.Uint32ToBytes32(parent))
		if err != nil {
			return 0, errors.Wrap(err, "failed to get parent")
		}
		b.Depth = p.Depth + 1
		parentHash = p.Hash
	}
	b.Hash = thor.Blake2b(parentHash.Bytes(), producer.Bytes(), thor.Uint32ToBytes32(tick).Bytes(), b.DataHash.Bytes())

	seq := h.Count
	if err := s.blocks(index).Set(thor.Uint32ToBytes32(seq), b); err != nil {
		return 0, errors.Wrap(err, "failed to set sidechain block")
	}
	if seq > 0 {
		deepest, err := s.blocks(index).Get(thor.Uint32ToBytes32(h.Deepest))
		if err != nil {
			return 0, errors.Wrap(err, "failed to get deepest")
		}
		if b.Depth > deepest.Depth {
			h.Deepest = seq
		}
	}
	h.Count++
	if err := s.heads().Set(thor.Uint32ToBytes32(index), h); err != nil {
		return 0, errors.Wrap(err, "failed to set sidechain head")
	}
	return seq, nil
}

// IsValidBlock tells whether block seq is on the deepest branch, buried
// at least depthDiff blocks deep. The producer is returned for valid blocks only.
func (s *Sidechain) IsValidBlock(index, seq, depthDiff uint32) (bool, thor.Address, error) {
	h, err := s.getHead(index)
	if err != nil {
		return false, thor.Address{}, err
	}
	if seq >= h.Count {
		return false, thor.Address{}, nil
	}
	blocks := s.blocks(index)
	target, err := blocks.Get(thor.Uint32ToBytes32(seq))
	if err != nil {
		return false, thor.Address{}, errors.Wrap(err, "failed to get block")
	}
	cur, err := blocks.Get(thor.Uint32ToBytes32(h.Deepest))
	if err != nil {
		return false, thor.Address{}, errors.Wrap(err, "failed to get deepest")
	}
	if cur.Depth < target.Depth || cur.Depth-target.Depth < depthDiff {
		return false, thor.Address{}, nil
	}
	curSeq := h.Deepest
	for cur.Depth > target.Depth {
		curSeq = cur.Parent
		if cur, err = blocks.Get(thor.Uint32ToBytes32(curSeq)); err != nil {
			return false, thor.Address{}, errors.Wrap(err, "failed to get ancestor")
		}
	}
	if curSeq != seq {
		return false, thor.Address{}, nil
	}
	return true, target.Producer, nil
}
