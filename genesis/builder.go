// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/vechain/lottery/block"
	"github.com/vechain/lottery/kv"
	"github.com/vechain/lottery/lvldb"
	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/thor"
)

// Builder helper to build genesis block.
type Builder struct {
	timestamp uint64

	stateProcs []func(state *state.State) error
	extraData  [28]byte
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(t uint64) *Builder {
	b.timestamp = t
	return b
}

// State add a state process
func (b *Builder) State(proc func(state *state.State) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// ExtraData set extra data, which will be put into last 28 bytes of genesis parent id.
func (b *Builder) ExtraData(data [28]byte) *Builder {
	b.extraData = data
	return b
}

// ComputeID compute genesis ID.
func (b *Builder) ComputeID() (thor.Bytes32, error) {
	db := lvldb.NewMem()
	defer db.Close()

	header, _, err := b.Build(db)
	if err != nil {
		return thor.Bytes32{}, err
	}
	return header.ID(), nil
}

// Build runs the state processes on an empty state, commits the result into
// db and returns the genesis header with the emitted events.
func (b *Builder) Build(db kv.Store) (*block.Header, thor.Events, error) {
	st := state.New(db)

	for _, proc := range b.stateProcs {
		if err := proc(st); err != nil {
			return nil, nil, errors.Wrap(err, "state process")
		}
	}

	stage := st.Stage(thor.Bytes32{})
	batch := db.NewBatch()
	if err := stage.Commit(batch); err != nil {
		return nil, nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, nil, errors.Wrap(err, "commit state")
	}

	parentID := block.GenesisParentID() // so, genesis number is 0
	copy(parentID[4:], b.extraData[:])

	return new(block.Builder).
		ParentID(parentID).
		Timestamp(b.timestamp).
		StateRoot(stage.Root()).
		Build(), st.Events(), nil
}
