// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"encoding/binary"
	"math"

	"github.com/vechain/lottery/thor"
)

// GenesisParentID is the parent id of every genesis block, so that the
// genesis number is 0.
func GenesisParentID() (id thor.Bytes32) {
	binary.BigEndian.PutUint32(id[:], math.MaxUint32)
	return
}

// Builder to make it easy to build a block header.
type Builder struct {
	body headerBody
}

// ParentID set parent id.
func (b *Builder) ParentID(id thor.Bytes32) *Builder {
	b.body.ParentID = id
	return b
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(ts uint64) *Builder {
	b.body.Timestamp = ts
	return b
}

// StateRoot set state root.
func (b *Builder) StateRoot(hash thor.Bytes32) *Builder {
	b.body.StateRoot = hash
	return b
}

// EventsRoot set events root.
func (b *Builder) EventsRoot(hash thor.Bytes32) *Builder {
	b.body.EventsRoot = hash
	return b
}

// Build build a block header.
func (b *Builder) Build() *Header {
	return &Header{body: b.body}
}
