// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/vechain/lottery/block"
	"github.com/vechain/lottery/kv"
	"github.com/vechain/lottery/thor"
)

// Genesis to build genesis block.
type Genesis struct {
	builder *Builder
	id      thor.Bytes32
	name    string
}

// Build build the genesis block.
func (g *Genesis) Build(db kv.Store) (*block.Header, thor.Events, error) {
	header, events, err := g.builder.Build(db)
	if err != nil {
		return nil, nil, err
	}
	if header.ID() != g.id {
		panic("built genesis ID incorrect")
	}
	return header, events, nil
}

// ID returns genesis block ID.
func (g *Genesis) ID() thor.Bytes32 {
	return g.id
}

// Name returns network name.
func (g *Genesis) Name() string {
	return g.name
}
