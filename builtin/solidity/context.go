// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/thor"
)

// Context binds a built-in contract address to the state it operates on.
type Context struct {
	address thor.Address
	state   *state.State
}

func NewContext(address thor.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) Address() thor.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

// Emit journals an event from the contract. Indexed values go to topics
// after the event id, data is the rlp list of the remaining values.
func (c *Context) Emit(id thor.Bytes32, indexed []thor.Bytes32, data ...any) error {
	enc, err := rlp.EncodeToBytes(data)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	topics := make([]thor.Bytes32, 0, len(indexed)+1)
	topics = append(append(topics, id), indexed...)
	c.state.AddEvent(&thor.Event{
		Address: c.address,
		Topics:  topics,
		Data:    enc,
	})
	return nil
}

// AddressTopic left pads an address into a topic.
func AddressTopic(addr thor.Address) thor.Bytes32 {
	return thor.BytesToBytes32(addr.Bytes())
}
