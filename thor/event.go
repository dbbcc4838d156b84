// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import "fmt"

// Event is a log emitted by a built-in contract.
// Topics[0] is always the event id.
type Event struct {
	Address Address
	Topics  []Bytes32
	Data    []byte
}

// Events slice of events.
type Events []*Event

// EventID returns the id of an event declared by its signature, e.g. "Stake(address,uint256,uint256)".
func EventID(signature string) Bytes32 {
	return Keccak256([]byte(signature))
}

// Name returns the id of the event.
func (e *Event) Name() Bytes32 {
	if len(e.Topics) == 0 {
		return Bytes32{}
	}
	return e.Topics[0]
}

func (e *Event) String() string {
	return fmt.Sprintf("Event(%v, topics: %v, data: %d bytes)", e.Address, e.Topics, len(e.Data))
}

// Filter returns events emitted by addr with the given id.
func (evs Events) Filter(addr Address, id Bytes32) Events {
	var out Events
	for _, ev := range evs {
		if ev.Address == addr && ev.Name() == id {
			out = append(out, ev)
		}
	}
	return out
}
