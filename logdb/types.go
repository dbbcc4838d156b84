// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/vechain/lottery/block"
	"github.com/vechain/lottery/thor"
)

// Event represents thor.Event that can be stored in db.
type Event struct {
	BlockID     thor.Bytes32
	BlockNumber uint32
	BlockTime   uint64
	Index       uint32
	Address     thor.Address // always a contract address
	Topics      [5]*thor.Bytes32
	Data        []byte
}

// newEvent converts thor.Event to Event.
func newEvent(header *block.Header, index uint32, ev *thor.Event) *Event {
	e := &Event{
		BlockID:     header.ID(),
		BlockNumber: header.Number(),
		BlockTime:   header.Timestamp(),
		Index:       index,
		Address:     ev.Address,
		Data:        ev.Data,
	}
	for i := 0; i < len(ev.Topics) && i < len(e.Topics); i++ {
		topic := ev.Topics[i]
		e.Topics[i] = &topic
	}
	return e
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range of block numbers, both ends included.
type Range struct {
	From uint32
	To   uint32
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events by emitter and topics. Nil fields match anything.
type EventCriteria struct {
	Address *thor.Address
	Topics  [5]*thor.Bytes32
}

// EventFilter filter. Criteria are OR'ed.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
