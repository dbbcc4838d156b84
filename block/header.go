// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/lottery/thor"
)

// Header of a block of the host chain. It's immutable.
type Header struct {
	body headerBody

	cache struct {
		id atomic.Value
	}
}

// headerBody body of header
type headerBody struct {
	ParentID   thor.Bytes32
	Timestamp  uint64
	StateRoot  thor.Bytes32
	EventsRoot thor.Bytes32
}

// ParentID returns id of parent block.
func (h *Header) ParentID() thor.Bytes32 {
	return h.body.ParentID
}

// Number returns sequential number of this block.
func (h *Header) Number() uint32 {
	// inferred from parent id
	return Number(h.body.ParentID) + 1
}

// Timestamp returns timestamp of this block.
func (h *Header) Timestamp() uint64 {
	return h.body.Timestamp
}

// StateRoot returns the root of the contract storage after this block.
func (h *Header) StateRoot() thor.Bytes32 {
	return h.body.StateRoot
}

// EventsRoot returns the hash of the events emitted in this block.
func (h *Header) EventsRoot() thor.Bytes32 {
	return h.body.EventsRoot
}

// ID computes id of block.
// The block ID is defined as: blockNumber + hash(body)[4:].
func (h *Header) ID() (id thor.Bytes32) {
	if cached := h.cache.id.Load(); cached != nil {
		return cached.(thor.Bytes32)
	}
	defer func() {
		// overwrite first 4 bytes of block hash to block number.
		binary.BigEndian.PutUint32(id[:], h.Number())
		h.cache.id.Store(id)
	}()

	return thor.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, &h.body)
	})
}

// EncodeRLP implements rlp.Encoder
func (h *Header) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &h.body)
}

// DecodeRLP implements rlp.Decoder.
func (h *Header) DecodeRLP(s *rlp.Stream) error {
	var body headerBody
	if err := s.Decode(&body); err != nil {
		return err
	}
	*h = Header{body: body}
	return nil
}

func (h *Header) String() string {
	return fmt.Sprintf(`Header(%v):
	Number:         %v
	ParentID:       %v
	Timestamp:      %v
	StateRoot:      %v
	EventsRoot:     %v`, h.ID(), h.Number(), h.body.ParentID, h.body.Timestamp, h.body.StateRoot, h.body.EventsRoot)
}

// Number extract block number from block id.
func Number(blockID thor.Bytes32) uint32 {
	// first 4 bytes are over written by block number (big endian).
	return binary.BigEndian.Uint32(blockID[:])
}
