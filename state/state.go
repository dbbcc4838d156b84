// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"

	"github.com/vechain/lottery/kv"
	"github.com/vechain/lottery/stackedmap"
	"github.com/vechain/lottery/thor"
)

const (
	storageBucket = kv.Bucket("s")

	storageCacheSize = 4096
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type (
	storageKey struct {
		addr thor.Address
		key  thor.Bytes32
	}
	eventsKey struct{}
)

// State manages contract storage on top of a kv store.
type State struct {
	db    kv.Getter
	cache *lru.Cache // storageKey => rlp.RawValue
	sm    *stackedmap.StackedMap[any, any]
}

// New create state object reading committed values from db.
// A nil db means an empty state.
func New(db kv.Getter) *State {
	cache, _ := lru.New(storageCacheSize)
	s := &State{
		db:    db,
		cache: cache,
	}
	s.sm = stackedmap.New[any, any](s.cacheGetter)
	return s
}

// NewMem creates a state without backing store.
func NewMem() *State {
	return New(nil)
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key any) (any, bool, error) {
	switch k := key.(type) {
	case storageKey:
		if v, ok := s.cache.Get(k); ok {
			return v, true, nil
		}
		raw, err := s.loadStorage(k)
		if err != nil {
			return nil, false, err
		}
		s.cache.Add(k, raw)
		return raw, true, nil
	case eventsKey:
		return thor.Events(nil), true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

func (s *State) loadStorage(k storageKey) (rlp.RawValue, error) {
	if s.db == nil {
		return nil, nil
	}
	data, err := storageBucket.NewGetter(s.db).Get(storageDBKey(k))
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func storageDBKey(k storageKey) []byte {
	return append(append(make([]byte, 0, thor.AddressLength+32), k.addr[:]...), k.key[:]...)
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr thor.Address, key thor.Bytes32) (thor.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return thor.Bytes32{}, err
	}
	if len(raw) == 0 {
		return thor.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return thor.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// customized storage value, return hash of raw data
		return thor.Blake2b(raw), nil
	}
	return thor.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr thor.Address, key, value thor.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// AddEvent appends an event to the journal.
func (s *State) AddEvent(ev *thor.Event) {
	evs := s.Events()
	cpy := make(thor.Events, len(evs), len(evs)+1)
	copy(cpy, evs)
	s.sm.Put(eventsKey{}, append(cpy, ev))
}

// Events returns all events emitted since the state was created.
func (s *State) Events() thor.Events {
	v, _, _ := s.sm.Get(eventsKey{})
	return v.(thor.Events)
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}
