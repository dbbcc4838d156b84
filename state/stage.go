// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/lottery/kv"
	"github.com/vechain/lottery/thor"
)

// Stage holds the net storage changes of a state, ready to be committed.
type Stage struct {
	root    thor.Bytes32
	changes []change
}

type change struct {
	key   []byte
	value rlp.RawValue
}

// Stage collects the journal into a stage. The root chains parentRoot with the
// ordered changes, so equal histories produce equal roots.
func (s *State) Stage(parentRoot thor.Bytes32) *Stage {
	latest := make(map[storageKey]rlp.RawValue)
	s.sm.Journal(func(k, v any) bool {
		if key, ok := k.(storageKey); ok {
			latest[key] = v.(rlp.RawValue)
		}
		return true
	})

	changes := make([]change, 0, len(latest))
	for k, v := range latest {
		changes = append(changes, change{storageDBKey(k), v})
	}
	sort.Slice(changes, func(i, j int) bool {
		return bytes.Compare(changes[i].key, changes[j].key) < 0
	})

	root := thor.Blake2bFn(func(w io.Writer) {
		w.Write(parentRoot[:])
		for _, c := range changes {
			w.Write(c.key)
			w.Write(c.value)
		}
	})
	return &Stage{root: root, changes: changes}
}

// Root returns the state root after the changes.
func (s *Stage) Root() thor.Bytes32 {
	return s.root
}

// Len returns the count of changed storage slots.
func (s *Stage) Len() int {
	return len(s.changes)
}

// Commit writes all changes through the putter, usually a batch.
func (s *Stage) Commit(putter kv.Putter) error {
	bucket := storageBucket.NewPutter(putter)
	for _, c := range s.changes {
		var err error
		if len(c.value) == 0 {
			err = bucket.Delete(c.key)
		} else {
			err = bucket.Put(c.key, c.value)
		}
		if err != nil {
			return errors.Wrap(err, "commit storage")
		}
	}
	return nil
}
