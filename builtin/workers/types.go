// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package workers

import "github.com/vechain/lottery/thor"

// Status of a worker with respect to its owner.
type Status uint8

const (
	StatusNone Status = iota
	StatusOffered
	StatusOwned
)

func (s Status) String() string {
	switch s {
	case StatusOffered:
		return "offered"
	case StatusOwned:
		return "owned"
	default:
		return "none"
	}
}

type entry struct {
	Owner  thor.Address
	Status Status
}

func (e *entry) IsEmpty() bool {
	return e.Status == StatusNone
}
