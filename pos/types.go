// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"github.com/pkg/errors"

	"github.com/vechain/lottery/builtin/rewards"
	"github.com/vechain/lottery/lottery"
	"github.com/vechain/lottery/thor"
)

// Variant selects what a production appends.
type Variant uint8

const (
	// Simple productions carry nothing and are paid at once.
	Simple Variant = iota
	// Sidechain productions append a block to the auxiliary chain, paid
	// through delayed claims once buried deep enough.
	Sidechain
)

func (v Variant) String() string {
	switch v {
	case Simple:
		return "simple"
	case Sidechain:
		return "sidechain"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(text []byte) error {
	switch string(text) {
	case "simple":
		*v = Simple
	case "sidechain":
		*v = Sidechain
	default:
		return errors.Errorf("unknown variant %q", text)
	}
	return nil
}

// Config is what Instantiate needs to set up an instance.
type Config struct {
	Variant     Variant
	Staking     thor.Address
	Workers     thor.Address
	RewardPool  thor.Address
	Token       thor.Address
	Selector    lottery.Params
	Rewards     rewards.Config
	RewardDelay uint32 // sidechain only, depth a block needs before its reward can be claimed
}

// Instance is a running production lottery.
type Instance struct {
	Variant         Variant
	Staking         thor.Address
	Workers         thor.Address
	RewardPool      thor.Address
	SelectorIndex   uint32
	RewardDelay     uint32
	Active          bool
	ProductionCount uint32
	LastProducer    thor.Address
}

// ProductionRecord is kept for every successful production.
type ProductionRecord struct {
	Producer thor.Address // the owner credited
	Worker   thor.Address
	Tick     uint32
	Time     uint64
	Payload  []byte
}

type beneficiary struct {
	Address thor.Address
	Split   uint64
}
