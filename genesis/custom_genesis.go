// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/lottery/pos"
	"github.com/vechain/lottery/thor"
)

// CustomGenesis is user customized genesis
type CustomGenesis struct {
	LaunchTime uint64       `json:"launchTime" yaml:"launchTime"`
	ExtraData  string       `json:"extraData" yaml:"extraData"`
	Admin      thor.Address `json:"admin" yaml:"admin"`
	Accounts   []Account    `json:"accounts" yaml:"accounts"`
	Staking    Staking      `json:"staking" yaml:"staking"`
	Instances  []Instance   `json:"instances" yaml:"instances"`
}

// Account is the account will be funded in the genesis block
type Account struct {
	Address thor.Address     `json:"address" yaml:"address"`
	Balance *HexOrDecimal256 `json:"balance" yaml:"balance"`
}

// Staking is the params of the staking ledger, in seconds.
type Staking struct {
	MaturationPeriod uint64 `json:"maturationPeriod" yaml:"maturationPeriod"`
	ReleasePeriod    uint64 `json:"releasePeriod" yaml:"releasePeriod"`
}

// Instance describes a production lottery deployed at genesis. Its reward
// pool is the builtin pool named Pool, funded with Funding.
type Instance struct {
	Variant             pos.Variant      `json:"variant" yaml:"variant"`
	Pool                string           `json:"pool" yaml:"pool"`
	Funding             *HexOrDecimal256 `json:"funding" yaml:"funding"`
	MinDifficulty       *HexOrDecimal256 `json:"minDifficulty" yaml:"minDifficulty"`
	InitialDifficulty   *HexOrDecimal256 `json:"initialDifficulty" yaml:"initialDifficulty"`
	AdjustmentParameter uint64           `json:"adjustmentParameter" yaml:"adjustmentParameter"`
	TargetInterval      uint64           `json:"targetInterval" yaml:"targetInterval"`
	SelectionDelay      uint32           `json:"selectionDelay" yaml:"selectionDelay"`
	MinReward           *HexOrDecimal256 `json:"minReward" yaml:"minReward"`
	MaxReward           *HexOrDecimal256 `json:"maxReward" yaml:"maxReward"`
	RewardNumerator     *HexOrDecimal256 `json:"rewardNumerator" yaml:"rewardNumerator"`
	RewardDenominator   *HexOrDecimal256 `json:"rewardDenominator" yaml:"rewardDenominator"`
	RewardDelay         uint32           `json:"rewardDelay" yaml:"rewardDelay"`
}

// HexOrDecimal256 marshals big.Int as hex or decimal.
// Copied from go-ethereum/common/math and implement json and text Marshaler
type HexOrDecimal256 math.HexOrDecimal256

// NewHexOrDecimal256 wraps x.
func NewHexOrDecimal256(x *big.Int) *HexOrDecimal256 {
	v := HexOrDecimal256(*new(big.Int).Set(x))
	return &v
}

// Big returns a copy as big.Int. Nil is zero.
func (i *HexOrDecimal256) Big() *big.Int {
	if i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(i))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (i *HexOrDecimal256) UnmarshalJSON(input []byte) error {
	var hex string
	if err := json.Unmarshal(input, &hex); err != nil {
		if err = (*big.Int)(i).UnmarshalJSON(input); err != nil {
			return err
		}
		return nil
	}
	return i.UnmarshalText([]byte(hex))
}

// MarshalJSON implements the json.Marshaler interface.
func (i HexOrDecimal256) MarshalJSON() ([]byte, error) {
	text, err := i.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *HexOrDecimal256) UnmarshalText(input []byte) error {
	bigint, ok := math.ParseBig256(string(input))
	if !ok {
		return fmt.Errorf("invalid hex or decimal integer %q", input)
	}
	*i = HexOrDecimal256(*bigint)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (i HexOrDecimal256) MarshalText() ([]byte, error) {
	decimal256 := math.HexOrDecimal256(i)
	return decimal256.MarshalText()
}
