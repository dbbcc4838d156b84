// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/lottery/genesis"
	"github.com/vechain/lottery/thor"
)

// Config is the simulation document.
type Config struct {
	Genesis       genesis.CustomGenesis `yaml:"genesis"`
	Producers     []Producer            `yaml:"producers"`
	Ticks         uint32                `yaml:"ticks"`
	BlockInterval uint64                `yaml:"blockInterval"`
}

// Producer stakes at the first block and competes on the listed instances.
// Without a worker the owner produces itself.
type Producer struct {
	Owner       thor.Address             `yaml:"owner"`
	Worker      *thor.Address            `yaml:"worker,omitempty"`
	Stake       *genesis.HexOrDecimal256 `yaml:"stake"`
	Instances   []uint32                 `yaml:"instances"`
	Beneficiary *thor.Address            `yaml:"beneficiary,omitempty"`
	Split       uint64                   `yaml:"split,omitempty"`
}

// producer returns the address that sends productions.
func (p *Producer) producer() thor.Address {
	if p.Worker != nil {
		return *p.Worker
	}
	return p.Owner
}

// DefaultConfig runs the devnet with four producers, one of them through a
// worker and one sharing its rewards.
func DefaultConfig() *Config {
	accs := genesis.DevAccounts()
	stake := func(units int64) *genesis.HexOrDecimal256 {
		return genesis.NewHexOrDecimal256(new(big.Int).Mul(big.NewInt(units), big.NewInt(1e18)))
	}
	worker := accs[9].Address
	beneficiary := accs[8].Address

	return &Config{
		Genesis: *genesis.DevConfig(),
		Producers: []Producer{
			{Owner: accs[1].Address, Stake: stake(1000), Instances: []uint32{0, 1}},
			{Owner: accs[2].Address, Stake: stake(2000), Instances: []uint32{0, 1}},
			{Owner: accs[3].Address, Stake: stake(500), Instances: []uint32{0}, Worker: &worker},
			{Owner: accs[4].Address, Stake: stake(1500), Instances: []uint32{1}, Beneficiary: &beneficiary, Split: 2500},
		},
		Ticks:         2000,
		BlockInterval: thor.DefaultBlockInterval,
	}
}

// LoadConfig reads a yaml document. Missing fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks what the genesis doesn't.
func (c *Config) Validate() error {
	if c.BlockInterval == 0 {
		return errors.New("blockInterval must be positive")
	}
	for i, p := range c.Producers {
		if p.Owner.IsZero() {
			return fmt.Errorf("producer %d: owner must be set", i)
		}
		if p.Stake.Big().Sign() <= 0 {
			return fmt.Errorf("producer %d: stake must be a non-zero integer", i)
		}
		if p.Split > thor.SplitBase {
			return fmt.Errorf("producer %d: split above %d", i, thor.SplitBase)
		}
		for _, idx := range p.Instances {
			if int(idx) >= len(c.Genesis.Instances) {
				return fmt.Errorf("producer %d: unknown instance %d", i, idx)
			}
		}
	}
	return nil
}

// Marshal encodes the config as yaml.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
