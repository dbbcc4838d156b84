// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vechain/lottery/pos"
	"github.com/vechain/lottery/thor"
)

// DevAccount account for development.
type DevAccount struct {
	Address    thor.Address
	PrivateKey *ecdsa.PrivateKey
}

var devAccounts atomic.Value

// DevAccounts returns pre-alloced accounts for the simulator.
func DevAccounts() []DevAccount {
	if accs := devAccounts.Load(); accs != nil {
		return accs.([]DevAccount)
	}

	var accs []DevAccount
	privKeys := []string{
		"dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65",
		"321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51",
		"2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2",
		"593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e",
		"ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058",
		"88d2d80b12b92feaa0da6d62309463d20408157723f2d7e799b6a74ead9a673b",
		"fbb9e7ba5fe9969a71c6599052237b91adeb1e5fc0c96727b66e56ff5d02f9d0",
		"547fb081e73dc2e22b4aae5c60e2970b008ac4fc3073aebc27d41ace9c4f53e9",
		"c8c53657e41a8d669349fc287f57457bd746cb1fcfc38cf94d235deb2cfca81b",
		"87e0eba9c86c494d98353800571089f316740b0cb84c9a7cdf2fe5c9997c7966",
	}
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		addr := crypto.PubkeyToAddress(pk.PublicKey)
		accs = append(accs, DevAccount{thor.Address(addr), pk})
	}
	devAccounts.Store(accs)
	return accs
}

// DevnetLaunchTime is the timestamp of the devnet genesis.
const DevnetLaunchTime = uint64(1526400000) // 'Wed May 16 2018 00:00:00 GMT+0800 (CST)'

func bigFromString(s string) *HexOrDecimal256 {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid number " + s)
	}
	return NewHexOrDecimal256(v)
}

// DevConfig returns the devnet genesis document. Every dev account is funded
// and two instances are deployed, a simple one and a sidechain one.
func DevConfig() *CustomGenesis {
	var accounts []Account
	for _, a := range DevAccounts() {
		accounts = append(accounts, Account{
			Address: a.Address,
			Balance: bigFromString("1000000000000000000000000"),
		})
	}
	instance := func(variant pos.Variant, pool string, delay uint32) Instance {
		return Instance{
			Variant:             variant,
			Pool:                pool,
			Funding:             bigFromString("100000000000000000000000"),
			MinDifficulty:       bigFromString("1000000000000000"),
			InitialDifficulty:   bigFromString("50000000000000000"),
			AdjustmentParameter: 100000,
			TargetInterval:      40,
			SelectionDelay:      1,
			MinReward:           bigFromString("1000000000000000000"),
			MaxReward:           bigFromString("100000000000000000000"),
			RewardNumerator:     bigFromString("1"),
			RewardDenominator:   bigFromString("1000"),
			RewardDelay:         delay,
		}
	}
	return &CustomGenesis{
		LaunchTime: DevnetLaunchTime,
		Admin:      DevAccounts()[0].Address,
		Accounts:   accounts,
		Staking: Staking{
			MaturationPeriod: 60,
			ReleasePeriod:    60,
		},
		Instances: []Instance{
			instance(pos.Simple, "RewardPool.Simple", 0),
			instance(pos.Sidechain, "RewardPool.Sidechain", 6),
		},
	}
}

// NewDevnet create genesis for the simulator.
func NewDevnet() *Genesis {
	gen, err := NewCustomNet(DevConfig())
	if err != nil {
		panic(err)
	}
	gen.name = "devnet"
	return gen
}
