// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/lottery/builtin/solidity"
	"github.com/vechain/lottery/log"
	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/thor"
)

var (
	logger = log.WithContext("pkg", "token")

	slotBalances    = thor.BytesToBytes32([]byte("token-balances"))
	slotAllowances  = thor.BytesToBytes32([]byte("token-allowances"))
	slotTotalSupply = thor.BytesToBytes32([]byte("token-total-supply"))

	TransferEvent = thor.EventID("Transfer(address,address,uint256)")
	ApprovalEvent = thor.EventID("Approval(address,address,uint256)")
)

func SetLogger(l log.Logger) {
	logger = l
}

// Token is a fungible balance ledger, the value transfer capability the
// staking ledger and reward pools move funds through.
type Token struct {
	sctx        *solidity.Context
	balances    *solidity.Mapping[thor.Address, *big.Int]
	allowances  *solidity.Mapping[thor.Bytes32, *big.Int]
	totalSupply *solidity.Uint256
}

// New create a new instance.
func New(addr thor.Address, state *state.State) *Token {
	sctx := solidity.NewContext(addr, state)
	return &Token{
		sctx:        sctx,
		balances:    solidity.NewMapping[thor.Address, *big.Int](sctx, slotBalances),
		allowances:  solidity.NewMapping[thor.Bytes32, *big.Int](sctx, slotAllowances),
		totalSupply: solidity.NewUint256(sctx, slotTotalSupply),
	}
}

func allowanceKey(owner, spender thor.Address) thor.Bytes32 {
	return thor.Blake2b(owner.Bytes(), spender.Bytes())
}

// Address returns the token contract address.
func (t *Token) Address() thor.Address {
	return t.sctx.Address()
}

// BalanceOf returns the balance of addr.
func (t *Token) BalanceOf(addr thor.Address) (*big.Int, error) {
	bal, err := t.balances.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	return bal, nil
}

// TotalSupply returns the amount minted so far.
func (t *Token) TotalSupply() (*big.Int, error) {
	return t.totalSupply.Get()
}

// Allowance returns how much spender may still move on behalf of owner.
func (t *Token) Allowance(owner, spender thor.Address) (*big.Int, error) {
	v, err := t.allowances.Get(allowanceKey(owner, spender))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get allowance")
	}
	return v, nil
}

// Mint credits amount to addr out of thin air. Only genesis and tests use it.
func (t *Token) Mint(to thor.Address, amount *big.Int) error {
	bal, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := t.balances.Set(to, bal.Add(bal, amount)); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	if err := t.totalSupply.Add(amount); err != nil {
		return err
	}
	return t.sctx.Emit(TransferEvent, []thor.Bytes32{solidity.AddressTopic(thor.Address{}), solidity.AddressTopic(to)}, amount)
}

// Approve sets the allowance of spender over the tokens of owner.
func (t *Token) Approve(owner, spender thor.Address, amount *big.Int) error {
	if err := t.allowances.Set(allowanceKey(owner, spender), new(big.Int).Set(amount)); err != nil {
		return errors.Wrap(err, "failed to set allowance")
	}
	return t.sctx.Emit(ApprovalEvent, []thor.Bytes32{solidity.AddressTopic(owner), solidity.AddressTopic(spender)}, amount)
}

// Transfer moves amount from `from` to `to`. It returns false, leaving
// state untouched, when the balance is insufficient.
func (t *Token) Transfer(from, to thor.Address, amount *big.Int) (bool, error) {
	if amount.Sign() < 0 {
		return false, nil
	}
	fromBal, err := t.BalanceOf(from)
	if err != nil {
		return false, err
	}
	if fromBal.Cmp(amount) < 0 {
		logger.Debug("transfer rejected", "from", from, "amount", amount, "balance", fromBal)
		return false, nil
	}
	if err := t.balances.Set(from, fromBal.Sub(fromBal, amount)); err != nil {
		return false, errors.Wrap(err, "failed to set balance")
	}
	toBal, err := t.BalanceOf(to)
	if err != nil {
		return false, err
	}
	if err := t.balances.Set(to, toBal.Add(toBal, amount)); err != nil {
		return false, errors.Wrap(err, "failed to set balance")
	}
	if err := t.sctx.Emit(TransferEvent, []thor.Bytes32{solidity.AddressTopic(from), solidity.AddressTopic(to)}, amount); err != nil {
		return false, err
	}
	return true, nil
}

// TransferFrom moves amount from `from` to `to`, spending the allowance granted to spender.
func (t *Token) TransferFrom(spender, from, to thor.Address, amount *big.Int) (bool, error) {
	allowance, err := t.Allowance(from, spender)
	if err != nil {
		return false, err
	}
	if allowance.Cmp(amount) < 0 {
		logger.Debug("transferFrom rejected", "spender", spender, "from", from, "amount", amount, "allowance", allowance)
		return false, nil
	}
	ok, err := t.Transfer(from, to, amount)
	if err != nil || !ok {
		return ok, err
	}
	if err := t.allowances.Set(allowanceKey(from, spender), allowance.Sub(allowance, amount)); err != nil {
		return false, errors.Wrap(err, "failed to set allowance")
	}
	return true, nil
}
