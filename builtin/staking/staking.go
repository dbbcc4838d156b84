// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/lottery/builtin/reverts"
	"github.com/vechain/lottery/builtin/solidity"
	"github.com/vechain/lottery/builtin/token"
	"github.com/vechain/lottery/log"
	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/thor"
)

var (
	logger = log.WithContext("pkg", "staking")

	slotToken            = thor.BytesToBytes32([]byte("staking-token"))
	slotMaturationPeriod = thor.BytesToBytes32([]byte("staking-maturation-period"))
	slotReleasePeriod    = thor.BytesToBytes32([]byte("staking-release-period"))
	slotAccounts         = thor.BytesToBytes32([]byte("staking-accounts"))

	StakeEvent    = thor.EventID("Stake(address,uint256,uint256)")
	UnstakeEvent  = thor.EventID("Unstake(address,uint256,uint256)")
	WithdrawEvent = thor.EventID("Withdraw(address,uint256)")
)

func SetLogger(l log.Logger) {
	logger = l
}

// Staking implements the staking ledger. Deposits mature before they count
// as weight, and unstaked capital is locked for a release period before it
// can be withdrawn.
type Staking struct {
	sctx             *solidity.Context
	tokenAddr        *solidity.Address
	maturationPeriod *solidity.Uint256
	releasePeriod    *solidity.Uint256
	accounts         *solidity.Mapping[thor.Address, *account]
}

// New create a new instance.
func New(addr thor.Address, state *state.State) *Staking {
	sctx := solidity.NewContext(addr, state)
	return &Staking{
		sctx:             sctx,
		tokenAddr:        solidity.NewAddress(sctx, slotToken),
		maturationPeriod: solidity.NewUint256(sctx, slotMaturationPeriod),
		releasePeriod:    solidity.NewUint256(sctx, slotReleasePeriod),
		accounts:         solidity.NewMapping[thor.Address, *account](sctx, slotAccounts),
	}
}

// Address returns the ledger address, which also holds the deposited tokens.
func (s *Staking) Address() thor.Address {
	return s.sctx.Address()
}

// Initialize binds the ledger to its token and sets the waiting periods in seconds.
func (s *Staking) Initialize(tokenAddr thor.Address, maturationPeriod, releasePeriod uint64) error {
	current, err := s.tokenAddr.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return errors.New("staking already initialized")
	}
	if tokenAddr.IsZero() {
		return errors.New("zero token address")
	}
	s.tokenAddr.Set(tokenAddr)
	s.maturationPeriod.Set(new(big.Int).SetUint64(maturationPeriod))
	s.releasePeriod.Set(new(big.Int).SetUint64(releasePeriod))
	logger.Info("staking initialized", "address", s.Address(), "token", tokenAddr, "maturation", maturationPeriod, "release", releasePeriod)
	return nil
}

func (s *Staking) token() (*token.Token, error) {
	addr, err := s.tokenAddr.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get token")
	}
	return token.New(addr, s.sctx.State()), nil
}

// MaturationPeriod returns seconds a deposit waits before counting as stake.
func (s *Staking) MaturationPeriod() (uint64, error) {
	v, err := s.maturationPeriod.Get()
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

// ReleasePeriod returns seconds unstaked capital waits before withdrawal.
func (s *Staking) ReleasePeriod() (uint64, error) {
	v, err := s.releasePeriod.Get()
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

func (s *Staking) getAccount(user thor.Address, now uint64) (*account, error) {
	acc, err := s.accounts.Get(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}
	return acc.normalize().settle(now), nil
}

func (s *Staking) setAccount(user thor.Address, acc *account) error {
	if acc.IsEmpty() {
		s.accounts.Delete(user)
		return nil
	}
	if err := s.accounts.Set(user, acc); err != nil {
		return errors.Wrap(err, "failed to set account")
	}
	return nil
}

// Stake deposits amount. Capital still releasing is reused first, the rest
// is pulled from the caller through the token allowance of the ledger.
func (s *Staking) Stake(caller thor.Address, amount *big.Int, now uint64) error {
	logger.Debug("staking", "user", caller, "amount", amount)
	if err := s.stake(caller, amount, now); err != nil {
		logger.Info("stake failed", "user", caller, "error", err)
		return err
	}
	logger.Info("staked", "user", caller, "amount", amount)
	return nil
}

func (s *Staking) stake(caller thor.Address, amount *big.Int, now uint64) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.ErrInvalidAmount
	}
	acc, err := s.getAccount(caller, now)
	if err != nil {
		return err
	}

	rest := new(big.Int).Set(amount)
	if acc.ReleasingAmount.Cmp(rest) >= 0 {
		acc.ReleasingAmount.Sub(acc.ReleasingAmount, rest)
		rest.SetUint64(0)
	} else {
		rest.Sub(rest, acc.ReleasingAmount)
		acc.ReleasingAmount.SetUint64(0)
	}

	if rest.Sign() > 0 {
		tk, err := s.token()
		if err != nil {
			return err
		}
		ok, err := tk.TransferFrom(s.Address(), caller, s.Address(), rest)
		if err != nil {
			return err
		}
		if !ok {
			return reverts.Wrap(reverts.ErrInsufficientFunds, "token transfer rejected")
		}
	}

	period, err := s.MaturationPeriod()
	if err != nil {
		return err
	}
	acc.MaturingAmount.Add(acc.MaturingAmount, amount)
	acc.MaturingDeadline = now + period
	if err := s.setAccount(caller, acc); err != nil {
		return err
	}
	return s.sctx.Emit(StakeEvent, []thor.Bytes32{solidity.AddressTopic(caller)}, acc.MaturingAmount, acc.MaturingDeadline)
}

// Unstake moves amount into the releasing bucket, taking still maturing
// capital before staked capital.
func (s *Staking) Unstake(caller thor.Address, amount *big.Int, now uint64) error {
	logger.Debug("unstaking", "user", caller, "amount", amount)
	if err := s.unstake(caller, amount, now); err != nil {
		logger.Info("unstake failed", "user", caller, "error", err)
		return err
	}
	logger.Info("unstaked", "user", caller, "amount", amount)
	return nil
}

func (s *Staking) unstake(caller thor.Address, amount *big.Int, now uint64) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.ErrInvalidAmount
	}
	acc, err := s.getAccount(caller, now)
	if err != nil {
		return err
	}
	available := new(big.Int).Add(acc.MaturingAmount, acc.StakedAmount)
	if available.Cmp(amount) < 0 {
		return reverts.Wrap(reverts.ErrInsufficientBalance, "unstake exceeds maturing and staked balance")
	}

	if acc.MaturingAmount.Cmp(amount) >= 0 {
		acc.MaturingAmount.Sub(acc.MaturingAmount, amount)
	} else {
		fromStaked := new(big.Int).Sub(amount, acc.MaturingAmount)
		acc.MaturingAmount.SetUint64(0)
		acc.StakedAmount.Sub(acc.StakedAmount, fromStaked)
	}

	period, err := s.ReleasePeriod()
	if err != nil {
		return err
	}
	acc.ReleasingAmount.Add(acc.ReleasingAmount, amount)
	acc.ReleasingDeadline = now + period
	if err := s.setAccount(caller, acc); err != nil {
		return err
	}
	return s.sctx.Emit(UnstakeEvent, []thor.Bytes32{solidity.AddressTopic(caller)}, acc.ReleasingAmount, acc.ReleasingDeadline)
}

// Withdraw transfers released capital back to the caller.
func (s *Staking) Withdraw(caller thor.Address, amount *big.Int, now uint64) error {
	logger.Debug("withdrawing", "user", caller, "amount", amount)
	if err := s.withdraw(caller, amount, now); err != nil {
		logger.Info("withdraw failed", "user", caller, "error", err)
		return err
	}
	logger.Info("withdrew", "user", caller, "amount", amount)
	return nil
}

func (s *Staking) withdraw(caller thor.Address, amount *big.Int, now uint64) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.ErrInvalidAmount
	}
	acc, err := s.getAccount(caller, now)
	if err != nil {
		return err
	}
	if now < acc.ReleasingDeadline {
		return reverts.Wrap(reverts.ErrReleaseNotReady, "release period not over")
	}
	if acc.ReleasingAmount.Cmp(amount) < 0 {
		return reverts.Wrap(reverts.ErrReleaseNotReady, "amount exceeds released balance")
	}

	acc.ReleasingAmount.Sub(acc.ReleasingAmount, amount)
	if err := s.setAccount(caller, acc); err != nil {
		return err
	}
	tk, err := s.token()
	if err != nil {
		return err
	}
	ok, err := tk.Transfer(s.Address(), caller, amount)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("ledger token balance short of releasing amount")
	}
	return s.sctx.Emit(WithdrawEvent, []thor.Bytes32{solidity.AddressTopic(caller)}, amount)
}

// GetStakedBalance returns the weight of user at now.
func (s *Staking) GetStakedBalance(user thor.Address, now uint64) (*big.Int, error) {
	acc, err := s.getAccount(user, now)
	if err != nil {
		return nil, err
	}
	return acc.StakedAmount, nil
}

// GetMaturingBalance returns capital not yet matured at now.
func (s *Staking) GetMaturingBalance(user thor.Address, now uint64) (*big.Int, error) {
	acc, err := s.getAccount(user, now)
	if err != nil {
		return nil, err
	}
	return acc.MaturingAmount, nil
}

// GetReleasingBalance returns capital unstaked and not yet withdrawn.
func (s *Staking) GetReleasingBalance(user thor.Address, now uint64) (*big.Int, error) {
	acc, err := s.getAccount(user, now)
	if err != nil {
		return nil, err
	}
	return acc.ReleasingAmount, nil
}

func (s *Staking) GetMaturingTimestamp(user thor.Address, now uint64) (uint64, error) {
	acc, err := s.getAccount(user, now)
	if err != nil {
		return 0, err
	}
	return acc.MaturingDeadline, nil
}

func (s *Staking) GetReleasingTimestamp(user thor.Address, now uint64) (uint64, error) {
	acc, err := s.getAccount(user, now)
	if err != nil {
		return 0, err
	}
	return acc.ReleasingDeadline, nil
}
