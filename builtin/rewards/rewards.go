// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/lottery/builtin/reverts"
	"github.com/vechain/lottery/builtin/solidity"
	"github.com/vechain/lottery/builtin/token"
	"github.com/vechain/lottery/log"
	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/thor"
)

var (
	logger = log.WithContext("pkg", "rewards")

	slotRegistry = thor.BytesToBytes32([]byte("rewards-registry"))
	slotToken    = thor.BytesToBytes32([]byte("rewards-token"))
	slotConfig   = thor.BytesToBytes32([]byte("rewards-config"))
	slotRewarded = thor.BytesToBytes32([]byte("rewards-rewarded"))

	RewardedEvent = thor.EventID("Rewarded(uint32,uint32,address,address,uint256,uint256)")

	splitBase = new(big.Int).SetUint64(thor.SplitBase)
)

func SetLogger(l log.Logger) {
	logger = l
}

// Config bounds the reward paid per production. The reward is
// balance*Numerator/Denominator clamped into [MinReward, MaxReward],
// and never more than the balance.
type Config struct {
	MinReward   *big.Int
	MaxReward   *big.Int
	Numerator   *big.Int
	Denominator *big.Int
}

// Validator is implemented by the registry to vouch for delayed claims.
type Validator interface {
	IsValidBlock(index, seq, depth uint32) (bool, thor.Address, error)
	GetBeneficiary(index uint32, owner thor.Address) (thor.Address, uint64, error)
}

// Pool holds the tokens funding one instance and pays them out.
type Pool struct {
	sctx     *solidity.Context
	registry *solidity.Address
	token    *solidity.Address
	rewarded *solidity.Bitmask
}

// New create a new instance.
func New(addr thor.Address, state *state.State) *Pool {
	sctx := solidity.NewContext(addr, state)
	return &Pool{
		sctx:     sctx,
		registry: solidity.NewAddress(sctx, slotRegistry),
		token:    solidity.NewAddress(sctx, slotToken),
		rewarded: solidity.NewBitmask(sctx, slotRewarded),
	}
}

func (p *Pool) Address() thor.Address {
	return p.sctx.Address()
}

// IsInitialized reports whether the pool is bound to a registry.
func (p *Pool) IsInitialized() (bool, error) {
	reg, err := p.registry.Get()
	if err != nil {
		return false, err
	}
	return !reg.IsZero(), nil
}

// Initialize binds the pool to the registry allowed to pay out, and to the token it holds.
func (p *Pool) Initialize(registry, tokenAddr thor.Address, cfg Config) error {
	initialized, err := p.IsInitialized()
	if err != nil {
		return err
	}
	if initialized {
		return reverts.Wrap(reverts.ErrDuplicateRewardPool, p.Address().String())
	}
	cfg = normalize(cfg)
	if cfg.Denominator.Sign() == 0 {
		return reverts.Wrap(reverts.ErrInvalidAmount, "zero reward denominator")
	}
	if cfg.MinReward.Cmp(cfg.MaxReward) > 0 {
		return reverts.Wrap(reverts.ErrInvalidAmount, "min reward above max reward")
	}
	if cfg.MinReward.Sign() < 0 || cfg.Numerator.Sign() < 0 || cfg.Denominator.Sign() < 0 {
		return reverts.Wrap(reverts.ErrInvalidAmount, "negative reward parameter")
	}
	p.registry.Set(registry)
	p.token.Set(tokenAddr)
	return p.sctx.State().EncodeStorage(p.Address(), slotConfig, func() ([]byte, error) {
		return rlp.EncodeToBytes(&cfg)
	})
}

func normalize(cfg Config) Config {
	for _, v := range []**big.Int{&cfg.MinReward, &cfg.MaxReward, &cfg.Numerator, &cfg.Denominator} {
		if *v == nil {
			*v = new(big.Int)
		} else {
			*v = new(big.Int).Set(*v)
		}
	}
	return cfg
}

// Config returns the reward bounds.
func (p *Pool) Config() (Config, error) {
	var cfg Config
	err := p.sctx.State().DecodeStorage(p.Address(), slotConfig, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &cfg)
	})
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to get config")
	}
	return normalize(cfg), nil
}

func (p *Pool) tokenContract() (*token.Token, error) {
	addr, err := p.token.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get token")
	}
	return token.New(addr, p.sctx.State()), nil
}

// Balance returns the tokens left in the pool.
func (p *Pool) Balance() (*big.Int, error) {
	tk, err := p.tokenContract()
	if err != nil {
		return nil, err
	}
	return tk.BalanceOf(p.Address())
}

// GetCurrentReward returns what the next payout would be.
func (p *Pool) GetCurrentReward() (*big.Int, error) {
	cfg, err := p.Config()
	if err != nil {
		return nil, err
	}
	balance, err := p.Balance()
	if err != nil {
		return nil, err
	}
	return currentReward(balance, cfg), nil
}

func currentReward(balance *big.Int, cfg Config) *big.Int {
	if cfg.Denominator.Sign() == 0 {
		return new(big.Int)
	}
	reward := new(big.Int).Mul(balance, cfg.Numerator)
	reward.Quo(reward, cfg.Denominator)
	if reward.Cmp(cfg.MinReward) < 0 {
		reward.Set(cfg.MinReward)
	}
	if reward.Cmp(cfg.MaxReward) > 0 {
		reward.Set(cfg.MaxReward)
	}
	if reward.Cmp(balance) > 0 {
		reward.Set(balance)
	}
	return reward
}

// Split divides amount between owner and beneficiary, split being the
// beneficiary part in basis points.
func Split(amount *big.Int, split uint64) (ownerShare, beneficiaryShare *big.Int) {
	ownerShare = new(big.Int).Mul(amount, new(big.Int).SetUint64(thor.SplitBase-split))
	ownerShare.Quo(ownerShare, splitBase)
	return ownerShare, new(big.Int).Sub(amount, ownerShare)
}

func (p *Pool) onlyRegistry(caller thor.Address) error {
	reg, err := p.registry.Get()
	if err != nil {
		return err
	}
	if reg.IsZero() || caller != reg {
		return reverts.Wrap(reverts.ErrUnauthorized, "only the registry pays rewards")
	}
	return nil
}

// PayReward pays the current reward for production seq of instance index.
func (p *Pool) PayReward(caller thor.Address, index, seq uint32, owner, beneficiary thor.Address, split uint64) (*big.Int, error) {
	if err := p.onlyRegistry(caller); err != nil {
		return nil, err
	}
	if split > thor.SplitBase {
		return nil, reverts.ErrSplitTooLarge
	}
	amount, err := p.GetCurrentReward()
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, reverts.ErrZeroReward
	}
	if err := p.pay(index, seq, owner, beneficiary, split, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

func (p *Pool) pay(index, seq uint32, owner, beneficiary thor.Address, split uint64, amount *big.Int) error {
	tk, err := p.tokenContract()
	if err != nil {
		return err
	}
	ownerShare, beneficiaryShare := Split(amount, split)
	for _, tr := range []struct {
		to     thor.Address
		amount *big.Int
	}{{owner, ownerShare}, {beneficiary, beneficiaryShare}} {
		if tr.amount.Sign() == 0 {
			continue
		}
		ok, err := tk.Transfer(p.Address(), tr.to, tr.amount)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Errorf("pool %v short of %v", p.Address(), tr.amount)
		}
	}
	logger.Debug("rewarded", "index", index, "seq", seq, "owner", owner, "ownerShare", ownerShare, "beneficiaryShare", beneficiaryShare)
	return p.sctx.Emit(RewardedEvent,
		[]thor.Bytes32{thor.Uint32ToBytes32(index), thor.Uint32ToBytes32(seq), solidity.AddressTopic(owner)},
		beneficiary, ownerShare, beneficiaryShare)
}

// Claim pays the delayed rewards of the given productions. Each production
// must be buried depth blocks deep in the auxiliary chain, and is paid once.
func (p *Pool) Claim(caller thor.Address, index uint32, validator Validator, depth uint32, sequences []uint32) (*big.Int, error) {
	if err := p.onlyRegistry(caller); err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, seq := range sequences {
		valid, owner, err := validator.IsValidBlock(index, seq, depth)
		if err != nil {
			return nil, err
		}
		if !valid {
			return nil, reverts.Wrap(reverts.ErrInvalidBlock, "sequence "+strconv.FormatUint(uint64(seq), 10))
		}
		already, err := p.rewarded.MarkAndCheck(seq)
		if err != nil {
			return nil, err
		}
		if already {
			return nil, reverts.Wrap(reverts.ErrAlreadyRewarded, "sequence "+strconv.FormatUint(uint64(seq), 10))
		}
		beneficiary, split, err := validator.GetBeneficiary(index, owner)
		if err != nil {
			return nil, err
		}
		amount, err := p.GetCurrentReward()
		if err != nil {
			return nil, err
		}
		if amount.Sign() == 0 {
			return nil, reverts.ErrZeroReward
		}
		if err := p.pay(index, seq, owner, beneficiary, split, amount); err != nil {
			return nil, err
		}
		total.Add(total, amount)
	}
	return total, nil
}

// IsRewarded reports whether production seq has been paid through Claim.
func (p *Pool) IsRewarded(seq uint32) (bool, error) {
	return p.rewarded.Get(seq)
}
