// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// ErrRevert is a protocol level failure. The code is stable and meant for
// tooling to branch on, the message is for humans.
type ErrRevert struct {
	code    string
	message string
}

// New creates a revert sentinel.
func New(code, message string) *ErrRevert {
	return &ErrRevert{
		code:    code,
		message: message,
	}
}

// Wrap returns a revert with the code of sentinel and extra detail in the message.
func Wrap(sentinel *ErrRevert, detail string) *ErrRevert {
	return &ErrRevert{
		code:    sentinel.code,
		message: sentinel.message + ": " + detail,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Code returns the stable reason code.
func (e *ErrRevert) Code() string {
	return e.code
}

// Is matches any revert carrying the same code.
func (e *ErrRevert) Is(target error) bool {
	var t *ErrRevert
	if errors.As(target, &t) {
		return t.code == e.code
	}
	return false
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// CodeOf returns the revert code carried by err, or "" for non reverts.
func CodeOf(err error) string {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.code
	}
	return ""
}

var (
	ErrInvalidAmount       = New("InvalidAmount", "invalid amount")
	ErrInsufficientBalance = New("InsufficientBalance", "insufficient balance")
	ErrInsufficientFunds   = New("InsufficientFunds", "insufficient funds")
	ErrReleaseNotReady     = New("ReleaseNotReady", "release not ready")
	ErrNoStake             = New("NoStake", "no stake")
	ErrNotEligible         = New("NotEligible", "not eligible")
	ErrUnauthorized        = New("Unauthorized", "unauthorized")
	ErrInstanceInactive    = New("InstanceInactive", "instance inactive")
	ErrDuplicateRewardPool = New("DuplicateRewardPool", "reward pool already in use")
	ErrSplitTooLarge       = New("SplitTooLarge", "split larger than 10000 basis points")
	ErrIntervalTooSmall    = New("IntervalTooSmall", "target interval too small")
	ErrRewardPoolNotEmpty  = New("RewardPoolNotEmpty", "reward pool not empty")
	ErrZeroReward          = New("ZeroReward", "current reward has to be greater than zero")
	ErrAlreadyRewarded     = New("AlreadyRewarded", "block already rewarded")
	ErrInvalidBlock        = New("InvalidBlock", "invalid block")
	ErrInvalidParent       = New("InvalidParent", "invalid parent")
	ErrInvalidVariant      = New("InvalidVariant", "operation not supported by instance variant")
	ErrSeedExpired         = New("SeedExpired", "selection seed unavailable")
)
