// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package workers

import (
	"github.com/pkg/errors"

	"github.com/vechain/lottery/builtin/reverts"
	"github.com/vechain/lottery/builtin/solidity"
	"github.com/vechain/lottery/log"
	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/thor"
)

var (
	logger = log.WithContext("pkg", "workers")

	slotEntries        = thor.BytesToBytes32([]byte("workers-entries"))
	slotAuthorizations = thor.BytesToBytes32([]byte("workers-authorizations"))

	JobOfferEvent        = thor.EventID("JobOffer(address,address)")
	JobAcceptedEvent     = thor.EventID("JobAccepted(address,address)")
	JobRejectedEvent     = thor.EventID("JobRejected(address,address)")
	RetiredEvent         = thor.EventID("Retired(address,address)")
	AuthorizationEvent   = thor.EventID("Authorization(address,address,bytes32)")
	DeauthorizationEvent = thor.EventID("Deauthorization(address,address,bytes32)")
)

func SetLogger(l log.Logger) {
	logger = l
}

// Workers keeps the (worker, owner, scope) relation. Owners hire workers
// that act on their behalf, and authorize them per scope.
type Workers struct {
	sctx           *solidity.Context
	entries        *solidity.Mapping[thor.Address, *entry]
	authorizations *solidity.Mapping[thor.Bytes32, bool]
}

// New create a new instance.
func New(addr thor.Address, state *state.State) *Workers {
	sctx := solidity.NewContext(addr, state)
	return &Workers{
		sctx:           sctx,
		entries:        solidity.NewMapping[thor.Address, *entry](sctx, slotEntries),
		authorizations: solidity.NewMapping[thor.Bytes32, bool](sctx, slotAuthorizations),
	}
}

// Address returns the contract address.
func (w *Workers) Address() thor.Address {
	return w.sctx.Address()
}

func authKey(owner, worker thor.Address, scope thor.Bytes32) thor.Bytes32 {
	return thor.Blake2b(owner.Bytes(), worker.Bytes(), scope.Bytes())
}

func (w *Workers) getEntry(worker thor.Address) (*entry, error) {
	e, err := w.entries.Get(worker)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get worker")
	}
	return e, nil
}

func (w *Workers) setEntry(worker thor.Address, e *entry) error {
	if e.IsEmpty() {
		w.entries.Delete(worker)
		return nil
	}
	if err := w.entries.Set(worker, e); err != nil {
		return errors.Wrap(err, "failed to set worker")
	}
	return nil
}

func (w *Workers) emit(id thor.Bytes32, owner, worker thor.Address, data ...any) error {
	return w.sctx.Emit(id, []thor.Bytes32{solidity.AddressTopic(owner), solidity.AddressTopic(worker)}, data...)
}

// Hire offers a job to worker. The worker must be free.
func (w *Workers) Hire(owner, worker thor.Address) error {
	logger.Debug("hiring worker", "owner", owner, "worker", worker)
	if owner == worker {
		return reverts.Wrap(reverts.ErrUnauthorized, "cannot hire self")
	}
	e, err := w.getEntry(worker)
	if err != nil {
		return err
	}
	if !e.IsEmpty() {
		logger.Info("hire failed", "owner", owner, "worker", worker, "status", e.Status)
		return reverts.Wrap(reverts.ErrUnauthorized, "worker already "+e.Status.String())
	}
	if err := w.setEntry(worker, &entry{Owner: owner, Status: StatusOffered}); err != nil {
		return err
	}
	return w.emit(JobOfferEvent, owner, worker)
}

// AcceptJob is called by the worker to accept a pending offer.
func (w *Workers) AcceptJob(worker thor.Address) error {
	e, err := w.getEntry(worker)
	if err != nil {
		return err
	}
	if e.Status != StatusOffered {
		return reverts.Wrap(reverts.ErrUnauthorized, "no pending offer")
	}
	e.Status = StatusOwned
	if err := w.setEntry(worker, e); err != nil {
		return err
	}
	logger.Info("job accepted", "owner", e.Owner, "worker", worker)
	return w.emit(JobAcceptedEvent, e.Owner, worker)
}

// RejectJob is called by the worker to decline a pending offer.
func (w *Workers) RejectJob(worker thor.Address) error {
	e, err := w.getEntry(worker)
	if err != nil {
		return err
	}
	if e.Status != StatusOffered {
		return reverts.Wrap(reverts.ErrUnauthorized, "no pending offer")
	}
	if err := w.setEntry(worker, &entry{}); err != nil {
		return err
	}
	return w.emit(JobRejectedEvent, e.Owner, worker)
}

// CancelHire withdraws an offer not yet accepted.
func (w *Workers) CancelHire(owner, worker thor.Address) error {
	e, err := w.getEntry(worker)
	if err != nil {
		return err
	}
	if e.Status != StatusOffered || e.Owner != owner {
		return reverts.Wrap(reverts.ErrUnauthorized, "no offer from owner")
	}
	if err := w.setEntry(worker, &entry{}); err != nil {
		return err
	}
	return w.emit(JobRejectedEvent, owner, worker)
}

// Retire releases an owned worker.
func (w *Workers) Retire(owner, worker thor.Address) error {
	e, err := w.getEntry(worker)
	if err != nil {
		return err
	}
	if e.Status != StatusOwned || e.Owner != owner {
		return reverts.Wrap(reverts.ErrUnauthorized, "worker not owned by caller")
	}
	if err := w.setEntry(worker, &entry{}); err != nil {
		return err
	}
	logger.Info("worker retired", "owner", owner, "worker", worker)
	return w.emit(RetiredEvent, owner, worker)
}

// canManage tells whether owner controls worker: either an accepted hire
// or the owner itself when it was never hired.
func (w *Workers) canManage(owner, worker thor.Address) (bool, error) {
	e, err := w.getEntry(worker)
	if err != nil {
		return false, err
	}
	if e.IsEmpty() {
		return owner == worker, nil
	}
	return e.Status == StatusOwned && e.Owner == owner, nil
}

// Authorize lets worker act for owner within scope.
func (w *Workers) Authorize(owner, worker thor.Address, scope thor.Bytes32) error {
	ok, err := w.canManage(owner, worker)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.Wrap(reverts.ErrUnauthorized, "worker not owned by caller")
	}
	if err := w.authorizations.Set(authKey(owner, worker, scope), true); err != nil {
		return errors.Wrap(err, "failed to set authorization")
	}
	return w.emit(AuthorizationEvent, owner, worker, scope)
}

// Deauthorize revokes a scope previously granted.
func (w *Workers) Deauthorize(owner, worker thor.Address, scope thor.Bytes32) error {
	ok, err := w.canManage(owner, worker)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.Wrap(reverts.ErrUnauthorized, "worker not owned by caller")
	}
	w.authorizations.Delete(authKey(owner, worker, scope))
	return w.emit(DeauthorizationEvent, owner, worker, scope)
}

// GetOwner returns the owner of worker. An address never hired owns itself.
func (w *Workers) GetOwner(worker thor.Address) (thor.Address, error) {
	e, err := w.getEntry(worker)
	if err != nil {
		return thor.Address{}, err
	}
	if e.Status == StatusOwned {
		return e.Owner, nil
	}
	return worker, nil
}

// GetStatus returns the hiring status and the (prospective) owner.
func (w *Workers) GetStatus(worker thor.Address) (Status, thor.Address, error) {
	e, err := w.getEntry(worker)
	if err != nil {
		return StatusNone, thor.Address{}, err
	}
	return e.Status, e.Owner, nil
}

// IsAuthorized reports whether worker may act for its owner within scope.
func (w *Workers) IsAuthorized(worker thor.Address, scope thor.Bytes32) (bool, error) {
	e, err := w.getEntry(worker)
	if err != nil {
		return false, err
	}
	owner := worker
	switch e.Status {
	case StatusOwned:
		owner = e.Owner
	case StatusOffered:
		return false, nil
	}
	ok, err := w.authorizations.Get(authKey(owner, worker, scope))
	if err != nil {
		return false, errors.Wrap(err, "failed to get authorization")
	}
	return ok, nil
}
