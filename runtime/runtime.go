// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"io"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/lottery/block"
	"github.com/vechain/lottery/builtin/reverts"
	"github.com/vechain/lottery/chain"
	"github.com/vechain/lottery/kv"
	"github.com/vechain/lottery/log"
	"github.com/vechain/lottery/logdb"
	"github.com/vechain/lottery/state"
	"github.com/vechain/lottery/thor"
	"github.com/vechain/lottery/xenv"
)

var logger = log.WithContext("pkg", "runtime")

// SetLogger sets the package logger.
func SetLogger(l log.Logger) {
	logger = l
}

// Notification is sent to subscribers after an operation succeeds.
type Notification struct {
	Op     string
	Block  uint32 // number of the pending block
	Events thor.Events
}

// Runtime executes built-in operations against the pending block and mines
// it on top of the repository's best block.
type Runtime struct {
	mu       sync.Mutex
	db       kv.Store
	repo     *chain.Repository
	logDB    *logdb.LogDB
	state    *state.State
	blockCtx xenv.BlockContext

	feed  event.Feed
	scope event.SubscriptionScope
}

// New create a Runtime building the block after the best one of repo.
// logDB can be nil.
func New(db kv.Store, repo *chain.Repository, logDB *logdb.LogDB) *Runtime {
	rt := &Runtime{
		db:    db,
		repo:  repo,
		logDB: logDB,
	}
	rt.reset(repo.BestBlock())
	return rt
}

func (rt *Runtime) reset(best *block.Header) {
	rt.state = state.New(rt.db)
	rt.blockCtx = xenv.BlockContext{
		Number: best.Number() + 1,
		Time:   best.Timestamp() + thor.DefaultBlockInterval,
	}
}

// Repo returns the chain repository.
func (rt *Runtime) Repo() *chain.Repository {
	return rt.repo
}

// BlockContext returns a copy of the pending block context.
func (rt *Runtime) BlockContext() xenv.BlockContext {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.blockCtx
}

// SetTime sets the timestamp of the pending block. It can't go back
// before the best block.
func (rt *Runtime) SetTime(ts uint64) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if best := rt.repo.BestBlock(); ts < best.Timestamp() {
		return errors.Errorf("time %d is before best block time %d", ts, best.Timestamp())
	}
	rt.blockCtx.Time = ts
	return nil
}

// Exec runs fn as one operation named op. All state changes and events made
// by fn are reverted if it returns an error.
func (rt *Runtime) Exec(op string, fn func(env *xenv.Environment) error) error {
	start := time.Now()

	rt.mu.Lock()
	blockCtx := rt.blockCtx
	checkpoint := rt.state.NewCheckpoint()
	before := len(rt.state.Events())

	err := fn(xenv.New(rt.state, rt.repo, &blockCtx))
	var events thor.Events
	if err != nil {
		rt.state.RevertTo(checkpoint)
	} else {
		events = append(events, rt.state.Events()[before:]...)
	}
	rt.mu.Unlock()

	result := "ok"
	switch {
	case err == nil:
	case reverts.IsRevertErr(err):
		result = "reverted"
	default:
		result = "error"
	}
	metricExecCount().AddWithLabel(1, map[string]string{"op": op, "result": result})
	metricExecDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"op": op})

	if err != nil {
		logger.Debug("operation failed", "op", op, "block", blockCtx.Number, "error", err)
		return err
	}
	if len(events) > 0 {
		rt.feed.Send(&Notification{Op: op, Block: blockCtx.Number, Events: events})
	}
	return nil
}

// View runs fn against the pending state and discards all its changes.
func (rt *Runtime) View(fn func(env *xenv.Environment) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	blockCtx := rt.blockCtx
	checkpoint := rt.state.NewCheckpoint()
	defer rt.state.RevertTo(checkpoint)
	return fn(xenv.New(rt.state, rt.repo, &blockCtx))
}

// SubscribeEvents subscribes to events of successful operations.
// The channel should be drained promptly, Exec blocks until it's delivered.
func (rt *Runtime) SubscribeEvents(ch chan<- *Notification) event.Subscription {
	return rt.scope.Track(rt.feed.Subscribe(ch))
}

// Mine seals the pending block: commits storage changes, appends the header
// to the repository and writes its events to the log db.
func (rt *Runtime) Mine() (*block.Header, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	best := rt.repo.BestBlock()
	stage := rt.state.Stage(best.StateRoot())
	events := rt.state.Events()

	header := new(block.Builder).
		ParentID(best.ID()).
		Timestamp(rt.blockCtx.Time).
		StateRoot(stage.Root()).
		EventsRoot(eventsRoot(events)).
		Build()

	batch := rt.db.NewBatch()
	if err := stage.Commit(batch); err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, errors.Wrap(err, "commit state")
	}
	if err := rt.repo.AddBlock(header); err != nil {
		return nil, errors.Wrap(err, "add block")
	}
	if rt.logDB != nil {
		if err := rt.logDB.Write(header, events); err != nil {
			return nil, errors.Wrap(err, "write logs")
		}
	}
	metricMinedEvents().Add(int64(len(events)))
	logger.Debug("block mined", "number", header.Number(), "id", header.ID(), "changes", stage.Len(), "events", len(events))

	rt.reset(header)
	return header, nil
}

// Close unsubscribes all subscribers.
func (rt *Runtime) Close() {
	rt.scope.Close()
}

func eventsRoot(events thor.Events) thor.Bytes32 {
	if len(events) == 0 {
		return thor.Bytes32{}
	}
	return thor.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, events)
	})
}
