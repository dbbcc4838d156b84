// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/lottery/block"
	"github.com/vechain/lottery/log"
	"github.com/vechain/lottery/thor"
)

const insertEventQuery = "INSERT OR REPLACE INTO event(seq, blockID, blockTime, address, topic0, topic1, topic2, topic3, topic4, data) VALUES(?,?,?,?,?,?,?,?,?,?)"

var logger = log.WithContext("pkg", "logdb")

// SetLogger sets the package logger.
func SetLogger(l log.Logger) {
	logger = l
}

// LogDB stores emitted events in sqlite and serves filtered queries.
type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	stmtCache     *stmtCache
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	return open(path, path+"?_journal_mode=WAL&_busy_timeout=5000", 0)
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	// each connection owns a distinct in-memory database
	return open(":memory:", ":memory:", 1)
}

func open(path, dsn string, maxConns int) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxConns)
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	logger.Debug("log db opened", "path", path, "sqlite", driverVer)
	return &LogDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		stmtCache:     newStmtCache(db),
	}, nil
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// DriverVersion returns the version of the linked sqlite library.
func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// Write stores the events emitted in the given block, in emission order.
func (db *LogDB) Write(header *block.Header, events thor.Events) (err error) {
	start := time.Now()
	defer func() {
		if err == nil {
			metricWriteDuration().Observe(time.Since(start).Milliseconds())
		}
	}()

	if len(events) > math.MaxInt32 {
		return errors.New("too many events in block")
	}
	stmt, err := db.stmtCache.Prepare(insertEventQuery)
	if err != nil {
		return err
	}

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	txStmt := tx.Stmt(stmt)
	for i, ev := range events {
		e := newEvent(header, uint32(i), ev)
		if _, err := txStmt.Exec(
			newSequence(e.BlockNumber, e.Index),
			e.BlockID.Bytes(),
			e.BlockTime,
			e.Address.Bytes(),
			topicValue(e.Topics[0]),
			topicValue(e.Topics[1]),
			topicValue(e.Topics[2]),
			topicValue(e.Topics[3]),
			topicValue(e.Topics[4]),
			e.Data,
		); err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "insert event")
		}
	}
	return tx.Commit()
}

// Truncate deletes events of blocks after blockNum (included).
func (db *LogDB) Truncate(blockNum uint32) error {
	_, err := db.db.Exec("DELETE FROM event WHERE seq >= ?", newSequence(blockNum, 0))
	return err
}

// NewestBlockNumber returns the number of the newest block that has events.
func (db *LogDB) NewestBlockNumber() (uint32, bool, error) {
	var seq sql.NullInt64
	if err := db.db.QueryRow("SELECT MAX(seq) FROM event").Scan(&seq); err != nil {
		return 0, false, err
	}
	if !seq.Valid {
		return 0, false, nil
	}
	return sequence(seq.Int64).BlockNumber(), true, nil
}

// FilterEvents returns events matching the filter. A nil filter returns all events.
func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	const query = "SELECT seq, blockID, blockTime, address, topic0, topic1, topic2, topic3, topic4, data FROM event"
	if filter == nil {
		return db.queryEvents(ctx, query+" ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var (
		args  []any
		where = " WHERE 1"
	)
	if filter.Range != nil {
		if filter.Range.To < filter.Range.From {
			return nil, nil
		}
		where += " AND seq >= ? AND seq <= ?"
		args = append(args, newSequence(filter.Range.From, 0), newSequence(filter.Range.To, math.MaxInt32))
	}

	for i, c := range filter.CriteriaSet {
		if i == 0 {
			where += " AND (( 1"
		} else {
			where += " OR ( 1"
		}
		if c.Address != nil {
			args = append(args, c.Address.Bytes())
			where += " AND address = ?"
		}
		for j, topic := range c.Topics {
			if topic != nil {
				args = append(args, topic.Bytes())
				where += fmt.Sprintf(" AND topic%d = ?", j)
			}
		}
		where += " )"
		if i == len(filter.CriteriaSet)-1 {
			where += ")"
		}
	}

	if filter.Order == DESC {
		where += " ORDER BY seq DESC"
	} else {
		where += " ORDER BY seq ASC"
	}

	if filter.Options != nil {
		where += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, query+where, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, query string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq       int64
			blockID   []byte
			blockTime uint64
			address   []byte
			topics    [5][]byte
			data      []byte
		)
		if err := rows.Scan(
			&seq,
			&blockID,
			&blockTime,
			&address,
			&topics[0],
			&topics[1],
			&topics[2],
			&topics[3],
			&topics[4],
			&data,
		); err != nil {
			return nil, err
		}
		event := &Event{
			BlockID:     thor.BytesToBytes32(blockID),
			BlockNumber: sequence(seq).BlockNumber(),
			BlockTime:   blockTime,
			Index:       sequence(seq).Index(),
			Address:     thor.BytesToAddress(address),
			Data:        data,
		}
		for i, topic := range topics {
			if len(topic) > 0 {
				h := thor.BytesToBytes32(topic)
				event.Topics[i] = &h
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func topicValue(topic *thor.Bytes32) []byte {
	if topic == nil {
		return nil
	}
	return topic.Bytes()
}
