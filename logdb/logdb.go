// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/golang/snappy"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/xenv"
)

const (
	selectEvents   = "SELECT seq, blockTime, epoch, name, address, data FROM event"
	newestSeqQuery = "SELECT MAX(seq) FROM event"
	deleteBlock    = "DELETE FROM event WHERE seq >= ? AND seq <= ?"
	insertEvent    = "INSERT INTO event(seq, blockTime, epoch, name, address, data) VALUES(?, ?, ?, ?, ?, ?)"
)

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	stmtCache     *stmtCache
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&cache=shared&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	// in-memory databases are per connection
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		stmtCache:     newStmtCache(db),
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.stmtCache.clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// DriverVersion returns the sqlite library version.
func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// FilterEvents returns the events matching filter.
func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, selectEvents+" ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var (
		args  []any
		conds []string
	)
	if filter.Range != nil {
		switch filter.Range.Unit {
		case Epoch:
			conds = append(conds, "epoch >= ?")
			args = append(args, clampInt64(filter.Range.From))
			if filter.Range.To >= filter.Range.From {
				conds = append(conds, "epoch <= ?")
				args = append(args, clampInt64(filter.Range.To))
			}
		default:
			from, to := blockRange(filter.Range)
			conds = append(conds, "seq >= ?", "seq <= ?")
			args = append(args, from, to)
		}
	}
	if len(filter.Names) > 0 {
		conds = append(conds, "name IN ("+strings.TrimSuffix(strings.Repeat("?,", len(filter.Names)), ",")+")")
		for _, name := range filter.Names {
			args = append(args, name)
		}
	}
	if filter.Address != nil {
		conds = append(conds, "address = ?")
		args = append(args, filter.Address.Bytes())
	}

	stmt := selectEvents
	if len(conds) > 0 {
		stmt += " WHERE " + strings.Join(conds, " AND ")
	}
	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, clampInt64(filter.Options.Offset), clampInt64(filter.Options.Limit))
	}
	return db.queryEvents(ctx, stmt, args...)
}

// sqlite integers are signed
func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

func blockRange(r *Range) (sequence, sequence) {
	from := r.From
	if from > math.MaxUint32 {
		from = math.MaxUint32
	}
	to := r.To
	if to < r.From || to > math.MaxUint32 {
		to = math.MaxUint32
	}
	return newSequence(uint32(from), 0), newSequence(uint32(to), math.MaxInt32)
}

func (db *LogDB) queryEvents(ctx context.Context, query string, args ...any) ([]*Event, error) {
	stmt, err := db.stmtCache.prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query events")
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
			seq       sequence
			blockTime uint64
			epoch     uint64
			name      string
			address   []byte
			data      []byte
		)
		if err := rows.Scan(&seq, &blockTime, &epoch, &name, &address, &data); err != nil {
			return nil, err
		}
		payload, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, errors.Wrapf(err, "decode event %d/%d", seq.BlockNumber(), seq.Index())
		}
		events = append(events, &Event{
			BlockNumber: seq.BlockNumber(),
			Index:       seq.Index(),
			BlockTime:   blockTime,
			Epoch:       epoch,
			Name:        name,
			Address:     gravity.BytesToAddress(address),
			Data:        payload,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// NewestBlockNumber returns the block number of the newest stored event.
func (db *LogDB) NewestBlockNumber() (uint32, error) {
	stmt, err := db.stmtCache.prepare(context.Background(), newestSeqQuery)
	if err != nil {
		return 0, err
	}
	var seq sql.NullInt64
	if err := stmt.QueryRow().Scan(&seq); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return sequence(seq.Int64).BlockNumber(), nil
}

// NewWriter creates a writer collecting the events of one block.
func (db *LogDB) NewWriter(blockNumber uint64) (*Writer, error) {
	if blockNumber > math.MaxUint32 {
		return nil, fmt.Errorf("block number %d out of range", blockNumber)
	}
	return &Writer{db: db, blockNumber: uint32(blockNumber)}, nil
}

// Writer accumulates the events of a single block.
type Writer struct {
	db          *LogDB
	blockNumber uint32
	events      []*xenv.Event
}

// Write appends events. It does not touch the database.
func (w *Writer) Write(events ...*xenv.Event) {
	w.events = append(w.events, events...)
}

// Len returns the number of buffered events.
func (w *Writer) Len() int { return len(w.events) }

// Commit stores the buffered events in one transaction, replacing anything
// stored earlier for the same block.
func (w *Writer) Commit() error {
	ctx := context.Background()
	del, err := w.db.stmtCache.prepare(ctx, deleteBlock)
	if err != nil {
		return err
	}
	ins, err := w.db.stmtCache.prepare(ctx, insertEvent)
	if err != nil {
		return err
	}

	tx, err := w.db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	from := newSequence(w.blockNumber, 0)
	to := newSequence(w.blockNumber, math.MaxInt32)
	if _, err := tx.Stmt(del).Exec(from, to); err != nil {
		_ = tx.Rollback()
		return err
	}
	for i, ev := range w.events {
		payload, err := json.Marshal(ev.Data)
		if err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "encode event %s", ev.Name)
		}
		if _, err := tx.Stmt(ins).Exec(
			newSequence(w.blockNumber, uint32(i)),
			ev.BlockTime,
			ev.Epoch,
			ev.Name,
			ev.Address.Bytes(),
			snappy.Encode(nil, payload),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	metricWrittenEvents().Add(int64(len(w.events)))
	w.events = nil
	return nil
}
