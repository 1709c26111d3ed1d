// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/pkg/errors"
)

// stmtCache keeps prepared statements keyed by query text. Filter queries are
// built from a small set of shapes, so the cache stays small.
type stmtCache struct {
	db *sql.DB
	mu sync.Mutex
	m  map[string]*sql.Stmt
}

func newStmtCache(db *sql.DB) *stmtCache {
	return &stmtCache{db: db, m: make(map[string]*sql.Stmt)}
}

func (sc *stmtCache) prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if stmt, ok := sc.m[query]; ok {
		metricStmtCache().AddWithLabel(1, map[string]string{"result": "hit"})
		return stmt, nil
	}
	stmt, err := sc.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "prepare statement")
	}
	metricStmtCache().AddWithLabel(1, map[string]string{"result": "miss"})
	sc.m[query] = stmt
	return stmt, nil
}

func (sc *stmtCache) len() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.m)
}

func (sc *stmtCache) clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	for query, stmt := range sc.m {
		_ = stmt.Close()
		delete(sc.m, query)
	}
}
