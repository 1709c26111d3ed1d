// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStmtCacheReuse(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	filter := &EventFilter{Names: []string{"StakeAdded"}, Options: &Options{Limit: 10}}
	for i := 0; i < 3; i++ {
		_, err := db.FilterEvents(context.Background(), filter)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, db.stmtCache.len())

	// another name count is another query shape
	filter.Names = append(filter.Names, "Unstaked")
	_, err = db.FilterEvents(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 2, db.stmtCache.len())

	db.stmtCache.clear()
	assert.Zero(t, db.stmtCache.len())
}
