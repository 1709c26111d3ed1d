// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/logdb"
	"github.com/gravity-chain/epochcore/xenv"
)

type payload struct {
	Pool   gravity.Address `json:"pool"`
	Amount uint64          `json:"amount"`
}

func newEvent(block, epoch uint64, name string, amount uint64) *xenv.Event {
	return &xenv.Event{
		Name:        name,
		Address:     gravity.StakingAddress,
		Epoch:       epoch,
		BlockNumber: block,
		BlockTime:   block * gravity.Second,
		Data:        &payload{Pool: gravity.Address{1}, Amount: amount},
	}
}

// fill writes 10 blocks, two events each; the epoch bumps every 4 blocks.
func fill(t *testing.T, db *logdb.LogDB) {
	for b := uint64(1); b <= 10; b++ {
		w, err := db.NewWriter(b)
		require.NoError(t, err)
		w.Write(newEvent(b, b/4, "StakeAdded", b), newEvent(b, b/4, "Unstaked", b*10))
		require.NoError(t, w.Commit())
	}
}

func TestWriteAndFilter(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	fill(t, db)
	ctx := context.Background()

	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 20)
	assert.Equal(t, uint32(1), all[0].BlockNumber)
	assert.Equal(t, uint32(0), all[0].Index)
	assert.Equal(t, uint32(1), all[1].Index)

	var p payload
	require.NoError(t, json.Unmarshal(all[1].Data, &p))
	assert.Equal(t, uint64(10), p.Amount)
	assert.Equal(t, gravity.Address{1}, p.Pool)

	tests := []struct {
		name   string
		filter *logdb.EventFilter
		want   int
	}{
		{"by name", &logdb.EventFilter{Names: []string{"Unstaked"}}, 10},
		{"by names", &logdb.EventFilter{Names: []string{"Unstaked", "StakeAdded"}}, 20},
		{"unknown name", &logdb.EventFilter{Names: []string{"Nope"}}, 0},
		{"block range", &logdb.EventFilter{Range: &logdb.Range{Unit: logdb.Block, From: 2, To: 4}}, 6},
		{"open block range", &logdb.EventFilter{Range: &logdb.Range{Unit: logdb.Block, From: 9}}, 4},
		{"epoch range", &logdb.EventFilter{Range: &logdb.Range{Unit: logdb.Epoch, From: 1, To: 1}}, 8},
		{"address", &logdb.EventFilter{Address: &gravity.StakingAddress}, 20},
		{"other address", &logdb.EventFilter{Address: &gravity.DKGAddress}, 0},
		{"limit", &logdb.EventFilter{Options: &logdb.Options{Offset: 5, Limit: 3}}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.FilterEvents(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	desc, err := db.FilterEvents(ctx, &logdb.EventFilter{Order: logdb.DESC, Options: &logdb.Options{Limit: 1}})
	require.NoError(t, err)
	require.Len(t, desc, 1)
	assert.Equal(t, uint32(10), desc[0].BlockNumber)
	assert.Equal(t, "Unstaked", desc[0].Name)

	newest, err := db.NewestBlockNumber()
	require.NoError(t, err)
	assert.Equal(t, uint32(10), newest)
}

func TestRewriteBlock(t *testing.T) {
	db, err := logdb.New(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer db.Close()

	newest, err := db.NewestBlockNumber()
	require.NoError(t, err)
	assert.Zero(t, newest)

	fill(t, db)

	w, err := db.NewWriter(5)
	require.NoError(t, err)
	w.Write(newEvent(5, 1, "LockupRenewed", 0))
	assert.Equal(t, 1, w.Len())
	require.NoError(t, w.Commit())

	got, err := db.FilterEvents(context.Background(), &logdb.EventFilter{Range: &logdb.Range{Unit: logdb.Block, From: 5, To: 5}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "LockupRenewed", got[0].Name)
}

func TestCancelledQuery(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	fill(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = db.FilterEvents(ctx, nil)
	assert.Error(t, err)
}
