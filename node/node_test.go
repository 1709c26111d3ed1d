// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravity-chain/epochcore/builtin"
	"github.com/gravity-chain/epochcore/genesis"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/logdb"
	"github.com/gravity-chain/epochcore/lvldb"
	"github.com/gravity-chain/epochcore/runtime"
	"github.com/gravity-chain/epochcore/state"
)

var launch = time.Unix(1_700_000_000, 0)

func newTestNode(t *testing.T, dkgDelay uint64) *Node {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { logDB.Close() })

	stater := state.NewStater(db, 0)
	g := genesis.NewDevnet(uint64(launch.UnixMicro()), gravity.Hour)
	_, err = g.Build(stater)
	require.NoError(t, err)

	rt, err := runtime.New(stater, g.Governance(), nil)
	require.NoError(t, err)
	return New(rt, logDB, Options{BlockInterval: time.Second, DKGDelay: dkgDelay})
}

func currentEpoch(t *testing.T, n *Node) uint64 {
	var epoch uint64
	require.NoError(t, n.Runtime().View(func(c *builtin.Contracts) (err error) {
		epoch, err = c.Reconfig.CurrentEpoch()
		return err
	}))
	return epoch
}

func TestProduceBlocksThroughEpoch(t *testing.T) {
	n := newTestNode(t, 2)

	epochs := make(chan *runtime.EpochTransitioned, 1)
	sub := n.SubscribeEpochs(epochs)
	defer sub.Unsubscribe()

	blk, err := n.ProduceBlock(launch.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), blk.Context.Number)
	assert.Empty(t, blk.Events)
	assert.False(t, blk.Root.IsZero())

	// the epoch is due: transition starts, dkg stays open for two blocks
	at := launch.Add(time.Hour)
	blk, err = n.ProduceBlock(at)
	require.NoError(t, err)
	assert.Len(t, blk.Events, 2)
	assert.Equal(t, uint64(0), currentEpoch(t, n))

	blk, err = n.ProduceBlock(at.Add(time.Second))
	require.NoError(t, err)
	assert.Empty(t, blk.Events)

	blk, err = n.ProduceBlock(at.Add(2 * time.Second))
	require.NoError(t, err)
	require.NotEmpty(t, blk.Events)
	assert.Equal(t, runtime.EventEpochTransitioned, blk.Events[len(blk.Events)-1].Name)
	assert.Equal(t, uint64(1), currentEpoch(t, n))

	select {
	case done := <-epochs:
		assert.Equal(t, uint64(1), done.NewEpoch)
		assert.Len(t, done.Validators, 4)
	case <-time.After(time.Second):
		t.Fatal("no epoch notification")
	}

	stored, err := n.logDB.FilterEvents(context.Background(), &logdb.EventFilter{Names: []string{runtime.EventEpochTransitioned}})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, uint32(4), stored[0].BlockNumber)
	assert.Equal(t, uint64(1), stored[0].Epoch)
}

func TestBlockTimeIsMonotonic(t *testing.T) {
	n := newTestNode(t, 0)

	first, err := n.ProduceBlock(launch.Add(time.Second))
	require.NoError(t, err)
	// a wall clock going backwards still yields increasing block times
	second, err := n.ProduceBlock(launch)
	require.NoError(t, err)
	assert.Equal(t, first.Context.Time+1, second.Context.Time)
	assert.NotEqual(t, first.Context.Proposer, second.Context.Proposer)
}

func TestImmediateDKG(t *testing.T) {
	n := newTestNode(t, 0)

	blk, err := n.ProduceBlock(launch.Add(time.Hour))
	require.NoError(t, err)
	names := make([]string, 0, len(blk.Events))
	for _, ev := range blk.Events {
		names = append(names, ev.Name)
	}
	assert.Equal(t, []string{
		runtime.EventTransitionStarted,
		runtime.EventDKGSessionStarted,
		runtime.EventDKGSessionFinished,
		runtime.EventEpochTransitioned,
	}, names)
	assert.Equal(t, uint64(1), currentEpoch(t, n))
}
