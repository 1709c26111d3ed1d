// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/node"
	"github.com/gravity-chain/epochcore/runtime"
	"github.com/gravity-chain/epochcore/xenv"
)

func newBlock(number uint64, events ...*xenv.Event) *node.Block {
	return &node.Block{
		Context: xenv.BlockContext{Number: number},
		Root:    gravity.Bytes32{byte(number)},
		Events:  events,
	}
}

func TestHealth_NoBlockYet(t *testing.T) {
	h := New(time.Second, 0)

	status, err := h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.Nil(t, status.BlockProduction.Root)
	assert.Nil(t, status.BlockProduction.Timestamp)
}

func TestHealth_NewBlock(t *testing.T) {
	h := New(time.Second, 0)
	h.NewBlock(newBlock(7))

	status, err := h.Status()
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, uint64(7), status.BlockProduction.Number)
	assert.Equal(t, gravity.Bytes32{7}, *status.BlockProduction.Root)
	assert.WithinDuration(t, time.Now(), *status.BlockProduction.Timestamp, time.Second)
	assert.False(t, status.InTransition)
}

func TestHealth_StaleBlock(t *testing.T) {
	h := New(time.Millisecond, 0)
	h.NewBlock(newBlock(1))
	time.Sleep(10 * time.Millisecond)

	status, err := h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
}

func TestHealth_Transition(t *testing.T) {
	h := New(time.Second, time.Millisecond)
	h.NewBlock(newBlock(1, &xenv.Event{Name: runtime.EventTransitionStarted}))

	status, err := h.Status()
	require.NoError(t, err)
	assert.True(t, status.InTransition)
	require.NotNil(t, status.TransitionSince)

	time.Sleep(10 * time.Millisecond)
	status, err = h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy, "transition open too long")

	h.NewBlock(newBlock(2, &xenv.Event{Name: runtime.EventEpochTransitioned, Epoch: 1}))
	status, err = h.Status()
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.False(t, status.InTransition)
	assert.Nil(t, status.TransitionSince)
	assert.Equal(t, uint64(1), status.Epoch)
}

type feedSource struct{ feed event.Feed }

func (f *feedSource) SubscribeBlocks(ch chan<- *node.Block) event.Subscription {
	return f.feed.Subscribe(ch)
}

func TestHealth_Watch(t *testing.T) {
	h := New(time.Second, 0)
	src := &feedSource{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Watch(ctx, src)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return src.feed.Send(newBlock(3)) > 0
	}, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		status, _ := h.Status()
		return status.BlockProduction.Number == 3
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
