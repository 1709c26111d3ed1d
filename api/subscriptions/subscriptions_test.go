// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravity-chain/epochcore/logdb"
	"github.com/gravity-chain/epochcore/runtime"
	"github.com/gravity-chain/epochcore/xenv"
)

// racingSource commits a transition while the subscriber is registering.
type racingSource struct {
	feed        event.Feed
	onSubscribe func()
}

func (s *racingSource) SubscribeEpochs(ch chan<- *runtime.EpochTransitioned) event.Subscription {
	sub := s.feed.Subscribe(ch)
	if s.onSubscribe != nil {
		s.onSubscribe()
	}
	return sub
}

func storeTransition(t *testing.T, db *logdb.LogDB, epoch uint64) *runtime.EpochTransitioned {
	done := &runtime.EpochTransitioned{NewEpoch: epoch, TotalVotingPower: 100}
	w, err := db.NewWriter(epoch)
	require.NoError(t, err)
	w.Write(&xenv.Event{
		Name:        runtime.EventEpochTransitioned,
		Epoch:       epoch,
		BlockNumber: epoch,
		Data:        done,
	})
	require.NoError(t, w.Commit())
	return done
}

func newTestServer(t *testing.T, src EpochSource, db *logdb.LogDB) *httptest.Server {
	subs := New(src, db, []string{"*"}, 10)
	router := mux.NewRouter()
	subs.Mount(router, "/subscriptions")
	ts := httptest.NewServer(router)
	t.Cleanup(func() {
		subs.Close()
		ts.Close()
	})
	return ts
}

func TestSubscribeEpochsBacktrace(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	storeTransition(t, db, 1)

	src := &racingSource{}
	src.onSubscribe = func() {
		// committed and published after registration, before the backlog read
		done := storeTransition(t, db, 2)
		src.feed.Send(done)
	}
	ts := newTestServer(t, src, db)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/subscriptions/epochs?since=0"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	read := func() *EpochMessage {
		var msg EpochMessage
		require.NoError(t, conn.ReadJSON(&msg))
		require.NotNil(t, msg.Transition)
		return &msg
	}

	for _, epoch := range []uint64{1, 2} {
		msg := read()
		assert.True(t, msg.Backtrace)
		assert.Equal(t, epoch, msg.Transition.NewEpoch)
		assert.NotEmpty(t, msg.Subscription)
	}

	// the live copy of epoch 2 is skipped
	src.feed.Send(&runtime.EpochTransitioned{NewEpoch: 3})
	msg := read()
	assert.False(t, msg.Backtrace)
	assert.Equal(t, uint64(3), msg.Transition.NewEpoch)
}

func TestSubscribeEpochsBadSince(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	src := &racingSource{}
	ts := newTestServer(t, src, db)

	resp, err := http.Get(ts.URL + "/subscriptions/epochs?since=x")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// no subscription leaked
	assert.Equal(t, 0, src.feed.Send(&runtime.EpochTransitioned{NewEpoch: 1}))
}
