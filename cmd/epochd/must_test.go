// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravity-chain/epochcore/builtin"
	"github.com/gravity-chain/epochcore/genesis"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/lvldb"
	"github.com/gravity-chain/epochcore/state"
)

func TestNormalizeCacheSize(t *testing.T) {
	assert.Equal(t, 128, normalizeCacheSize(1))
	assert.GreaterOrEqual(t, normalizeCacheSize(256), 128)
}

func TestInitStateOnce(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	stater := state.NewStater(db, 0)

	launch := uint64(time.Unix(1_700_000_000, 0).UnixMicro())
	require.NoError(t, initState(genesis.NewDevnet(launch, gravity.Hour), stater))

	// a second genesis with another launch time must not overwrite the state
	require.NoError(t, initState(genesis.NewDevnet(launch+gravity.Hour, gravity.Hour), stater))

	now, err := builtin.New(stater.NewState(), nil).Timestamp.NowMicroseconds()
	require.NoError(t, err)
	assert.Equal(t, launch, now)
}

func TestHandleAPITimeout(t *testing.T) {
	var deadline bool
	h := handleAPITimeout(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, deadline = r.Context().Deadline()
	}), time.Second)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/epoch", nil))
	assert.True(t, deadline)

	req := httptest.NewRequest(http.MethodGet, "/subscriptions/epochs", nil)
	req.Header.Set("Upgrade", "websocket")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, deadline)
}

func TestRequestBodyLimit(t *testing.T) {
	var readErr error
	h := requestBodyLimit(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/events", strings.NewReader("{}")))
	assert.NoError(t, readErr)

	big := strings.Repeat("x", 201*1024)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(big)))
	assert.Error(t, readErr)
}
