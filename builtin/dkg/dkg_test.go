// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravity-chain/epochcore/builtin/randomness"
	"github.com/gravity-chain/epochcore/builtin/validators"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/lvldb"
	"github.com/gravity-chain/epochcore/state"
)

func newDKG(t *testing.T) *DKG {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(gravity.DKGAddress, state.New(db, nil))
}

func committee(n int) []validators.ConsensusInfo {
	infos := make([]validators.ConsensusInfo, n)
	for i := range infos {
		infos[i] = validators.ConsensusInfo{
			Validator:       gravity.Address{byte(i + 1)},
			ConsensusPubkey: []byte{byte(i + 1)},
			VotingPower:     10,
			ValidatorIndex:  uint64(i),
		}
	}
	return infos
}

func TestSessionLifecycle(t *testing.T) {
	d := newDKG(t)

	status, err := d.Status()
	require.NoError(t, err)
	assert.Equal(t, StatusNone, status)

	_, err = d.Finish([]byte("transcript"), 1)
	assert.ErrorIs(t, err, ErrDKGNotInProgress)

	cfg := randomness.DefaultConfig()
	started, err := d.Start(1, cfg, committee(2), committee(3), 100)
	require.NoError(t, err)

	_, err = d.Start(1, cfg, committee(2), committee(3), 100)
	assert.ErrorIs(t, err, ErrDKGInProgress)

	cur, err := d.Current()
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, uint64(1), cur.Epoch)
	require.Len(t, cur.Dealers, 2)
	require.Len(t, cur.Targets, 3)
	assert.Equal(t, started.Targets[2].Validator, cur.Targets[2].Validator)
	h1, _ := started.SnapshotHash()
	h2, _ := cur.SnapshotHash()
	assert.Equal(t, h1, h2)
	assert.Equal(t, 0, cur.Config.ReconstructionThreshold.Cmp(cfg.ReconstructionThreshold))

	status, _ = d.Status()
	assert.Equal(t, StatusInProgress, status)

	finished, err := d.Finish([]byte("transcript"), 200)
	require.NoError(t, err)
	assert.Equal(t, []byte("transcript"), finished.Transcript)

	cur, err = d.Current()
	require.NoError(t, err)
	assert.Nil(t, cur)

	last, err := d.LastCompleted()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, StatusComplete, last.Status)
	assert.Equal(t, uint64(2), last.DealerCount)
	assert.Equal(t, uint64(3), last.TargetCount)
	assert.Equal(t, gravity.Blake2b([]byte("transcript")), last.TranscriptHash)
	assert.Equal(t, uint64(100), last.StartTime)
	assert.Equal(t, uint64(200), last.EndTime)

	hash, err := started.SnapshotHash()
	require.NoError(t, err)
	assert.Equal(t, hash, last.SnapshotHash)
}

func TestTryClearIncompleteSession(t *testing.T) {
	d := newDKG(t)

	cleared, err := d.TryClearIncompleteSession(5)
	require.NoError(t, err)
	assert.Nil(t, cleared)

	_, err = d.Start(7, randomness.DefaultConfig(), committee(1), committee(1), 1)
	require.NoError(t, err)

	cleared, err = d.TryClearIncompleteSession(5)
	require.NoError(t, err)
	require.NotNil(t, cleared)
	assert.Equal(t, uint64(7), cleared.Epoch)

	status, _ := d.Status()
	assert.Equal(t, StatusCleared, status)

	// cleared sessions cannot be finished, and a new one may start
	_, err = d.Finish(nil, 6)
	assert.ErrorIs(t, err, ErrDKGNotInProgress)
	_, err = d.Start(7, randomness.DefaultConfig(), committee(1), committee(1), 6)
	require.NoError(t, err)
}
