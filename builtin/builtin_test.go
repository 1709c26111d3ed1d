// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/lvldb"
	"github.com/gravity-chain/epochcore/state"
)

func TestContractsShareState(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	st := state.New(db, nil)
	c := New(st, nil)

	require.NoError(t, c.EpochConfig.Set(gravity.KeyEpochInterval, big.NewInt(42)))
	v, err := EpochConfig.WithState(st).GetUint64(gravity.KeyEpochInterval)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)

	// config stores do not overlap
	v, err = c.StakeConfig.GetUint64(gravity.KeyEpochInterval)
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, c.Reconfig.Initialize(1))
	inProgress, err := Reconfiguration.Gate(st).IsTransitionInProgress()
	require.NoError(t, err)
	assert.False(t, inProgress)

	// unregistered pools carry no bond requirement
	_, active, err := bondGuard{c}.MinimumBondFor(gravity.Address{1})
	require.NoError(t, err)
	assert.False(t, active)
}
