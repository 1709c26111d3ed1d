// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/lvldb"
	"github.com/gravity-chain/epochcore/state"
)

func TestParams(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	p := New(gravity.EpochConfigAddress, state.New(db, nil))

	v, err := p.Get(gravity.KeyEpochInterval)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())

	require.NoError(t, p.Set(gravity.KeyEpochInterval, gravity.InitialEpochInterval))
	u, err := p.GetUint64(gravity.KeyEpochInterval)
	require.NoError(t, err)
	assert.Equal(t, 2*gravity.Hour, u)

	huge := new(big.Int).Lsh(big.NewInt(1), 80)
	require.NoError(t, p.Set(gravity.KeyMaximumBond, huge))
	u, _ = p.GetUint64(gravity.KeyMaximumBond)
	assert.Equal(t, ^uint64(0), u)

	require.NoError(t, p.Set(gravity.KeyAutoEvictEnabled, big.NewInt(1)))
	on, err := p.GetBool(gravity.KeyAutoEvictEnabled)
	require.NoError(t, err)
	assert.True(t, on)

	assert.ErrorIs(t, p.Set(gravity.KeyMinimumBond, big.NewInt(-1)), ErrNegativeValue)
}
