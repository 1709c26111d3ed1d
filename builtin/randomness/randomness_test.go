// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package randomness

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/lvldb"
	"github.com/gravity-chain/epochcore/state"
)

func TestFraction(t *testing.T) {
	assert.Equal(t, new(uint256.Int).Lsh(uint256.NewInt(1), 63), Fraction(1, 2))
	assert.Equal(t, One, Fraction(3, 3))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, OffConfig().Validate())

	tests := []struct {
		name string
		cfg  *Config
	}{
		{"zero secrecy", &Config{VariantV2, new(uint256.Int), Fraction(2, 3), Fraction(2, 3)}},
		{"secrecy above reconstruction", &Config{VariantV2, Fraction(3, 4), Fraction(2, 3), Fraction(2, 3)}},
		{"reconstruction above one", &Config{VariantV2, Fraction(1, 2), Fraction(5, 4), Fraction(2, 3)}},
		{"fast path above one", &Config{VariantV2, Fraction(1, 2), Fraction(2, 3), Fraction(3, 2)}},
		{"missing threshold", &Config{VariantV2, Fraction(1, 2), nil, Fraction(2, 3)}},
		{"unknown variant", &Config{Variant(9), Fraction(1, 2), Fraction(2, 3), Fraction(2, 3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestPendingLifecycle(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	r := New(gravity.RandomnessConfigAddress, state.New(db, nil))
	require.NoError(t, r.Initialize(DefaultConfig()))

	applied, err := r.ApplyPending()
	require.NoError(t, err)
	assert.False(t, applied)

	next := DefaultConfig()
	next.SecrecyThreshold = Fraction(3, 5)
	require.NoError(t, r.SetForNextEpoch(next))

	cur, err := r.Current()
	require.NoError(t, err)
	assert.Equal(t, Fraction(1, 2), cur.SecrecyThreshold, "queued config not active yet")

	pending, err := r.Pending()
	require.NoError(t, err)
	assert.Equal(t, Fraction(3, 5), pending.SecrecyThreshold)

	applied, err = r.ApplyPending()
	require.NoError(t, err)
	assert.True(t, applied)

	cur, _ = r.Current()
	assert.Equal(t, Fraction(3, 5), cur.SecrecyThreshold)
	pending, _ = r.Pending()
	assert.Nil(t, pending)

	assert.ErrorIs(t, r.SetForNextEpoch(&Config{Variant: VariantV2}), ErrInvalidConfig)
}
