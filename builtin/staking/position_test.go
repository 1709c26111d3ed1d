// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertBucketOrdering(t *testing.T) {
	pos := &Position{Stake: 100, LockedUntil: 50}
	n0 := pos.insertBucket(10, 30)
	n1 := pos.insertBucket(20, 10)
	n2 := pos.insertBucket(5, 30)

	require.Len(t, pos.Buckets, 3)
	assert.Equal(t, []uint64{n1, n0, n2}, []uint64{pos.Buckets[0].Nonce, pos.Buckets[1].Nonce, pos.Buckets[2].Nonce})
	assert.Equal(t, []uint64{20, 30, 35}, []uint64{pos.Buckets[0].Cumulative, pos.Buckets[1].Cumulative, pos.Buckets[2].Cumulative})

	b := pos.removeBucket(pos.findBucket(n0))
	assert.Equal(t, uint64(10), b.Amount)
	assert.Equal(t, uint64(25), pos.Pending())
	assert.Equal(t, -1, pos.findBucket(n0))
}

func TestInsufficientlyLockedMatchesLinearScan(t *testing.T) {
	f := fuzz.New().NilChance(0)

	for i := 0; i < 200; i++ {
		var (
			amounts []uint16
			times   []uint16
			at      uint16
			lockup  uint16
		)
		f.Fuzz(&amounts)
		f.Fuzz(&times)
		f.Fuzz(&at)
		f.Fuzz(&lockup)

		pos := &Position{}
		for j := 0; j < len(amounts) && j < len(times) && j < 100; j++ {
			pos.insertBucket(uint64(amounts[j]), uint64(times[j]))
			pos.Stake += uint64(amounts[j])
		}

		var want uint64
		for _, b := range pos.Buckets {
			if remaining(b.ClaimableTime, uint64(at)) < uint64(lockup) {
				want += b.Amount
			}
		}
		assert.Equal(t, want, pos.insufficientlyLocked(uint64(at), uint64(lockup)))
	}
}
