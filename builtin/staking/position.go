// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"sort"

	"github.com/gravity-chain/epochcore/gravity"
)

// Pool is the identity of a staking pool.
type Pool struct {
	Owner     gravity.Address
	Operator  gravity.Address
	Staker    gravity.Address
	CreatedAt uint64
}

// PendingBucket is one queued withdrawal. Cumulative is the prefix sum of
// bucket amounts up to and including this one.
type PendingBucket struct {
	Nonce         uint64
	Amount        uint64
	ClaimableTime uint64
	Cumulative    uint64
}

// Position is the bonded stake of a pool. Buckets are kept sorted by ClaimableTime.
type Position struct {
	Stake       uint64
	LockedUntil uint64
	Buckets     []PendingBucket
	NextNonce   uint64
}

// Pending returns the sum of all outstanding withdrawal requests.
func (p *Position) Pending() uint64 {
	if len(p.Buckets) == 0 {
		return 0
	}
	return p.Buckets[len(p.Buckets)-1].Cumulative
}

// Available returns the stake not yet requested for withdrawal.
func (p *Position) Available() uint64 {
	return p.Stake - p.Pending()
}

// VotingPower returns the effective stake at atTime. Nothing counts once the
// lockup has expired; otherwise buckets whose remaining lock is shorter than
// minLockup are excluded.
func (p *Position) VotingPower(atTime, minLockup uint64) uint64 {
	if p.LockedUntil <= atTime {
		return 0
	}
	return p.Stake - p.insufficientlyLocked(atTime, minLockup)
}

// insufficientlyLocked sums buckets that can no longer be trusted to stay
// staked for minLockup after atTime. Buckets are sorted, so the split point
// is found by binary search and the sum read off the prefix sums.
func (p *Position) insufficientlyLocked(atTime, minLockup uint64) uint64 {
	split := sort.Search(len(p.Buckets), func(i int) bool {
		return remaining(p.Buckets[i].ClaimableTime, atTime) >= minLockup
	})
	if split == 0 {
		return 0
	}
	return p.Buckets[split-1].Cumulative
}

func remaining(until, at uint64) uint64 {
	if until <= at {
		return 0
	}
	return until - at
}

// insertBucket places a new bucket after every bucket with the same or an
// earlier claimable time and returns its nonce.
func (p *Position) insertBucket(amount, claimableTime uint64) uint64 {
	nonce := p.NextNonce
	p.NextNonce++

	i := sort.Search(len(p.Buckets), func(i int) bool {
		return p.Buckets[i].ClaimableTime > claimableTime
	})
	p.Buckets = append(p.Buckets, PendingBucket{})
	copy(p.Buckets[i+1:], p.Buckets[i:])
	p.Buckets[i] = PendingBucket{Nonce: nonce, Amount: amount, ClaimableTime: claimableTime}
	p.reindex(i)
	return nonce
}

// findBucket returns the index of the bucket with nonce, -1 if absent.
func (p *Position) findBucket(nonce uint64) int {
	for i := range p.Buckets {
		if p.Buckets[i].Nonce == nonce {
			return i
		}
	}
	return -1
}

func (p *Position) removeBucket(i int) PendingBucket {
	b := p.Buckets[i]
	p.Buckets = append(p.Buckets[:i], p.Buckets[i+1:]...)
	p.reindex(i)
	return b
}

// reindex recomputes prefix sums from index i on.
func (p *Position) reindex(i int) {
	var sum uint64
	if i > 0 {
		sum = p.Buckets[i-1].Cumulative
	}
	for ; i < len(p.Buckets); i++ {
		sum += p.Buckets[i].Amount
		p.Buckets[i].Cumulative = sum
	}
}

// Copy returns a deep copy.
func (p *Position) Copy() *Position {
	cpy := *p
	cpy.Buckets = append([]PendingBucket(nil), p.Buckets...)
	return &cpy
}
