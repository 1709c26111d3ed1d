// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gravity

import (
	"math/big"
	"time"
)

// Time values are expressed in microseconds throughout the chain.
const (
	Microsecond uint64 = 1
	Millisecond        = 1000 * Microsecond
	Second             = 1000 * Millisecond
	Minute             = 60 * Second
	Hour               = 60 * Minute
	Day                = 24 * Hour
	Year               = 365 * Day
)

// Micros converts a time.Duration into microseconds.
func Micros(d time.Duration) uint64 {
	return uint64(d / time.Microsecond)
}

// Constants of the epoch lifecycle.
const (
	MaxPendingBuckets  = 100 // max outstanding withdrawal requests per pool
	MaxMonikerLength   = 31
	ConsensusPubkeyLen = 48 // bls12-381 G1 compressed

	// Fixed-point denominator used by the randomness thresholds (2^64).
	ThresholdScaleBits = 64
)

// Keys of governance params.
var (
	KeyEpochInterval               = BytesToBytes32([]byte("epoch-interval"))
	KeyMinimumBond                 = BytesToBytes32([]byte("minimum-bond"))
	KeyMaximumBond                 = BytesToBytes32([]byte("maximum-bond"))
	KeyVotingPowerIncreaseLimitPct = BytesToBytes32([]byte("vp-increase-limit-pct"))
	KeyMaxValidatorSetSize         = BytesToBytes32([]byte("max-validator-set-size"))
	KeyAllowValidatorSetChange     = BytesToBytes32([]byte("allow-set-change"))
	KeyAutoEvictEnabled            = BytesToBytes32([]byte("auto-evict-enabled"))
	KeyAutoEvictThreshold          = BytesToBytes32([]byte("auto-evict-threshold"))
	KeyValidatorUnbondingDelay     = BytesToBytes32([]byte("validator-unbonding"))
	KeyMinimumStake                = BytesToBytes32([]byte("minimum-stake"))
	KeyLockupDuration              = BytesToBytes32([]byte("lockup-duration"))
	KeyMaxLockupDuration           = BytesToBytes32([]byte("max-lockup-duration"))
	KeyStakingUnbondingDelay       = BytesToBytes32([]byte("staking-unbonding"))
	KeyMinimumProposalStake        = BytesToBytes32([]byte("min-proposal-stake"))
	KeyMajorVersion                = BytesToBytes32([]byte("major-version"))
)

// Initial values of governance params.
var (
	InitialEpochInterval               = new(big.Int).SetUint64(2 * Hour)
	InitialMinimumBond                 = big.NewInt(1)
	InitialMaximumBond                 = new(big.Int).SetUint64(1e12)
	InitialVotingPowerIncreaseLimitPct = big.NewInt(20)
	InitialMaxValidatorSetSize         = big.NewInt(100)
	InitialAllowValidatorSetChange     = big.NewInt(1)
	InitialAutoEvictEnabled            = big.NewInt(0)
	InitialAutoEvictThreshold          = big.NewInt(50) // percent of successful proposals
	InitialValidatorUnbondingDelay     = new(big.Int).SetUint64(7 * Day)
	InitialMinimumStake                = big.NewInt(1)
	InitialLockupDuration              = new(big.Int).SetUint64(14 * Day)
	InitialMaxLockupDuration           = new(big.Int).SetUint64(4 * Year)
	InitialStakingUnbondingDelay       = new(big.Int).SetUint64(7 * Day)
	InitialMinimumProposalStake        = big.NewInt(1)
	InitialMajorVersion                = big.NewInt(1)
)
