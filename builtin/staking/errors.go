// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "github.com/gravity-chain/epochcore/builtin/reverts"

var (
	ErrReconfigurationInProgress = reverts.New(reverts.Timing, "reconfiguration in progress")

	ErrPoolNotFound  = reverts.New(reverts.Capability, "pool not found")
	ErrNotPoolStaker = reverts.New(reverts.Capability, "caller is not the pool staker")

	ErrZeroAmount                 = reverts.New(reverts.Stake, "amount must be positive")
	ErrInsufficientStake          = reverts.New(reverts.Stake, "insufficient stake")
	ErrInsufficientBalance        = reverts.New(reverts.Stake, "insufficient balance")
	ErrInsufficientAvailableStake = reverts.New(reverts.Stake, "insufficient available stake")
	ErrStakeOverflow              = reverts.New(reverts.Stake, "stake overflow")
	ErrLockupTooShort             = reverts.New(reverts.Stake, "lockup shorter than minimum")
	ErrLockupNotExpired           = reverts.New(reverts.Stake, "lockup not expired")
	ErrExcessiveLockupDuration    = reverts.New(reverts.Stake, "excessive lockup duration")
	ErrLockupOverflow             = reverts.New(reverts.Stake, "lockup overflow")
	ErrTooManyPendingBuckets      = reverts.New(reverts.Stake, "too many pending withdrawal buckets")
	ErrWithdrawalNotFound         = reverts.New(reverts.Stake, "withdrawal not found")
	ErrWithdrawalNotClaimable     = reverts.New(reverts.Stake, "withdrawal not claimable yet")

	ErrLockedUntilDecreased = reverts.New(reverts.Invariant, "lockedUntil decreased")
)
