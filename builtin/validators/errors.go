// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import "github.com/gravity-chain/epochcore/builtin/reverts"

var (
	ErrReconfigurationInProgress = reverts.New(reverts.Timing, "reconfiguration in progress")

	ErrNotOperator  = reverts.New(reverts.Capability, "caller is not the pool operator")
	ErrPoolNotFound = reverts.New(reverts.Capability, "pool not found")

	ErrValidatorExists                  = reverts.New(reverts.Validator, "validator already registered")
	ErrValidatorNotFound                = reverts.New(reverts.Validator, "validator not found")
	ErrInvalidMoniker                   = reverts.New(reverts.Validator, "invalid moniker")
	ErrInvalidConsensusPubkey           = reverts.New(reverts.Validator, "invalid consensus public key")
	ErrInvalidConsensusPop              = reverts.New(reverts.Validator, "invalid consensus proof of possession")
	ErrDuplicateConsensusPubkey         = reverts.New(reverts.Validator, "consensus public key already in use")
	ErrValidatorSetChangesDisabled      = reverts.New(reverts.Validator, "validator set changes disabled")
	ErrInvalidStatus                    = reverts.New(reverts.Validator, "invalid validator status")
	ErrInsufficientBond                 = reverts.New(reverts.Validator, "bond below minimum")
	ErrExceedsMaximumBond               = reverts.New(reverts.Validator, "bond above maximum")
	ErrMaxValidatorSetSizeReached       = reverts.New(reverts.Validator, "validator set is full")
	ErrVotingPowerIncreaseLimitExceeded = reverts.New(reverts.Validator, "voting power increase limit exceeded")
	ErrCannotRemoveLastValidator        = reverts.New(reverts.Validator, "cannot remove the last active validator")
)
