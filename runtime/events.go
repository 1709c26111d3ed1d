// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"

	"github.com/gravity-chain/epochcore/builtin/randomness"
	"github.com/gravity-chain/epochcore/builtin/validators"
	"github.com/gravity-chain/epochcore/gravity"
)

// Event names.
const (
	EventTransitionStarted       = "TransitionStarted"
	EventDKGSessionStarted       = "DKGSessionStarted"
	EventDKGSessionFinished      = "DKGSessionFinished"
	EventDKGSessionCleared       = "DKGSessionCleared"
	EventEpochTransitioned       = "EpochTransitioned"
	EventEvictionSkipped         = "EvictionSkipped"
	EventPoolCreated             = "PoolCreated"
	EventStakeAdded              = "StakeAdded"
	EventWithdrawalRequested     = "WithdrawalRequested"
	EventWithdrawalClaimed       = "WithdrawalClaimed"
	EventLockupRenewed           = "LockupRenewed"
	EventUnstaked                = "Unstaked"
	EventValidatorRegistered     = "ValidatorRegistered"
	EventValidatorJoinRequested  = "ValidatorJoinRequested"
	EventValidatorLeaveRequested = "ValidatorLeaveRequested"
	EventConsensusKeyRotated     = "ConsensusKeyRotated"
	EventFeeRecipientUpdated     = "FeeRecipientUpdated"
	EventRandomnessConfigUpdated = "RandomnessConfigUpdated"
	EventParamUpdated            = "ParamUpdated"
)

type TransitionStarted struct {
	Epoch     uint64 `json:"epoch"`
	NextEpoch uint64 `json:"nextEpoch"`
}

type DKGSessionStarted struct {
	Epoch   uint64                     `json:"epoch"`
	Config  *randomness.Config         `json:"config"`
	Dealers []validators.ConsensusInfo `json:"dealers"`
	Targets []validators.ConsensusInfo `json:"targets"`
}

type DKGSessionFinished struct {
	Epoch          uint64          `json:"epoch"`
	TranscriptHash gravity.Bytes32 `json:"transcriptHash"`
	TranscriptSize int             `json:"transcriptSize"`
}

type DKGSessionCleared struct {
	Epoch     uint64 `json:"epoch"`
	StartTime uint64 `json:"startTime"`
}

type EpochTransitioned struct {
	NewEpoch         uint64                     `json:"newEpoch"`
	Validators       []validators.ConsensusInfo `json:"validators"`
	TotalVotingPower uint64                     `json:"totalVotingPower"`
	Time             uint64                     `json:"time"`
	Activated        []gravity.Address          `json:"activated,omitempty"`
	Deactivated      []gravity.Address          `json:"deactivated,omitempty"`
	Evicted          []gravity.Address          `json:"evicted,omitempty"`
	Forced           bool                       `json:"forced"`
}

type EvictionSkipped struct {
	Expected uint64 `json:"expected"`
	Got      uint64 `json:"got"`
}

type PoolCreated struct {
	Pool        gravity.Address `json:"pool"`
	Owner       gravity.Address `json:"owner"`
	Operator    gravity.Address `json:"operator"`
	Staker      gravity.Address `json:"staker"`
	Amount      uint64          `json:"amount"`
	LockedUntil uint64          `json:"lockedUntil"`
}

type StakeAdded struct {
	Pool   gravity.Address `json:"pool"`
	Amount uint64          `json:"amount"`
}

type WithdrawalRequested struct {
	Pool   gravity.Address `json:"pool"`
	Nonce  uint64          `json:"nonce"`
	Amount uint64          `json:"amount"`
}

type WithdrawalClaimed struct {
	Pool      gravity.Address `json:"pool"`
	Nonce     uint64          `json:"nonce"`
	Amount    uint64          `json:"amount"`
	Recipient gravity.Address `json:"recipient"`
}

type LockupRenewed struct {
	Pool        gravity.Address `json:"pool"`
	LockedUntil uint64          `json:"lockedUntil"`
}

type Unstaked struct {
	Pool      gravity.Address `json:"pool"`
	Amount    uint64          `json:"amount"`
	Recipient gravity.Address `json:"recipient"`
}

type ValidatorEvent struct {
	Pool    gravity.Address `json:"pool"`
	Moniker string          `json:"moniker,omitempty"`
	Forced  bool            `json:"forced,omitempty"`
}

type FeeRecipientUpdated struct {
	Pool      gravity.Address `json:"pool"`
	Recipient gravity.Address `json:"recipient"`
}

type ParamUpdated struct {
	Store gravity.Address `json:"store"`
	Key   gravity.Bytes32 `json:"key"`
	Value *big.Int        `json:"value"`
}
