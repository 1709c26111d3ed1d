// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"fmt"

	"github.com/gravity-chain/epochcore/gravity"
)

type Status uint8

const (
	StatusInactive Status = iota
	StatusPendingActive
	StatusActive
	StatusPendingInactive
)

func (s Status) String() string {
	switch s {
	case StatusInactive:
		return "INACTIVE"
	case StatusPendingActive:
		return "PENDING_ACTIVE"
	case StatusActive:
		return "ACTIVE"
	case StatusPendingInactive:
		return "PENDING_INACTIVE"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// MarshalText renders the status name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for v := StatusInactive; v <= StatusPendingInactive; v++ {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown validator status %q", text)
}

// inActiveArray reports whether a validator with this status occupies a slot
// of the active array.
func (s Status) inActiveArray() bool {
	return s == StatusActive || s == StatusPendingInactive
}

// Validator is the registry record of a pool acting as validator. Records are never deleted.
type Validator struct {
	Pool              gravity.Address
	Moniker           string
	Status            Status
	Bond              uint64
	ConsensusPubkey   []byte
	ConsensusPop      []byte
	NetworkAddresses  []byte
	FullnodeAddresses []byte
	FeeRecipient      gravity.Address
	ValidatorIndex    uint64
	RegisteredAt      uint64

	// changes queued until the next epoch while the validator sits in the active array
	PendingFeeRecipient    gravity.Address
	HasPendingFeeRecipient bool
	PendingConsensusPubkey []byte
	PendingConsensusPop    []byte
}

// IsEmpty returns whether the record was never registered.
func (v *Validator) IsEmpty() bool {
	return v.Pool.IsZero() && len(v.ConsensusPubkey) == 0
}

func (v *Validator) hasPendingKey() bool {
	return len(v.PendingConsensusPubkey) > 0
}

// applyPending moves queued key and fee recipient changes into place and
// returns the key it replaced, nil if none.
func (v *Validator) applyPending() (replacedKey []byte) {
	if v.HasPendingFeeRecipient {
		v.FeeRecipient = v.PendingFeeRecipient
		v.PendingFeeRecipient = gravity.Address{}
		v.HasPendingFeeRecipient = false
	}
	if v.hasPendingKey() {
		replacedKey = v.ConsensusPubkey
		v.ConsensusPubkey = v.PendingConsensusPubkey
		v.ConsensusPop = v.PendingConsensusPop
		v.PendingConsensusPubkey = nil
		v.PendingConsensusPop = nil
	}
	return
}

// ConsensusInfo is what the consensus engine needs to know about a committee member.
type ConsensusInfo struct {
	Validator         gravity.Address `json:"validator"`
	ConsensusPubkey   []byte          `json:"consensusPubkey"`
	ConsensusPop      []byte          `json:"consensusPop"`
	VotingPower       uint64          `json:"votingPower"`
	ValidatorIndex    uint64          `json:"validatorIndex"`
	NetworkAddresses  []byte          `json:"networkAddresses"`
	FullnodeAddresses []byte          `json:"fullnodeAddresses"`
}

func (v *Validator) consensusInfo() ConsensusInfo {
	return ConsensusInfo{
		Validator:         v.Pool,
		ConsensusPubkey:   v.ConsensusPubkey,
		ConsensusPop:      v.ConsensusPop,
		VotingPower:       v.Bond,
		ValidatorIndex:    v.ValidatorIndex,
		NetworkAddresses:  v.NetworkAddresses,
		FullnodeAddresses: v.FullnodeAddresses,
	}
}

// Performance counts proposals of the validator holding the same active index.
type Performance struct {
	Successful uint64
	Failed     uint64
}

// Total returns the number of proposal slots observed.
func (p Performance) Total() uint64 {
	return p.Successful + p.Failed
}

// EvictionSkipped is reported when the performance data does not line up with the active array.
type EvictionSkipped struct {
	Expected uint64
	Got      uint64
}

// EpochResult describes the committee produced by an epoch apply.
type EpochResult struct {
	Validators       []ConsensusInfo
	TotalVotingPower uint64
	Evicted          []gravity.Address
	Activated        []gravity.Address
	Deactivated      []gravity.Address
	EvictionSkipped  *EvictionSkipped
}
