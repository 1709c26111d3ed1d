// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epoch

import (
	"github.com/gravity-chain/epochcore/builtin/dkg"
	"github.com/gravity-chain/epochcore/builtin/randomness"
	"github.com/gravity-chain/epochcore/builtin/reconfig"
	"github.com/gravity-chain/epochcore/gravity"
)

type Epoch struct {
	Epoch                   uint64            `json:"epoch"`
	Phase                   reconfig.Phase    `json:"phase"`
	LastReconfigurationTime uint64            `json:"lastReconfigurationTime"`
	TransitionStartedAt     uint64            `json:"transitionStartedAt,omitempty"`
	NextEpochTime           uint64            `json:"nextEpochTime"`
	BlockNumber             uint64            `json:"blockNumber"`
	BlockTime               uint64            `json:"blockTime"`
	ValidatorCount          uint64            `json:"validatorCount"`
	TotalVotingPower        uint64            `json:"totalVotingPower"`
	Randomness              *RandomnessConfig `json:"randomness"`
	PendingRandomness       *RandomnessConfig `json:"pendingRandomness,omitempty"`
}

type RandomnessConfig struct {
	Variant                  string `json:"variant"`
	SecrecyThreshold         string `json:"secrecyThreshold"`
	ReconstructionThreshold  string `json:"reconstructionThreshold"`
	FastPathSecrecyThreshold string `json:"fastPathSecrecyThreshold"`
}

func convertRandomness(cfg *randomness.Config) *RandomnessConfig {
	if cfg == nil {
		return nil
	}
	return &RandomnessConfig{
		Variant:                  cfg.Variant.String(),
		SecrecyThreshold:         cfg.SecrecyThreshold.Dec(),
		ReconstructionThreshold:  cfg.ReconstructionThreshold.Dec(),
		FastPathSecrecyThreshold: cfg.FastPathSecrecyThreshold.Dec(),
	}
}

type Session struct {
	Epoch        uint64          `json:"epoch"`
	Status       dkg.Status      `json:"status"`
	StartTime    uint64          `json:"startTime"`
	DealerCount  int             `json:"dealerCount"`
	TargetCount  int             `json:"targetCount"`
	SnapshotHash gravity.Bytes32 `json:"snapshotHash"`
}

type Completed struct {
	Epoch          uint64          `json:"epoch"`
	Status         dkg.Status      `json:"status"`
	StartTime      uint64          `json:"startTime"`
	EndTime        uint64          `json:"endTime"`
	DealerCount    uint64          `json:"dealerCount"`
	TargetCount    uint64          `json:"targetCount"`
	SnapshotHash   gravity.Bytes32 `json:"snapshotHash"`
	TranscriptHash gravity.Bytes32 `json:"transcriptHash"`
}

type DKG struct {
	Status        dkg.Status `json:"status"`
	Current       *Session   `json:"current"`
	LastCompleted *Completed `json:"lastCompleted"`
}
