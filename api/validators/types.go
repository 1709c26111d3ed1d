// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/gravity-chain/epochcore/builtin/validators"
	"github.com/gravity-chain/epochcore/gravity"
)

// ConsensusInfo is a committee member as served by the API.
type ConsensusInfo struct {
	Validator         gravity.Address `json:"validator"`
	ConsensusPubkey   hexutil.Bytes   `json:"consensusPubkey"`
	ConsensusPop      hexutil.Bytes   `json:"consensusPop"`
	VotingPower       uint64          `json:"votingPower"`
	ValidatorIndex    uint64          `json:"validatorIndex"`
	NetworkAddresses  string          `json:"networkAddresses"`
	FullnodeAddresses string          `json:"fullnodeAddresses"`
}

type ValidatorSet struct {
	Epoch            uint64          `json:"epoch"`
	TotalVotingPower uint64          `json:"totalVotingPower"`
	Validators       []ConsensusInfo `json:"validators"`
}

type Validator struct {
	Pool                   gravity.Address   `json:"pool"`
	Moniker                string            `json:"moniker"`
	Status                 validators.Status `json:"status"`
	Bond                   uint64            `json:"bond"`
	VotingPower            uint64            `json:"votingPower"`
	ConsensusPubkey        hexutil.Bytes     `json:"consensusPubkey"`
	ConsensusPop           hexutil.Bytes     `json:"consensusPop"`
	NetworkAddresses       string            `json:"networkAddresses"`
	FullnodeAddresses      string            `json:"fullnodeAddresses"`
	FeeRecipient           gravity.Address   `json:"feeRecipient"`
	ValidatorIndex         *uint64           `json:"validatorIndex,omitempty"`
	RegisteredAt           uint64            `json:"registeredAt"`
	PendingFeeRecipient    *gravity.Address  `json:"pendingFeeRecipient,omitempty"`
	PendingConsensusPubkey hexutil.Bytes     `json:"pendingConsensusPubkey,omitempty"`
}

func convertConsensusInfo(infos []validators.ConsensusInfo) []ConsensusInfo {
	res := make([]ConsensusInfo, 0, len(infos))
	for _, info := range infos {
		res = append(res, ConsensusInfo{
			Validator:         info.Validator,
			ConsensusPubkey:   info.ConsensusPubkey,
			ConsensusPop:      info.ConsensusPop,
			VotingPower:       info.VotingPower,
			ValidatorIndex:    info.ValidatorIndex,
			NetworkAddresses:  string(info.NetworkAddresses),
			FullnodeAddresses: string(info.FullnodeAddresses),
		})
	}
	return res
}

func convertValidator(v *validators.Validator, votingPower uint64) *Validator {
	res := &Validator{
		Pool:                   v.Pool,
		Moniker:                v.Moniker,
		Status:                 v.Status,
		Bond:                   v.Bond,
		VotingPower:            votingPower,
		ConsensusPubkey:        v.ConsensusPubkey,
		ConsensusPop:           v.ConsensusPop,
		NetworkAddresses:       string(v.NetworkAddresses),
		FullnodeAddresses:      string(v.FullnodeAddresses),
		FeeRecipient:           v.FeeRecipient,
		RegisteredAt:           v.RegisteredAt,
		PendingConsensusPubkey: v.PendingConsensusPubkey,
	}
	if v.Status == validators.StatusActive || v.Status == validators.StatusPendingInactive {
		idx := v.ValidatorIndex
		res.ValidatorIndex = &idx
	}
	if v.HasPendingFeeRecipient {
		addr := v.PendingFeeRecipient
		res.PendingFeeRecipient = &addr
	}
	return res
}
