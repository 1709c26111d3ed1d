// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"github.com/gravity-chain/epochcore/builtin/staking"
	"github.com/gravity-chain/epochcore/gravity"
)

type Bucket struct {
	Nonce         uint64 `json:"nonce"`
	Amount        uint64 `json:"amount"`
	ClaimableTime uint64 `json:"claimableTime"`
}

type Pool struct {
	Address     gravity.Address `json:"address"`
	Owner       gravity.Address `json:"owner"`
	Operator    gravity.Address `json:"operator"`
	Staker      gravity.Address `json:"staker"`
	CreatedAt   uint64          `json:"createdAt"`
	Stake       uint64          `json:"stake"`
	Pending     uint64          `json:"pending"`
	Available   uint64          `json:"available"`
	LockedUntil uint64          `json:"lockedUntil"`
	VotingPower uint64          `json:"votingPower"`
	Withdrawals []Bucket        `json:"withdrawals"`
}

type VotingPower struct {
	Pool        gravity.Address `json:"pool"`
	At          uint64          `json:"at"`
	VotingPower uint64          `json:"votingPower"`
}

func convertPool(addr gravity.Address, p *staking.Pool, pos *staking.Position, vp uint64) *Pool {
	res := &Pool{
		Address:     addr,
		Owner:       p.Owner,
		Operator:    p.Operator,
		Staker:      p.Staker,
		CreatedAt:   p.CreatedAt,
		Stake:       pos.Stake,
		Pending:     pos.Pending(),
		Available:   pos.Available(),
		LockedUntil: pos.LockedUntil,
		VotingPower: vp,
		Withdrawals: make([]Bucket, 0, len(pos.Buckets)),
	}
	for _, b := range pos.Buckets {
		res.Withdrawals = append(res.Withdrawals, Bucket{Nonce: b.Nonce, Amount: b.Amount, ClaimableTime: b.ClaimableTime})
	}
	return res
}
