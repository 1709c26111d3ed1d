// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/pkg/errors"

	"github.com/gravity-chain/epochcore/builtin/solidity"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/state"
)

var (
	slotPools      = gravity.BytesToBytes32([]byte("pools"))
	slotPositions  = gravity.BytesToBytes32([]byte("positions"))
	slotPoolList   = gravity.BytesToBytes32([]byte("pool-list"))
	slotPoolSeq    = gravity.BytesToBytes32([]byte("pool-seq"))
	slotTotalStake = gravity.BytesToBytes32([]byte("total-stake"))
)

type storage struct {
	pools      *solidity.Mapping[gravity.Address, *Pool]
	positions  *solidity.Mapping[gravity.Address, *Position]
	poolList   *solidity.Array[gravity.Address]
	poolSeq    *solidity.Uint64
	totalStake *solidity.Uint64
}

func newStorage(addr gravity.Address, state *state.State) *storage {
	ctx := solidity.NewContext(addr, state)
	return &storage{
		pools:      solidity.NewMapping[gravity.Address, *Pool](ctx, slotPools),
		positions:  solidity.NewMapping[gravity.Address, *Position](ctx, slotPositions),
		poolList:   solidity.NewArray[gravity.Address](ctx, slotPoolList),
		poolSeq:    solidity.NewUint64(ctx, slotPoolSeq),
		totalStake: solidity.NewUint64(ctx, slotTotalStake),
	}
}

// getPool returns nil when the pool does not exist.
func (s *storage) getPool(addr gravity.Address) (*Pool, error) {
	exists, err := s.pools.Exists(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check pool")
	}
	if !exists {
		return nil, nil
	}
	p, err := s.pools.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool")
	}
	return p, nil
}

func (s *storage) getPosition(addr gravity.Address) (*Position, error) {
	p, err := s.positions.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get position")
	}
	return p, nil
}

func (s *storage) setPosition(addr gravity.Address, pos *Position) error {
	if err := s.positions.Set(addr, pos); err != nil {
		return errors.Wrap(err, "failed to set position")
	}
	return nil
}

// addPool stores a new pool and its initial position.
func (s *storage) addPool(addr gravity.Address, pool *Pool, pos *Position) error {
	if err := s.pools.Set(addr, pool); err != nil {
		return errors.Wrap(err, "failed to set pool")
	}
	if _, err := s.poolList.Push(addr); err != nil {
		return errors.Wrap(err, "failed to list pool")
	}
	return s.setPosition(addr, pos)
}

func (s *storage) nextPoolSeq() (uint64, error) {
	seq, err := s.poolSeq.Add(1)
	if err != nil {
		return 0, errors.Wrap(err, "failed to bump pool sequence")
	}
	return seq, nil
}

func (s *storage) adjustTotalStake(add, sub uint64) error {
	total, err := s.totalStake.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get total stake")
	}
	return s.totalStake.Set(total + add - sub)
}
