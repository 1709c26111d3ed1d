// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"github.com/pkg/errors"

	"github.com/gravity-chain/epochcore/builtin/solidity"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/state"
)

var (
	slotRecords              = gravity.BytesToBytes32([]byte("validators"))
	slotRegistered           = gravity.BytesToBytes32([]byte("registered"))
	slotActive               = gravity.BytesToBytes32([]byte("active"))
	slotActiveIndex          = gravity.BytesToBytes32([]byte("active-index"))
	slotPendingActive        = gravity.BytesToBytes32([]byte("pending-active"))
	slotPubkeys              = gravity.BytesToBytes32([]byte("pubkeys"))
	slotTotalVotingPower     = gravity.BytesToBytes32([]byte("total-voting-power"))
	slotPendingPowerIncrease = gravity.BytesToBytes32([]byte("pending-power-increase"))
	slotPerformance          = gravity.BytesToBytes32([]byte("performance"))
)

// Repository is the storage layout of the registry. The active array and the
// activeIndex table are only written together.
type Repository struct {
	records       *solidity.Mapping[gravity.Address, *Validator]
	registered    *solidity.Array[gravity.Address]
	active        *solidity.Array[gravity.Address]
	activeIndex   *solidity.Mapping[gravity.Address, uint64] // index + 1, 0 when absent
	pendingActive *solidity.Array[gravity.Address]
	pubkeys       *solidity.Mapping[gravity.Bytes32, gravity.Address]
	performance   *solidity.Array[Performance]

	totalVotingPower     *solidity.Uint64
	pendingPowerIncrease *solidity.Uint64
}

func NewRepository(addr gravity.Address, state *state.State) *Repository {
	ctx := solidity.NewContext(addr, state)
	return &Repository{
		records:              solidity.NewMapping[gravity.Address, *Validator](ctx, slotRecords),
		registered:           solidity.NewArray[gravity.Address](ctx, slotRegistered),
		active:               solidity.NewArray[gravity.Address](ctx, slotActive),
		activeIndex:          solidity.NewMapping[gravity.Address, uint64](ctx, slotActiveIndex),
		pendingActive:        solidity.NewArray[gravity.Address](ctx, slotPendingActive),
		pubkeys:              solidity.NewMapping[gravity.Bytes32, gravity.Address](ctx, slotPubkeys),
		performance:          solidity.NewArray[Performance](ctx, slotPerformance),
		totalVotingPower:     solidity.NewUint64(ctx, slotTotalVotingPower),
		pendingPowerIncrease: solidity.NewUint64(ctx, slotPendingPowerIncrease),
	}
}

// getValidator returns nil if the pool never registered.
func (r *Repository) getValidator(pool gravity.Address) (*Validator, error) {
	v, err := r.records.Get(pool)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get validator")
	}
	if v.IsEmpty() {
		return nil, nil
	}
	return v, nil
}

func (r *Repository) setValidator(v *Validator) error {
	if err := r.records.Set(v.Pool, v); err != nil {
		return errors.Wrap(err, "failed to set validator")
	}
	return nil
}

func (r *Repository) addValidator(v *Validator) error {
	if err := r.setValidator(v); err != nil {
		return err
	}
	if _, err := r.registered.Push(v.Pool); err != nil {
		return errors.Wrap(err, "failed to list validator")
	}
	return nil
}

func pubkeyHash(pubkey []byte) gravity.Bytes32 {
	return gravity.Blake2b(pubkey)
}

// keyOwner returns the pool holding pubkey, zero if the key is free.
func (r *Repository) keyOwner(pubkey []byte) (gravity.Address, error) {
	owner, err := r.pubkeys.Get(pubkeyHash(pubkey))
	if err != nil {
		return gravity.Address{}, errors.Wrap(err, "failed to get pubkey owner")
	}
	return owner, nil
}

func (r *Repository) reserveKey(pubkey []byte, pool gravity.Address) error {
	if err := r.pubkeys.Set(pubkeyHash(pubkey), pool); err != nil {
		return errors.Wrap(err, "failed to reserve pubkey")
	}
	return nil
}

func (r *Repository) releaseKey(pubkey []byte) {
	if len(pubkey) > 0 {
		r.pubkeys.Delete(pubkeyHash(pubkey))
	}
}

func (r *Repository) activeLen() (uint64, error) {
	n, err := r.active.Len()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get active length")
	}
	return n, nil
}

func (r *Repository) activePools() ([]gravity.Address, error) {
	pools, err := r.active.All()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get active array")
	}
	return pools, nil
}

// indexOf returns the active slot of pool.
func (r *Repository) indexOf(pool gravity.Address) (uint64, bool, error) {
	i, err := r.activeIndex.Get(pool)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to get active index")
	}
	if i == 0 {
		return 0, false, nil
	}
	return i - 1, true, nil
}

// setActive rewrites the active array and its index table in one go.
func (r *Repository) setActive(old, pools []gravity.Address) error {
	for _, p := range old {
		r.activeIndex.Delete(p)
	}
	if err := r.active.Truncate(0); err != nil {
		return errors.Wrap(err, "failed to truncate active array")
	}
	for i, p := range pools {
		if _, err := r.active.Push(p); err != nil {
			return errors.Wrap(err, "failed to push active validator")
		}
		if err := r.activeIndex.Set(p, uint64(i)+1); err != nil {
			return errors.Wrap(err, "failed to set active index")
		}
	}
	return nil
}

func (r *Repository) pendingActivePools() ([]gravity.Address, error) {
	pools, err := r.pendingActive.All()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pending active list")
	}
	return pools, nil
}

func (r *Repository) setPendingActive(pools []gravity.Address) error {
	if err := r.pendingActive.Truncate(0); err != nil {
		return errors.Wrap(err, "failed to truncate pending active list")
	}
	for _, p := range pools {
		if _, err := r.pendingActive.Push(p); err != nil {
			return errors.Wrap(err, "failed to push pending active")
		}
	}
	return nil
}

func (r *Repository) removePendingActive(pool gravity.Address) error {
	pools, err := r.pendingActivePools()
	if err != nil {
		return err
	}
	kept := pools[:0]
	for _, p := range pools {
		if p != pool {
			kept = append(kept, p)
		}
	}
	return r.setPendingActive(kept)
}

// resetPerformance sizes the tracker to n zeroed entries.
func (r *Repository) resetPerformance(n uint64) error {
	if err := r.performance.Truncate(0); err != nil {
		return errors.Wrap(err, "failed to truncate performance")
	}
	for i := uint64(0); i < n; i++ {
		if _, err := r.performance.Push(Performance{}); err != nil {
			return errors.Wrap(err, "failed to push performance")
		}
	}
	return nil
}
