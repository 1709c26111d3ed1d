// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"github.com/pkg/errors"

	"github.com/gravity-chain/epochcore/gravity"
)

// RecordProposal credits proposer with a successful proposal and every index
// in failed with a missed one. Unknown proposers and out-of-range indices are ignored.
func (v *Validators) RecordProposal(proposer gravity.Address, failed []uint64) error {
	n, err := v.repo.performance.Len()
	if err != nil {
		return err
	}
	for _, i := range failed {
		if i >= n {
			logger.Trace("failed proposer index out of range", "index", i, "len", n)
			continue
		}
		perf, err := v.repo.performance.Get(i)
		if err != nil {
			return err
		}
		perf.Failed++
		if err := v.repo.performance.Set(i, perf); err != nil {
			return err
		}
	}
	if proposer == gravity.NilProposer {
		return nil
	}
	i, ok, err := v.repo.indexOf(proposer)
	if err != nil || !ok || i >= n {
		return err
	}
	perf, err := v.repo.performance.Get(i)
	if err != nil {
		return err
	}
	perf.Successful++
	return v.repo.performance.Set(i, perf)
}

// Performance returns the proposal counters of the current epoch, aligned to the active array.
func (v *Validators) Performance() ([]Performance, error) {
	return v.repo.performance.All()
}

// EvictUnderperformers moves ACTIVE validators whose success rate is under
// the threshold to PENDING_INACTIVE, never the last ACTIVE one. A perf slice
// not aligned with the active array skips the pass.
func (v *Validators) EvictUnderperformers(perf []Performance) ([]gravity.Address, *EvictionSkipped, error) {
	enabled, err := v.params.GetBool(gravity.KeyAutoEvictEnabled)
	if err != nil || !enabled {
		return nil, nil, err
	}
	threshold, err := v.params.GetUint64(gravity.KeyAutoEvictThreshold)
	if err != nil {
		return nil, nil, err
	}
	pools, err := v.repo.activePools()
	if err != nil {
		return nil, nil, err
	}
	if len(perf) != len(pools) {
		skipped := &EvictionSkipped{Expected: uint64(len(pools)), Got: uint64(len(perf))}
		metricEvictionSkipped().Add(1)
		logger.Warn("eviction skipped, performance not aligned with active set", "expected", skipped.Expected, "got", skipped.Got)
		return nil, skipped, nil
	}

	records := make([]*Validator, len(pools))
	var active uint64
	for i, p := range pools {
		if records[i], err = v.repo.getValidator(p); err != nil {
			return nil, nil, err
		}
		if records[i] != nil && records[i].Status == StatusActive {
			active++
		}
	}

	var evicted []gravity.Address
	for i, val := range records {
		if val == nil || val.Status != StatusActive {
			continue
		}
		total := perf[i].Total()
		if total == 0 || perf[i].Successful*100/total >= threshold {
			continue
		}
		if active <= 1 {
			logger.Info("keeping last active validator despite low performance", "pool", val.Pool)
			break
		}
		val.Status = StatusPendingInactive
		if err := v.repo.setValidator(val); err != nil {
			return nil, nil, err
		}
		active--
		evicted = append(evicted, val.Pool)
		logger.Info("validator evicted", "pool", val.Pool, "successful", perf[i].Successful, "failed", perf[i].Failed)
	}
	return evicted, nil, nil
}

// ApplyEpoch installs the committee of the next epoch. It only fails on
// storage errors: any inconsistency found in the records is logged and skipped.
func (v *Validators) ApplyEpoch(now uint64) (*EpochResult, error) {
	result := &EpochResult{}

	perf, err := v.repo.performance.All()
	if err != nil {
		return nil, err
	}
	if result.Evicted, result.EvictionSkipped, err = v.EvictUnderperformers(perf); err != nil {
		return nil, err
	}

	minBond, err := v.params.GetUint64(gravity.KeyMinimumBond)
	if err != nil {
		return nil, err
	}
	maxBond, err := v.params.GetUint64(gravity.KeyMaximumBond)
	if err != nil {
		return nil, err
	}
	maxSize, err := v.params.GetUint64(gravity.KeyMaxValidatorSetSize)
	if err != nil {
		return nil, err
	}

	oldActive, err := v.repo.activePools()
	if err != nil {
		return nil, err
	}

	// leavers out, pending changes in
	type candidate struct {
		val  *Validator
		bond uint64
	}
	var (
		survivors   []candidate
		underbonded []candidate
		seen        = make(map[gravity.Address]bool)
	)
	for _, p := range oldActive {
		if seen[p] {
			logger.Error("duplicate entry in active array, skipping", "pool", p)
			continue
		}
		seen[p] = true

		val, err := v.repo.getValidator(p)
		if err != nil {
			return nil, err
		}
		if val == nil {
			logger.Error("active array refers to unknown validator, skipping", "pool", p)
			continue
		}
		if err := v.applyPending(val); err != nil {
			return nil, err
		}
		switch val.Status {
		case StatusPendingInactive:
			val.Status = StatusInactive
			val.Bond = 0
			if err := v.repo.setValidator(val); err != nil {
				return nil, err
			}
			result.Deactivated = append(result.Deactivated, p)
			continue
		case StatusActive:
		default:
			logger.Error("unexpected status in active array, dropping", "pool", p, "status", val.Status)
			continue
		}

		bond, err := v.stake.VotingPower(p, now)
		if err != nil {
			return nil, err
		}
		if bond < minBond {
			underbonded = append(underbonded, candidate{val, bond})
		} else {
			survivors = append(survivors, candidate{val, bond})
		}
	}

	// under-bonded validators go, but never the last one standing
	if len(survivors) == 0 && len(underbonded) > 0 {
		best := 0
		for i, c := range underbonded {
			if c.bond > underbonded[best].bond {
				best = i
			}
		}
		logger.Warn("keeping under-bonded validator as the last active one", "pool", underbonded[best].val.Pool, "bond", underbonded[best].bond)
		survivors = append(survivors, underbonded[best])
		underbonded = append(underbonded[:best], underbonded[best+1:]...)
	}
	for _, c := range underbonded {
		c.val.Status = StatusInactive
		c.val.Bond = 0
		if err := v.repo.setValidator(c.val); err != nil {
			return nil, err
		}
		result.Deactivated = append(result.Deactivated, c.val.Pool)
		logger.Info("validator deactivated, bond under minimum", "pool", c.val.Pool, "bond", c.bond, "minimum", minBond)
	}

	// joiners in
	pending, err := v.repo.pendingActivePools()
	if err != nil {
		return nil, err
	}
	var stillPending []gravity.Address
	for _, p := range pending {
		if seen[p] {
			logger.Error("pending validator already in active array, skipping", "pool", p)
			continue
		}
		val, err := v.repo.getValidator(p)
		if err != nil {
			return nil, err
		}
		if val == nil || val.Status != StatusPendingActive {
			logger.Error("stale pending active entry, skipping", "pool", p)
			continue
		}
		seen[p] = true
		bond, err := v.stake.VotingPower(p, now)
		if err != nil {
			return nil, err
		}
		if bond < minBond {
			val.Status = StatusInactive
			val.Bond = 0
			if err := v.repo.setValidator(val); err != nil {
				return nil, err
			}
			result.Deactivated = append(result.Deactivated, p)
			logger.Info("validator activation dropped, bond under minimum", "pool", p, "bond", bond)
			continue
		}
		if uint64(len(survivors)) >= maxSize {
			stillPending = append(stillPending, p)
			continue
		}
		val.Status = StatusActive
		survivors = append(survivors, candidate{val, bond})
		result.Activated = append(result.Activated, p)
	}

	// contiguous reindex
	pools := make([]gravity.Address, 0, len(survivors))
	for i, c := range survivors {
		c.val.ValidatorIndex = uint64(i)
		c.val.Bond = min(c.bond, maxBond)
		if err := v.repo.setValidator(c.val); err != nil {
			return nil, err
		}
		pools = append(pools, c.val.Pool)
		result.Validators = append(result.Validators, c.val.consensusInfo())
		result.TotalVotingPower += c.val.Bond
	}
	if err := v.repo.setActive(oldActive, pools); err != nil {
		return nil, err
	}
	if err := v.repo.setPendingActive(stillPending); err != nil {
		return nil, err
	}
	if err := v.repo.totalVotingPower.Set(result.TotalVotingPower); err != nil {
		return nil, err
	}
	if err := v.repo.pendingPowerIncrease.Set(0); err != nil {
		return nil, err
	}
	if err := v.repo.resetPerformance(uint64(len(pools))); err != nil {
		return nil, err
	}

	metricActive().Set(int64(len(pools)))
	metricTotalPower().Set(int64(min(result.TotalVotingPower, uint64(1<<63-1))))
	logger.Info("epoch applied",
		"active", len(pools),
		"totalVotingPower", result.TotalVotingPower,
		"activated", len(result.Activated),
		"deactivated", len(result.Deactivated),
		"evicted", len(result.Evicted),
	)
	return result, nil
}

// applyPending installs queued changes and frees the replaced consensus key.
func (v *Validators) applyPending(val *Validator) error {
	if !val.HasPendingFeeRecipient && !val.hasPendingKey() {
		return nil
	}
	if replaced := val.applyPending(); replaced != nil {
		v.repo.releaseKey(replaced)
	}
	if err := v.repo.setValidator(val); err != nil {
		return errors.Wrap(err, "apply pending changes")
	}
	return nil
}

// Bootstrap makes the given registered validators the genesis committee.
func (v *Validators) Bootstrap(now uint64, pools []gravity.Address) (*EpochResult, error) {
	for _, p := range pools {
		val, err := v.repo.getValidator(p)
		if err != nil {
			return nil, err
		}
		if val == nil {
			return nil, ErrValidatorNotFound
		}
		if val.Status != StatusInactive {
			continue
		}
		val.Status = StatusPendingActive
		if err := v.repo.setValidator(val); err != nil {
			return nil, err
		}
		if _, err := v.repo.pendingActive.Push(p); err != nil {
			return nil, err
		}
	}
	return v.ApplyEpoch(now)
}
