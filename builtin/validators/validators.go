// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"math"
	"math/bits"

	"github.com/gravity-chain/epochcore/builtin/params"
	"github.com/gravity-chain/epochcore/builtin/reverts"
	"github.com/gravity-chain/epochcore/builtin/staking"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/log"
	"github.com/gravity-chain/epochcore/metrics"
	"github.com/gravity-chain/epochcore/state"
)

var (
	logger = log.WithContext("pkg", "validators")

	metricActive          = metrics.LazyLoadGauge("validators_active")
	metricTotalPower      = metrics.LazyLoadGauge("validators_total_voting_power")
	metricEvictionSkipped = metrics.LazyLoadCounter("validators_eviction_skipped_count")
)

// RegisterArgs carries the self-declared data of a new validator.
type RegisterArgs struct {
	Moniker           string
	ConsensusPubkey   []byte
	ConsensusPop      []byte
	NetworkAddresses  []byte
	FullnodeAddresses []byte
	FeeRecipient      gravity.Address
}

// Validators is the validator registry.
type Validators struct {
	repo   *Repository
	params *params.Params
	stake  *staking.Staking
	clock  staking.Clock
	gate   staking.Gate
}

func New(
	addr gravity.Address,
	state *state.State,
	params *params.Params,
	stake *staking.Staking,
	clock staking.Clock,
	gate staking.Gate,
) *Validators {
	return &Validators{
		repo:   NewRepository(addr, state),
		params: params,
		stake:  stake,
		clock:  clock,
		gate:   gate,
	}
}

func (v *Validators) checkGate() error {
	inProgress, err := v.gate.IsTransitionInProgress()
	if err != nil {
		return err
	}
	if inProgress {
		return ErrReconfigurationInProgress
	}
	return nil
}

func validateConsensusKey(pubkey, pop []byte) error {
	if len(pubkey) != gravity.ConsensusPubkeyLen {
		return reverts.Wrap(ErrInvalidConsensusPubkey, "length %d", len(pubkey))
	}
	if len(pop) == 0 {
		return ErrInvalidConsensusPop
	}
	return nil
}

// checkOperator loads the pool and makes sure caller operates it.
func (v *Validators) checkOperator(caller, pool gravity.Address) error {
	p, err := v.stake.GetPool(pool)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrPoolNotFound
	}
	if p.Operator != caller {
		return ErrNotOperator
	}
	return nil
}

// load returns the record of pool after checking caller operates it.
func (v *Validators) load(caller, pool gravity.Address) (*Validator, error) {
	if err := v.checkOperator(caller, pool); err != nil {
		return nil, err
	}
	val, err := v.repo.getValidator(pool)
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrValidatorNotFound
	}
	return val, nil
}

// Register records pool as an INACTIVE validator.
func (v *Validators) Register(caller, pool gravity.Address, args *RegisterArgs) (*Validator, error) {
	if err := v.checkOperator(caller, pool); err != nil {
		return nil, err
	}
	if err := v.checkGate(); err != nil {
		return nil, err
	}
	existing, err := v.repo.getValidator(pool)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrValidatorExists
	}
	if len(args.Moniker) == 0 || len(args.Moniker) > gravity.MaxMonikerLength {
		return nil, reverts.Wrap(ErrInvalidMoniker, "length %d", len(args.Moniker))
	}
	if err := validateConsensusKey(args.ConsensusPubkey, args.ConsensusPop); err != nil {
		return nil, err
	}
	owner, err := v.repo.keyOwner(args.ConsensusPubkey)
	if err != nil {
		return nil, err
	}
	if !owner.IsZero() {
		return nil, ErrDuplicateConsensusPubkey
	}
	now, err := v.clock.NowMicroseconds()
	if err != nil {
		return nil, err
	}

	val := &Validator{
		Pool:              pool,
		Moniker:           args.Moniker,
		Status:            StatusInactive,
		ConsensusPubkey:   args.ConsensusPubkey,
		ConsensusPop:      args.ConsensusPop,
		NetworkAddresses:  args.NetworkAddresses,
		FullnodeAddresses: args.FullnodeAddresses,
		FeeRecipient:      args.FeeRecipient,
		RegisteredAt:      now,
	}
	if err := v.repo.reserveKey(args.ConsensusPubkey, pool); err != nil {
		return nil, err
	}
	if err := v.repo.addValidator(val); err != nil {
		return nil, err
	}
	logger.Debug("validator registered", "pool", pool, "moniker", args.Moniker)
	return val, nil
}

// bondOf is the voting power of pool at the current time.
func (v *Validators) bondOf(pool gravity.Address) (uint64, error) {
	return v.stake.VotingPowerNow(pool)
}

// Join asks for pool to enter the committee at the next epoch.
func (v *Validators) Join(caller, pool gravity.Address) error {
	val, err := v.load(caller, pool)
	if err != nil {
		return err
	}
	if err := v.checkGate(); err != nil {
		return err
	}
	allow, err := v.params.GetBool(gravity.KeyAllowValidatorSetChange)
	if err != nil {
		return err
	}
	if !allow {
		return ErrValidatorSetChangesDisabled
	}
	if val.Status != StatusInactive {
		return reverts.Wrap(ErrInvalidStatus, "status %s", val.Status)
	}

	bond, err := v.bondOf(pool)
	if err != nil {
		return err
	}
	minBond, err := v.params.GetUint64(gravity.KeyMinimumBond)
	if err != nil {
		return err
	}
	maxBond, err := v.params.GetUint64(gravity.KeyMaximumBond)
	if err != nil {
		return err
	}
	if bond < minBond {
		return reverts.Wrap(ErrInsufficientBond, "%d < %d", bond, minBond)
	}
	if bond > maxBond {
		return reverts.Wrap(ErrExceedsMaximumBond, "%d > %d", bond, maxBond)
	}

	maxSize, err := v.params.GetUint64(gravity.KeyMaxValidatorSetSize)
	if err != nil {
		return err
	}
	activeLen, err := v.repo.activeLen()
	if err != nil {
		return err
	}
	pending, err := v.repo.pendingActive.Len()
	if err != nil {
		return err
	}
	if activeLen+pending >= maxSize {
		return ErrMaxValidatorSetSizeReached
	}

	if err := v.checkPowerIncrease(bond); err != nil {
		return err
	}

	val.Status = StatusPendingActive
	val.Bond = bond
	if err := v.repo.setValidator(val); err != nil {
		return err
	}
	if _, err := v.repo.pendingActive.Push(pool); err != nil {
		return err
	}
	if _, err := v.repo.pendingPowerIncrease.Add(bond); err != nil {
		return err
	}
	logger.Debug("validator join requested", "pool", pool, "bond", bond)
	return nil
}

// checkPowerIncrease limits how much voting power may queue up for entry within one epoch.
func (v *Validators) checkPowerIncrease(bond uint64) error {
	total, err := v.repo.totalVotingPower.Get()
	if err != nil {
		return err
	}
	if total == 0 {
		return nil
	}
	pct, err := v.params.GetUint64(gravity.KeyVotingPowerIncreaseLimitPct)
	if err != nil {
		return err
	}
	increase, err := v.repo.pendingPowerIncrease.Get()
	if err != nil {
		return err
	}
	limit := mulDiv(total, pct, 100)
	if increase > math.MaxUint64-bond || increase+bond > limit {
		return reverts.Wrap(ErrVotingPowerIncreaseLimitExceeded, "%d + %d > %d", increase, bond, limit)
	}
	return nil
}

// mulDiv computes a*b/c on a 128-bit product, saturating at MaxUint64.
func mulDiv(a, b, c uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, c)
	return q
}

// Leave asks for pool to leave the committee.
func (v *Validators) Leave(caller, pool gravity.Address) error {
	val, err := v.load(caller, pool)
	if err != nil {
		return err
	}
	return v.leave(val)
}

// ForceLeave removes pool from the committee on behalf of governance.
func (v *Validators) ForceLeave(pool gravity.Address) error {
	val, err := v.repo.getValidator(pool)
	if err != nil {
		return err
	}
	if val == nil {
		return ErrValidatorNotFound
	}
	return v.leave(val)
}

func (v *Validators) leave(val *Validator) error {
	if err := v.checkGate(); err != nil {
		return err
	}
	switch val.Status {
	case StatusPendingActive:
		if err := v.repo.removePendingActive(val.Pool); err != nil {
			return err
		}
		increase, err := v.repo.pendingPowerIncrease.Get()
		if err != nil {
			return err
		}
		if err := v.repo.pendingPowerIncrease.Set(increase - min(increase, val.Bond)); err != nil {
			return err
		}
		val.Status = StatusInactive
		val.Bond = 0
		logger.Debug("validator join cancelled", "pool", val.Pool)
	case StatusActive:
		count, err := v.ActiveCount()
		if err != nil {
			return err
		}
		if count <= 1 {
			return ErrCannotRemoveLastValidator
		}
		val.Status = StatusPendingInactive
		logger.Debug("validator leave requested", "pool", val.Pool)
	default:
		return reverts.Wrap(ErrInvalidStatus, "status %s", val.Status)
	}
	return v.repo.setValidator(val)
}

// RotateConsensusKey replaces the consensus key. Validators in the active
// array get the new key at the next epoch.
func (v *Validators) RotateConsensusKey(caller, pool gravity.Address, pubkey, pop []byte) error {
	val, err := v.load(caller, pool)
	if err != nil {
		return err
	}
	if err := v.checkGate(); err != nil {
		return err
	}
	if err := validateConsensusKey(pubkey, pop); err != nil {
		return err
	}
	owner, err := v.repo.keyOwner(pubkey)
	if err != nil {
		return err
	}
	if !owner.IsZero() {
		return ErrDuplicateConsensusPubkey
	}
	if err := v.repo.reserveKey(pubkey, pool); err != nil {
		return err
	}

	if val.Status.inActiveArray() {
		v.repo.releaseKey(val.PendingConsensusPubkey)
		val.PendingConsensusPubkey = pubkey
		val.PendingConsensusPop = pop
	} else {
		v.repo.releaseKey(val.ConsensusPubkey)
		val.ConsensusPubkey = pubkey
		val.ConsensusPop = pop
	}
	return v.repo.setValidator(val)
}

// SetFeeRecipient changes where fees go, queued while the validator is in the active array.
func (v *Validators) SetFeeRecipient(caller, pool, recipient gravity.Address) error {
	val, err := v.load(caller, pool)
	if err != nil {
		return err
	}
	if err := v.checkGate(); err != nil {
		return err
	}
	if val.Status.inActiveArray() {
		val.PendingFeeRecipient = recipient
		val.HasPendingFeeRecipient = true
	} else {
		val.FeeRecipient = recipient
	}
	return v.repo.setValidator(val)
}

// MinimumBondFor tells the stake ledger which bond pool has to keep.
func (v *Validators) MinimumBondFor(pool gravity.Address) (uint64, bool, error) {
	val, err := v.repo.getValidator(pool)
	if err != nil || val == nil {
		return 0, false, err
	}
	if val.Status != StatusActive && val.Status != StatusPendingActive {
		return 0, false, nil
	}
	minBond, err := v.params.GetUint64(gravity.KeyMinimumBond)
	if err != nil {
		return 0, false, err
	}
	return minBond, true, nil
}

// Get returns nil if pool is not a registered validator.
func (v *Validators) Get(pool gravity.Address) (*Validator, error) {
	return v.repo.getValidator(pool)
}

// Registered lists every validator ever registered, in registration order.
func (v *Validators) Registered() ([]gravity.Address, error) {
	return v.repo.registered.All()
}

// ActiveValidators returns the committee of the current epoch in index order.
func (v *Validators) ActiveValidators() ([]ConsensusInfo, error) {
	pools, err := v.repo.activePools()
	if err != nil {
		return nil, err
	}
	infos := make([]ConsensusInfo, 0, len(pools))
	for _, p := range pools {
		val, err := v.repo.getValidator(p)
		if err != nil {
			return nil, err
		}
		if val == nil {
			continue
		}
		infos = append(infos, val.consensusInfo())
	}
	return infos, nil
}

// Snapshot returns the DKG dealers (ACTIVE and PENDING_INACTIVE) and targets
// (ACTIVE and PENDING_ACTIVE) read in a single pass.
func (v *Validators) Snapshot() (dealers, targets []ConsensusInfo, err error) {
	pools, err := v.repo.activePools()
	if err != nil {
		return nil, nil, err
	}
	for _, p := range pools {
		val, err := v.repo.getValidator(p)
		if err != nil {
			return nil, nil, err
		}
		if val == nil {
			continue
		}
		switch val.Status {
		case StatusActive:
			dealers = append(dealers, val.consensusInfo())
			targets = append(targets, val.consensusInfo())
		case StatusPendingInactive:
			dealers = append(dealers, val.consensusInfo())
		}
	}
	pending, err := v.repo.pendingActivePools()
	if err != nil {
		return nil, nil, err
	}
	for _, p := range pending {
		val, err := v.repo.getValidator(p)
		if err != nil {
			return nil, nil, err
		}
		if val != nil && val.Status == StatusPendingActive {
			targets = append(targets, val.consensusInfo())
		}
	}
	return dealers, targets, nil
}

// DealerSet returns the validators contributing to the next DKG.
func (v *Validators) DealerSet() ([]ConsensusInfo, error) {
	dealers, _, err := v.Snapshot()
	return dealers, err
}

// TargetSet returns the committee expected after the next epoch apply.
func (v *Validators) TargetSet() ([]ConsensusInfo, error) {
	_, targets, err := v.Snapshot()
	return targets, err
}

// ActiveCount counts validators whose status is exactly ACTIVE.
func (v *Validators) ActiveCount() (uint64, error) {
	pools, err := v.repo.activePools()
	if err != nil {
		return 0, err
	}
	var n uint64
	for _, p := range pools {
		val, err := v.repo.getValidator(p)
		if err != nil {
			return 0, err
		}
		if val != nil && val.Status == StatusActive {
			n++
		}
	}
	return n, nil
}

// TotalVotingPower is the committee power fixed at the last epoch apply.
func (v *Validators) TotalVotingPower() (uint64, error) {
	return v.repo.totalVotingPower.Get()
}

// IsActiveValidator reports whether pool holds a slot in the active array.
func (v *Validators) IsActiveValidator(pool gravity.Address) (bool, error) {
	_, ok, err := v.repo.indexOf(pool)
	return ok, err
}
