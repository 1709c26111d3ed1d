// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math"
	"math/big"

	"github.com/pkg/errors"

	"github.com/gravity-chain/epochcore/builtin/params"
	"github.com/gravity-chain/epochcore/builtin/reverts"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/log"
	"github.com/gravity-chain/epochcore/metrics"
	"github.com/gravity-chain/epochcore/state"
)

var (
	logger = log.WithContext("pkg", "staking")

	metricWithdrawals = metrics.LazyLoadCounterVec("staking_withdrawals_count", []string{"event"})
)

// Clock supplies the current chain time in microseconds.
type Clock interface {
	NowMicroseconds() (uint64, error)
}

// Gate reports whether an epoch transition is in flight.
type Gate interface {
	IsTransitionInProgress() (bool, error)
}

// BondGuard tells whether a pool backs an active validator and the bond it must keep.
type BondGuard interface {
	MinimumBondFor(pool gravity.Address) (minBond uint64, active bool, err error)
}

// Staking is the stake ledger: one Position per pool.
type Staking struct {
	addr    gravity.Address
	state   *state.State
	storage *storage
	params  *params.Params
	clock   Clock
	gate    Gate
	guard   BondGuard
	hooks   *Hooks
}

// New create a new instance. guard and hooks may be nil.
func New(
	addr gravity.Address,
	state *state.State,
	params *params.Params,
	clock Clock,
	gate Gate,
	guard BondGuard,
	hooks *Hooks,
) *Staking {
	return &Staking{
		addr:    addr,
		state:   state,
		storage: newStorage(addr, state),
		params:  params,
		clock:   clock,
		gate:    gate,
		guard:   guard,
		hooks:   hooks,
	}
}

// MinLockupDuration returns the minimum lockup window in microseconds.
func (s *Staking) MinLockupDuration() (uint64, error) {
	return s.params.GetUint64(gravity.KeyLockupDuration)
}

func (s *Staking) checkGate() error {
	inProgress, err := s.gate.IsTransitionInProgress()
	if err != nil {
		return err
	}
	if inProgress {
		return ErrReconfigurationInProgress
	}
	return nil
}

// authorize loads the pool and checks the caller is its staker, then checks the gate.
func (s *Staking) authorize(poolAddr, caller gravity.Address) (*Pool, error) {
	pool, err := s.storage.getPool(poolAddr)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrPoolNotFound
	}
	if pool.Staker != caller {
		return nil, ErrNotPoolStaker
	}
	if err := s.checkGate(); err != nil {
		return nil, err
	}
	return pool, nil
}

// addSaturating returns a+b, capped at MaxUint64.
func addSaturating(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// CreatePool opens a new pool funded from the owner's balance.
func (s *Staking) CreatePool(owner, operator, staker gravity.Address, amount, lockedUntil uint64) (gravity.Address, error) {
	if err := s.checkGate(); err != nil {
		return gravity.Address{}, err
	}
	now, err := s.clock.NowMicroseconds()
	if err != nil {
		return gravity.Address{}, err
	}
	minStake, err := s.params.GetUint64(gravity.KeyMinimumStake)
	if err != nil {
		return gravity.Address{}, err
	}
	if amount == 0 || amount < minStake {
		return gravity.Address{}, reverts.Wrap(ErrInsufficientStake, "%d < minimum %d", amount, minStake)
	}
	minLockup, err := s.MinLockupDuration()
	if err != nil {
		return gravity.Address{}, err
	}
	maxLockup, err := s.params.GetUint64(gravity.KeyMaxLockupDuration)
	if err != nil {
		return gravity.Address{}, err
	}
	if lockedUntil < addSaturating(now, minLockup) {
		return gravity.Address{}, ErrLockupTooShort
	}
	if lockedUntil > addSaturating(now, maxLockup) {
		return gravity.Address{}, ErrExcessiveLockupDuration
	}

	if err := s.transferIn(owner, amount); err != nil {
		return gravity.Address{}, err
	}

	seq, err := s.storage.nextPoolSeq()
	if err != nil {
		return gravity.Address{}, err
	}
	addr := gravity.BytesToAddress(gravity.Blake2b([]byte("pool"), owner.Bytes(), gravity.Uint64ToBytes32(seq).Bytes()).Bytes())

	pool := &Pool{Owner: owner, Operator: operator, Staker: staker, CreatedAt: now}
	if err := s.storage.addPool(addr, pool, &Position{Stake: amount, LockedUntil: lockedUntil}); err != nil {
		return gravity.Address{}, err
	}
	if err := s.storage.adjustTotalStake(amount, 0); err != nil {
		return gravity.Address{}, err
	}
	logger.Debug("pool created", "pool", addr, "owner", owner, "amount", amount, "lockedUntil", lockedUntil)
	return addr, nil
}

// AddStake increases the pool's stake and extends its lockup to at least now + minimum lockup.
func (s *Staking) AddStake(poolAddr, caller gravity.Address, amount uint64) error {
	if _, err := s.authorize(poolAddr, caller); err != nil {
		return err
	}
	if amount == 0 {
		return ErrZeroAmount
	}
	now, err := s.clock.NowMicroseconds()
	if err != nil {
		return err
	}
	minLockup, err := s.MinLockupDuration()
	if err != nil {
		return err
	}
	if now > math.MaxUint64-minLockup {
		return ErrLockupOverflow
	}

	pos, err := s.storage.getPosition(poolAddr)
	if err != nil {
		return err
	}
	if pos.Stake > math.MaxUint64-amount {
		return ErrStakeOverflow
	}
	if err := s.transferIn(caller, amount); err != nil {
		return err
	}
	pos.Stake += amount
	pos.LockedUntil = max(pos.LockedUntil, now+minLockup)

	if err := s.storage.setPosition(poolAddr, pos); err != nil {
		return err
	}
	if err := s.storage.adjustTotalStake(amount, 0); err != nil {
		return err
	}

	s.hooks.invoke(poolAddr, "stake_added", func(h PoolHook) error {
		return h.OnStakeAdded(poolAddr, amount)
	})
	logger.Debug("stake added", "pool", poolAddr, "amount", amount, "lockedUntil", pos.LockedUntil)
	return nil
}

// RequestWithdrawal queues amount for withdrawal once the current lockup ends.
func (s *Staking) RequestWithdrawal(poolAddr, caller gravity.Address, amount uint64) (uint64, error) {
	if _, err := s.authorize(poolAddr, caller); err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, ErrZeroAmount
	}
	pos, err := s.storage.getPosition(poolAddr)
	if err != nil {
		return 0, err
	}
	if amount > pos.Available() {
		return 0, reverts.Wrap(ErrInsufficientAvailableStake, "requested %d, available %d", amount, pos.Available())
	}
	if len(pos.Buckets) >= gravity.MaxPendingBuckets {
		return 0, ErrTooManyPendingBuckets
	}

	nonce := pos.insertBucket(amount, pos.LockedUntil)
	if err := s.checkBond(poolAddr, pos); err != nil {
		return 0, err
	}
	if err := s.storage.setPosition(poolAddr, pos); err != nil {
		return 0, err
	}

	metricWithdrawals().AddWithLabel(1, map[string]string{"event": "requested"})
	s.hooks.invoke(poolAddr, "withdrawal_requested", func(h PoolHook) error {
		return h.OnWithdrawalRequested(poolAddr, nonce, amount)
	})
	logger.Debug("withdrawal requested", "pool", poolAddr, "nonce", nonce, "amount", amount, "claimableTime", pos.LockedUntil)
	return nonce, nil
}

// checkBond rejects a position change that would leave an active validator under its minimum bond.
func (s *Staking) checkBond(poolAddr gravity.Address, after *Position) error {
	if s.guard == nil {
		return nil
	}
	minBond, active, err := s.guard.MinimumBondFor(poolAddr)
	if err != nil || !active {
		return err
	}
	now, err := s.clock.NowMicroseconds()
	if err != nil {
		return err
	}
	minLockup, err := s.MinLockupDuration()
	if err != nil {
		return err
	}
	if vp := after.VotingPower(now, minLockup); vp < minBond {
		return reverts.Wrap(ErrInsufficientAvailableStake, "voting power %d would fall below minimum bond %d", vp, minBond)
	}
	return nil
}

// ClaimWithdrawal pays out a matured bucket to recipient.
func (s *Staking) ClaimWithdrawal(poolAddr, caller gravity.Address, nonce uint64, recipient gravity.Address) (uint64, error) {
	if _, err := s.authorize(poolAddr, caller); err != nil {
		return 0, err
	}
	pos, err := s.storage.getPosition(poolAddr)
	if err != nil {
		return 0, err
	}
	i := pos.findBucket(nonce)
	if i < 0 {
		return 0, ErrWithdrawalNotFound
	}
	now, err := s.clock.NowMicroseconds()
	if err != nil {
		return 0, err
	}
	if now < pos.Buckets[i].ClaimableTime {
		return 0, reverts.Wrap(ErrWithdrawalNotClaimable, "claimable at %d, now %d", pos.Buckets[i].ClaimableTime, now)
	}

	bucket := pos.removeBucket(i)
	pos.Stake -= bucket.Amount
	if err := s.storage.setPosition(poolAddr, pos); err != nil {
		return 0, err
	}
	if err := s.storage.adjustTotalStake(0, bucket.Amount); err != nil {
		return 0, err
	}
	if err := s.transferOut(recipient, bucket.Amount); err != nil {
		return 0, err
	}

	metricWithdrawals().AddWithLabel(1, map[string]string{"event": "claimed"})
	s.hooks.invoke(poolAddr, "withdrawal_claimed", func(h PoolHook) error {
		return h.OnWithdrawalClaimed(poolAddr, nonce, bucket.Amount)
	})
	logger.Debug("withdrawal claimed", "pool", poolAddr, "nonce", nonce, "amount", bucket.Amount, "recipient", recipient)
	return bucket.Amount, nil
}

// RenewLockUntil extends the lockup to max(lockedUntil, now) + duration.
func (s *Staking) RenewLockUntil(poolAddr, caller gravity.Address, duration uint64) (uint64, error) {
	if _, err := s.authorize(poolAddr, caller); err != nil {
		return 0, err
	}
	now, err := s.clock.NowMicroseconds()
	if err != nil {
		return 0, err
	}
	maxLockup, err := s.params.GetUint64(gravity.KeyMaxLockupDuration)
	if err != nil {
		return 0, err
	}
	pos, err := s.storage.getPosition(poolAddr)
	if err != nil {
		return 0, err
	}

	base := max(pos.LockedUntil, now)
	if base > math.MaxUint64-duration {
		return 0, ErrLockupOverflow
	}
	lockedUntil := base + duration
	if lockedUntil > addSaturating(now, maxLockup) {
		return 0, reverts.Wrap(ErrExcessiveLockupDuration, "%d exceeds %d", lockedUntil, addSaturating(now, maxLockup))
	}
	if lockedUntil < pos.LockedUntil {
		return 0, ErrLockedUntilDecreased
	}

	pos.LockedUntil = lockedUntil
	if err := s.storage.setPosition(poolAddr, pos); err != nil {
		return 0, err
	}
	logger.Debug("lockup renewed", "pool", poolAddr, "lockedUntil", lockedUntil)
	return lockedUntil, nil
}

// Unstake withdraws available stake immediately once the lockup has expired.
func (s *Staking) Unstake(poolAddr, caller gravity.Address, amount uint64, recipient gravity.Address) error {
	if _, err := s.authorize(poolAddr, caller); err != nil {
		return err
	}
	if amount == 0 {
		return ErrZeroAmount
	}
	now, err := s.clock.NowMicroseconds()
	if err != nil {
		return err
	}
	pos, err := s.storage.getPosition(poolAddr)
	if err != nil {
		return err
	}
	if now < pos.LockedUntil {
		return reverts.Wrap(ErrLockupNotExpired, "locked until %d", pos.LockedUntil)
	}
	if amount > pos.Available() {
		return reverts.Wrap(ErrInsufficientAvailableStake, "requested %d, available %d", amount, pos.Available())
	}

	pos.Stake -= amount
	if err := s.checkBond(poolAddr, pos); err != nil {
		return err
	}
	if err := s.storage.setPosition(poolAddr, pos); err != nil {
		return err
	}
	if err := s.storage.adjustTotalStake(0, amount); err != nil {
		return err
	}
	if err := s.transferOut(recipient, amount); err != nil {
		return err
	}
	metricWithdrawals().AddWithLabel(1, map[string]string{"event": "unstaked"})
	return nil
}

// VotingPower returns the pool's effective stake at atTime.
func (s *Staking) VotingPower(poolAddr gravity.Address, atTime uint64) (uint64, error) {
	pos, err := s.storage.getPosition(poolAddr)
	if err != nil {
		return 0, err
	}
	minLockup, err := s.MinLockupDuration()
	if err != nil {
		return 0, err
	}
	return pos.VotingPower(atTime, minLockup), nil
}

// VotingPowerNow returns the pool's effective stake at the current chain time.
func (s *Staking) VotingPowerNow(poolAddr gravity.Address) (uint64, error) {
	now, err := s.clock.NowMicroseconds()
	if err != nil {
		return 0, err
	}
	return s.VotingPower(poolAddr, now)
}

// GetPool returns nil if the pool does not exist.
func (s *Staking) GetPool(poolAddr gravity.Address) (*Pool, error) {
	return s.storage.getPool(poolAddr)
}

// GetPosition returns the pool's position, zero valued for unknown pools.
func (s *Staking) GetPosition(poolAddr gravity.Address) (*Position, error) {
	return s.storage.getPosition(poolAddr)
}

// Pools lists every pool address in creation order.
func (s *Staking) Pools() ([]gravity.Address, error) {
	return s.storage.poolList.All()
}

// TotalStake returns the sum of all pool stakes.
func (s *Staking) TotalStake() (uint64, error) {
	return s.storage.totalStake.Get()
}

func (s *Staking) transferIn(from gravity.Address, amount uint64) error {
	v := new(big.Int).SetUint64(amount)
	ok, err := s.state.SubBalance(from, v)
	if err != nil {
		return errors.Wrap(err, "debit staker")
	}
	if !ok {
		return ErrInsufficientBalance
	}
	return s.state.AddBalance(s.addr, v)
}

func (s *Staking) transferOut(to gravity.Address, amount uint64) error {
	v := new(big.Int).SetUint64(amount)
	ok, err := s.state.SubBalance(s.addr, v)
	if err != nil {
		return errors.Wrap(err, "debit staking contract")
	}
	if !ok {
		return errors.New("staking contract balance underflow")
	}
	return s.state.AddBalance(to, v)
}
