// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravity-chain/epochcore/builtin/params"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/lvldb"
	"github.com/gravity-chain/epochcore/state"
)

const (
	day = gravity.Day
	t0  = 1000 * day
)

type testClock struct{ now uint64 }

func (c *testClock) NowMicroseconds() (uint64, error) { return c.now, nil }

type testGate struct{ inProgress bool }

func (g *testGate) IsTransitionInProgress() (bool, error) { return g.inProgress, nil }

type testGuard struct {
	minBond uint64
	active  map[gravity.Address]bool
}

func (g *testGuard) MinimumBondFor(pool gravity.Address) (uint64, bool, error) {
	return g.minBond, g.active[pool], nil
}

type recordingHook struct {
	added   []uint64
	panics  bool
	failing bool
}

func (h *recordingHook) OnStakeAdded(_ gravity.Address, amount uint64) error {
	if h.panics {
		panic("boom")
	}
	h.added = append(h.added, amount)
	return nil
}

func (h *recordingHook) OnWithdrawalRequested(gravity.Address, uint64, uint64) error {
	if h.failing {
		return errors.New("hook failure")
	}
	return nil
}

func (h *recordingHook) OnWithdrawalClaimed(gravity.Address, uint64, uint64) error { return nil }

var (
	owner    = gravity.BytesToAddress([]byte("owner"))
	operator = gravity.BytesToAddress([]byte("operator"))
	stranger = gravity.BytesToAddress([]byte("stranger"))
)

type testEnv struct {
	st      *state.State
	staking *Staking
	clock   *testClock
	gate    *testGate
	guard   *testGuard
	hooks   *Hooks
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, nil)
	p := params.New(gravity.StakeConfigAddress, st)
	require.NoError(t, p.Set(gravity.KeyMinimumStake, big.NewInt(10)))
	require.NoError(t, p.Set(gravity.KeyLockupDuration, new(big.Int).SetUint64(7*day)))
	require.NoError(t, p.Set(gravity.KeyMaxLockupDuration, new(big.Int).SetUint64(4*gravity.Year)))
	require.NoError(t, st.SetBalance(owner, big.NewInt(1_000_000)))

	env := &testEnv{
		st:    st,
		clock: &testClock{now: t0},
		gate:  &testGate{},
		guard: &testGuard{active: make(map[gravity.Address]bool)},
		hooks: NewHooks(),
	}
	env.staking = New(gravity.StakingAddress, st, p, env.clock, env.gate, env.guard, env.hooks)
	return env
}

func (e *testEnv) createPool(t *testing.T, amount, lockedUntil uint64) gravity.Address {
	pool, err := e.staking.CreatePool(owner, operator, owner, amount, lockedUntil)
	require.NoError(t, err)
	return pool
}

func balanceOf(t *testing.T, st *state.State, addr gravity.Address) uint64 {
	b, err := st.GetBalance(addr)
	require.NoError(t, err)
	return b.Uint64()
}

func TestCreatePool(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.staking.CreatePool(owner, operator, owner, 5, t0+30*day)
	assert.ErrorIs(t, err, ErrInsufficientStake)

	_, err = env.staking.CreatePool(owner, operator, owner, 100, t0+6*day)
	assert.ErrorIs(t, err, ErrLockupTooShort)

	_, err = env.staking.CreatePool(owner, operator, owner, 100, t0+5*gravity.Year)
	assert.ErrorIs(t, err, ErrExcessiveLockupDuration)

	_, err = env.staking.CreatePool(stranger, operator, stranger, 100, t0+30*day)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	pool := env.createPool(t, 100, t0+30*day)
	other := env.createPool(t, 100, t0+30*day)
	assert.NotEqual(t, pool, other)

	p, err := env.staking.GetPool(pool)
	require.NoError(t, err)
	assert.Equal(t, &Pool{Owner: owner, Operator: operator, Staker: owner, CreatedAt: t0}, p)

	pools, err := env.staking.Pools()
	require.NoError(t, err)
	assert.Equal(t, []gravity.Address{pool, other}, pools)

	total, err := env.staking.TotalStake()
	require.NoError(t, err)
	assert.Equal(t, uint64(200), total)
	assert.Equal(t, uint64(200), balanceOf(t, env.st, gravity.StakingAddress))
	assert.Equal(t, uint64(1_000_000-200), balanceOf(t, env.st, owner))

	missing, err := env.staking.GetPool(stranger)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAddStake(t *testing.T) {
	env := newTestEnv(t)
	pool := env.createPool(t, 100, t0+8*day)

	assert.ErrorIs(t, env.staking.AddStake(stranger, owner, 10), ErrPoolNotFound)
	assert.ErrorIs(t, env.staking.AddStake(pool, stranger, 10), ErrNotPoolStaker)
	assert.ErrorIs(t, env.staking.AddStake(pool, owner, 0), ErrZeroAmount)

	env.clock.now = t0 + 5*day
	require.NoError(t, env.staking.AddStake(pool, owner, 50))

	pos, err := env.staking.GetPosition(pool)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), pos.Stake)
	// lockup extended to now + minimum lockup
	assert.Equal(t, t0+12*day, pos.LockedUntil)
}

func TestScenarioBucketExcludedFromVotingPower(t *testing.T) {
	env := newTestEnv(t)
	pool := env.createPool(t, 100, t0+30*day)

	nonce, err := env.staking.RequestWithdrawal(pool, owner, 40)
	require.NoError(t, err)

	pos, err := env.staking.GetPosition(pool)
	require.NoError(t, err)
	require.Len(t, pos.Buckets, 1)
	assert.Equal(t, PendingBucket{Nonce: nonce, Amount: 40, ClaimableTime: t0 + 30*day, Cumulative: 40}, pos.Buckets[0])

	vp, err := env.staking.VotingPower(pool, t0)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), vp)

	vp, err = env.staking.VotingPower(pool, t0+29*day)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), vp)

	vp, err = env.staking.VotingPower(pool, t0+30*day)
	require.NoError(t, err)
	assert.Zero(t, vp)

	total, _ := env.staking.TotalStake()
	assert.Equal(t, uint64(100), total)
}

func TestWithdrawalRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	pool := env.createPool(t, 100, t0+30*day)
	recipient := gravity.BytesToAddress([]byte("recipient"))

	_, err := env.staking.RequestWithdrawal(pool, owner, 101)
	assert.ErrorIs(t, err, ErrInsufficientAvailableStake)

	n1, err := env.staking.RequestWithdrawal(pool, owner, 30)
	require.NoError(t, err)
	n2, err := env.staking.RequestWithdrawal(pool, owner, 20)
	require.NoError(t, err)
	assert.NotEqual(t, n1, n2)

	_, err = env.staking.ClaimWithdrawal(pool, owner, n1, recipient)
	assert.ErrorIs(t, err, ErrWithdrawalNotClaimable)
	_, err = env.staking.ClaimWithdrawal(pool, owner, 99, recipient)
	assert.ErrorIs(t, err, ErrWithdrawalNotFound)

	env.clock.now = t0 + 30*day
	amount, err := env.staking.ClaimWithdrawal(pool, owner, n1, recipient)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), amount)

	_, err = env.staking.ClaimWithdrawal(pool, owner, n1, recipient)
	assert.ErrorIs(t, err, ErrWithdrawalNotFound)

	pos, err := env.staking.GetPosition(pool)
	require.NoError(t, err)
	assert.Equal(t, uint64(70), pos.Stake)
	assert.Equal(t, uint64(20), pos.Pending())
	assert.Equal(t, uint64(20), pos.Buckets[0].Cumulative)

	assert.Equal(t, uint64(30), balanceOf(t, env.st, recipient))
	assert.Equal(t, uint64(70), balanceOf(t, env.st, gravity.StakingAddress))
	total, _ := env.staking.TotalStake()
	assert.Equal(t, uint64(70), total)
}

func TestPendingBucketCap(t *testing.T) {
	env := newTestEnv(t)
	pool := env.createPool(t, 1000, t0+30*day)

	for i := 0; i < gravity.MaxPendingBuckets; i++ {
		_, err := env.staking.RequestWithdrawal(pool, owner, 1)
		require.NoError(t, err)
	}
	_, err := env.staking.RequestWithdrawal(pool, owner, 1)
	assert.ErrorIs(t, err, ErrTooManyPendingBuckets)
}

func TestRenewLockUntil(t *testing.T) {
	env := newTestEnv(t)
	pool := env.createPool(t, 100, t0+30*day)

	lockedUntil, err := env.staking.RenewLockUntil(pool, owner, 10*day)
	require.NoError(t, err)
	assert.Equal(t, t0+40*day, lockedUntil)

	_, err = env.staking.RenewLockUntil(pool, owner, 4*gravity.Year)
	assert.ErrorIs(t, err, ErrExcessiveLockupDuration)

	_, err = env.staking.RenewLockUntil(pool, owner, ^uint64(0))
	assert.ErrorIs(t, err, ErrLockupOverflow)

	// an expired lockup renews from now
	env.clock.now = t0 + 50*day
	lockedUntil, err = env.staking.RenewLockUntil(pool, owner, 10*day)
	require.NoError(t, err)
	assert.Equal(t, t0+60*day, lockedUntil)
}

func TestUnstake(t *testing.T) {
	env := newTestEnv(t)
	pool := env.createPool(t, 100, t0+30*day)

	assert.ErrorIs(t, env.staking.Unstake(pool, owner, 10, owner), ErrLockupNotExpired)

	env.clock.now = t0 + 30*day
	assert.ErrorIs(t, env.staking.Unstake(pool, owner, 101, owner), ErrInsufficientAvailableStake)
	require.NoError(t, env.staking.Unstake(pool, owner, 40, owner))

	pos, _ := env.staking.GetPosition(pool)
	assert.Equal(t, uint64(60), pos.Stake)
	assert.Equal(t, uint64(1_000_000-60), balanceOf(t, env.st, owner))
}

func TestReconfigurationGate(t *testing.T) {
	env := newTestEnv(t)
	pool := env.createPool(t, 100, t0+30*day)
	nonce, err := env.staking.RequestWithdrawal(pool, owner, 10)
	require.NoError(t, err)
	// both the bucket and the rest of the stake are free to leave
	env.clock.now = t0 + 30*day

	type snapshot struct {
		Position *Position
		Pools    []gravity.Address
		Balance  uint64
	}
	take := func() snapshot {
		pos, err := env.staking.GetPosition(pool)
		require.NoError(t, err)
		pools, err := env.staking.Pools()
		require.NoError(t, err)
		return snapshot{pos, pools, balanceOf(t, env.st, owner)}
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"create pool", func() error {
			_, err := env.staking.CreatePool(owner, operator, owner, 100, t0+60*day)
			return err
		}},
		{"add stake", func() error { return env.staking.AddStake(pool, owner, 1) }},
		{"request withdrawal", func() error {
			_, err := env.staking.RequestWithdrawal(pool, owner, 1)
			return err
		}},
		{"claim withdrawal", func() error {
			_, err := env.staking.ClaimWithdrawal(pool, owner, nonce, owner)
			return err
		}},
		{"renew lockup", func() error {
			_, err := env.staking.RenewLockUntil(pool, owner, day)
			return err
		}},
		{"unstake", func() error { return env.staking.Unstake(pool, owner, 1, owner) }},
	}

	env.gate.inProgress = true
	before := take()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), ErrReconfigurationInProgress)
			assert.Equal(t, before, take())
		})
	}

	// identity checks come first
	assert.ErrorIs(t, env.staking.AddStake(pool, stranger, 1), ErrNotPoolStaker)

	// queries stay open
	vp, err := env.staking.VotingPower(pool, t0)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), vp)

	env.gate.inProgress = false
	amount, err := env.staking.ClaimWithdrawal(pool, owner, nonce, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), amount)
}

func TestBondGuard(t *testing.T) {
	env := newTestEnv(t)
	pool := env.createPool(t, 100, t0+8*day)
	env.guard.minBond = 80
	env.guard.active[pool] = true
	// buckets claimable in 6 days no longer count
	env.clock.now = t0 + 2*day

	_, err := env.staking.RequestWithdrawal(pool, owner, 30)
	assert.ErrorIs(t, err, ErrInsufficientAvailableStake)

	_, err = env.staking.RequestWithdrawal(pool, owner, 20)
	require.NoError(t, err)

	env.guard.active[pool] = false
	_, err = env.staking.RequestWithdrawal(pool, owner, 30)
	require.NoError(t, err)
}

func TestHooksIsolated(t *testing.T) {
	env := newTestEnv(t)
	pool := env.createPool(t, 100, t0+30*day)

	hook := &recordingHook{}
	env.hooks.Register(pool, hook)
	require.NoError(t, env.staking.AddStake(pool, owner, 5))
	assert.Equal(t, []uint64{5}, hook.added)

	hook.panics = true
	require.NoError(t, env.staking.AddStake(pool, owner, 5))

	hook.failing = true
	_, err := env.staking.RequestWithdrawal(pool, owner, 5)
	require.NoError(t, err)

	env.hooks.Register(pool, nil)
	require.NoError(t, env.staking.AddStake(pool, owner, 5))

	pos, _ := env.staking.GetPosition(pool)
	assert.Equal(t, uint64(115), pos.Stake)
}
