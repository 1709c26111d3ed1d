// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gravity-chain/epochcore/builtin/params"
	"github.com/gravity-chain/epochcore/builtin/staking"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/lvldb"
	"github.com/gravity-chain/epochcore/state"
)

const t0 = 1000 * gravity.Day

var (
	owner    = gravity.BytesToAddress([]byte("owner"))
	operator = gravity.BytesToAddress([]byte("operator"))
)

type testClock struct{ now uint64 }

func (c *testClock) NowMicroseconds() (uint64, error) { return c.now, nil }

type testGate struct{ inProgress bool }

func (g *testGate) IsTransitionInProgress() (bool, error) { return g.inProgress, nil }

// lateGuard lets the stake ledger consult the registry built after it.
type lateGuard struct{ v *Validators }

func (g *lateGuard) MinimumBondFor(pool gravity.Address) (uint64, bool, error) {
	return g.v.MinimumBondFor(pool)
}

type testEnv struct {
	t          *testing.T
	st         *state.State
	clock      *testClock
	gate       *testGate
	params     *params.Params
	staking    *staking.Staking
	validators *Validators
	keySeed    byte
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, nil)
	require.NoError(t, st.SetBalance(owner, big.NewInt(1_000_000)))

	stakeParams := params.New(gravity.StakeConfigAddress, st)
	require.NoError(t, stakeParams.Set(gravity.KeyMinimumStake, big.NewInt(1)))
	require.NoError(t, stakeParams.Set(gravity.KeyLockupDuration, new(big.Int).SetUint64(7*gravity.Day)))
	require.NoError(t, stakeParams.Set(gravity.KeyMaxLockupDuration, new(big.Int).SetUint64(4*gravity.Year)))

	p := params.New(gravity.ValidatorConfigAddress, st)
	require.NoError(t, p.Set(gravity.KeyMinimumBond, big.NewInt(10)))
	require.NoError(t, p.Set(gravity.KeyMaximumBond, big.NewInt(1000)))
	require.NoError(t, p.Set(gravity.KeyVotingPowerIncreaseLimitPct, big.NewInt(20)))
	require.NoError(t, p.Set(gravity.KeyMaxValidatorSetSize, big.NewInt(100)))
	require.NoError(t, p.Set(gravity.KeyAllowValidatorSetChange, big.NewInt(1)))
	require.NoError(t, p.Set(gravity.KeyAutoEvictThreshold, big.NewInt(50)))

	env := &testEnv{t: t, st: st, clock: &testClock{now: t0}, gate: &testGate{}, params: p}
	guard := &lateGuard{}
	env.staking = staking.New(gravity.StakingAddress, st, stakeParams, env.clock, env.gate, guard, nil)
	env.validators = New(gravity.ValidatorManagerAddress, st, p, env.staking, env.clock, env.gate)
	guard.v = env.validators
	return env
}

func (e *testEnv) setParam(key gravity.Bytes32, v int64) {
	require.NoError(e.t, e.params.Set(key, big.NewInt(v)))
}

func (e *testEnv) nextKey() []byte {
	e.keySeed++
	return bytes.Repeat([]byte{e.keySeed}, gravity.ConsensusPubkeyLen)
}

func (e *testEnv) newPool(stake uint64) gravity.Address {
	pool, err := e.staking.CreatePool(owner, operator, owner, stake, e.clock.now+60*gravity.Day)
	require.NoError(e.t, err)
	return pool
}

// newValidator creates a pool with stake and registers it.
func (e *testEnv) newValidator(stake uint64) gravity.Address {
	pool := e.newPool(stake)
	_, err := e.validators.Register(operator, pool, &RegisterArgs{
		Moniker:         "validator",
		ConsensusPubkey: e.nextKey(),
		ConsensusPop:    []byte{0x01},
		FeeRecipient:    owner,
	})
	require.NoError(e.t, err)
	return pool
}

// bootstrap creates an initial committee with the given stakes.
func (e *testEnv) bootstrap(stakes ...uint64) []gravity.Address {
	pools := make([]gravity.Address, 0, len(stakes))
	for _, s := range stakes {
		pools = append(pools, e.newValidator(s))
	}
	_, err := e.validators.Bootstrap(e.clock.now, pools)
	require.NoError(e.t, err)
	return pools
}

func (e *testEnv) status(pool gravity.Address) Status {
	val, err := e.validators.Get(pool)
	require.NoError(e.t, err)
	require.NotNil(e.t, val)
	return val.Status
}

// requireContiguous checks the active array and the index table agree.
func (e *testEnv) requireContiguous() {
	infos, err := e.validators.ActiveValidators()
	require.NoError(e.t, err)
	for i, info := range infos {
		require.Equal(e.t, uint64(i), info.ValidatorIndex)
		idx, ok, err := e.validators.repo.indexOf(info.Validator)
		require.NoError(e.t, err)
		require.True(e.t, ok)
		require.Equal(e.t, uint64(i), idx)
	}
}
