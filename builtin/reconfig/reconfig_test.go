// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reconfig_test

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravity-chain/epochcore/builtin"
	"github.com/gravity-chain/epochcore/builtin/dkg"
	"github.com/gravity-chain/epochcore/builtin/randomness"
	"github.com/gravity-chain/epochcore/builtin/reconfig"
	"github.com/gravity-chain/epochcore/builtin/staking"
	"github.com/gravity-chain/epochcore/builtin/validators"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/lvldb"
	"github.com/gravity-chain/epochcore/state"
)

const t0 = 1000 * gravity.Day

var (
	owner    = gravity.BytesToAddress([]byte("owner"))
	operator = gravity.BytesToAddress([]byte("operator"))
	proposer = gravity.BytesToAddress([]byte("proposer"))
)

func setParams(t *testing.T, c *builtin.Contracts) {
	for _, kv := range []struct {
		p   interface{ Set(gravity.Bytes32, *big.Int) error }
		key gravity.Bytes32
		val *big.Int
	}{
		{c.EpochConfig, gravity.KeyEpochInterval, gravity.InitialEpochInterval},
		{c.StakeConfig, gravity.KeyMinimumStake, big.NewInt(1)},
		{c.StakeConfig, gravity.KeyLockupDuration, new(big.Int).SetUint64(7 * gravity.Day)},
		{c.StakeConfig, gravity.KeyMaxLockupDuration, gravity.InitialMaxLockupDuration},
		{c.ValidatorConfig, gravity.KeyMinimumBond, big.NewInt(1)},
		{c.ValidatorConfig, gravity.KeyMaximumBond, gravity.InitialMaximumBond},
		{c.ValidatorConfig, gravity.KeyVotingPowerIncreaseLimitPct, big.NewInt(100)},
		{c.ValidatorConfig, gravity.KeyMaxValidatorSetSize, gravity.InitialMaxValidatorSetSize},
		{c.ValidatorConfig, gravity.KeyAllowValidatorSetChange, big.NewInt(1)},
	} {
		require.NoError(t, kv.p.Set(kv.key, kv.val))
	}
}

type testChain struct {
	t    *testing.T
	c    *builtin.Contracts
	seed byte
}

func newTestChain(t *testing.T, bonds ...uint64) (*testChain, []gravity.Address) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, nil)
	require.NoError(t, st.SetBalance(owner, big.NewInt(1_000_000)))
	c := builtin.New(st, nil)
	setParams(t, c)
	require.NoError(t, c.Timestamp.UpdateGlobalTime(proposer, t0))
	require.NoError(t, c.Randomness.Initialize(randomness.DefaultConfig()))
	require.NoError(t, c.Reconfig.Initialize(t0))

	chain := &testChain{t: t, c: c}
	pools := make([]gravity.Address, 0, len(bonds))
	for _, b := range bonds {
		pools = append(pools, chain.newValidator(b))
	}
	_, err = c.Validators.Bootstrap(t0, pools)
	require.NoError(t, err)
	return chain, pools
}

func (ch *testChain) newValidator(bond uint64) gravity.Address {
	now, _ := ch.c.Timestamp.NowMicroseconds()
	pool, err := ch.c.Staking.CreatePool(owner, operator, owner, bond, now+365*gravity.Day)
	require.NoError(ch.t, err)
	ch.seed++
	_, err = ch.c.Validators.Register(operator, pool, &validators.RegisterArgs{
		Moniker:         "v",
		ConsensusPubkey: bytes.Repeat([]byte{ch.seed}, gravity.ConsensusPubkeyLen),
		ConsensusPop:    []byte{1},
	})
	require.NoError(ch.t, err)
	return pool
}

func (ch *testChain) advance(d uint64) uint64 {
	now, err := ch.c.Timestamp.NowMicroseconds()
	require.NoError(ch.t, err)
	require.NoError(ch.t, ch.c.Timestamp.UpdateGlobalTime(proposer, now+d))
	return now + d
}

func poolsOf(infos []validators.ConsensusInfo) []gravity.Address {
	out := make([]gravity.Address, 0, len(infos))
	for _, i := range infos {
		out = append(out, i.Validator)
	}
	return out
}

func TestScenarioEpochTransition(t *testing.T) {
	ch, pools := newTestChain(t, 10, 20)
	r := ch.c.Reconfig

	// not yet due
	now := ch.advance(gravity.Hour)
	started, err := r.CheckAndStartTransition(now)
	require.NoError(t, err)
	assert.Nil(t, started)
	_, err = r.StartTransition(now)
	assert.ErrorIs(t, err, reconfig.ErrEpochNotYetEnded)

	now = ch.advance(gravity.Hour + gravity.Second)
	started, err = r.CheckAndStartTransition(now)
	require.NoError(t, err)
	require.NotNil(t, started)
	assert.Equal(t, uint64(1), started.Epoch)
	assert.Equal(t, pools, poolsOf(started.Session.Dealers))
	assert.Equal(t, pools, poolsOf(started.Session.Targets))

	inProgress, err := r.IsTransitionInProgress()
	require.NoError(t, err)
	assert.True(t, inProgress)

	// polling again is a no-op
	again, err := r.CheckAndStartTransition(ch.advance(gravity.Second))
	require.NoError(t, err)
	assert.Nil(t, again)
	_, err = r.StartTransition(now)
	assert.ErrorIs(t, err, reconfig.ErrReconfigurationInProgress)

	// stake and validator set are frozen
	assert.ErrorIs(t, ch.c.Staking.AddStake(pools[0], owner, 1), staking.ErrReconfigurationInProgress)
	assert.ErrorIs(t, ch.c.Validators.Leave(operator, pools[0]), validators.ErrReconfigurationInProgress)

	finishAt := ch.advance(gravity.Second)
	done, err := r.FinishTransition(finishAt, []byte("transcript"), false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), done.NewEpoch)
	assert.Equal(t, uint64(30), done.TotalVotingPower)
	assert.Equal(t, pools, poolsOf(done.Validators))
	require.NotNil(t, done.Session)
	assert.Equal(t, []byte("transcript"), done.Session.Transcript)

	ts, err := r.State()
	require.NoError(t, err)
	assert.Equal(t, reconfig.PhaseIdle, ts.Phase)
	assert.Equal(t, finishAt, ts.LastReconfigurationTime)

	_, err = r.FinishTransition(finishAt, nil, false)
	assert.ErrorIs(t, err, reconfig.ErrReconfigurationNotInProgress)

	require.NoError(t, ch.c.Staking.AddStake(pools[0], owner, 1))
}

func TestScenarioGovernanceFinish(t *testing.T) {
	ch, _ := newTestChain(t, 10)
	r := ch.c.Reconfig

	now := ch.advance(2*gravity.Hour + gravity.Second)
	_, err := r.StartTransition(now)
	require.NoError(t, err)

	done, err := r.FinishTransition(now, nil, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), done.NewEpoch)

	epoch, err := r.CurrentEpoch()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), epoch)

	last, err := ch.c.DKG.LastCompleted()
	require.NoError(t, err)
	assert.Equal(t, dkg.StatusComplete, last.Status)
	assert.True(t, last.TranscriptHash.IsZero())
}

func TestForcedFinishWithoutSession(t *testing.T) {
	ch, _ := newTestChain(t, 10)
	r := ch.c.Reconfig

	now := ch.advance(2*gravity.Hour + gravity.Second)
	_, err := r.StartTransition(now)
	require.NoError(t, err)
	cleared, err := ch.c.DKG.TryClearIncompleteSession(now)
	require.NoError(t, err)
	require.NotNil(t, cleared)

	_, err = r.FinishTransition(now, []byte("x"), false)
	assert.ErrorIs(t, err, dkg.ErrDKGNotInProgress)

	done, err := r.FinishTransition(now, nil, true)
	require.NoError(t, err)
	assert.Nil(t, done.Session)
	assert.Equal(t, uint64(1), done.NewEpoch)
}

func TestConsensusFinishRequiresTranscript(t *testing.T) {
	ch, _ := newTestChain(t, 10)
	r := ch.c.Reconfig

	now := ch.advance(2*gravity.Hour + gravity.Second)
	_, err := r.StartTransition(now)
	require.NoError(t, err)

	_, err = r.FinishTransition(now, nil, false)
	assert.ErrorIs(t, err, dkg.ErrEmptyTranscript)
	_, err = r.FinishTransition(now, []byte{}, false)
	assert.ErrorIs(t, err, dkg.ErrEmptyTranscript)

	// nothing moved
	inProgress, err := r.IsTransitionInProgress()
	require.NoError(t, err)
	assert.True(t, inProgress)
	status, err := ch.c.DKG.Status()
	require.NoError(t, err)
	assert.Equal(t, dkg.StatusInProgress, status)

	done, err := r.FinishTransition(now, []byte("transcript"), false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), done.NewEpoch)
}

func TestTransitionActivatesJoinersAndRandomness(t *testing.T) {
	ch, pools := newTestChain(t, 10, 20)
	r := ch.c.Reconfig

	joiner := ch.newValidator(15)
	require.NoError(t, ch.c.Validators.Join(operator, joiner))
	require.NoError(t, ch.c.Validators.Leave(operator, pools[0]))

	cfg := randomness.DefaultConfig()
	cfg.SecrecyThreshold = randomness.Fraction(1, 3)
	require.NoError(t, ch.c.Randomness.SetForNextEpoch(cfg))

	now := ch.advance(2*gravity.Hour + gravity.Second)
	started, err := r.CheckAndStartTransition(now)
	require.NoError(t, err)
	require.NotNil(t, started)
	assert.Equal(t, pools, poolsOf(started.Session.Dealers))
	assert.Equal(t, []gravity.Address{pools[1], joiner}, poolsOf(started.Session.Targets))
	// the session runs with the config of the ending epoch
	assert.Equal(t, 0, started.Session.Config.SecrecyThreshold.Cmp(randomness.Fraction(1, 2)))

	done, err := r.FinishTransition(now, []byte("t"), false)
	require.NoError(t, err)
	assert.True(t, done.RandomnessChange)
	assert.Equal(t, []gravity.Address{pools[1], joiner}, poolsOf(done.Validators))
	assert.Equal(t, []uint64{0, 1}, []uint64{done.Validators[0].ValidatorIndex, done.Validators[1].ValidatorIndex})

	cur, err := ch.c.Randomness.Current()
	require.NoError(t, err)
	assert.Equal(t, 0, cur.SecrecyThreshold.Cmp(randomness.Fraction(1, 3)))
}

func TestInitializeOnce(t *testing.T) {
	ch, _ := newTestChain(t, 10)
	assert.ErrorIs(t, ch.c.Reconfig.Initialize(t0), reconfig.ErrAlreadyInitialized)
}
