// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reconfig

import (
	"github.com/gravity-chain/epochcore/builtin/dkg"
	"github.com/gravity-chain/epochcore/builtin/params"
	"github.com/gravity-chain/epochcore/builtin/randomness"
	"github.com/gravity-chain/epochcore/builtin/reverts"
	"github.com/gravity-chain/epochcore/builtin/validators"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/log"
	"github.com/gravity-chain/epochcore/metrics"
	"github.com/gravity-chain/epochcore/state"
)

var (
	ErrAlreadyInitialized           = reverts.New(reverts.Invariant, "reconfiguration already initialized")
	ErrReconfigurationInProgress    = reverts.New(reverts.Timing, "reconfiguration in progress")
	ErrReconfigurationNotInProgress = reverts.New(reverts.Timing, "reconfiguration not in progress")
	ErrEpochNotYetEnded             = reverts.New(reverts.Timing, "epoch not yet ended")

	logger = log.WithContext("pkg", "reconfig")

	metricEpoch       = metrics.LazyLoadGauge("reconfig_epoch")
	metricTransitions = metrics.LazyLoadCounterVec("reconfig_transitions_count", []string{"kind"})
)

// Started describes a transition that has just begun.
type Started struct {
	Epoch   uint64
	Cleared *dkg.Session // stale session dropped before starting, if any
	Session *dkg.Session
}

// Transitioned describes the epoch installed by FinishTransition.
type Transitioned struct {
	NewEpoch         uint64
	Validators       []validators.ConsensusInfo
	TotalVotingPower uint64
	Time             uint64
	Session          *dkg.Session // nil when governance forced past a missing session
	Epoch            *validators.EpochResult
	RandomnessChange bool
}

// Reconfig is the epoch transition coordinator.
type Reconfig struct {
	store      transitionStore
	params     *params.Params
	dkg        *dkg.DKG
	validators *validators.Validators
	randomness *randomness.Randomness
}

func New(
	addr gravity.Address,
	state *state.State,
	params *params.Params,
	dkg *dkg.DKG,
	validators *validators.Validators,
	randomness *randomness.Randomness,
) *Reconfig {
	return &Reconfig{
		store:      newTransitionStore(addr, state),
		params:     params,
		dkg:        dkg,
		validators: validators,
		randomness: randomness,
	}
}

// Initialize sets up epoch 0 at genesis time now.
func (r *Reconfig) Initialize(now uint64) error {
	ts, err := r.store.get()
	if err != nil {
		return err
	}
	if ts.Initialized {
		return ErrAlreadyInitialized
	}
	metricEpoch().Set(0)
	return r.store.set(&TransitionState{
		Phase:                   PhaseIdle,
		LastReconfigurationTime: now,
		Initialized:             true,
	})
}

// State returns the persisted transition state.
func (r *Reconfig) State() (*TransitionState, error) {
	return r.store.get()
}

// CurrentEpoch returns the number of the running epoch.
func (r *Reconfig) CurrentEpoch() (uint64, error) {
	ts, err := r.store.get()
	if err != nil {
		return 0, err
	}
	return ts.CurrentEpoch, nil
}

// IsTransitionInProgress reports whether the validator set is frozen.
func (r *Reconfig) IsTransitionInProgress() (bool, error) {
	ts, err := r.store.get()
	if err != nil {
		return false, err
	}
	return ts.Phase == PhaseInProgress, nil
}

// NextEpochTime returns when the running epoch is due to end.
func (r *Reconfig) NextEpochTime() (uint64, error) {
	ts, err := r.store.get()
	if err != nil {
		return 0, err
	}
	interval, err := r.params.GetUint64(gravity.KeyEpochInterval)
	if err != nil {
		return 0, err
	}
	return addSaturating(ts.LastReconfigurationTime, interval), nil
}

func addSaturating(a, b uint64) uint64 {
	if a+b < a {
		return ^uint64(0)
	}
	return a + b
}

// CheckAndStartTransition starts a transition when the epoch is over and none
// is running. It is called every block and is a silent no-op otherwise.
func (r *Reconfig) CheckAndStartTransition(now uint64) (*Started, error) {
	ts, err := r.store.get()
	if err != nil {
		return nil, err
	}
	if ts.Phase != PhaseIdle {
		return nil, nil
	}
	due, err := r.NextEpochTime()
	if err != nil {
		return nil, err
	}
	if now < due {
		return nil, nil
	}
	return r.start(ts, now)
}

// StartTransition is the strict variant of CheckAndStartTransition.
func (r *Reconfig) StartTransition(now uint64) (*Started, error) {
	ts, err := r.store.get()
	if err != nil {
		return nil, err
	}
	if ts.Phase != PhaseIdle {
		return nil, ErrReconfigurationInProgress
	}
	due, err := r.NextEpochTime()
	if err != nil {
		return nil, err
	}
	if now < due {
		return nil, reverts.Wrap(ErrEpochNotYetEnded, "ends at %d, now %d", due, now)
	}
	return r.start(ts, now)
}

func (r *Reconfig) start(ts *TransitionState, now uint64) (*Started, error) {
	cleared, err := r.dkg.TryClearIncompleteSession(now)
	if err != nil {
		return nil, err
	}
	dealers, targets, err := r.validators.Snapshot()
	if err != nil {
		return nil, err
	}
	cfg, err := r.randomness.Current()
	if err != nil {
		return nil, err
	}
	next := ts.CurrentEpoch + 1
	session, err := r.dkg.Start(next, cfg, dealers, targets, now)
	if err != nil {
		return nil, err
	}

	ts.Phase = PhaseInProgress
	ts.TransitionStartedAt = now
	if err := r.store.set(ts); err != nil {
		return nil, err
	}
	logger.Info("epoch transition started", "epoch", ts.CurrentEpoch, "next", next, "dealers", len(dealers), "targets", len(targets))
	return &Started{Epoch: next, Cleared: cleared, Session: session}, nil
}

// FinishTransition installs the next epoch. A forced finish, issued by
// governance, tolerates a missing DKG session and an empty transcript.
func (r *Reconfig) FinishTransition(now uint64, transcript []byte, forced bool) (*Transitioned, error) {
	ts, err := r.store.get()
	if err != nil {
		return nil, err
	}
	if ts.Phase != PhaseInProgress {
		return nil, ErrReconfigurationNotInProgress
	}

	result := &Transitioned{Time: now}
	session, err := r.dkg.Current()
	if err != nil {
		return nil, err
	}
	switch {
	case session != nil:
		if !forced && len(transcript) == 0 {
			return nil, dkg.ErrEmptyTranscript
		}
		if result.Session, err = r.dkg.Finish(transcript, now); err != nil {
			return nil, err
		}
	case forced:
		logger.Warn("forcing epoch transition without a dkg session", "epoch", ts.CurrentEpoch)
	default:
		return nil, dkg.ErrDKGNotInProgress
	}

	if result.RandomnessChange, err = r.randomness.ApplyPending(); err != nil {
		return nil, err
	}
	if result.Epoch, err = r.validators.ApplyEpoch(now); err != nil {
		return nil, err
	}

	ts.CurrentEpoch++
	ts.LastReconfigurationTime = now
	ts.Phase = PhaseIdle
	ts.TransitionStartedAt = 0
	if err := r.store.set(ts); err != nil {
		return nil, err
	}

	result.NewEpoch = ts.CurrentEpoch
	result.Validators = result.Epoch.Validators
	result.TotalVotingPower = result.Epoch.TotalVotingPower

	kind := "dkg"
	if forced {
		kind = "forced"
	}
	metricEpoch().Set(int64(ts.CurrentEpoch))
	metricTransitions().AddWithLabel(1, map[string]string{"kind": kind})
	logger.Info("epoch transitioned", "epoch", ts.CurrentEpoch, "validators", len(result.Validators), "totalVotingPower", result.TotalVotingPower, "forced", forced)
	return result, nil
}
