// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"github.com/gravity-chain/epochcore/builtin/reconfig"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/xenv"
)

// OnBlockStart is the block prologue run by the driver: it advances the
// clock, records proposer performance and starts a transition when due.
func (rt *Runtime) OnBlockStart(proposer gravity.Address, blockTime uint64, failedProposerIndices []uint64) (*Output, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	next := xenv.BlockContext{
		Number:   rt.blockCtx.Number + 1,
		Time:     blockTime,
		Proposer: proposer,
	}
	out, err := rt.exec("onBlockStart", gravity.SystemCallerAddress, &next, func(env *xenv.Environment) error {
		c := env.Contracts()
		if err := c.Timestamp.UpdateGlobalTime(proposer, blockTime); err != nil {
			return err
		}
		if err := rt.blockStore().Set(&next); err != nil {
			return err
		}
		if err := c.Validators.RecordProposal(proposer, failedProposerIndices); err != nil {
			return err
		}
		started, err := c.Reconfig.CheckAndStartTransition(blockTime)
		if err != nil || started == nil {
			return err
		}
		emitStarted(env, started)
		return nil
	})
	if err != nil {
		return nil, err
	}
	rt.blockCtx = next
	return out, nil
}

func emitStarted(env *xenv.Environment, started *reconfig.Started) {
	if started.Cleared != nil {
		env.Emit(gravity.DKGAddress, EventDKGSessionCleared, &DKGSessionCleared{
			Epoch:     started.Cleared.Epoch,
			StartTime: started.Cleared.StartTime,
		})
	}
	env.Emit(gravity.ReconfigurationAddress, EventTransitionStarted, &TransitionStarted{
		Epoch:     started.Epoch - 1,
		NextEpoch: started.Epoch,
	})
	env.Emit(gravity.DKGAddress, EventDKGSessionStarted, &DKGSessionStarted{
		Epoch:   started.Session.Epoch,
		Config:  started.Session.Config,
		Dealers: started.Session.Dealers,
		Targets: started.Session.Targets,
	})
}

// StartTransition lets governance start a due transition explicitly.
func (rt *Runtime) StartTransition(caller gravity.Address) (*Output, error) {
	return rt.call("startTransition", caller, func(env *xenv.Environment) error {
		if err := rt.requireGovernance(caller); err != nil {
			return err
		}
		started, err := env.Contracts().Reconfig.StartTransition(env.BlockContext().Time)
		if err != nil {
			return err
		}
		emitStarted(env, started)
		return nil
	})
}

// FinishTransition installs the next epoch. The consensus engine calls it
// through the system caller with the DKG transcript; governance may call it
// at any time during a transition, with or without a transcript.
func (rt *Runtime) FinishTransition(caller gravity.Address, transcript []byte) (*Output, error) {
	return rt.call("finishTransition", caller, func(env *xenv.Environment) error {
		var forced bool
		switch caller {
		case gravity.SystemCallerAddress:
		case rt.governance:
			forced = true
		default:
			return ErrNotAuthorized
		}

		now := env.BlockContext().Time
		done, err := env.Contracts().Reconfig.FinishTransition(now, transcript, forced)
		if err != nil {
			return err
		}
		if done.Session != nil {
			finished := &DKGSessionFinished{Epoch: done.Session.Epoch, TranscriptSize: len(done.Session.Transcript)}
			if len(done.Session.Transcript) > 0 {
				finished.TranscriptHash = gravity.Blake2b(done.Session.Transcript)
			}
			env.Emit(gravity.DKGAddress, EventDKGSessionFinished, finished)
		}
		if skipped := done.Epoch.EvictionSkipped; skipped != nil {
			env.Emit(gravity.ValidatorManagerAddress, EventEvictionSkipped, &EvictionSkipped{
				Expected: skipped.Expected,
				Got:      skipped.Got,
			})
		}
		env.SetEpoch(done.NewEpoch)
		env.Emit(gravity.ReconfigurationAddress, EventEpochTransitioned, &EpochTransitioned{
			NewEpoch:         done.NewEpoch,
			Validators:       done.Validators,
			TotalVotingPower: done.TotalVotingPower,
			Time:             done.Time,
			Activated:        done.Epoch.Activated,
			Deactivated:      done.Epoch.Deactivated,
			Evicted:          done.Epoch.Evicted,
			Forced:           forced,
		})
		return nil
	})
}
