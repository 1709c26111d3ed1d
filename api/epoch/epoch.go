// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epoch

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gravity-chain/epochcore/api/utils"
	"github.com/gravity-chain/epochcore/builtin"
	"github.com/gravity-chain/epochcore/runtime"
)

type Epochs struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Epochs {
	return &Epochs{rt}
}

func (e *Epochs) handleGetEpoch(w http.ResponseWriter, _ *http.Request) error {
	blockCtx := e.rt.BlockContext()
	var res *Epoch
	if err := e.rt.View(func(c *builtin.Contracts) error {
		ts, err := c.Reconfig.State()
		if err != nil {
			return err
		}
		next, err := c.Reconfig.NextEpochTime()
		if err != nil {
			return err
		}
		count, err := c.Validators.ActiveCount()
		if err != nil {
			return err
		}
		total, err := c.Validators.TotalVotingPower()
		if err != nil {
			return err
		}
		current, err := c.Randomness.Current()
		if err != nil {
			return err
		}
		pending, err := c.Randomness.Pending()
		if err != nil {
			return err
		}
		res = &Epoch{
			Epoch:                   ts.CurrentEpoch,
			Phase:                   ts.Phase,
			LastReconfigurationTime: ts.LastReconfigurationTime,
			TransitionStartedAt:     ts.TransitionStartedAt,
			NextEpochTime:           next,
			BlockNumber:             blockCtx.Number,
			BlockTime:               blockCtx.Time,
			ValidatorCount:          count,
			TotalVotingPower:        total,
			Randomness:              convertRandomness(current),
			PendingRandomness:       convertRandomness(pending),
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, res)
}

func (e *Epochs) handleGetDKG(w http.ResponseWriter, _ *http.Request) error {
	res := &DKG{}
	if err := e.rt.View(func(c *builtin.Contracts) error {
		status, err := c.DKG.Status()
		if err != nil {
			return err
		}
		res.Status = status

		session, err := c.DKG.Current()
		if err != nil {
			return err
		}
		if session != nil {
			hash, err := session.SnapshotHash()
			if err != nil {
				return err
			}
			res.Current = &Session{
				Epoch:        session.Epoch,
				Status:       status,
				StartTime:    session.StartTime,
				DealerCount:  len(session.Dealers),
				TargetCount:  len(session.Targets),
				SnapshotHash: hash,
			}
		}

		last, err := c.DKG.LastCompleted()
		if err != nil {
			return err
		}
		if last != nil {
			res.LastCompleted = &Completed{
				Epoch:          last.Epoch,
				Status:         last.Status,
				StartTime:      last.StartTime,
				EndTime:        last.EndTime,
				DealerCount:    last.DealerCount,
				TargetCount:    last.TargetCount,
				SnapshotHash:   last.SnapshotHash,
				TranscriptHash: last.TranscriptHash,
			}
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, res)
}

func (e *Epochs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /epoch").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetEpoch))
}

// MountDKG mounts the dkg session endpoint.
func (e *Epochs) MountDKG(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /dkg").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetDKG))
}
