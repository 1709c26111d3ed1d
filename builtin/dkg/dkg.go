// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dkg

import (
	"github.com/pkg/errors"

	"github.com/gravity-chain/epochcore/builtin/randomness"
	"github.com/gravity-chain/epochcore/builtin/reverts"
	"github.com/gravity-chain/epochcore/builtin/solidity"
	"github.com/gravity-chain/epochcore/builtin/validators"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/log"
	"github.com/gravity-chain/epochcore/metrics"
	"github.com/gravity-chain/epochcore/state"
)

var (
	ErrDKGInProgress    = reverts.New(reverts.DKG, "dkg session in progress")
	ErrDKGNotInProgress = reverts.New(reverts.DKG, "no dkg session in progress")
	ErrEmptyTranscript  = reverts.New(reverts.DKG, "empty dkg transcript")

	logger          = log.WithContext("pkg", "dkg")
	metricSessions  = metrics.LazyLoadCounterVec("dkg_sessions_count", []string{"result"})
	slotSession     = gravity.BytesToBytes32([]byte("session"))
	slotLastSession = gravity.BytesToBytes32([]byte("last-completed"))
)

// DKG tracks the lifecycle of the single DKG session. The cryptography runs off-chain.
type DKG struct {
	session       *solidity.Value[*Session]
	lastCompleted *solidity.Value[*CompletedSession]
}

func New(addr gravity.Address, state *state.State) *DKG {
	ctx := solidity.NewContext(addr, state)
	return &DKG{
		session:       solidity.NewValue[*Session](ctx, slotSession),
		lastCompleted: solidity.NewValue[*CompletedSession](ctx, slotLastSession),
	}
}

// Current returns the running session, nil if none.
func (d *DKG) Current() (*Session, error) {
	s, err := d.session.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get dkg session")
	}
	if s.IsEmpty() {
		return nil, nil
	}
	return s, nil
}

// Status is IN_PROGRESS while a session runs, otherwise the outcome of the last one.
func (d *DKG) Status() (Status, error) {
	s, err := d.Current()
	if err != nil {
		return StatusNone, err
	}
	if s != nil {
		return StatusInProgress, nil
	}
	last, err := d.LastCompleted()
	if err != nil || last == nil {
		return StatusNone, err
	}
	return last.Status, nil
}

// LastCompleted returns the summary of the last finished or cleared session, nil if none.
func (d *DKG) LastCompleted() (*CompletedSession, error) {
	c, err := d.lastCompleted.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get completed dkg session")
	}
	if c.Status == StatusNone {
		return nil, nil
	}
	return c, nil
}

// Start opens the session for epoch.
func (d *DKG) Start(epoch uint64, cfg *randomness.Config, dealers, targets []validators.ConsensusInfo, now uint64) (*Session, error) {
	cur, err := d.Current()
	if err != nil {
		return nil, err
	}
	if cur != nil {
		return nil, reverts.Wrap(ErrDKGInProgress, "epoch %d", cur.Epoch)
	}
	s := &Session{
		Epoch:     epoch,
		Config:    cfg.Copy(),
		Dealers:   dealers,
		Targets:   targets,
		StartTime: now,
	}
	if err := d.session.Set(s); err != nil {
		return nil, errors.Wrap(err, "failed to set dkg session")
	}
	metricSessions().AddWithLabel(1, map[string]string{"result": "started"})
	logger.Info("dkg session started", "epoch", epoch, "dealers", len(dealers), "targets", len(targets), "variant", cfg.Variant)
	return s, nil
}

// TryClearIncompleteSession drops a running session and reports whether there was one.
func (d *DKG) TryClearIncompleteSession(now uint64) (*Session, error) {
	cur, err := d.Current()
	if err != nil || cur == nil {
		return nil, err
	}
	if err := d.close(cur, StatusCleared, now); err != nil {
		return nil, err
	}
	metricSessions().AddWithLabel(1, map[string]string{"result": "cleared"})
	logger.Warn("incomplete dkg session cleared", "epoch", cur.Epoch, "startTime", cur.StartTime)
	return cur, nil
}

// Finish completes the running session with transcript and returns it.
func (d *DKG) Finish(transcript []byte, now uint64) (*Session, error) {
	cur, err := d.Current()
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrDKGNotInProgress
	}
	cur.Transcript = transcript
	if err := d.close(cur, StatusComplete, now); err != nil {
		return nil, err
	}
	metricSessions().AddWithLabel(1, map[string]string{"result": "completed"})
	logger.Info("dkg session finished", "epoch", cur.Epoch, "transcriptSize", len(transcript))
	return cur, nil
}

// close keeps a summary of s and removes the full snapshot.
func (d *DKG) close(s *Session, status Status, now uint64) error {
	snapshot, err := s.SnapshotHash()
	if err != nil {
		return errors.Wrap(err, "failed to hash dkg snapshot")
	}
	summary := &CompletedSession{
		Epoch:        s.Epoch,
		DealerCount:  uint64(len(s.Dealers)),
		TargetCount:  uint64(len(s.Targets)),
		SnapshotHash: snapshot,
		StartTime:    s.StartTime,
		EndTime:      now,
		Status:       status,
	}
	if len(s.Transcript) > 0 {
		summary.TranscriptHash = gravity.Blake2b(s.Transcript)
	}
	if err := d.lastCompleted.Set(summary); err != nil {
		return errors.Wrap(err, "failed to set completed dkg session")
	}
	d.session.Clear()
	return nil
}
