// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reconfig

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/gravity-chain/epochcore/builtin/solidity"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/state"
)

type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseInProgress
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseInProgress:
		return "IN_PROGRESS"
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for v := PhaseIdle; v <= PhaseInProgress; v++ {
		if v.String() == string(text) {
			*p = v
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// TransitionState is the persisted state of the coordinator.
type TransitionState struct {
	Phase                   Phase
	CurrentEpoch            uint64
	LastReconfigurationTime uint64
	TransitionStartedAt     uint64
	Initialized             bool
}

var slotTransition = gravity.BytesToBytes32([]byte("transition"))

type transitionStore struct {
	v *solidity.Value[*TransitionState]
}

func newTransitionStore(addr gravity.Address, state *state.State) transitionStore {
	return transitionStore{solidity.NewValue[*TransitionState](solidity.NewContext(addr, state), slotTransition)}
}

func (s transitionStore) get() (*TransitionState, error) {
	ts, err := s.v.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transition state")
	}
	return ts, nil
}

func (s transitionStore) set(ts *TransitionState) error {
	if err := s.v.Set(ts); err != nil {
		return errors.Wrap(err, "failed to set transition state")
	}
	return nil
}

// Gate is the read-only freeze gate consulted by the stake ledger and the validator registry.
type Gate struct {
	store transitionStore
}

func NewGate(addr gravity.Address, state *state.State) *Gate {
	return &Gate{newTransitionStore(addr, state)}
}

// IsTransitionInProgress reports whether an epoch transition is in flight.
func (g *Gate) IsTransitionInProgress() (bool, error) {
	ts, err := g.store.get()
	if err != nil {
		return false, err
	}
	return ts.Phase == PhaseInProgress, nil
}
