// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dkg

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/gravity-chain/epochcore/builtin/randomness"
	"github.com/gravity-chain/epochcore/builtin/validators"
	"github.com/gravity-chain/epochcore/gravity"
)

type Status uint8

const (
	StatusNone Status = iota
	StatusInProgress
	StatusComplete
	StatusCleared
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "NONE"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusComplete:
		return "COMPLETE"
	case StatusCleared:
		return "CLEARED"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for v := StatusNone; v <= StatusCleared; v++ {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown dkg status %q", text)
}

// Session is the full snapshot of a DKG ceremony, kept only while it runs.
type Session struct {
	Epoch      uint64
	Config     *randomness.Config
	Dealers    []validators.ConsensusInfo
	Targets    []validators.ConsensusInfo
	StartTime  uint64
	Transcript []byte
}

// IsEmpty reports whether no session is stored.
func (s *Session) IsEmpty() bool {
	return s.Config == nil && len(s.Dealers) == 0 && len(s.Targets) == 0 && s.StartTime == 0 && s.Epoch == 0
}

// SnapshotHash commits to the dealer and target sets.
func (s *Session) SnapshotHash() (gravity.Bytes32, error) {
	data, err := rlp.EncodeToBytes([]any{s.Dealers, s.Targets})
	if err != nil {
		return gravity.Bytes32{}, err
	}
	return gravity.Blake2b(data), nil
}

// CompletedSession is what remains of a session once it left IN_PROGRESS.
type CompletedSession struct {
	Epoch          uint64
	DealerCount    uint64
	TargetCount    uint64
	SnapshotHash   gravity.Bytes32
	TranscriptHash gravity.Bytes32
	StartTime      uint64
	EndTime        uint64
	Status         Status
}
