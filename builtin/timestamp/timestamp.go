// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package timestamp

import (
	"github.com/gravity-chain/epochcore/builtin/reverts"
	"github.com/gravity-chain/epochcore/builtin/solidity"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/state"
)

var (
	ErrTimestampRegression = reverts.New(reverts.Timing, "block timestamp must advance")

	slotNow = gravity.BytesToBytes32([]byte("now-micros"))
)

// Timestamp is the chain time oracle, advanced once per block by the driver.
type Timestamp struct {
	now *solidity.Uint64
}

func New(addr gravity.Address, state *state.State) *Timestamp {
	return &Timestamp{now: solidity.NewUint64(solidity.NewContext(addr, state), slotNow)}
}

// NowMicroseconds returns the time of the block being processed.
func (t *Timestamp) NowMicroseconds() (uint64, error) {
	return t.now.Get()
}

// NowSeconds is NowMicroseconds truncated to seconds.
func (t *Timestamp) NowSeconds() (uint64, error) {
	now, err := t.now.Get()
	return now / gravity.Second, err
}

// UpdateGlobalTime moves the clock to newTime. A real proposer must advance it;
// a NIL block keeps it unchanged.
func (t *Timestamp) UpdateGlobalTime(proposer gravity.Address, newTime uint64) error {
	now, err := t.now.Get()
	if err != nil {
		return err
	}
	if proposer == gravity.NilProposer {
		if newTime != now {
			return reverts.Wrap(ErrTimestampRegression, "nil block at %d, now %d", newTime, now)
		}
		return nil
	}
	if newTime <= now {
		return reverts.Wrap(ErrTimestampRegression, "%d <= %d", newTime, now)
	}
	return t.now.Set(newTime)
}
