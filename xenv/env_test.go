// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gravity-chain/epochcore/gravity"
)

func TestEmit(t *testing.T) {
	env := New(nil, &BlockContext{Number: 3, Time: 10}, gravity.SystemCallerAddress, 1)
	env.Emit(gravity.ReconfigurationAddress, "TransitionStarted", map[string]uint64{"epoch": 2})
	env.SetEpoch(2)
	env.Emit(gravity.ReconfigurationAddress, "EpochTransitioned", nil)

	events := env.Events()
	assert.Len(t, events, 2)
	assert.Equal(t, uint64(1), events[0].Epoch)
	assert.Equal(t, uint64(2), events[1].Epoch)
	assert.Equal(t, uint64(3), events[1].BlockNumber)
	assert.Equal(t, gravity.SystemCallerAddress, env.Caller())
}
