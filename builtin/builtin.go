// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/gravity-chain/epochcore/builtin/dkg"
	"github.com/gravity-chain/epochcore/builtin/params"
	"github.com/gravity-chain/epochcore/builtin/randomness"
	"github.com/gravity-chain/epochcore/builtin/reconfig"
	"github.com/gravity-chain/epochcore/builtin/staking"
	"github.com/gravity-chain/epochcore/builtin/timestamp"
	"github.com/gravity-chain/epochcore/builtin/validators"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/state"
)

// Builtin contracts binding.
var (
	Timestamp       = &timestampContract{gravity.TimestampAddress}
	StakeConfig     = &paramsContract{gravity.StakeConfigAddress}
	ValidatorConfig = &paramsContract{gravity.ValidatorConfigAddress}
	EpochConfig     = &paramsContract{gravity.EpochConfigAddress}
	Randomness      = &randomnessContract{gravity.RandomnessConfigAddress}
	DKG             = &dkgContract{gravity.DKGAddress}
	Reconfiguration = &reconfigContract{gravity.ReconfigurationAddress}
)

type (
	timestampContract  struct{ Address gravity.Address }
	paramsContract     struct{ Address gravity.Address }
	randomnessContract struct{ Address gravity.Address }
	dkgContract        struct{ Address gravity.Address }
	reconfigContract   struct{ Address gravity.Address }
)

func (c *timestampContract) WithState(state *state.State) *timestamp.Timestamp {
	return timestamp.New(c.Address, state)
}

func (c *paramsContract) WithState(state *state.State) *params.Params {
	return params.New(c.Address, state)
}

func (c *randomnessContract) WithState(state *state.State) *randomness.Randomness {
	return randomness.New(c.Address, state)
}

func (c *dkgContract) WithState(state *state.State) *dkg.DKG {
	return dkg.New(c.Address, state)
}

// Gate returns the freeze gate alone, without the rest of the coordinator.
func (c *reconfigContract) Gate(state *state.State) *reconfig.Gate {
	return reconfig.NewGate(c.Address, state)
}

// Contracts is every system contract bound to one state.
type Contracts struct {
	State           *state.State
	Timestamp       *timestamp.Timestamp
	StakeConfig     *params.Params
	ValidatorConfig *params.Params
	EpochConfig     *params.Params
	Randomness      *randomness.Randomness
	Staking         *staking.Staking
	Validators      *validators.Validators
	DKG             *dkg.DKG
	Reconfig        *reconfig.Reconfig
}

// bondGuard defers to the registry, which is built after the stake ledger.
type bondGuard struct{ c *Contracts }

func (g bondGuard) MinimumBondFor(pool gravity.Address) (uint64, bool, error) {
	return g.c.Validators.MinimumBondFor(pool)
}

// New binds all system contracts to state. hooks may be nil.
func New(state *state.State, hooks *staking.Hooks) *Contracts {
	c := &Contracts{
		State:           state,
		Timestamp:       Timestamp.WithState(state),
		StakeConfig:     StakeConfig.WithState(state),
		ValidatorConfig: ValidatorConfig.WithState(state),
		EpochConfig:     EpochConfig.WithState(state),
		Randomness:      Randomness.WithState(state),
		DKG:             DKG.WithState(state),
	}
	gate := Reconfiguration.Gate(state)
	c.Staking = staking.New(gravity.StakingAddress, state, c.StakeConfig, c.Timestamp, gate, bondGuard{c}, hooks)
	c.Validators = validators.New(gravity.ValidatorManagerAddress, state, c.ValidatorConfig, c.Staking, c.Timestamp, gate)
	c.Reconfig = reconfig.New(gravity.ReconfigurationAddress, state, c.EpochConfig, c.DKG, c.Validators, c.Randomness)
	return c
}
