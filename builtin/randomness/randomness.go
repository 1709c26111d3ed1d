// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package randomness

import (
	"github.com/pkg/errors"

	"github.com/gravity-chain/epochcore/builtin/reverts"
	"github.com/gravity-chain/epochcore/builtin/solidity"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/log"
	"github.com/gravity-chain/epochcore/state"
)

var (
	ErrInvalidConfig = reverts.New(reverts.Invariant, "invalid randomness config")

	logger = log.WithContext("pkg", "randomness")

	slotCurrent = gravity.BytesToBytes32([]byte("current"))
	slotPending = gravity.BytesToBytes32([]byte("pending"))
)

type pendingConfig struct {
	Set    bool
	Config *Config `rlp:"nil"`
}

// Randomness holds the active DKG threshold config and the one queued for the next epoch.
type Randomness struct {
	current *solidity.Value[*Config]
	pending *solidity.Value[*pendingConfig]
}

func New(addr gravity.Address, state *state.State) *Randomness {
	ctx := solidity.NewContext(addr, state)
	return &Randomness{
		current: solidity.NewValue[*Config](ctx, slotCurrent),
		pending: solidity.NewValue[*pendingConfig](ctx, slotPending),
	}
}

// Initialize sets the genesis configuration.
func (r *Randomness) Initialize(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return r.current.Set(cfg.Copy())
}

// Current returns the configuration in effect for this epoch.
func (r *Randomness) Current() (*Config, error) {
	cfg, err := r.current.Get()
	if err != nil {
		return nil, errors.Wrap(err, "load randomness config")
	}
	return cfg.Copy(), nil
}

// Pending returns the configuration queued for the next epoch, nil if none.
func (r *Randomness) Pending() (*Config, error) {
	p, err := r.pending.Get()
	if err != nil {
		return nil, errors.Wrap(err, "load pending randomness config")
	}
	if !p.Set {
		return nil, nil
	}
	return p.Config.Copy(), nil
}

// SetForNextEpoch queues cfg, replacing any earlier queued config.
func (r *Randomness) SetForNextEpoch(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return r.pending.Set(&pendingConfig{Set: true, Config: cfg.Copy()})
}

// ApplyPending promotes the queued config, if any. Called at epoch transition.
func (r *Randomness) ApplyPending() (bool, error) {
	p, err := r.pending.Get()
	if err != nil {
		return false, errors.Wrap(err, "load pending randomness config")
	}
	if !p.Set {
		return false, nil
	}
	if err := r.current.Set(p.Config); err != nil {
		return false, err
	}
	r.pending.Clear()
	logger.Info("randomness config applied", "variant", p.Config.Variant, "secrecy", p.Config.SecrecyThreshold)
	return true, nil
}
