// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/gravity-chain/epochcore/builtin"
	"github.com/gravity-chain/epochcore/builtin/params"
	"github.com/gravity-chain/epochcore/builtin/validators"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/log"
	"github.com/gravity-chain/epochcore/state"
)

var logger = log.WithContext("pkg", "genesis")

// Genesis builds the initial chain state.
type Genesis struct {
	name   string
	config *Config
}

// Result describes a built genesis state.
type Result struct {
	Root  gravity.Bytes32
	Pools []gravity.Address
	Epoch *validators.EpochResult
}

// New validates cfg and returns a genesis ready to build.
func New(name string, cfg *Config) (*Genesis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid genesis config")
	}
	return &Genesis{name: name, config: cfg}, nil
}

// Name returns the network name.
func (g *Genesis) Name() string { return g.name }

// Config returns the genesis config.
func (g *Genesis) Config() *Config { return g.config }

// Governance returns the governance address, falling back to the default one.
func (g *Genesis) Governance() gravity.Address {
	if g.config.Governance.IsZero() {
		return gravity.GovernanceAddress
	}
	return g.config.Governance
}

func (g *Genesis) params() map[gravity.Address]map[gravity.Bytes32]*big.Int {
	vc := &g.config.ValidatorConfig
	sc := &g.config.StakingConfig
	return map[gravity.Address]map[gravity.Bytes32]*big.Int{
		gravity.ValidatorConfigAddress: {
			gravity.KeyMinimumBond:                 bigOr(vc.MinimumBond, gravity.InitialMinimumBond),
			gravity.KeyMaximumBond:                 bigOr(vc.MaximumBond, gravity.InitialMaximumBond),
			gravity.KeyValidatorUnbondingDelay:     new(big.Int).SetUint64(uint64Or(vc.UnbondingDelayMicros, gravity.InitialValidatorUnbondingDelay.Uint64())),
			gravity.KeyAllowValidatorSetChange:     boolInt(vc.AllowValidatorSetChange),
			gravity.KeyVotingPowerIncreaseLimitPct: new(big.Int).SetUint64(uint64Or(vc.VotingPowerIncreaseLimitPct, gravity.InitialVotingPowerIncreaseLimitPct.Uint64())),
			gravity.KeyMaxValidatorSetSize:         bigOr(vc.MaxValidatorSetSize, gravity.InitialMaxValidatorSetSize),
			gravity.KeyAutoEvictEnabled:            boolInt(vc.AutoEvictEnabled),
			gravity.KeyAutoEvictThreshold:          bigOr(vc.AutoEvictThreshold, gravity.InitialAutoEvictThreshold),
		},
		gravity.StakeConfigAddress: {
			gravity.KeyMinimumStake:          bigOr(sc.MinimumStake, gravity.InitialMinimumStake),
			gravity.KeyLockupDuration:        new(big.Int).SetUint64(uint64Or(sc.LockupDurationMicros, gravity.InitialLockupDuration.Uint64())),
			gravity.KeyMaxLockupDuration:     new(big.Int).SetUint64(uint64Or(sc.MaxLockupDurationMicros, gravity.InitialMaxLockupDuration.Uint64())),
			gravity.KeyStakingUnbondingDelay: new(big.Int).SetUint64(uint64Or(sc.UnbondingDelayMicros, gravity.InitialStakingUnbondingDelay.Uint64())),
			gravity.KeyMinimumProposalStake:  bigOr(sc.MinimumProposalStake, gravity.InitialMinimumProposalStake),
		},
		gravity.EpochConfigAddress: {
			gravity.KeyEpochInterval: new(big.Int).SetUint64(uint64Or(g.config.EpochIntervalMicros, gravity.InitialEpochInterval.Uint64())),
			gravity.KeyMajorVersion:  new(big.Int).SetUint64(uint64Or(g.config.MajorVersion, gravity.InitialMajorVersion.Uint64())),
		},
	}
}

// Build writes the genesis state into stater, commits it and returns the
// resulting root together with the committee of epoch 0.
func (g *Genesis) Build(stater *state.Stater) (*Result, error) {
	st := stater.NewState()
	res, err := g.apply(st)
	if err != nil {
		return nil, err
	}
	stage := st.Stage()
	res.Root = stage.Hash()
	if err := stage.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit genesis state")
	}
	logger.Info("genesis built",
		"name", g.name,
		"root", res.Root,
		"validators", len(res.Epoch.Validators),
		"totalVotingPower", res.Epoch.TotalVotingPower,
	)
	return res, nil
}

func (g *Genesis) apply(st *state.State) (*Result, error) {
	cfg := g.config
	launch := cfg.LaunchTimeMicros

	for _, acc := range cfg.Accounts {
		if err := st.SetBalance(acc.Address, (*big.Int)(acc.Balance)); err != nil {
			return nil, err
		}
	}

	c := builtin.New(st, nil)
	stores := map[gravity.Address]*params.Params{
		gravity.ValidatorConfigAddress: c.ValidatorConfig,
		gravity.StakeConfigAddress:     c.StakeConfig,
		gravity.EpochConfigAddress:     c.EpochConfig,
	}
	for addr, kv := range g.params() {
		p := stores[addr]
		for k, v := range kv {
			if err := p.Set(k, v); err != nil {
				return nil, errors.Wrapf(err, "set param %s", k)
			}
		}
	}

	if err := c.Timestamp.UpdateGlobalTime(gravity.GenesisAddress, launch); err != nil {
		return nil, errors.Wrap(err, "set launch time")
	}
	rnd, err := cfg.RandomnessConfig.randomness()
	if err != nil {
		return nil, errors.Wrap(err, "randomness config")
	}
	if err := rnd.Validate(); err != nil {
		return nil, errors.Wrap(err, "randomness config")
	}
	if err := c.Randomness.Initialize(rnd); err != nil {
		return nil, err
	}
	if err := c.Reconfig.Initialize(launch); err != nil {
		return nil, err
	}

	lockup, err := c.StakeConfig.GetUint64(gravity.KeyLockupDuration)
	if err != nil {
		return nil, err
	}

	pools := make([]gravity.Address, 0, len(cfg.Validators))
	for i, v := range cfg.Validators {
		amount := (*big.Int)(v.StakeAmount)
		if err := st.AddBalance(v.Owner, amount); err != nil {
			return nil, err
		}
		pool, err := c.Staking.CreatePool(v.Owner, v.Operator, v.Owner, amount.Uint64(), launch+lockup)
		if err != nil {
			return nil, errors.Wrapf(err, "validator %d: create pool", i)
		}
		feeRecipient := v.Owner
		if v.FeeRecipient != nil {
			feeRecipient = *v.FeeRecipient
		}
		if _, err := c.Validators.Register(v.Operator, pool, &validators.RegisterArgs{
			Moniker:           v.Moniker,
			ConsensusPubkey:   v.ConsensusPubkey,
			ConsensusPop:      v.ConsensusPop,
			NetworkAddresses:  []byte(v.NetworkAddresses),
			FullnodeAddresses: []byte(v.FullnodeAddresses),
			FeeRecipient:      feeRecipient,
		}); err != nil {
			return nil, errors.Wrapf(err, "validator %d: register", i)
		}
		logger.Debug("genesis validator", "index", i, "moniker", v.Moniker, "pool", pool, "stake", amount)
		pools = append(pools, pool)
	}

	epoch, err := c.Validators.Bootstrap(launch, pools)
	if err != nil {
		return nil, errors.Wrap(err, "bootstrap committee")
	}
	if err := Verify(c, pools); err != nil {
		return nil, err
	}
	return &Result{Pools: pools, Epoch: epoch}, nil
}

// Verify checks that the committee stored in c is exactly pools, in order.
func Verify(c *builtin.Contracts, pools []gravity.Address) error {
	active, err := c.Validators.ActiveValidators()
	if err != nil {
		return err
	}
	if len(active) != len(pools) {
		return errors.Errorf("genesis committee has %d validators, want %d", len(active), len(pools))
	}
	for i, info := range active {
		if info.Validator != pools[i] {
			return errors.Errorf("genesis committee slot %d is %s, want %s", i, info.Validator, pools[i])
		}
		if info.ValidatorIndex != uint64(i) {
			return errors.Errorf("genesis validator %s has index %d, want %d", info.Validator, info.ValidatorIndex, i)
		}
		if info.VotingPower == 0 {
			return errors.Errorf("genesis validator %s has no voting power", info.Validator)
		}
	}
	return nil
}
