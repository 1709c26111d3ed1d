// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"

	"github.com/gravity-chain/epochcore/builtin/params"
	"github.com/gravity-chain/epochcore/builtin/randomness"
	"github.com/gravity-chain/epochcore/builtin/validators"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/xenv"
)

// CreatePool opens a pool owned and funded by caller.
func (rt *Runtime) CreatePool(caller, operator, staker gravity.Address, amount, lockedUntil uint64) (gravity.Address, *Output, error) {
	var pool gravity.Address
	out, err := rt.call("createPool", caller, func(env *xenv.Environment) (err error) {
		if pool, err = env.Contracts().Staking.CreatePool(caller, operator, staker, amount, lockedUntil); err != nil {
			return err
		}
		env.Emit(gravity.StakingAddress, EventPoolCreated, &PoolCreated{
			Pool:        pool,
			Owner:       caller,
			Operator:    operator,
			Staker:      staker,
			Amount:      amount,
			LockedUntil: lockedUntil,
		})
		return nil
	})
	return pool, out, err
}

func (rt *Runtime) AddStake(caller, pool gravity.Address, amount uint64) (*Output, error) {
	return rt.call("addStake", caller, func(env *xenv.Environment) error {
		if err := env.Contracts().Staking.AddStake(pool, caller, amount); err != nil {
			return err
		}
		env.Emit(gravity.StakingAddress, EventStakeAdded, &StakeAdded{Pool: pool, Amount: amount})
		return nil
	})
}

func (rt *Runtime) RequestWithdrawal(caller, pool gravity.Address, amount uint64) (uint64, *Output, error) {
	var nonce uint64
	out, err := rt.call("requestWithdrawal", caller, func(env *xenv.Environment) (err error) {
		if nonce, err = env.Contracts().Staking.RequestWithdrawal(pool, caller, amount); err != nil {
			return err
		}
		env.Emit(gravity.StakingAddress, EventWithdrawalRequested, &WithdrawalRequested{Pool: pool, Nonce: nonce, Amount: amount})
		return nil
	})
	return nonce, out, err
}

func (rt *Runtime) ClaimWithdrawal(caller, pool gravity.Address, nonce uint64, recipient gravity.Address) (uint64, *Output, error) {
	var amount uint64
	out, err := rt.call("claimWithdrawal", caller, func(env *xenv.Environment) (err error) {
		if amount, err = env.Contracts().Staking.ClaimWithdrawal(pool, caller, nonce, recipient); err != nil {
			return err
		}
		env.Emit(gravity.StakingAddress, EventWithdrawalClaimed, &WithdrawalClaimed{Pool: pool, Nonce: nonce, Amount: amount, Recipient: recipient})
		return nil
	})
	return amount, out, err
}

func (rt *Runtime) RenewLockUntil(caller, pool gravity.Address, duration uint64) (*Output, error) {
	return rt.call("renewLockUntil", caller, func(env *xenv.Environment) error {
		lockedUntil, err := env.Contracts().Staking.RenewLockUntil(pool, caller, duration)
		if err != nil {
			return err
		}
		env.Emit(gravity.StakingAddress, EventLockupRenewed, &LockupRenewed{Pool: pool, LockedUntil: lockedUntil})
		return nil
	})
}

func (rt *Runtime) Unstake(caller, pool gravity.Address, amount uint64, recipient gravity.Address) (*Output, error) {
	return rt.call("unstake", caller, func(env *xenv.Environment) error {
		if err := env.Contracts().Staking.Unstake(pool, caller, amount, recipient); err != nil {
			return err
		}
		env.Emit(gravity.StakingAddress, EventUnstaked, &Unstaked{Pool: pool, Amount: amount, Recipient: recipient})
		return nil
	})
}

func (rt *Runtime) RegisterValidator(caller, pool gravity.Address, args *validators.RegisterArgs) (*Output, error) {
	return rt.call("registerValidator", caller, func(env *xenv.Environment) error {
		if _, err := env.Contracts().Validators.Register(caller, pool, args); err != nil {
			return err
		}
		env.Emit(gravity.ValidatorManagerAddress, EventValidatorRegistered, &ValidatorEvent{Pool: pool, Moniker: args.Moniker})
		return nil
	})
}

func (rt *Runtime) JoinValidatorSet(caller, pool gravity.Address) (*Output, error) {
	return rt.call("joinValidatorSet", caller, func(env *xenv.Environment) error {
		if err := env.Contracts().Validators.Join(caller, pool); err != nil {
			return err
		}
		env.Emit(gravity.ValidatorManagerAddress, EventValidatorJoinRequested, &ValidatorEvent{Pool: pool})
		return nil
	})
}

func (rt *Runtime) LeaveValidatorSet(caller, pool gravity.Address) (*Output, error) {
	return rt.call("leaveValidatorSet", caller, func(env *xenv.Environment) error {
		if err := env.Contracts().Validators.Leave(caller, pool); err != nil {
			return err
		}
		env.Emit(gravity.ValidatorManagerAddress, EventValidatorLeaveRequested, &ValidatorEvent{Pool: pool})
		return nil
	})
}

func (rt *Runtime) ForceLeaveValidatorSet(caller, pool gravity.Address) (*Output, error) {
	return rt.call("forceLeaveValidatorSet", caller, func(env *xenv.Environment) error {
		if err := rt.requireGovernance(caller); err != nil {
			return err
		}
		if err := env.Contracts().Validators.ForceLeave(pool); err != nil {
			return err
		}
		env.Emit(gravity.ValidatorManagerAddress, EventValidatorLeaveRequested, &ValidatorEvent{Pool: pool, Forced: true})
		return nil
	})
}

func (rt *Runtime) RotateConsensusKey(caller, pool gravity.Address, pubkey, pop []byte) (*Output, error) {
	return rt.call("rotateConsensusKey", caller, func(env *xenv.Environment) error {
		if err := env.Contracts().Validators.RotateConsensusKey(caller, pool, pubkey, pop); err != nil {
			return err
		}
		env.Emit(gravity.ValidatorManagerAddress, EventConsensusKeyRotated, &ValidatorEvent{Pool: pool})
		return nil
	})
}

func (rt *Runtime) SetFeeRecipient(caller, pool, recipient gravity.Address) (*Output, error) {
	return rt.call("setFeeRecipient", caller, func(env *xenv.Environment) error {
		if err := env.Contracts().Validators.SetFeeRecipient(caller, pool, recipient); err != nil {
			return err
		}
		env.Emit(gravity.ValidatorManagerAddress, EventFeeRecipientUpdated, &FeeRecipientUpdated{Pool: pool, Recipient: recipient})
		return nil
	})
}

// SetRandomnessConfig queues cfg for the next epoch.
func (rt *Runtime) SetRandomnessConfig(caller gravity.Address, cfg *randomness.Config) (*Output, error) {
	return rt.call("setRandomnessConfig", caller, func(env *xenv.Environment) error {
		if err := rt.requireGovernance(caller); err != nil {
			return err
		}
		if err := env.Contracts().Randomness.SetForNextEpoch(cfg); err != nil {
			return err
		}
		env.Emit(gravity.RandomnessConfigAddress, EventRandomnessConfigUpdated, cfg)
		return nil
	})
}

// SetParam updates a governance parameter of one of the config stores.
func (rt *Runtime) SetParam(caller, store gravity.Address, key gravity.Bytes32, value *big.Int) (*Output, error) {
	return rt.call("setParam", caller, func(env *xenv.Environment) error {
		if err := rt.requireGovernance(caller); err != nil {
			return err
		}
		p := configStore(env, store)
		if p == nil {
			return ErrUnknownConfig
		}
		if err := p.Set(key, value); err != nil {
			return err
		}
		env.Emit(store, EventParamUpdated, &ParamUpdated{Store: store, Key: key, Value: value})
		return nil
	})
}

func configStore(env *xenv.Environment, store gravity.Address) *params.Params {
	c := env.Contracts()
	switch store {
	case gravity.StakeConfigAddress:
		return c.StakeConfig
	case gravity.ValidatorConfigAddress:
		return c.ValidatorConfig
	case gravity.EpochConfigAddress:
		return c.EpochConfig
	}
	return nil
}
