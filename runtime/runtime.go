// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/gravity-chain/epochcore/builtin"
	"github.com/gravity-chain/epochcore/builtin/reverts"
	"github.com/gravity-chain/epochcore/builtin/solidity"
	"github.com/gravity-chain/epochcore/builtin/staking"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/log"
	"github.com/gravity-chain/epochcore/metrics"
	"github.com/gravity-chain/epochcore/state"
	"github.com/gravity-chain/epochcore/xenv"
)

var (
	ErrNotGovernance = reverts.New(reverts.Capability, "caller is not governance")
	ErrNotAuthorized = reverts.New(reverts.Capability, "caller may not finish a transition")
	ErrUnknownConfig = reverts.New(reverts.Capability, "unknown config store")

	logger = log.WithContext("pkg", "runtime")

	metricCalls = metrics.LazyLoadCounterVec("runtime_calls_count", []string{"method", "result"})

	slotBlock = gravity.BytesToBytes32([]byte("block"))
)

// Output is what a successful entry point produced.
type Output struct {
	Events []*xenv.Event
}

// Runtime executes entry points against the chain state. Every entry point is
// atomic: any error reverts every write it made and drops its events.
type Runtime struct {
	mu         sync.Mutex
	stater     *state.Stater
	state      *state.State
	contracts  *builtin.Contracts
	hooks      *staking.Hooks
	governance gravity.Address
	blockCtx   xenv.BlockContext
}

// New creates a runtime over the latest committed state.
func New(stater *state.Stater, governance gravity.Address, hooks *staking.Hooks) (*Runtime, error) {
	rt := &Runtime{
		stater:     stater,
		hooks:      hooks,
		governance: governance,
	}
	if err := rt.reload(); err != nil {
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) blockStore() *solidity.Value[*xenv.BlockContext] {
	return solidity.NewValue[*xenv.BlockContext](solidity.NewContext(gravity.BlockAddress, rt.state), slotBlock)
}

func (rt *Runtime) reload() error {
	rt.state = rt.stater.NewState()
	rt.contracts = builtin.New(rt.state, rt.hooks)
	ctx, err := rt.blockStore().Get()
	if err != nil {
		return errors.Wrap(err, "load block context")
	}
	if ctx.Time == 0 {
		// no block started since genesis
		if ctx.Time, err = rt.contracts.Timestamp.NowMicroseconds(); err != nil {
			return err
		}
	}
	rt.blockCtx = *ctx
	return nil
}

// Hooks returns the pool hook registry.
func (rt *Runtime) Hooks() *staking.Hooks { return rt.hooks }

// Governance returns the address allowed to call governance entry points.
func (rt *Runtime) Governance() gravity.Address { return rt.governance }

// BlockContext returns the context of the last started block.
func (rt *Runtime) BlockContext() xenv.BlockContext {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.blockCtx
}

// Commit writes every change since the last commit and returns their hash.
func (rt *Runtime) Commit() (gravity.Bytes32, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	stage := rt.state.Stage()
	hash := stage.Hash()
	if err := stage.Commit(); err != nil {
		return gravity.Bytes32{}, errors.Wrap(err, "commit state")
	}
	if err := rt.reload(); err != nil {
		return gravity.Bytes32{}, err
	}
	return hash, nil
}

// View runs fn against the current state. Writes made by fn are discarded.
func (rt *Runtime) View(fn func(c *builtin.Contracts) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rev := rt.state.NewCheckpoint()
	defer rt.state.RevertTo(rev)
	return fn(rt.contracts)
}

// exec runs fn atomically under blockCtx.
func (rt *Runtime) exec(method string, caller gravity.Address, blockCtx *xenv.BlockContext, fn func(env *xenv.Environment) error) (*Output, error) {
	epoch, err := rt.contracts.Reconfig.CurrentEpoch()
	if err != nil {
		return nil, err
	}

	rev := rt.state.NewCheckpoint()
	env := xenv.New(rt.contracts, blockCtx, caller, epoch)
	if err := fn(env); err != nil {
		rt.state.RevertTo(rev)
		result := "error"
		if reverts.IsRevertErr(err) {
			result = "revert"
			logger.Debug("call reverted", "method", method, "caller", caller, "err", err)
		} else {
			logger.Error("call failed", "method", method, "caller", caller, "err", err)
		}
		metricCalls().AddWithLabel(1, map[string]string{"method": method, "result": result})
		return nil, err
	}
	metricCalls().AddWithLabel(1, map[string]string{"method": method, "result": "ok"})
	return &Output{Events: env.Events()}, nil
}

// call is exec under the current block context, holding the lock.
func (rt *Runtime) call(method string, caller gravity.Address, fn func(env *xenv.Environment) error) (*Output, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	ctx := rt.blockCtx
	return rt.exec(method, caller, &ctx, fn)
}

func (rt *Runtime) requireGovernance(caller gravity.Address) error {
	if caller != rt.governance {
		return ErrNotGovernance
	}
	return nil
}
