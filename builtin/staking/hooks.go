// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"fmt"
	"sync"

	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/metrics"
)

var metricHookFailures = metrics.LazyLoadCounterVec("staking_hook_failures_count", []string{"hook"})

// PoolHook receives notifications about a pool's stake. Implementations are
// untrusted: errors and panics are logged and swallowed.
type PoolHook interface {
	OnStakeAdded(pool gravity.Address, amount uint64) error
	OnWithdrawalRequested(pool gravity.Address, nonce, amount uint64) error
	OnWithdrawalClaimed(pool gravity.Address, nonce, amount uint64) error
}

// Hooks is the in-process registry of pool hooks.
type Hooks struct {
	mu    sync.RWMutex
	hooks map[gravity.Address]PoolHook
}

func NewHooks() *Hooks {
	return &Hooks{hooks: make(map[gravity.Address]PoolHook)}
}

// Register installs hook for pool, replacing any previous one. A nil hook removes it.
func (h *Hooks) Register(pool gravity.Address, hook PoolHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hook == nil {
		delete(h.hooks, pool)
		return
	}
	h.hooks[pool] = hook
}

func (h *Hooks) get(pool gravity.Address) PoolHook {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.hooks[pool]
}

// invoke calls fn on the pool's hook, if any, isolating the caller from its failures.
func (h *Hooks) invoke(pool gravity.Address, name string, fn func(PoolHook) error) {
	hook := h.get(pool)
	if hook == nil {
		return
	}
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("hook panicked: %v", r)
			}
		}()
		return fn(hook)
	}()
	if err != nil {
		metricHookFailures().AddWithLabel(1, map[string]string{"hook": name})
		logger.Warn("pool hook failed", "pool", pool, "hook", name, "err", err)
	}
}
