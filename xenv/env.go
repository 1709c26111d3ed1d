// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"github.com/gravity-chain/epochcore/builtin"
	"github.com/gravity-chain/epochcore/gravity"
)

// BlockContext block context.
type BlockContext struct {
	Number   uint64
	Time     uint64
	Proposer gravity.Address
}

// Event is a notification emitted by an entry point. It is only published
// when the entry point succeeds.
type Event struct {
	Name        string          `json:"name"`
	Address     gravity.Address `json:"address"`
	Epoch       uint64          `json:"epoch"`
	BlockNumber uint64          `json:"blockNumber"`
	BlockTime   uint64          `json:"blockTime"`
	Data        any             `json:"data"`
}

// Environment an env to execute an entry point.
type Environment struct {
	contracts *builtin.Contracts
	blockCtx  *BlockContext
	caller    gravity.Address
	epoch     uint64
	events    []*Event
}

// New create a new env.
func New(contracts *builtin.Contracts, blockCtx *BlockContext, caller gravity.Address, epoch uint64) *Environment {
	return &Environment{
		contracts: contracts,
		blockCtx:  blockCtx,
		caller:    caller,
		epoch:     epoch,
	}
}

func (env *Environment) Contracts() *builtin.Contracts { return env.contracts }
func (env *Environment) BlockContext() *BlockContext   { return env.blockCtx }
func (env *Environment) Caller() gravity.Address       { return env.caller }

// SetEpoch updates the epoch stamped on events emitted from now on.
func (env *Environment) SetEpoch(epoch uint64) { env.epoch = epoch }

// Emit records an event on behalf of the contract at addr.
func (env *Environment) Emit(addr gravity.Address, name string, data any) {
	env.events = append(env.events, &Event{
		Name:        name,
		Address:     addr,
		Epoch:       env.epoch,
		BlockNumber: env.blockCtx.Number,
		BlockTime:   env.blockCtx.Time,
		Data:        data,
	})
}

// Events returns the events emitted so far.
func (env *Environment) Events() []*Event {
	return env.events
}
