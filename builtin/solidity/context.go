// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/state"
)

// Context binds storage helpers to one system contract's storage space.
type Context struct {
	address gravity.Address
	state   *state.State
}

func NewContext(address gravity.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) Address() gravity.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}
