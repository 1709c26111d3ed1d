// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/gravity-chain/epochcore/builtin/reverts"
	"github.com/gravity-chain/epochcore/builtin/solidity"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/state"
)

var ErrNegativeValue = reverts.New(reverts.Invariant, "negative param value")

// Params binder of a configuration contract.
type Params struct {
	values *solidity.Mapping[gravity.Bytes32, *big.Int]
}

func New(addr gravity.Address, state *state.State) *Params {
	ctx := solidity.NewContext(addr, state)
	return &Params{values: solidity.NewMapping[gravity.Bytes32, *big.Int](ctx, gravity.Bytes32{})}
}

// Get native way to get param.
func (p *Params) Get(key gravity.Bytes32) (*big.Int, error) {
	v, err := p.values.Get(key)
	if err != nil {
		return nil, errors.Wrapf(err, "get param %s", string(trimKey(key)))
	}
	return v, nil
}

// Set native way to set param.
func (p *Params) Set(key gravity.Bytes32, value *big.Int) error {
	if value.Sign() < 0 {
		return reverts.Wrap(ErrNegativeValue, "param %s", string(trimKey(key)))
	}
	return p.values.Set(key, value)
}

// GetUint64 reads a param that fits in 64 bits, saturating larger values.
func (p *Params) GetUint64(key gravity.Bytes32) (uint64, error) {
	v, err := p.Get(key)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return ^uint64(0), nil
	}
	return v.Uint64(), nil
}

// GetBool reads a flag param, any non-zero value is true.
func (p *Params) GetBool(key gravity.Bytes32) (bool, error) {
	v, err := p.Get(key)
	if err != nil {
		return false, err
	}
	return v.Sign() != 0, nil
}

func trimKey(key gravity.Bytes32) []byte {
	b := key[:]
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	return b
}
