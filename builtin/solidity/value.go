// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/gravity-chain/epochcore/gravity"
)

// Value is a single RLP encoded storage slot, similar to a state variable in a smart contract.
type Value[V any] struct {
	context *Context
	pos     gravity.Bytes32
}

func NewValue[V any](context *Context, pos gravity.Bytes32) *Value[V] {
	return &Value[V]{context: context, pos: pos}
}

func (v *Value[V]) Get() (value V, err error) {
	err = v.context.state.DecodeStorage(v.context.address, v.pos, func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

func (v *Value[V]) Set(value V) error {
	return v.context.state.EncodeStorage(v.context.address, v.pos, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Clear empties the slot, Get returns the zero value afterwards.
func (v *Value[V]) Clear() {
	v.context.state.SetRawStorage(v.context.address, v.pos, nil)
}

// Uint64 is a counter-like storage slot.
type Uint64 struct {
	*Value[uint64]
}

func NewUint64(context *Context, pos gravity.Bytes32) *Uint64 {
	return &Uint64{NewValue[uint64](context, pos)}
}

// Add adds delta and returns the new value.
func (u *Uint64) Add(delta uint64) (uint64, error) {
	v, err := u.Get()
	if err != nil {
		return 0, err
	}
	v += delta
	return v, u.Set(v)
}
