// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"errors"

	"github.com/gravity-chain/epochcore/gravity"
)

var errIndexOutOfRange = errors.New("array index out of range")

// Array is a dynamic array: a length slot plus an index mapping, laid out like a solidity array.
type Array[V any] struct {
	length *Uint64
	items  *Mapping[Uint64Key, V]
}

func NewArray[V any](context *Context, pos gravity.Bytes32) *Array[V] {
	return &Array[V]{
		length: NewUint64(context, pos),
		items:  NewMapping[Uint64Key, V](context, gravity.Keccak256(pos.Bytes())),
	}
}

func (a *Array[V]) Len() (uint64, error) {
	return a.length.Get()
}

func (a *Array[V]) Get(i uint64) (v V, err error) {
	n, err := a.Len()
	if err != nil {
		return v, err
	}
	if i >= n {
		return v, errIndexOutOfRange
	}
	return a.items.Get(Uint64Key(i))
}

func (a *Array[V]) Set(i uint64, v V) error {
	n, err := a.Len()
	if err != nil {
		return err
	}
	if i >= n {
		return errIndexOutOfRange
	}
	return a.items.Set(Uint64Key(i), v)
}

// Push appends v and returns its index.
func (a *Array[V]) Push(v V) (uint64, error) {
	n, err := a.Len()
	if err != nil {
		return 0, err
	}
	if err := a.items.Set(Uint64Key(n), v); err != nil {
		return 0, err
	}
	return n, a.length.Set(n + 1)
}

// Truncate drops every element at index >= n.
func (a *Array[V]) Truncate(n uint64) error {
	cur, err := a.Len()
	if err != nil {
		return err
	}
	for i := n; i < cur; i++ {
		a.items.Delete(Uint64Key(i))
	}
	if n < cur {
		return a.length.Set(n)
	}
	return nil
}

// All loads every element in index order.
func (a *Array[V]) All() ([]V, error) {
	n, err := a.Len()
	if err != nil {
		return nil, err
	}
	out := make([]V, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := a.items.Get(Uint64Key(i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
