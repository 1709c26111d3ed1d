// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/lvldb"
	"github.com/gravity-chain/epochcore/state"
)

type record struct {
	Name  string
	Power uint64
}

func newContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewContext(gravity.StakingAddress, state.New(db, nil))
}

func TestMapping(t *testing.T) {
	ctx := newContext(t)
	m := NewMapping[gravity.Address, *record](ctx, gravity.Bytes32{1})
	key := gravity.BytesToAddress([]byte("pool"))

	got, err := m.Get(key)
	require.NoError(t, err)
	require.NotNil(t, got, "missing pointer values decode to a fresh zero value")
	assert.Equal(t, record{}, *got)

	exists, err := m.Exists(key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, m.Set(key, &record{Name: "a", Power: 10}))
	got, err = m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, &record{Name: "a", Power: 10}, got)

	// the same key under another base position is a different slot
	other := NewMapping[gravity.Address, *record](ctx, gravity.Bytes32{2})
	got, _ = other.Get(key)
	assert.Equal(t, record{}, *got)

	m.Delete(key)
	exists, _ = m.Exists(key)
	assert.False(t, exists)
}

func TestValueAndUint64(t *testing.T) {
	ctx := newContext(t)

	v := NewValue[record](ctx, gravity.Bytes32{3})
	got, err := v.Get()
	require.NoError(t, err)
	assert.Equal(t, record{}, got)
	require.NoError(t, v.Set(record{Name: "x"}))
	got, _ = v.Get()
	assert.Equal(t, "x", got.Name)
	v.Clear()
	got, _ = v.Get()
	assert.Equal(t, record{}, got)

	counter := NewUint64(ctx, gravity.Bytes32{4})
	n, err := counter.Add(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
	n, _ = counter.Add(3)
	assert.Equal(t, uint64(5), n)
}

func TestArray(t *testing.T) {
	ctx := newContext(t)
	arr := NewArray[gravity.Address](ctx, gravity.Bytes32{5})

	a, b, c := gravity.Address{1}, gravity.Address{2}, gravity.Address{3}
	for i, addr := range []gravity.Address{a, b, c} {
		idx, err := arr.Push(addr)
		require.NoError(t, err)
		assert.Equal(t, uint64(i), idx)
	}

	all, err := arr.All()
	require.NoError(t, err)
	assert.Equal(t, []gravity.Address{a, b, c}, all)

	require.NoError(t, arr.Set(0, c))
	got, _ := arr.Get(0)
	assert.Equal(t, c, got)

	_, err = arr.Get(3)
	assert.ErrorIs(t, err, errIndexOutOfRange)
	assert.ErrorIs(t, arr.Set(7, a), errIndexOutOfRange)

	require.NoError(t, arr.Truncate(1))
	n, _ := arr.Len()
	assert.Equal(t, uint64(1), n)
	require.NoError(t, arr.Truncate(5))
	n, _ = arr.Len()
	assert.Equal(t, uint64(1), n)
}
