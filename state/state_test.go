// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/lvldb"
)

func newStater(t *testing.T) *Stater {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStater(db, 1)
}

func TestStateReadWrite(t *testing.T) {
	st := newStater(t).NewState()

	addr := gravity.BytesToAddress([]byte("account1"))
	storageKey := gravity.BytesToBytes32([]byte("storageKey"))

	bal, err := st.GetBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Sign())

	require.NoError(t, st.SetBalance(addr, big.NewInt(10)))
	ok, err := st.SubBalance(addr, big.NewInt(11))
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = st.SubBalance(addr, big.NewInt(4))
	require.NoError(t, err)
	assert.True(t, ok)
	bal, _ = st.GetBalance(addr)
	assert.Equal(t, big.NewInt(6), bal)

	raw, _ := rlp.EncodeToBytes(uint64(42))
	st.SetRawStorage(addr, storageKey, raw)
	got, err := st.GetRawStorage(addr, storageKey)
	require.NoError(t, err)
	assert.Equal(t, rlp.RawValue(raw), got)
}

func TestStateRevert(t *testing.T) {
	st := newStater(t).NewState()
	addr := gravity.BytesToAddress([]byte("account1"))

	require.NoError(t, st.SetBalance(addr, big.NewInt(1)))
	chk := st.NewCheckpoint()
	require.NoError(t, st.SetBalance(addr, big.NewInt(2)))
	st.SetRawStorage(addr, gravity.Bytes32{1}, rlp.RawValue{0x01})

	st.RevertTo(chk)

	bal, _ := st.GetBalance(addr)
	assert.Equal(t, big.NewInt(1), bal)
	raw, _ := st.GetRawStorage(addr, gravity.Bytes32{1})
	assert.Empty(t, raw)
}

func TestStageCommit(t *testing.T) {
	stater := newStater(t)
	st := stater.NewState()
	addr := gravity.BytesToAddress([]byte("account1"))

	require.NoError(t, st.SetBalance(addr, big.NewInt(7)))
	st.SetRawStorage(addr, gravity.Bytes32{1}, rlp.RawValue{0x05})
	// warm the cache with the empty value before commit
	_, _ = stater.NewState().GetRawStorage(addr, gravity.Bytes32{1})

	stage := st.Stage()
	assert.Equal(t, 2, stage.Len())
	h1 := stage.Hash()
	assert.Equal(t, h1, st.Stage().Hash(), "hash must be deterministic")
	require.NoError(t, stage.Commit())

	reloaded := stater.NewState()
	bal, err := reloaded.GetBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), bal)
	raw, err := reloaded.GetRawStorage(addr, gravity.Bytes32{1})
	require.NoError(t, err)
	assert.Equal(t, rlp.RawValue{0x05}, raw)

	// clearing a slot deletes it
	reloaded.SetRawStorage(addr, gravity.Bytes32{1}, nil)
	require.NoError(t, reloaded.Stage().Commit())
	raw, err = stater.NewState().GetRawStorage(addr, gravity.Bytes32{1})
	require.NoError(t, err)
	assert.Empty(t, raw)
}
