// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/qianbin/directcache"

	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/kv"
	"github.com/gravity-chain/epochcore/stackedmap"
)

const (
	accountBucket = kv.Bucket("a")
	storageBucket = kv.Bucket("s")
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr gravity.Address
	key  gravity.Bytes32
}

func (k storageKey) bytes() []byte {
	return append(k.addr.Bytes(), k.key[:]...)
}

// State manages the world state: account balances and contract storage.
// All writes are journaled in memory until staged and committed.
type State struct {
	store    kv.Store
	accounts kv.Getter
	storage  kv.Getter
	cache    *directcache.Cache
	sm       *stackedmap.StackedMap
}

// New create state object backed by the given store.
// The cache is optional and shared between state instances.
func New(store kv.Store, cache *directcache.Cache) *State {
	s := &State{
		store:    store,
		accounts: accountBucket.NewGetter(store),
		storage:  storageBucket.NewGetter(store),
		cache:    cache,
	}
	s.sm = stackedmap.New(s.cacheGetter)
	return s
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key any) (any, bool, error) {
	switch k := key.(type) {
	case gravity.Address:
		acc, err := loadAccount(s.accounts, k)
		if err != nil {
			return nil, false, err
		}
		return acc, true, nil
	case storageKey:
		raw, err := s.loadStorage(k)
		if err != nil {
			return nil, false, err
		}
		return raw, true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

func (s *State) loadStorage(k storageKey) (rlp.RawValue, error) {
	ck := k.bytes()
	if s.cache != nil {
		var cached rlp.RawValue
		if s.cache.AdvGet(ck, func(val []byte) {
			cached = append(rlp.RawValue{}, val...)
		}, true) {
			return cached, nil
		}
	}

	data, err := s.storage.Get(ck)
	if err != nil {
		if !s.storage.IsNotFound(err) {
			return nil, err
		}
		data = nil
	}
	if s.cache != nil {
		s.cache.Set(ck, data)
	}
	return rlp.RawValue(data), nil
}

// getAccount gets account by address. the returned account should not be modified.
func (s *State) getAccount(addr gravity.Address) (*Account, error) {
	v, _, err := s.sm.Get(addr)
	if err != nil {
		return nil, err
	}
	return v.(*Account), nil
}

// GetBalance returns balance for the given address.
func (s *State) GetBalance(addr gravity.Address) (*big.Int, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return nil, &Error{err}
	}
	return new(big.Int).Set(acc.Balance), nil
}

// SetBalance set balance for the given address.
func (s *State) SetBalance(addr gravity.Address, balance *big.Int) error {
	if balance.Sign() < 0 {
		return &Error{fmt.Errorf("negative balance for %v", addr)}
	}
	s.sm.Put(addr, &Account{Balance: new(big.Int).Set(balance)})
	return nil
}

// AddBalance credits amount to the given address.
func (s *State) AddBalance(addr gravity.Address, amount *big.Int) error {
	bal, err := s.GetBalance(addr)
	if err != nil {
		return err
	}
	return s.SetBalance(addr, bal.Add(bal, amount))
}

// SubBalance debits amount from the given address.
// It returns false without touching the balance if funds are insufficient.
func (s *State) SubBalance(addr gravity.Address, amount *big.Int) (bool, error) {
	bal, err := s.GetBalance(addr)
	if err != nil {
		return false, err
	}
	if bal.Cmp(amount) < 0 {
		return false, nil
	}
	return true, s.SetBalance(addr, bal.Sub(bal, amount))
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr gravity.Address, key gravity.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr gravity.Address, key gravity.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(addr gravity.Address, key gravity.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr gravity.Address, key gravity.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}

// Stage makes a stage object to compute hash of the changes or commit them.
func (s *State) Stage() *Stage {
	accounts := make(map[gravity.Address]*Account)
	storage := make(map[storageKey]rlp.RawValue)

	s.sm.Journal(func(k, v any) bool {
		switch key := k.(type) {
		case gravity.Address:
			accounts[key] = v.(*Account)
		case storageKey:
			storage[key] = v.(rlp.RawValue)
		}
		return true
	})
	return newStage(s.store, accounts, storage, s.cache)
}
