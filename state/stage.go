// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/qianbin/directcache"

	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/kv"
)

// Stage abstracts the accumulated changes of a state instance.
type Stage struct {
	store    kv.Store
	cache    *directcache.Cache
	accounts map[gravity.Address]*Account
	storage  map[storageKey]rlp.RawValue
}

func newStage(
	store kv.Store,
	accounts map[gravity.Address]*Account,
	storage map[storageKey]rlp.RawValue,
	cache *directcache.Cache,
) *Stage {
	return &Stage{
		store:    store,
		cache:    cache,
		accounts: accounts,
		storage:  storage,
	}
}

// Len returns the count of changed entries.
func (s *Stage) Len() int {
	return len(s.accounts) + len(s.storage)
}

// Hash computes a digest of the changes, in key order.
func (s *Stage) Hash() gravity.Bytes32 {
	addrs := make([]gravity.Address, 0, len(s.accounts))
	for addr := range s.accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})

	keys := make([]storageKey, 0, len(s.storage))
	for k := range s.storage {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i].bytes(), keys[j].bytes()) < 0
	})

	return gravity.Blake2bFn(func(w io.Writer) {
		for _, addr := range addrs {
			w.Write(addr[:])
			w.Write(s.accounts[addr].Balance.Bytes())
		}
		for _, k := range keys {
			w.Write(k.bytes())
			w.Write(s.storage[k])
		}
	})
}

// Commit writes all changes in one batch.
func (s *Stage) Commit() error {
	batch := s.store.NewBatch()
	accounts := accountBucket.NewPutter(batch)
	storage := storageBucket.NewPutter(batch)

	for addr, acc := range s.accounts {
		if err := saveAccount(accounts, addr, acc); err != nil {
			return errors.Wrap(err, "save account")
		}
	}
	for k, v := range s.storage {
		var err error
		if len(v) == 0 {
			err = storage.Delete(k.bytes())
		} else {
			err = storage.Put(k.bytes(), v)
		}
		if err != nil {
			return errors.Wrap(err, "save storage")
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "write batch")
	}

	if s.cache != nil {
		for k, v := range s.storage {
			s.cache.Set(k.bytes(), v)
		}
	}
	return nil
}
