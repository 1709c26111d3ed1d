// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/kv"
)

// Account is the consensus representation of an account.
// RLP encoded objects are stored in the accounts bucket.
type Account struct {
	Balance *big.Int
}

// IsEmpty returns if an account is empty.
func (a *Account) IsEmpty() bool {
	return a.Balance.Sign() == 0
}

func emptyAccount() *Account {
	return &Account{Balance: &big.Int{}}
}

// loadAccount load an account object by address in store.
// A new empty account is returned if account not exists.
func loadAccount(getter kv.Getter, addr gravity.Address) (*Account, error) {
	data, err := getter.Get(addr[:])
	if err != nil {
		if getter.IsNotFound(err) {
			return emptyAccount(), nil
		}
		return nil, err
	}
	var a Account
	if err := rlp.DecodeBytes(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// saveAccount save account into store.
// If the given account is empty, the value for given address is deleted.
func saveAccount(putter kv.Putter, addr gravity.Address, a *Account) error {
	if a.IsEmpty() {
		return putter.Delete(addr[:])
	}
	data, err := rlp.EncodeToBytes(a)
	if err != nil {
		return err
	}
	return putter.Put(addr[:], data)
}
