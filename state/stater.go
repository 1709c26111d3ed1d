// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/qianbin/directcache"

	"github.com/gravity-chain/epochcore/kv"
)

// Stater is the state creator.
type Stater struct {
	store kv.Store
	cache *directcache.Cache
}

// NewStater create a new stater. cacheSizeMB 0 disables the storage cache.
func NewStater(store kv.Store, cacheSizeMB int) *Stater {
	var cache *directcache.Cache
	if cacheSizeMB > 0 {
		cache = directcache.New(cacheSizeMB * 1024 * 1024)
	}
	return &Stater{store, cache}
}

// NewState create a new state object.
func (s *Stater) NewState() *State {
	return New(s.store, s.cache)
}
