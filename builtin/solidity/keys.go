// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import "encoding/binary"

// Key is anything addressable inside a mapping. gravity.Address and gravity.Bytes32 satisfy it.
type Key interface {
	Bytes() []byte
}

// Uint64Key is a numeric mapping key, e.g. an array index or a nonce.
type Uint64Key uint64

func (k Uint64Key) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k))
	return b[:]
}
