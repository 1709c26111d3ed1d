// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"encoding/json"

	"github.com/gravity-chain/epochcore/gravity"
)

// Event is a stored notification. Data is the JSON payload.
type Event struct {
	BlockNumber uint32          `json:"blockNumber"`
	Index       uint32          `json:"index"`
	BlockTime   uint64          `json:"blockTime"`
	Epoch       uint64          `json:"epoch"`
	Name        string          `json:"name"`
	Address     gravity.Address `json:"address"`
	Data        json.RawMessage `json:"data"`
}

type RangeType string

const (
	Block RangeType = "block"
	Epoch RangeType = "epoch"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is an inclusive range of block numbers or epochs. A To below From
// leaves the range open-ended.
type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventFilter selects events. Empty Names matches every name.
type EventFilter struct {
	Names   []string
	Address *gravity.Address
	Range   *Range
	Options *Options
	Order   Order
}
