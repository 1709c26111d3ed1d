// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"math"

	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/logdb"
)

type Range struct {
	Unit logdb.RangeType `json:"unit"`
	From *uint64         `json:"from,omitempty"`
	To   *uint64         `json:"to,omitempty"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventFilter struct {
	Names   []string         `json:"names,omitempty"`
	Address *gravity.Address `json:"address,omitempty"`
	Range   *Range           `json:"range,omitempty"`
	Options *Options         `json:"options,omitempty"`
	Order   logdb.Order      `json:"order,omitempty"`
}

func convertEventFilter(filter *EventFilter, limit uint64) (*logdb.EventFilter, error) {
	f := &logdb.EventFilter{
		Names:   filter.Names,
		Address: filter.Address,
		Order:   filter.Order,
		Options: &logdb.Options{Limit: limit},
	}
	switch filter.Order {
	case "", logdb.ASC, logdb.DESC:
	default:
		return nil, fmt.Errorf("order: unknown value %q", filter.Order)
	}
	if filter.Options != nil {
		if filter.Options.Limit > limit {
			return nil, fmt.Errorf("options.limit exceeds the maximum allowed value of %d", limit)
		}
		f.Options.Offset = filter.Options.Offset
		if filter.Options.Limit > 0 {
			f.Options.Limit = filter.Options.Limit
		}
	}
	if filter.Range != nil {
		r := &logdb.Range{Unit: filter.Range.Unit, To: math.MaxInt64}
		switch r.Unit {
		case "":
			r.Unit = logdb.Block
		case logdb.Block, logdb.Epoch:
		default:
			return nil, fmt.Errorf("range.unit: unknown value %q", r.Unit)
		}
		if filter.Range.From != nil {
			r.From = *filter.Range.From
		}
		if filter.Range.To != nil {
			r.To = *filter.Range.To
		}
		if r.To < r.From {
			return nil, fmt.Errorf("range: from %d is after to %d", r.From, r.To)
		}
		f.Range = r
	}
	return f, nil
}
