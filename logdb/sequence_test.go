// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence(t *testing.T) {
	type args struct {
		blockNum uint32
		index    uint32
	}
	tests := []struct {
		name string
		args args
		want args
	}{
		{"regular", args{1, 2}, args{1, 2}},
		{"max bn", args{math.MaxUint32, 1}, args{math.MaxUint32, 1}},
		{"max index", args{5, math.MaxInt32}, args{5, math.MaxInt32}},
		{"both max", args{math.MaxUint32, math.MaxInt32}, args{math.MaxUint32, math.MaxInt32}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newSequence(tt.args.blockNum, tt.args.index)
			assert.Equal(t, tt.want.blockNum, got.BlockNumber())
			assert.Equal(t, tt.want.index, got.Index())
		})
	}

	// block order wins over index order
	assert.Less(t, newSequence(1, math.MaxInt32), newSequence(2, 0))

	assert.Panics(t, func() { newSequence(1, math.MaxInt32+1) })
}
