// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"

	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/node"
	"github.com/gravity-chain/epochcore/runtime"
)

// BlockSource publishes produced blocks.
type BlockSource interface {
	SubscribeBlocks(ch chan<- *node.Block) event.Subscription
}

type BlockProduction struct {
	Number    uint64           `json:"number"`
	Root      *gravity.Bytes32 `json:"root"`
	Timestamp *time.Time       `json:"timestamp"`
}

type Status struct {
	Healthy         bool             `json:"healthy"`
	BlockProduction *BlockProduction `json:"blockProduction"`
	Epoch           uint64           `json:"epoch"`
	InTransition    bool             `json:"inTransition"`
	TransitionSince *time.Time       `json:"transitionSince,omitempty"`
}

type Health struct {
	lock          sync.RWMutex
	timeBetween   time.Duration
	newBlock      time.Time
	blockNumber   uint64
	root          *gravity.Bytes32
	epoch         uint64
	transitionAt  *time.Time
	maxTransition time.Duration
}

// New returns a tracker that reports unhealthy once no block was produced
// for three block intervals, or once a transition stays open longer than
// maxTransition. A zero maxTransition disables the second check.
func New(blockInterval, maxTransition time.Duration) *Health {
	return &Health{timeBetween: 3 * blockInterval, maxTransition: maxTransition}
}

func (h *Health) NewBlock(blk *node.Block) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.newBlock = time.Now()
	h.blockNumber = blk.Context.Number
	root := blk.Root
	h.root = &root

	for _, ev := range blk.Events {
		switch ev.Name {
		case runtime.EventTransitionStarted:
			if h.transitionAt == nil {
				now := h.newBlock
				h.transitionAt = &now
			}
		case runtime.EventEpochTransitioned:
			h.transitionAt = nil
			h.epoch = ev.Epoch
		}
	}
}

// Watch feeds produced blocks into h until ctx is canceled.
func (h *Health) Watch(ctx context.Context, src BlockSource) {
	ch := make(chan *node.Block, 16)
	sub := src.SubscribeBlocks(ch)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Err():
			return
		case blk := <-ch:
			h.NewBlock(blk)
		}
	}
}

func (h *Health) Status() (*Status, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	healthy := !h.newBlock.IsZero() && time.Since(h.newBlock) <= h.timeBetween
	if h.transitionAt != nil && h.maxTransition > 0 && time.Since(*h.transitionAt) > h.maxTransition {
		healthy = false
	}

	status := &Status{
		Healthy: healthy,
		BlockProduction: &BlockProduction{
			Number: h.blockNumber,
			Root:   h.root,
		},
		Epoch:        h.epoch,
		InTransition: h.transitionAt != nil,
	}
	if !h.newBlock.IsZero() {
		ts := h.newBlock
		status.BlockProduction.Timestamp = &ts
	}
	if h.transitionAt != nil {
		since := *h.transitionAt
		status.TransitionSince = &since
	}
	return status, nil
}
