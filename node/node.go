// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/gravity-chain/epochcore/builtin"
	"github.com/gravity-chain/epochcore/co"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/log"
	"github.com/gravity-chain/epochcore/logdb"
	"github.com/gravity-chain/epochcore/metrics"
	"github.com/gravity-chain/epochcore/runtime"
	"github.com/gravity-chain/epochcore/xenv"
)

var (
	logger = log.WithContext("pkg", "node")

	metricBlocks        = metrics.LazyLoadCounterVec("node_blocks_count", []string{"result"})
	metricDKGBlocks     = metrics.LazyLoadHistogram("node_dkg_session_blocks", metrics.BucketBlocks)
	metricBlockDuration = metrics.LazyLoadHistogram("node_block_duration_ms", metrics.BucketHTTPReqs)
)

type Options struct {
	BlockInterval time.Duration
	// DKGDelay is the number of blocks the simulated engine waits before
	// finishing an open DKG session.
	DKGDelay uint64
	SkipLogs bool
}

// Block is the outcome of one produced block.
type Block struct {
	Context xenv.BlockContext
	Root    gravity.Bytes32
	Events  []*xenv.Event
}

// Node drives the runtime in solo mode: it produces blocks on a timer and
// plays the consensus engine's part in epoch transitions.
type Node struct {
	goes    co.Goes
	rt      *runtime.Runtime
	logDB   *logdb.LogDB
	options Options

	mu            sync.Mutex
	dkgStartBlock uint64

	blockFeed event.Feed
	epochFeed event.Feed
	scope     event.SubscriptionScope
}

func New(rt *runtime.Runtime, logDB *logdb.LogDB, options Options) *Node {
	if options.BlockInterval <= 0 {
		options.BlockInterval = time.Second
	}
	return &Node{
		rt:      rt,
		logDB:   logDB,
		options: options,
	}
}

// Runtime returns the runtime the node drives.
func (n *Node) Runtime() *runtime.Runtime { return n.rt }

// SubscribeBlocks delivers every produced *Block to ch.
func (n *Node) SubscribeBlocks(ch chan<- *Block) event.Subscription {
	return n.scope.Track(n.blockFeed.Subscribe(ch))
}

// SubscribeEpochs delivers every *runtime.EpochTransitioned to ch.
func (n *Node) SubscribeEpochs(ch chan<- *runtime.EpochTransitioned) event.Subscription {
	return n.scope.Track(n.epochFeed.Subscribe(ch))
}

// Run produces blocks until ctx is canceled.
func (n *Node) Run(ctx context.Context) error {
	logger.Info("start producing blocks", "interval", n.options.BlockInterval, "dkgDelay", n.options.DKGDelay)

	n.goes.Go(func() { n.houseKeeping(ctx) })
	defer func() {
		n.goes.Wait()
		n.scope.Close()
	}()

	ticker := time.NewTicker(n.options.BlockInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping block production......")
			return nil
		case now := <-ticker.C:
			if _, err := n.ProduceBlock(now); err != nil {
				logger.Error("failed to produce block", "err", err)
			}
		}
	}
}

// ProduceBlock runs one block at wall time now: the block prologue, the
// simulated DKG when due, then commits state and events.
func (n *Node) ProduceBlock(now time.Time) (*Block, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	startTime := time.Now()
	parent := n.rt.BlockContext()
	blockTime := uint64(now.UnixMicro())
	if blockTime <= parent.Time {
		blockTime = parent.Time + 1
	}

	proposer, err := n.nextProposer(parent.Number + 1)
	if err != nil {
		return nil, err
	}

	out, err := n.rt.OnBlockStart(proposer, blockTime, nil)
	if err != nil {
		metricBlocks().AddWithLabel(1, map[string]string{"result": "failed"})
		return nil, errors.Wrap(err, "block prologue")
	}
	events := append([]*xenv.Event(nil), out.Events...)
	blockCtx := n.rt.BlockContext()

	finished, err := n.maybeFinishDKG(blockCtx.Number)
	if err != nil {
		logger.Warn("simulated dkg failed", "err", err)
	} else if finished != nil {
		events = append(events, finished.Events...)
	}

	root, err := n.rt.Commit()
	if err != nil {
		return nil, err
	}
	if !n.options.SkipLogs && n.logDB != nil && len(events) > 0 {
		w, err := n.logDB.NewWriter(blockCtx.Number)
		if err != nil {
			return nil, err
		}
		w.Write(events...)
		if err := w.Commit(); err != nil {
			return nil, errors.Wrap(err, "write events")
		}
	}

	blk := &Block{Context: blockCtx, Root: root, Events: events}
	metricBlocks().AddWithLabel(1, map[string]string{"result": "ok"})
	metricBlockDuration().Observe(time.Since(startTime).Milliseconds())
	logger.Debug("block produced", "number", blockCtx.Number, "proposer", proposer, "events", len(events))

	n.goes.Go(func() {
		n.blockFeed.Send(blk)
		for _, ev := range events {
			if done, ok := ev.Data.(*runtime.EpochTransitioned); ok {
				n.epochFeed.Send(done)
			}
		}
	})
	return blk, nil
}

// nextProposer rotates through the committee by block number.
func (n *Node) nextProposer(number uint64) (gravity.Address, error) {
	var proposer gravity.Address
	err := n.rt.View(func(c *builtin.Contracts) error {
		active, err := c.Validators.ActiveValidators()
		if err != nil || len(active) == 0 {
			return err
		}
		proposer = active[number%uint64(len(active))].Validator
		return nil
	})
	return proposer, err
}

// maybeFinishDKG finishes the open session once it has been open for
// DKGDelay blocks, with a transcript derived from the session.
func (n *Node) maybeFinishDKG(number uint64) (*runtime.Output, error) {
	var transcript []byte
	err := n.rt.View(func(c *builtin.Contracts) error {
		session, err := c.DKG.Current()
		if err != nil || session == nil {
			n.dkgStartBlock = 0
			return err
		}
		if n.dkgStartBlock == 0 {
			n.dkgStartBlock = number
		}
		if number-n.dkgStartBlock < n.options.DKGDelay {
			return nil
		}
		snapshot, err := session.SnapshotHash()
		if err != nil {
			return err
		}
		var epoch [8]byte
		binary.BigEndian.PutUint64(epoch[:], session.Epoch)
		hash := gravity.Blake2b([]byte("transcript"), epoch[:], snapshot[:])
		transcript = hash[:]
		return nil
	})
	if err != nil || transcript == nil {
		return nil, err
	}

	out, err := n.rt.FinishTransition(gravity.SystemCallerAddress, transcript)
	if err != nil {
		return nil, err
	}
	metricDKGBlocks().Observe(int64(number - n.dkgStartBlock))
	logger.Info("dkg session finished", "blocks", number-n.dkgStartBlock)
	n.dkgStartBlock = 0
	return out, nil
}
