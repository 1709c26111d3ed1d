// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"

	"github.com/gravity-chain/epochcore/api/utils"
	"github.com/gravity-chain/epochcore/log"
	"github.com/gravity-chain/epochcore/logdb"
	"github.com/gravity-chain/epochcore/runtime"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	pingPeriod = 30 * time.Second
	pongWait   = pingPeriod * 2
	writeWait  = 10 * time.Second
)

// EpochSource publishes epoch transitions as they are committed.
type EpochSource interface {
	SubscribeEpochs(ch chan<- *runtime.EpochTransitioned) event.Subscription
}

// EpochMessage is one websocket frame.
type EpochMessage struct {
	Subscription string                     `json:"subscription"`
	Backtrace    bool                       `json:"backtrace,omitempty"`
	Transition   *runtime.EpochTransitioned `json:"transition"`
}

type Subscriptions struct {
	source         EpochSource
	logDB          *logdb.LogDB
	backtraceLimit uint64
	upgrader       *websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*websocket.Conn
	done  chan struct{}
	wg    sync.WaitGroup
}

func New(source EpochSource, logDB *logdb.LogDB, allowedOrigins []string, backtraceLimit uint64) *Subscriptions {
	return &Subscriptions{
		source:         source,
		logDB:          logDB,
		backtraceLimit: backtraceLimit,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == origin || allowed == "*" {
						return true
					}
				}
				return false
			},
		},
		conns: make(map[string]*websocket.Conn),
		done:  make(chan struct{}),
	}
}

// backtrace loads the transitions into epochs >= since from the event log.
func (s *Subscriptions) backtrace(ctx context.Context, since uint64) ([]*runtime.EpochTransitioned, error) {
	if s.logDB == nil {
		return nil, nil
	}
	stored, err := s.logDB.FilterEvents(ctx, &logdb.EventFilter{
		Names:   []string{runtime.EventEpochTransitioned},
		Range:   &logdb.Range{Unit: logdb.Epoch, From: since, To: math.MaxUint64},
		Options: &logdb.Options{Limit: s.backtraceLimit},
	})
	if err != nil {
		return nil, err
	}
	res := make([]*runtime.EpochTransitioned, 0, len(stored))
	for _, ev := range stored {
		var done runtime.EpochTransitioned
		if err := json.Unmarshal(ev.Data, &done); err != nil {
			return nil, errors.Wrap(err, "decode stored transition")
		}
		res = append(res, &done)
	}
	return res, nil
}

func (s *Subscriptions) handleSubscribeEpochs(w http.ResponseWriter, req *http.Request) error {
	var since *uint64
	if v := req.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 0, 64)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "since"))
		}
		since = &n
	}

	// subscribed before the backlog is read; live copies of backlog entries are skipped
	ch := make(chan *runtime.EpochTransitioned, 8)
	sub := s.source.SubscribeEpochs(ch)
	defer sub.Unsubscribe()

	var backlog []*runtime.EpochTransitioned
	if since != nil {
		var err error
		if backlog, err = s.backtrace(req.Context(), *since); err != nil {
			return err
		}
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader already replied
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	id := uuid.NewRandom().String()
	if !s.track(id, conn) {
		conn.Close()
		return nil
	}
	defer s.untrack(id)

	var last *uint64
	for _, done := range backlog {
		if err := s.write(conn, &EpochMessage{Subscription: id, Backtrace: true, Transition: done}); err != nil {
			return nil
		}
		last = &done.NewEpoch
	}

	closed := make(chan struct{})
	go s.readLoop(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case err := <-sub.Err():
			logger.Debug("epoch subscription ended", "id", id, "err", err)
			return nil
		case done := <-ch:
			if last != nil && done.NewEpoch <= *last {
				continue
			}
			if err := s.write(conn, &EpochMessage{Subscription: id, Transition: done}); err != nil {
				logger.Debug("write failed", "id", id, "err", err)
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		}
	}
}

func (s *Subscriptions) write(conn *websocket.Conn, msg *EpochMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// readLoop drains control frames until the peer goes away.
func (s *Subscriptions) readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (s *Subscriptions) track(id string, conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	s.conns[id] = conn
	s.wg.Add(1)
	return true
}

func (s *Subscriptions) untrack(id string) {
	s.mu.Lock()
	conn := s.conns[id]
	delete(s.conns, id)
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	s.wg.Done()
}

// Count returns the number of open subscriptions.
func (s *Subscriptions) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close ends every subscription and waits for their handlers to return.
func (s *Subscriptions) Close() {
	s.mu.Lock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/epochs").
		Methods(http.MethodGet).
		Name("WS /subscriptions/epochs").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEpochs))
}
