// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package client

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/gravity-chain/epochcore/api/subscriptions"
)

var ErrUnexpectedMsg = errors.New("unexpected message format")

// EventWrapper carries either a message or the error that ended the stream.
type EventWrapper[T any] struct {
	Data  T
	Error error
}

// Subscription is a live websocket stream. Unsubscribe closes the
// connection, which also closes the channel.
type Subscription[T any] struct {
	EventChan <-chan EventWrapper[T]
	conn      *websocket.Conn
}

func (s *Subscription[T]) Unsubscribe() error {
	return s.conn.Close()
}

// SubscribeEpochs streams epoch transitions. When since is not nil the
// stream starts with the stored transitions into epochs >= *since.
func (c *Client) SubscribeEpochs(since *uint64) (*Subscription[*subscriptions.EpochMessage], error) {
	query := ""
	if since != nil {
		query = "since=" + strconv.FormatUint(*since, 10)
	}
	conn, err := c.connect("/subscriptions/epochs", query)
	if err != nil {
		return nil, fmt.Errorf("unable to connect - %w", err)
	}
	return subscribe[subscriptions.EpochMessage](conn), nil
}

func subscribe[T any](conn *websocket.Conn) *Subscription[*T] {
	eventChan := make(chan EventWrapper[*T])

	go func() {
		defer close(eventChan)
		defer conn.Close()

		for {
			var data T
			if err := conn.ReadJSON(&data); err != nil {
				eventChan <- EventWrapper[*T]{Error: fmt.Errorf("%w: %w", ErrUnexpectedMsg, err)}
				return
			}
			eventChan <- EventWrapper[*T]{Data: &data}
		}
	}()

	return &Subscription[*T]{EventChan: eventChan, conn: conn}
}

func (c *Client) connect(endpoint, rawQuery string) (*websocket.Conn, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return nil, fmt.Errorf("invalid url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + endpoint
	u.RawQuery = rawQuery

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
