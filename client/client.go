// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package client talks to an epochd node over its HTTP and websocket API.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gravity-chain/epochcore/api/epoch"
	"github.com/gravity-chain/epochcore/api/events"
	"github.com/gravity-chain/epochcore/api/pools"
	"github.com/gravity-chain/epochcore/api/validators"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/logdb"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNot200Status = errors.New("not 200 status code")
)

type Client struct {
	url string
	c   *http.Client
}

// New creates a client for the node API rooted at url.
func New(url string) *Client {
	return NewWithHTTP(url, http.DefaultClient)
}

func NewWithHTTP(url string, c *http.Client) *Client {
	return &Client{
		url: strings.TrimSuffix(url, "/"),
		c:   c,
	}
}

func (c *Client) Epoch() (*epoch.Epoch, error) {
	var res epoch.Epoch
	if err := c.get("/epoch", &res); err != nil {
		return nil, fmt.Errorf("unable to retrieve epoch - %w", err)
	}
	return &res, nil
}

func (c *Client) DKG() (*epoch.DKG, error) {
	var res epoch.DKG
	if err := c.get("/dkg", &res); err != nil {
		return nil, fmt.Errorf("unable to retrieve dkg - %w", err)
	}
	return &res, nil
}

// ValidatorSet returns the active committee.
func (c *Client) ValidatorSet() (*validators.ValidatorSet, error) {
	var res validators.ValidatorSet
	if err := c.get("/validators", &res); err != nil {
		return nil, fmt.Errorf("unable to retrieve validator set - %w", err)
	}
	return &res, nil
}

func (c *Client) Validator(pool gravity.Address) (*validators.Validator, error) {
	var res validators.Validator
	if err := c.get("/validators/"+pool.String(), &res); err != nil {
		return nil, fmt.Errorf("unable to retrieve validator - %w", err)
	}
	return &res, nil
}

func (c *Client) Pools() ([]gravity.Address, error) {
	var res []gravity.Address
	if err := c.get("/pools", &res); err != nil {
		return nil, fmt.Errorf("unable to retrieve pools - %w", err)
	}
	return res, nil
}

func (c *Client) Pool(pool gravity.Address) (*pools.Pool, error) {
	var res pools.Pool
	if err := c.get("/pools/"+pool.String(), &res); err != nil {
		return nil, fmt.Errorf("unable to retrieve pool - %w", err)
	}
	return &res, nil
}

// VotingPower returns the pool's voting power at atMicros, or at the
// node's current block time when atMicros is nil.
func (c *Client) VotingPower(pool gravity.Address, atMicros *uint64) (*pools.VotingPower, error) {
	path := "/pools/" + pool.String() + "/voting-power"
	if atMicros != nil {
		path += "?at=" + strconv.FormatUint(*atMicros, 10)
	}
	var res pools.VotingPower
	if err := c.get(path, &res); err != nil {
		return nil, fmt.Errorf("unable to retrieve voting power - %w", err)
	}
	return &res, nil
}

func (c *Client) FilterEvents(filter *events.EventFilter) ([]*logdb.Event, error) {
	body, err := c.httpPOST(c.url+"/events", filter)
	if err != nil {
		return nil, fmt.Errorf("unable to filter events - %w", err)
	}

	var res []*logdb.Event
	if err = json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("unable to unmarshal events - %w", err)
	}
	return res, nil
}

// RawHTTPGet sends a raw HTTP GET request to the given path.
func (c *Client) RawHTTPGet(path string) ([]byte, int, error) {
	return c.rawHTTPRequest(http.MethodGet, c.url+path, nil)
}

func (c *Client) get(path string, out any) error {
	body, err := c.httpGET(c.url + path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unable to unmarshal response - %w", err)
	}
	return nil
}

func (c *Client) httpGET(url string) ([]byte, error) {
	body, status, err := c.rawHTTPRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return checkStatus(body, status)
}

func (c *Client) httpPOST(url string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal payload - %w", err)
	}
	body, status, err := c.rawHTTPRequest(http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	return checkStatus(body, status)
}

func (c *Client) rawHTTPRequest(method, url string, payload io.Reader) ([]byte, int, error) {
	req, err := http.NewRequest(method, url, payload)
	if err != nil {
		return nil, 0, fmt.Errorf("unable to create request - %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("unable to perform request - %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("unable to read response body - %w", err)
	}
	return body, resp.StatusCode, nil
}

func checkStatus(body []byte, status int) ([]byte, error) {
	switch status {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: %d %s", ErrNot200Status, status, strings.TrimSpace(string(body)))
	}
}
