// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/gravity-chain/epochcore/api/utils"
	"github.com/gravity-chain/epochcore/builtin"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/runtime"
)

var errPoolNotFound = errors.New("pool not found")

type Pools struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Pools {
	return &Pools{rt}
}

func (p *Pools) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress("pool", mux.Vars(req)["pool"])
	if err != nil {
		return err
	}
	var res *Pool
	if err := p.rt.View(func(c *builtin.Contracts) error {
		pool, err := c.Staking.GetPool(addr)
		if err != nil || pool == nil {
			return err
		}
		pos, err := c.Staking.GetPosition(addr)
		if err != nil {
			return err
		}
		vp, err := c.Staking.VotingPowerNow(addr)
		if err != nil {
			return err
		}
		res = convertPool(addr, pool, pos, vp)
		return nil
	}); err != nil {
		return err
	}
	if res == nil {
		return utils.NotFound(errPoolNotFound)
	}
	return utils.WriteJSON(w, res)
}

// handleGetVotingPower answers the voting power of a pool at ?at= (microseconds),
// defaulting to the current block time.
func (p *Pools) handleGetVotingPower(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress("pool", mux.Vars(req)["pool"])
	if err != nil {
		return err
	}
	at := p.rt.BlockContext().Time
	if s := req.URL.Query().Get("at"); s != "" {
		if at, err = strconv.ParseUint(s, 0, 64); err != nil {
			return utils.BadRequest(errors.WithMessage(err, "at"))
		}
	}

	var (
		vp    uint64
		found bool
	)
	if err := p.rt.View(func(c *builtin.Contracts) error {
		pool, err := c.Staking.GetPool(addr)
		if err != nil || pool == nil {
			return err
		}
		found = true
		vp, err = c.Staking.VotingPower(addr, at)
		return err
	}); err != nil {
		return err
	}
	if !found {
		return utils.NotFound(errPoolNotFound)
	}
	return utils.WriteJSON(w, &VotingPower{Pool: addr, At: at, VotingPower: vp})
}

func (p *Pools) handleListPools(w http.ResponseWriter, _ *http.Request) error {
	var pools []gravity.Address
	if err := p.rt.View(func(c *builtin.Contracts) (err error) {
		pools, err = c.Staking.Pools()
		return err
	}); err != nil {
		return err
	}
	if pools == nil {
		pools = []gravity.Address{}
	}
	return utils.WriteJSON(w, pools)
}

func (p *Pools) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /pools").
		HandlerFunc(utils.WrapHandlerFunc(p.handleListPools))
	sub.Path("/{pool}").
		Methods(http.MethodGet).
		Name("GET /pools/{pool}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPool))
	sub.Path("/{pool}/voting-power").
		Methods(http.MethodGet).
		Name("GET /pools/{pool}/voting-power").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetVotingPower))
}
