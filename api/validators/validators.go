// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/gravity-chain/epochcore/api/utils"
	"github.com/gravity-chain/epochcore/builtin"
	"github.com/gravity-chain/epochcore/cache"
	"github.com/gravity-chain/epochcore/runtime"
)

const setCacheSize = 16

type Validators struct {
	rt *runtime.Runtime
	// committees by epoch; a committee never changes within its epoch
	sets *cache.LRU[uint64, *ValidatorSet]
}

func New(rt *runtime.Runtime) *Validators {
	sets, _ := cache.NewLRU[uint64, *ValidatorSet](setCacheSize)
	return &Validators{rt: rt, sets: sets}
}

func (v *Validators) validatorSet(c *builtin.Contracts) (*ValidatorSet, error) {
	epoch, err := c.Reconfig.CurrentEpoch()
	if err != nil {
		return nil, err
	}
	return v.sets.GetOrLoad(epoch, func(epoch uint64) (*ValidatorSet, error) {
		active, err := c.Validators.ActiveValidators()
		if err != nil {
			return nil, err
		}
		total, err := c.Validators.TotalVotingPower()
		if err != nil {
			return nil, err
		}
		return &ValidatorSet{
			Epoch:            epoch,
			TotalVotingPower: total,
			Validators:       convertConsensusInfo(active),
		}, nil
	})
}

func (v *Validators) handleGetValidatorSet(w http.ResponseWriter, _ *http.Request) error {
	var set *ValidatorSet
	if err := v.rt.View(func(c *builtin.Contracts) (err error) {
		set, err = v.validatorSet(c)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, set)
}

func (v *Validators) handleGetValidator(w http.ResponseWriter, req *http.Request) error {
	pool, err := utils.ParseAddress("pool", mux.Vars(req)["pool"])
	if err != nil {
		return err
	}
	var res *Validator
	if err := v.rt.View(func(c *builtin.Contracts) error {
		val, err := c.Validators.Get(pool)
		if err != nil || val == nil {
			return err
		}
		vp, err := c.Staking.VotingPowerNow(pool)
		if err != nil {
			return err
		}
		res = convertValidator(val, vp)
		return nil
	}); err != nil {
		return err
	}
	if res == nil {
		return utils.NotFound(errors.New("validator not found"))
	}
	return utils.WriteJSON(w, res)
}

func (v *Validators) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /validators").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetValidatorSet))
	sub.Path("/{pool}").
		Methods(http.MethodGet).
		Name("GET /validators/{pool}").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetValidator))
}
