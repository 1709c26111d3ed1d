// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/gravity-chain/epochcore/api/utils"
	"github.com/gravity-chain/epochcore/logdb"
)

type Events struct {
	db    *logdb.LogDB
	limit uint64
}

func New(db *logdb.LogDB, limit uint64) *Events {
	return &Events{db, limit}
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter EventFilter
	if req.ContentLength != 0 {
		if err := utils.ParseJSON(req.Body, &filter); err != nil {
			return utils.BadRequest(errors.WithMessage(err, "body"))
		}
	}
	f, err := convertEventFilter(&filter, e.limit)
	if err != nil {
		return utils.BadRequest(err)
	}
	events, err := e.db.FilterEvents(req.Context(), f)
	if err != nil {
		return err
	}
	if events == nil {
		events = []*logdb.Event{}
	}
	return utils.WriteJSON(w, events)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
