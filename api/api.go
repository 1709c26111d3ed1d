// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/gravity-chain/epochcore/api/epoch"
	"github.com/gravity-chain/epochcore/api/events"
	"github.com/gravity-chain/epochcore/api/pools"
	"github.com/gravity-chain/epochcore/api/subscriptions"
	"github.com/gravity-chain/epochcore/api/validators"
	"github.com/gravity-chain/epochcore/log"
	"github.com/gravity-chain/epochcore/logdb"
	"github.com/gravity-chain/epochcore/runtime"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	BacktraceLimit  uint64
	LogsLimit       uint64
	SkipLogs        bool
	EnableMetrics   bool
	EnablePprof     bool
	EnableReqLogger bool
}

// New returns the http handler of the API and a function releasing the
// websocket connections it holds.
func New(
	rt *runtime.Runtime,
	logDB *logdb.LogDB,
	epochs subscriptions.EpochSource,
	opts Options,
) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	e := epoch.New(rt)
	e.Mount(router, "/epoch")
	e.MountDKG(router, "/dkg")
	validators.New(rt).
		Mount(router, "/validators")
	pools.New(rt).
		Mount(router, "/pools")
	if !opts.SkipLogs {
		events.New(logDB, opts.LogsLimit).
			Mount(router, "/events")
	}
	subs := subscriptions.New(epochs, logDB, origins, opts.BacktraceLimit)
	subs.Mount(router, "/subscriptions")

	if opts.EnablePprof {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = requestLogger(handler)
	}

	return handler.ServeHTTP, subs.Close
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("API Request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}
