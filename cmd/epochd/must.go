// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/gravity-chain/epochcore/builtin"
	"github.com/gravity-chain/epochcore/co"
	"github.com/gravity-chain/epochcore/genesis"
	"github.com/gravity-chain/epochcore/gravity"
	"github.com/gravity-chain/epochcore/log"
	"github.com/gravity-chain/epochcore/logdb"
	"github.com/gravity-chain/epochcore/lvldb"
	"github.com/gravity-chain/epochcore/metrics"
	"github.com/gravity-chain/epochcore/runtime"
	"github.com/gravity-chain/epochcore/state"
)

func initLogger(ctx *cli.Context) (*slog.LevelVar, error) {
	logLevel := ctx.Int(verbosityFlag.Name)
	if logLevel > 9 {
		return nil, fmt.Errorf("invalid verbosity value %d", logLevel)
	}

	var level slog.LevelVar
	level.Set(log.FromLegacyLevel(logLevel))

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stdout, &level)
	} else {
		handler = log.StderrTerminalHandler(&level)
	}
	log.SetDefault(log.NewLogger(handler))
	return &level, nil
}

func selectGenesis(ctx *cli.Context) (*genesis.Genesis, bool, error) {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		interval := ctx.Uint64(epochIntervalFlag.Name) * gravity.Second
		return genesis.NewDevnet(uint64(time.Now().UnixMicro()), interval), true, nil
	}

	cfg, err := genesis.LoadConfig(path)
	if err != nil {
		return nil, false, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	gene, err := genesis.New(name, cfg)
	if err != nil {
		return nil, false, errors.WithMessage(err, "build genesis")
	}
	return gene, false, nil
}

func makeDataDir(ctx *cli.Context) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", fmt.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	return dataDir, nil
}

func makeInstanceDir(ctx *cli.Context, gene *genesis.Genesis) (string, error) {
	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return "", err
	}
	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%s-%d", gene.Name(), gene.Config().ChainID))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create instance dir [%v]", instanceDir)
	}
	return instanceDir, nil
}

func openMainDB(ctx *cli.Context, dir string) (*lvldb.LevelDB, error) {
	cacheMB := normalizeCacheSize(ctx.Int(cacheFlag.Name))
	logger.Debug("cache size(MB)", "size", cacheMB)

	// ensure Go's GC ignores the database cache for trigger percentage
	gogc := math.Max(20, math.Min(100, 100/(float64(cacheMB)/1024)))
	logger.Debug("sanitize Go's GC trigger", "percent", int(gogc))
	debug.SetGCPercent(int(gogc))

	fdCache, err := suggestFDCache()
	if err != nil {
		return nil, err
	}
	logger.Debug("fd cache", "n", fdCache)

	path := filepath.Join(dir, "main.db")
	db, err := lvldb.New(path, lvldb.Options{
		CacheSize:              cacheMB / 2,
		OpenFilesCacheCapacity: fdCache,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open state database [%v]", path)
	}
	return db, nil
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 128 {
		sizeMB = 128
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func suggestFDCache() (int, error) {
	limit, err := fdlimit.Current()
	if err != nil {
		return 0, errors.Wrap(err, "get fd limit")
	}
	if limit <= 1024 {
		logger.Warn("low fd limit, increase it if possible", "limit", limit)
	}

	n := limit / 2
	if n > 5120 {
		return 5120, nil
	}
	return n, nil
}

func openLogDB(dir string) (*logdb.LogDB, error) {
	path := filepath.Join(dir, "events.db")
	db, err := logdb.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open event database [%v]", path)
	}
	return db, nil
}

func newStater(ctx *cli.Context, db *lvldb.LevelDB) *state.Stater {
	// half of the cache goes to leveldb, the other half to decoded storage
	return state.NewStater(db, normalizeCacheSize(ctx.Int(cacheFlag.Name))/2)
}

// initState builds the genesis state unless a previous run already did.
func initState(gene *genesis.Genesis, stater *state.Stater) error {
	now, err := builtin.New(stater.NewState(), nil).Timestamp.NowMicroseconds()
	if err != nil {
		return err
	}
	if now != 0 {
		logger.Info("resuming from stored state", "time", now)
		return nil
	}
	res, err := gene.Build(stater)
	if err != nil {
		return errors.WithMessage(err, "build genesis state")
	}
	logger.Info("genesis state built", "root", res.Root, "validators", len(res.Pools))
	return nil
}

func startAPIServer(ctx *cli.Context, handler http.Handler) (string, func(), error) {
	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	if timeout := ctx.Uint64(apiTimeoutFlag.Name); timeout > 0 {
		handler = handleAPITimeout(handler, time.Duration(timeout)*time.Millisecond)
	}
	handler = requestBodyLimit(handler)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/", func() {
		srv.Close()
		goes.Wait()
	}, nil
}

func startMetricsServer(addr string) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen metrics API addr [%v]", addr)
	}

	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	handler := handlers.CompressHandler(router)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/metrics", func() {
		srv.Close()
		goes.Wait()
	}, nil
}

// handleAPITimeout cancels the request context after timeout. Websocket
// upgrades are long lived and left alone.
func handleAPITimeout(h http.Handler, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			h.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestBodyLimit(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 200*1024)
		h.ServeHTTP(w, r)
	})
}

func printStartupMessage(
	gene *genesis.Genesis,
	rt *runtime.Runtime,
	dataDir string,
	apiURL string,
	metricsURL string,
	adminURL string,
	devnet bool,
) {
	var epoch uint64
	_ = rt.View(func(c *builtin.Contracts) (err error) {
		epoch, err = c.Reconfig.CurrentEpoch()
		return err
	})
	blockCtx := rt.BlockContext()

	optional := func(url string) string {
		if url == "" {
			return "Disabled"
		}
		return url
	}

	info := fmt.Sprintf(`Starting %v
    Network      [ %v chain %v ]
    Epoch        [ %v ]
    Last block   [ #%v @%v ]
    Governance   [ %v ]
    Data dir     [ %v ]
    API portal   [ %v ]
    Metrics      [ %v ]
    Admin        [ %v ]
`,
		common.MakeName("epochd", fullVersion()),
		gene.Name(), gene.Config().ChainID,
		epoch,
		blockCtx.Number, time.UnixMicro(int64(blockCtx.Time)),
		gene.Governance(),
		dataDir,
		apiURL,
		optional(metricsURL),
		optional(adminURL),
	)
	if devnet {
		info += devAccountsTable()
	}
	fmt.Print(info)
}

func devAccountsTable() string {
	tableHead := `
┌────────────────────────────────────────────┬────────────────────────────────────────────────────────────────────┐
│                   Address                  │                             Private Key                            │`
	tableContent := `
├────────────────────────────────────────────┼────────────────────────────────────────────────────────────────────┤
│ %v │ %v │`
	tableEnd := `
└────────────────────────────────────────────┴────────────────────────────────────────────────────────────────────┘`

	table := tableHead
	for _, a := range genesis.DevAccounts() {
		table += fmt.Sprintf(tableContent,
			a.Address,
			gravity.BytesToBytes32(crypto.FromECDSA(a.PrivateKey)),
		)
	}
	return table + tableEnd + "\r\n"
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".epochd")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
