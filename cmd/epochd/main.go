// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/gravity-chain/epochcore/admin"
	"github.com/gravity-chain/epochcore/api"
	"github.com/gravity-chain/epochcore/health"
	"github.com/gravity-chain/epochcore/log"
	"github.com/gravity-chain/epochcore/logdb"
	"github.com/gravity-chain/epochcore/lvldb"
	"github.com/gravity-chain/epochcore/metrics"
	"github.com/gravity-chain/epochcore/node"
	"github.com/gravity-chain/epochcore/runtime"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "epochd")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "epochd",
		Usage:     "Epoch lifecycle node of a proof-of-stake chain",
		Copyright: "2025 The VeChainThor developers",
		Flags: []cli.Flag{
			genesisFlag,
			dataDirFlag,
			persistFlag,
			cacheFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiBacktraceLimitFlag,
			apiLogsLimitFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			pprofFlag,
			skipLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
			blockIntervalFlag,
			dkgDelayFlag,
			epochIntervalFlag,
			maxTransitionFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel, err := initLogger(ctx)
	if err != nil {
		return err
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	gene, devnet, err := selectGenesis(ctx)
	if err != nil {
		return err
	}

	var (
		mainDB      *lvldb.LevelDB
		logDB       *logdb.LogDB
		instanceDir string
	)
	if devnet && !ctx.Bool(persistFlag.Name) {
		instanceDir = "Memory"
		if mainDB, err = lvldb.NewMem(); err != nil {
			return err
		}
		if logDB, err = logdb.NewMem(); err != nil {
			return err
		}
	} else {
		if instanceDir, err = makeInstanceDir(ctx, gene); err != nil {
			return err
		}
		if mainDB, err = openMainDB(ctx, instanceDir); err != nil {
			return err
		}
		if logDB, err = openLogDB(instanceDir); err != nil {
			return err
		}
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	defer func() { logger.Info("closing log database..."); logDB.Close() }()

	stater := newStater(ctx, mainDB)
	if err := initState(gene, stater); err != nil {
		return err
	}

	rt, err := runtime.New(stater, gene.Governance(), nil)
	if err != nil {
		return err
	}

	blockInterval := time.Duration(ctx.Uint64(blockIntervalFlag.Name)) * time.Second
	n := node.New(rt, logDB, node.Options{
		BlockInterval: blockInterval,
		DKGDelay:      ctx.Uint64(dkgDelayFlag.Name),
		SkipLogs:      ctx.Bool(skipLogsFlag.Name),
	})
	h := health.New(blockInterval, time.Duration(ctx.Uint64(maxTransitionFlag.Name))*time.Second)

	apiHandler, apiCloser := api.New(rt, logDB, n, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		BacktraceLimit:  ctx.Uint64(apiBacktraceLimitFlag.Name),
		LogsLimit:       ctx.Uint64(apiLogsLimitFlag.Name),
		SkipLogs:        ctx.Bool(skipLogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		EnablePprof:     ctx.Bool(pprofFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
	})
	defer func() { logger.Info("closing API..."); apiCloser() }()

	apiURL, srvCloser, err := startAPIServer(ctx, apiHandler)
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); srvCloser() }()

	metricsURL := ""
	if ctx.Bool(enableMetricsFlag.Name) {
		url, closeFunc, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping metrics server..."); closeFunc() }()
		metricsURL = url
	}

	adminURL := ""
	if ctx.Bool(enableAdminFlag.Name) {
		url, closeFunc, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel, h)
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping admin server..."); closeFunc() }()
		adminURL = url
	}

	printStartupMessage(gene, rt, instanceDir, apiURL, metricsURL, adminURL, devnet)

	g, gctx := errgroup.WithContext(exitSignal)
	g.Go(func() error {
		h.Watch(gctx, n)
		return nil
	})
	g.Go(func() error {
		return n.Run(gctx)
	})
	return g.Wait()
}
