// This is the entrypoint for a local Ethereum development node that
// forks its initial state from a remote archive node. It wires the
// ambient stack (configuration, structured logging) around the core:
// the remote block source, the hybrid block store, and the mempool.
// Everything past this point — RPC routing, EVM execution, mining
// policy — is an external collaborator, out of scope for this program.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"

	"github.com/ardanlabs/forkchain/foundation/blockchain/hbs"
	"github.com/ardanlabs/forkchain/foundation/blockchain/mempool"
	"github.com/ardanlabs/forkchain/foundation/blockchain/rbs"
	"github.com/ardanlabs/forkchain/foundation/logger"
)

// build is the git version of this program, set using -ldflags at build time.
var build = "develop"

func main() {
	log, err := logger.New("FORKNODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Upstream struct {
			URL            string        `conf:"default:http://localhost:8545"`
			RequestTimeout time.Duration `conf:"default:10s"`
		}
		Chain struct {
			ForkHeight uint64 `conf:"default:0"`
		}
		Mempool struct {
			SelectStrategy string `conf:"default:by-address"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "FORKNODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Chain.ForkHeight == 0 {
		return errors.New("startup: FORKNODE_CHAIN_FORK_HEIGHT must be set to the upstream height to fork from")
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Core Construction

	// The blockchain packages accept a function of this signature so the
	// application can narrate what's happening inside the store without
	// those packages depending on zap directly.
	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	httpClient := &http.Client{Timeout: cfg.Upstream.RequestTimeout}
	source := rbs.New(cfg.Upstream.URL, httpClient, rbs.EventHandler(ev))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Upstream.RequestTimeout)
	store, err := hbs.New(ctx, cfg.Chain.ForkHeight, source, hbs.EventHandler(ev))
	cancel()
	if err != nil {
		return fmt.Errorf("forking at height %d: %w", cfg.Chain.ForkHeight, err)
	}

	forkBase := store.GetLatestBlock()
	log.Infow("startup",
		"status", "forked",
		"fork_height", cfg.Chain.ForkHeight,
		"fork_base_hash", forkBase.Hash(),
		"transactions", len(forkBase.Transactions),
	)

	oracle := mempool.NewMemoryOracle(nil)
	pool, err := mempool.NewWithStrategy(oracle, cfg.Mempool.SelectStrategy, mempool.EventHandler(ev))
	if err != nil {
		return fmt.Errorf("constructing mempool: %w", err)
	}

	// =========================================================================
	// Shutdown Support

	// Make a channel to listen for an interrupt or terminate signal from the
	// OS. Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	status := time.NewTicker(time.Minute)
	defer status.Stop()

	for {
		select {
		case <-status.C:
			latest := store.GetLatestBlock()
			log.Infow("status",
				"latest_height", latest.Header.Number,
				"latest_hash", latest.Hash(),
				"pending", pool.Count(),
			)

		case sig := <-shutdown:
			log.Infow("shutdown", "status", "shutdown started", "signal", sig)
			return nil
		}
	}
}
