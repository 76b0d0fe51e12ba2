// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

// Package main is the entry point for the Curatarr daemon.
//
// Curatarr keeps curated Plex collections synchronized with an externally
// computed suggestion set. It runs three supervised loops:
//
//  1. Curation: apply the scoring cycle to the candidate ledger, rebuild the
//     curated collection from the active candidates in three-tier shuffle
//     order, and pin the collection family on the home screen.
//  2. Consolidation: sweep configured collections for items holding multiple
//     physical copies and keep only the best one (dry-run by default).
//  3. Observability: /healthz and /metrics on the configured listener.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority
// wins): environment variables, a YAML config file (CONFIG_PATH or
// config.yaml / /etc/curatarr/config.yaml), and built-in defaults.
//
// Minimum viable setup for the curation loop:
//
//	export PLEX_URL=http://localhost:32400
//	export PLEX_TOKEN=your-plex-token
//	export CURATION_ENABLED=true
//	export CURATION_OWNER=alice
//	export CURATION_SUGGESTIONS_FILE=/data/suggestions.json
//	./curatarr
//
// # One-shot mode
//
// With -once the process runs a single curation cycle and exits with a
// status describing the outcome:
//
//	0  cycle completed cleanly
//	10 cycle completed with per-item failures or an unverified final state
//	20 a dependency failed (configuration, store, or the Plex server)
//	30 internal failure
//
// # Signal handling
//
// The daemon shuts down gracefully on SIGINT and SIGTERM: loops finish their
// current step, the listener drains (10s timeout), and the store closes.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/curatarr/curatarr/internal/config"
	"github.com/curatarr/curatarr/internal/curate"
	"github.com/curatarr/curatarr/internal/ledger"
	"github.com/curatarr/curatarr/internal/logging"
	"github.com/curatarr/curatarr/internal/plex"
	"github.com/curatarr/curatarr/internal/service"
	"github.com/curatarr/curatarr/internal/store"
)

// The breaker-wrapped client is what production loops drive.
var _ curate.Catalog = (*plex.BreakerClient)(nil)

// Exit statuses for one-shot mode.
const (
	exitOK         = 0
	exitPartial    = 10
	exitDependency = 20
	exitInternal   = 30
)

func main() {
	once := flag.Bool("once", false, "run a single curation cycle and exit")
	flag.Parse()

	os.Exit(run(*once))
}

func run(once bool) int {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return exitDependency
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Bool("curation", cfg.Curation.Enabled).
		Bool("consolidation", cfg.Consolidation.Enabled).
		Bool("once", once).
		Msg("Starting Curatarr")

	st, err := store.Open(&cfg.Store)
	if err != nil {
		logging.Error().Err(err).Str("path", cfg.Store.Path).Msg("Failed to open candidate store")
		return exitDependency
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing candidate store")
		}
	}()

	var catalog *plex.BreakerClient
	if cfg.Curation.Enabled || cfg.Consolidation.Enabled {
		client := plex.NewPlexClient(&cfg.Plex)
		catalog = plex.NewBreakerClient(client)

		pingCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		machineID, err := client.MachineID(pingCtx)
		cancel()
		if err != nil {
			// The supervisor retries; a one-shot run fails fast.
			if once {
				logging.Error().Err(err).Msg("Plex server unreachable")
				return exitDependency
			}
			logging.Warn().Err(err).Msg("Plex server unreachable at startup (loops will retry)")
		} else {
			logging.Info().Str("machine_id", machineID).Msg("Connected to Plex")
		}
	}

	curationSvc := buildCurationService(cfg, st, catalog)

	if once {
		return runOnce(curationSvc)
	}
	return runDaemon(cfg, st, catalog, curationSvc)
}

// buildCurationService wires the curation loop, or returns nil when disabled.
func buildCurationService(cfg *config.Config, st *store.Store, catalog *plex.BreakerClient) *service.CurationService {
	if !cfg.Curation.Enabled {
		return nil
	}

	var source service.SuggestionSource
	if cfg.Curation.SuggestionsFile != "" {
		source = service.NewFileSource(cfg.Curation.SuggestionsFile)
	}

	return service.NewCurationService(
		ledger.NewLedger(st, catalog),
		st,
		curate.NewReconciler(catalog, curate.NewArtworkStore(cfg.Curation.AssetsDir)),
		curate.NewHubResolver(catalog),
		source,
		cfg.Curation,
		cfg.Plex.MovieLibrary,
		logging.Logger(),
	)
}

// runOnce executes a single curation cycle and maps the outcome onto the
// exit-status taxonomy.
func runOnce(curationSvc *service.CurationService) int {
	if curationSvc == nil {
		logging.Error().Msg("-once requires CURATION_ENABLED=true")
		return exitInternal
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	outcome, err := curationSvc.RunCycle(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logging.Error().Err(err).Msg("Cycle interrupted")
			return exitInternal
		}
		logging.Error().Err(err).Msg("Cycle failed")
		return exitDependency
	}
	if outcome.Partial() {
		logging.Warn().Msg("Cycle completed with failures")
		return exitPartial
	}

	logging.Info().Msg("Cycle completed")
	return exitOK
}

// runDaemon wires the supervisor tree and blocks until shutdown.
func runDaemon(cfg *config.Config, st *store.Store, catalog *plex.BreakerClient, curationSvc *service.CurationService) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := service.NewSupervisorTree(logging.NewSlogLogger(), service.DefaultTreeConfig())
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create supervisor tree")
		return exitInternal
	}

	if curationSvc != nil {
		tree.AddCurationService(curationSvc)
		logging.Info().Str("collection", cfg.Curation.CollectionName).Msg("Curation service added")
	}

	if cfg.Consolidation.Enabled {
		library := cfg.Consolidation.Library
		if library == "" {
			library = cfg.Plex.MovieLibrary
		}
		tree.AddMaintenanceService(service.NewConsolidationService(catalog, cfg.Consolidation, library, logging.Logger()))
		logging.Info().Str("library", library).Bool("dry_run", cfg.Consolidation.DryRun).Msg("Consolidation service added")
	}

	if !cfg.Store.InMemory {
		tree.AddMaintenanceService(service.NewStoreGCService(st, 0, logging.Logger()))
	}

	if cfg.Store.BackupDir != "" {
		tree.AddMaintenanceService(service.NewBackupService(st, cfg.Store.BackupDir, cfg.Store.BackupKeep, cfg.Store.BackupInterval, logging.Logger()))
		logging.Info().Str("dir", cfg.Store.BackupDir).Msg("Backup service added")
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	tree.AddObservabilityService(service.NewHTTPService(service.NewObservabilityServer(addr), 10*time.Second))
	logging.Info().Str("addr", addr).Msg("Observability listener added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Curatarr stopped gracefully")
	return exitOK
}
