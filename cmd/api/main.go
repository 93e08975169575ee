package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/windowman/goldenthread/internal/calls"
	"github.com/windowman/goldenthread/internal/config"
	"github.com/windowman/goldenthread/internal/engagement"
	"github.com/windowman/goldenthread/internal/geo"
	"github.com/windowman/goldenthread/internal/httpserver"
	"github.com/windowman/goldenthread/internal/ledger"
	"github.com/windowman/goldenthread/internal/phonecall"
	"github.com/windowman/goldenthread/internal/session"
	"github.com/windowman/goldenthread/internal/store"
	"github.com/windowman/goldenthread/internal/worker"
)

// main boots the service: config → DB pools → schema → services → HTTP server,
// with the call dispatcher alongside when the provider is configured.
func main() {
	// Load runtime config from environment.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Scoped pool for request handlers.
	db, err := store.NewPostgresStore(cfg.DBURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Ensure required tables/indexes exist so `docker compose up --build` is enough.
	if err := db.EnsureSchema(); err != nil {
		log.Fatal(err)
	}

	// Service-role pool: ledger writes take events from every caller in the
	// system and must not sit behind per-caller row security.
	serviceDB, err := store.NewPostgresStore(cfg.ServiceDBURL)
	if err != nil {
		log.Fatal(err)
	}
	defer serviceDB.Close()

	lw, err := ledger.NewWriter(serviceDB, slog.Default())
	if err != nil {
		log.Fatal(err)
	}

	deps := httpserver.Deps{
		Store:    db,
		Scorer:   engagement.NewScorer(engagement.NewMemoryStore()),
		Ledger:   lw,
		Syncer:   session.NewSyncer(db, slog.Default()),
		Enqueuer: calls.NewEnqueuer(db),
		Zip:      geo.NewClient(cfg.ZipAPIURL),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The dispatcher is optional: without provider credentials the queue is
	// still written, just drained elsewhere.
	if caller, err := phonecall.NewClient(cfg.PhoneCallAPIURL, cfg.PhoneCallAPIKey); err != nil {
		slog.Warn("call dispatcher disabled", "component", "worker", "error", err)
	} else {
		d := worker.NewDispatcher(serviceDB, caller, lw, cfg.DispatchInterval, cfg.DispatchBatch)
		go d.Run(ctx)
	}

	router := httpserver.NewRouter(cfg, deps)

	log.Println("server started on " + cfg.ListenAddr)
	log.Fatal(router.Run(cfg.ListenAddr))
}
