// Command server wires the registry: configuration, state store, bank,
// event pipeline, services, and the HTTP API. Business logic lives in the
// internal/registry packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"folio/internal/events"
	"folio/internal/platform/config"
	"folio/internal/platform/httpserver"
	"folio/internal/platform/logger"
	platformredis "folio/internal/platform/redis"
	"folio/internal/registry/access"
	"folio/internal/registry/bank"
	"folio/internal/registry/cache"
	"folio/internal/registry/funds"
	registrymetrics "folio/internal/registry/metrics"
	"folio/internal/registry/names"
	"folio/internal/registry/pages"
	"folio/internal/registry/state"
	"folio/internal/token"
	httpapi "folio/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStateStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	eventStore, db, err := openEventStore(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	publisher := events.NewPublisher(eventStore,
		events.WithAsyncBuffer(256),
		events.WithLogger(log),
	)
	defer publisher.Close()

	metrics := registrymetrics.New()
	escrow := bank.NewMemory()

	var nameCache *cache.NameCache
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		nameCache = cache.NewNameCache(redisClient.Client, cfg.Redis.CacheTTL, log)
	}

	pageOpts := []pages.Option{pages.WithMetrics(metrics), pages.WithLogger(log)}
	nameOpts := []names.Option{names.WithMetrics(metrics), names.WithLogger(log)}
	if nameCache != nil {
		pageOpts = append(pageOpts, pages.WithNameCache(nameCache))
		nameOpts = append(nameOpts, names.WithNameCache(nameCache))
	}
	pagesSvc := pages.New(cfg.RegistryID, store, publisher, pageOpts...)
	namesSvc := names.New(store, escrow, publisher, nameOpts...)
	fundsSvc := funds.New(store, escrow, publisher,
		funds.WithMetrics(metrics),
		funds.WithLogger(log),
	)
	accessSvc := access.New(store, publisher, access.WithLogger(log))

	tokens := token.NewService(cfg.JWTSigningKey, "folio")

	opts := []httpapi.Option{}
	if nameCache != nil {
		opts = append(opts, httpapi.WithNameCache(nameCache))
	}
	if redisClient != nil {
		opts = append(opts, httpapi.WithHealthCheck(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return redisClient.Health(ctx)
		}))
	}
	handler := httpapi.NewHandler(log, pagesSvc, namesSvc, fundsSvc, accessSvc, tokens, opts...)
	srv := httpserver.New(cfg.Addr, handler.Router())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting folio registry", "addr", cfg.Addr, "registry_id", cfg.RegistryID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if pgStore, ok := eventStore.(*events.PostgresStore); ok && len(cfg.KafkaBrokers) > 0 {
		sink, err := events.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer sink.Close()
		worker := events.NewWorker(pgStore, sink, log)
		g.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStateStore(cfg config.Server) (state.Store, error) {
	initial := state.NewRegistry(cfg.InitialOwner, cfg.PayoutAddress, cfg.Pricing)
	if cfg.StateDBPath == "" {
		return state.NewMemory(initial), nil
	}
	return state.OpenBolt(cfg.StateDBPath, initial)
}

func openEventStore(ctx context.Context, cfg config.Server) (events.Store, *sql.DB, error) {
	if cfg.PostgresDSN == "" {
		return events.NewMemoryStore(), nil, nil
	}
	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	store := events.NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, db, nil
}
