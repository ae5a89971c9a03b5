package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"idregistry/internal/identity/authorizer"
	"idregistry/internal/identity/events"
	"idregistry/internal/identity/handler"
	"idregistry/internal/identity/ledger"
	"idregistry/internal/identity/metrics"
	"idregistry/internal/identity/service"
	"idregistry/internal/identity/store"
	"idregistry/internal/platform/config"
	"idregistry/internal/platform/httpserver"
	"idregistry/internal/platform/logger"
	platformredis "idregistry/internal/platform/redis"
	"idregistry/internal/transport"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var checks []transport.HealthChecker

	credentials := store.Store(store.NewInMemory())
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres unreachable", "error", err)
			os.Exit(1)
		}
		pg := store.NewPostgres(db)
		credentials = pg
		checks = append(checks, pg)
		log.Info("using postgres credential store")
	}

	sequences := authorizer.SequenceStore(authorizer.NewInMemorySequence())
	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		sequences = authorizer.NewRedisSequence(redisClient.Client, "idregistry:mint-sequence")
		checks = append(checks, redisClient)
		log.Info("using redis replay ledger")
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
		service.WithMintCost(cfg.MintCost),
		service.WithExpiryWindow(cfg.TraitExpiryWindow),
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := events.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.EventsTopic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		opts = append(opts, service.WithEvents(publisher))
		log.Info("publishing registry events", "topic", cfg.EventsTopic)
	}

	var auth *authorizer.Authorizer
	if cfg.AuthorityPublicKey != nil {
		auth = authorizer.New(cfg.AuthorityPublicKey, cfg.RegistryID, cfg.ChainID, sequences)
	} else {
		log.Warn("AUTHORITY_PUBLIC_KEY not set, self-mint disabled")
	}

	registry := service.New(credentials, ledger.NewInMemory(), auth, cfg.Authority, opts...)
	h := handler.New(registry, log, cfg.TraitExpiryWindow)
	router := transport.NewRouter(h, cfg.JWTSigningKey, log, transport.Options{
		RateLimit:       int(cfg.RateLimit),
		RateLimitWindow: cfg.RateLimitWindow,
	}, checks...)
	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting idregistry", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
