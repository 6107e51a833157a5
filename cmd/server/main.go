package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"postledger/internal/bank"
	"postledger/internal/contract/gate"
	"postledger/internal/contract/handler"
	contractmetrics "postledger/internal/contract/metrics"
	"postledger/internal/contract/service"
	"postledger/internal/contract/store"
	pgstore "postledger/internal/contract/store/postgres"
	"postledger/internal/platform/config"
	"postledger/internal/platform/httpserver"
	"postledger/internal/platform/kafka"
	"postledger/internal/platform/logger"
	"postledger/internal/platform/metrics"
	"postledger/internal/platform/middleware"
	"postledger/internal/platform/postgres"
	"postledger/internal/platform/redis"
	"postledger/pkg/platform/circuit"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flagSet := pflag.NewFlagSet("postledger", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(reg)

	checks := map[string]handler.HealthCheck{}

	contractStore, outbox, dbCheck, closeStore, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeStore()
	if dbCheck != nil {
		checks["database"] = dbCheck
	}

	revocations, redisCheck, closeRevocations, err := openRevocationList(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer closeRevocations()
	if redisCheck != nil {
		checks["redis"] = redisCheck
	}

	publisher, closePublisher, err := openPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	verifier := gate.NewJWTVerifier(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Contract.ID,
		gate.WithRevocationList(revocations),
	)
	contract := service.New(contractStore, verifier,
		service.WithLogger(log),
		service.WithMetrics(contractmetrics.New(reg)),
		service.WithDenom(cfg.Contract.Denom),
	)
	limiter := middleware.NewKeyedLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	relay := bank.NewRelay(outbox, publisher,
		bank.WithLogger(log),
		bank.WithInterval(cfg.Relay.Interval),
		bank.WithBatchSize(cfg.Relay.BatchSize),
		bank.WithRegisterer(reg),
		bank.WithBreaker(circuit.New("bank-publisher", circuit.WithCooldown(cfg.Relay.Interval*30))),
	)

	router := chi.NewRouter()
	router.Get("/healthz", handler.Health(checks))
	router.Handle("/metrics", metrics.Handler(reg))
	handler.New(contract, verifier, limiter, cfg.Server.HostToken, log, httpMetrics).
		WithRequestTimeout(cfg.Server.RequestTimeout).
		Register(router)

	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.ReadHeaderTimeout)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting postledger", "addr", cfg.Server.Addr, "contract_id", cfg.Contract.ID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return relay.Run(ctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				limiter.Sweep()
			}
		}
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (store.Store, store.Outbox, handler.HealthCheck, func(), error) {
	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if db == nil {
		log.Warn("no database configured, contract state is kept in memory")
		mem := store.NewInMemoryStore()
		return mem, mem, nil, func() {}, nil
	}
	if err := pgstore.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}
	st := pgstore.New(db)
	return st, st, db.PingContext, func() { _ = db.Close() }, nil
}

func openRevocationList(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (gate.RevocationList, handler.HealthCheck, func(), error) {
	client, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if client == nil {
		log.Warn("no redis configured, token revocations are kept in memory")
		return gate.NewInMemoryRevocationList(), nil, func() {}, nil
	}
	return gate.NewRedisRevocationList(client.Client, client.KeyPrefix()), client.Health, func() { _ = client.Close() }, nil
}

func openPublisher(ctx context.Context, cfg config.Config, log *slog.Logger) (bank.Publisher, func(), error) {
	client, err := kafka.NewClient(cfg.Kafka)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Warn("no kafka brokers configured, bank sends are only logged")
		return bank.NewLogPublisher(log), func() {}, nil
	}
	if err := kafka.EnsureTopic(ctx, client, cfg.Kafka); err != nil {
		client.Close()
		return nil, nil, err
	}
	return bank.NewKafkaPublisher(client, cfg.Kafka.Topic, cfg.Contract.ID), client.Close, nil
}
