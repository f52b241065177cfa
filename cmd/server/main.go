// Command server runs the vocalmind API: account management, screening
// session bookkeeping, and the security middleware stack in front of both.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	accounthandler "vocalmind/internal/account/handler"
	accountservice "vocalmind/internal/account/service"
	accountstore "vocalmind/internal/account/store"
	"vocalmind/internal/audit"
	"vocalmind/internal/platform/config"
	"vocalmind/internal/platform/httpserver"
	"vocalmind/internal/platform/logger"
	"vocalmind/internal/platform/metrics"
	"vocalmind/internal/platform/middleware"
	"vocalmind/internal/platform/postgres"
	platformredis "vocalmind/internal/platform/redis"
	ratelimitservice "vocalmind/internal/ratelimit/service"
	"vocalmind/internal/ratelimit/store/window"
	screeninghandler "vocalmind/internal/screening/handler"
	screeningservice "vocalmind/internal/screening/service"
	screeningstore "vocalmind/internal/screening/store"
	"vocalmind/internal/security"
	"vocalmind/internal/token"
	httptransport "vocalmind/internal/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("configuration error", "error", err.Error())
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Shared infrastructure. Both clients are optional: without Postgres the
	// in-memory stores serve, without Redis the limiter stays process-local.
	pool, err := postgres.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Audit trail sink: Kafka when brokers are configured, structured log
	// otherwise.
	var auditor audit.Publisher = audit.NewLogPublisher(log)
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub, err := audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log, m)
		if err != nil {
			return err
		}
		defer func() { _ = kafkaPub.Close(context.Background()) }()
		auditor = kafkaPub
	}

	// Rate limiter over the configured window store.
	var windowStore ratelimitservice.WindowStore
	if cfg.RateLimit.Backend == "redis" {
		windowStore = window.NewRedisStore(redisClient)
		log.Info("rate limiter using redis window store")
	} else {
		windowStore = window.NewMemoryStore()
	}
	limiter, err := ratelimitservice.New(windowStore,
		ratelimitservice.WithLogger(log),
		ratelimitservice.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	secMiddleware := security.New(limiter, log,
		security.WithDisabled(cfg.RateLimit.Disabled),
		security.WithAuditPublisher(auditor),
	)

	// Domain stores: Postgres when configured, in-memory otherwise.
	var userStore accountstore.UserStore
	var resetStore accountstore.ResetTokenStore
	var sessionStore screeningstore.SessionStore
	if pool != nil {
		accountPG := accountstore.NewPostgresStore(pool)
		if err := accountPG.EnsureSchema(ctx); err != nil {
			return err
		}
		screeningPG := screeningstore.NewPostgresStore(pool)
		if err := screeningPG.EnsureSchema(ctx); err != nil {
			return err
		}
		userStore, resetStore, sessionStore = accountPG, accountPG, screeningPG
	} else {
		mem := accountstore.NewMemoryStore()
		userStore, resetStore = mem, mem
		sessionStore = screeningstore.NewMemoryStore()
		log.Warn("no postgres configured, using in-memory stores")
	}

	tokens := token.NewManager(cfg.Server.JWTSigningKey, cfg.Server.SessionTTL)

	accounts, err := accountservice.New(userStore, resetStore, tokens, log,
		accountservice.WithMetrics(m),
		accountservice.WithAuditPublisher(auditor),
	)
	if err != nil {
		return err
	}

	screenings, err := screeningservice.New(sessionStore, log,
		screeningservice.WithMetrics(m),
		screeningservice.WithAuditPublisher(auditor),
	)
	if err != nil {
		return err
	}

	requireAuth := middleware.RequireAuth(tokens, log)

	var health []httptransport.HealthCheck
	if pool != nil {
		health = append(health, httptransport.HealthCheck{Name: "postgres", Check: pool.Ping})
	}
	if redisClient != nil {
		health = append(health, httptransport.HealthCheck{Name: "redis", Check: redisClient.Health})
	}

	router := httptransport.New(httptransport.Deps{
		Logger:     log,
		Metrics:    m,
		Security:   secMiddleware,
		Accounts:   accounthandler.New(accounts, log, requireAuth),
		Screenings: screeninghandler.New(screenings, log, requireAuth),
		Health:     health,
	})

	apiServer := httpserver.New(cfg.Server.Addr, router)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := httpserver.New(cfg.Server.MetricsAddr, metricsMux)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting api server", "addr", cfg.Server.Addr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting metrics server", "addr", cfg.Server.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := apiServer.Shutdown(shutdownCtx)
		if mErr := metricsServer.Shutdown(shutdownCtx); err == nil {
			err = mErr
		}
		return err
	})

	return g.Wait()
}
