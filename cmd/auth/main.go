package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"paralelogram/internal/auth/handler"
	"paralelogram/internal/auth/service"
	"paralelogram/internal/keycloak"
	"paralelogram/internal/platform/auditsink"
	"paralelogram/internal/platform/config"
	"paralelogram/internal/platform/httpserver"
	"paralelogram/internal/platform/logger"
	"paralelogram/internal/platform/metrics"
	"paralelogram/internal/platform/middleware"
	"paralelogram/internal/platform/redis"
	ratelimit "paralelogram/internal/ratelimit/middleware"
	ratelimitmodels "paralelogram/internal/ratelimit/models"
	"paralelogram/internal/ratelimit/store/bucket"
)

// main wires the auth gateway: token issuance, refresh and validation backed
// by the realm's token and userinfo endpoints.
func main() {
	cfg, err := config.LoadAuth()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("auth gateway stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Auth, log *slog.Logger) error {
	m := metrics.New(prometheus.DefaultRegisterer)

	auditPublisher, closeAudit, err := auditsink.Open(ctx, cfg.Audit, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	idp := keycloak.New(cfg.Keycloak,
		keycloak.WithLogger(log),
		keycloak.WithMetrics(m),
	)
	tokens, err := service.New(idp,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return err
	}
	verifier := middleware.NewOIDCVerifier(ctx, cfg.Keycloak.IssuerURL())

	checks := map[string]httpserver.Check{}
	var buckets ratelimit.BucketStore = bucket.NewInMemoryBucketStore()
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		buckets = bucket.NewRedisBucketStore(rdb.Client)
		checks["redis"] = rdb.Health
	}
	limiter := ratelimit.New(buckets, log,
		ratelimit.WithMetrics(m),
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
	)
	issueLimit := limiter.RateLimit("token_generate", ratelimitmodels.Policy{
		Limit:  cfg.RateLimit.Limit,
		Window: cfg.RateLimit.Window,
	})

	r := chi.NewRouter()
	r.Get("/healthz", httpserver.Health(checks))
	r.Handle("/metrics", promhttp.Handler())
	handler.New(tokens, log, m, verifier, handler.WithIssueLimit(issueLimit)).Register(r)

	srv := httpserver.New(cfg.Addr, r)
	return serve(ctx, srv, log)
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, log *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting auth gateway", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
