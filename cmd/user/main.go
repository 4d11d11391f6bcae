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

	"paralelogram/internal/keycloak"
	"paralelogram/internal/keycloak/tokencache"
	"paralelogram/internal/platform/auditsink"
	"paralelogram/internal/platform/config"
	"paralelogram/internal/platform/httpserver"
	"paralelogram/internal/platform/logger"
	"paralelogram/internal/platform/metrics"
	"paralelogram/internal/platform/middleware"
	"paralelogram/internal/platform/postgres"
	"paralelogram/internal/platform/redis"
	"paralelogram/internal/user/handler"
	"paralelogram/internal/user/service"
	"paralelogram/internal/user/store/migrations"
	rolestore "paralelogram/internal/user/store/role"
	userstore "paralelogram/internal/user/store/user"
)

// main wires the user management service. Users are provisioned in the realm
// first and stored locally only once their role is assigned.
func main() {
	cfg, err := config.LoadUser()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("user service stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.User, log *slog.Logger) error {
	m := metrics.New(prometheus.DefaultRegisterer)
	checks := map[string]httpserver.Check{}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := migrations.Apply(ctx, db); err != nil {
		return err
	}
	checks["postgres"] = db.PingContext

	auditPublisher, closeAudit, err := auditsink.Open(ctx, cfg.Audit, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	var slot tokencache.Slot
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		slot = tokencache.NewRedisSlot(rdb.Client, tokencache.DefaultRedisKey)
		checks["redis"] = rdb.Health
		log.Info("admin token shared through redis")
	}

	kc := keycloak.New(cfg.Keycloak,
		keycloak.WithLogger(log),
		keycloak.WithMetrics(m),
	)
	adminTokens := tokencache.New(kc, slot, kc.ClientID(), kc.ClientSecret(),
		tokencache.WithLogger(log),
		tokencache.WithMetrics(m),
		tokencache.WithAuditor(auditPublisher),
	)

	users, err := service.New(
		userstore.NewPostgres(db),
		rolestore.NewPostgres(db),
		keycloak.NewAdminClient(kc, adminTokens),
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return err
	}
	verifier := middleware.NewOIDCVerifier(ctx, cfg.Keycloak.IssuerURL())

	r := chi.NewRouter()
	r.Get("/healthz", httpserver.Health(checks))
	r.Handle("/metrics", promhttp.Handler())
	handler.New(users, log, m, verifier).Register(r)

	srv := httpserver.New(cfg.Addr, r)
	return serve(ctx, srv, log)
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, log *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting user service", "addr", srv.Addr)
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
