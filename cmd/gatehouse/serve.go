// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/gatehouse-auth/gatehouse/internal/auth"
	"github.com/gatehouse-auth/gatehouse/internal/auth/postgres"
	"github.com/gatehouse-auth/gatehouse/internal/config"
	"github.com/gatehouse-auth/gatehouse/internal/logging"
	"github.com/gatehouse-auth/gatehouse/internal/observability"
	"github.com/gatehouse-auth/gatehouse/internal/session"
	"github.com/gatehouse-auth/gatehouse/internal/store"
	"github.com/gatehouse-auth/gatehouse/internal/web"
	"github.com/gatehouse-auth/gatehouse/pkg/errutil"
)

// shutdownTimeout bounds graceful shutdown of both listeners.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the public web server (login, registration and the protected
page) and, unless disabled, the metrics and health server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags(), configPath())
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	config.RegisterServerFlags(cmd.Flags())
	return cmd
}

// runServeWithDeps runs the server until ctx is cancelled, a signal arrives
// or a listener fails. If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.DatabaseFactory == nil {
		deps.DatabaseFactory = func(ctx context.Context, url string, timeout time.Duration) (Database, error) {
			return store.Connect(ctx, url, timeout)
		}
	}
	if deps.MigratorFactory == nil {
		deps.MigratorFactory = func(url string) (Migrator, error) {
			return store.NewMigrator(url)
		}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, ready)
		}
	}

	if err := cfg.ValidateServer(); err != nil {
		return oops.With("operation", "validate configuration").Wrap(err)
	}

	logger, err := logging.SetDefault(logging.Options{
		Service: "gatehouse",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return oops.With("operation", "set up logging").Wrap(err)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	gin.SetMode(gin.ReleaseMode)

	logger.Info("starting gatehouse",
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"auto_migrate", cfg.Database.AutoMigrate,
	)

	db, err := deps.DatabaseFactory(ctx, cfg.Database.URL, cfg.Database.ConnectTimeout)
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()
	logger.Info("connected to database")

	if cfg.Database.AutoMigrate {
		if err := runAutoMigration(deps.MigratorFactory, cfg.Database.URL); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		obsServer ObservabilityServer
		metrics   *observability.Metrics
	)
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, db.Ping)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
		metrics = obsServer.Metrics()
	} else {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	defer func() {
		if obsServer == nil {
			return
		}
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()
		if err := obsServer.Stop(stopCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}()

	webServer, err := newWebServer(cfg, db, metrics, logger)
	if err != nil {
		return err
	}
	webErrChan, err := webServer.Start()
	if err != nil {
		return oops.With("operation", "start web server").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, webErrChan, "web")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Gatehouse listening on " + webServer.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := webServer.Stop(shutdownCtx); err != nil {
		errutil.LogError(logger, "error stopping web server", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func newWebServer(cfg *config.Config, db Database, metrics *observability.Metrics, logger *slog.Logger) (*web.Server, error) {
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	svc, err := auth.NewService(
		postgres.NewAccountRepository(db),
		hasher,
		auth.WithLogger(logger),
	)
	if err != nil {
		return nil, oops.With("operation", "create auth service").Wrap(err)
	}

	sessions, err := session.NewStore(session.Config{
		Name:   cfg.Session.Name,
		Keys:   cfg.Session.Keys,
		TTL:    cfg.Session.MaxAge,
		Secure: cfg.Session.Secure,
	})
	if err != nil {
		return nil, oops.With("operation", "create session store").Wrap(err)
	}

	logger.Info("auth configured",
		"bcrypt_cost", hasher.Cost(),
		"session_cookie", sessions.Name(),
		"session_max_age", cfg.Session.MaxAge.String())

	server, err := web.NewServer(cfg.HTTP.Addr, web.Deps{
		Auth:     svc,
		Sessions: sessions,
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		return nil, oops.With("operation", "create web server").Wrap(err)
	}
	return server, nil
}

// runAutoMigration applies pending migrations and always closes the
// migrator.
func runAutoMigration(factory func(string) (Migrator, error), url string) error {
	migrator, err := factory(url)
	if err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	slog.Info("database migrations applied")
	return nil
}

// monitorServerErrors cancels ctx when a server reports an error. A closed
// channel means the server stopped cleanly.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
