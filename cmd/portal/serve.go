package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/iare/sceh-portal/internal/api"
	"github.com/iare/sceh-portal/internal/api/handler"
	"github.com/iare/sceh-portal/internal/core/service"
	mongostore "github.com/iare/sceh-portal/internal/infrastructure/db/mongo"
	redisstore "github.com/iare/sceh-portal/internal/infrastructure/db/redis"
	"github.com/iare/sceh-portal/internal/infrastructure/queue"
	"github.com/iare/sceh-portal/internal/infrastructure/roster"
	"github.com/iare/sceh-portal/internal/pkg/config"
	"github.com/iare/sceh-portal/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the audit workers.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	cfg, err := config.Load(parent)
	if err != nil {
		return err
	}
	log := initLogger(cfg)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := connectMongo(ctx, cfg)
	if err != nil {
		return err
	}
	defer disconnectMongo(mongoClient, log)

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.Redis.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	authRepo := mongostore.NewAuthRepository(db)
	auditRepo := mongostore.NewAuditRepository(db)
	if err := mongostore.EnsureIndexes(ctx, authRepo, auditRepo); err != nil {
		return err
	}

	users, err := roster.Load(cfg.Auth.RosterFile)
	if err != nil {
		return err
	}
	providers, err := buildProviders(cfg, logger.For("identity"))
	if err != nil {
		return err
	}
	for _, p := range providers {
		log.Info().Str("provider", p.Name()).Msg("identity provider enabled")
	}

	dispatcher := queue.NewDispatcher(cfg.Audit.Workers,
		service.NewAuditService(auditRepo, logger.For("audit")),
		logger.For("audit_dispatcher"))
	sessions := service.NewSessionManager(redisstore.NewSessionStore(rdb), cfg.JWTSecret, cfg.Auth.SessionTTL, logger.For("sessions"))
	authService := service.NewAuthService(authRepo, sessions, service.AuthOptions{
		Roster:    users,
		DemoMode:  cfg.Auth.DemoMode,
		Providers: providers,
		States:    redisstore.NewStateStore(rdb),
		StateTTL:  cfg.Auth.StateTTL,
		Auditor:   dispatcher,
	}, logger.For("auth"))

	e := api.NewRouter(api.Deps{
		Auth:    authService,
		Auditor: dispatcher,
		Cookie: handler.SessionCookie{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.CookieSecure,
			TTL:    cfg.Auth.SessionTTL,
		},
		StrictDashboards: cfg.Auth.StrictDashboards,
		HealthChecks: map[string]handler.Checker{
			"mongodb": handler.MongoCheck(db),
			"redis":   handler.RedisCheck(rdb),
		},
		Log: logger.For("http"),
	})

	// The dispatcher outlives the HTTP server so events enqueued by requests
	// still in flight during shutdown are recorded.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(auditCtx)
	})
	g.Go(func() error {
		log.Info().
			Str("port", cfg.Port).
			Bool("demo_mode", cfg.Auth.DemoMode).
			Bool("strict_dashboards", cfg.Auth.StrictDashboards).
			Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := e.Shutdown(shutdownCtx)
		stopAudit()
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("shutdown complete")
	return nil
}

func initLogger(cfg *config.Config) zerolog.Logger {
	return logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "sceh-portal",
	})
}

func connectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	return mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
}

func disconnectMongo(client *mongo.Client, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Warn().Err(err).Msg("mongo disconnect")
	}
}
