package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"

	"github.com/dom/notely/internal/api"
	"github.com/dom/notely/internal/config"
	"github.com/dom/notely/internal/limiter"
	"github.com/dom/notely/internal/migrate"
	"github.com/dom/notely/internal/repository/postgres"
	"github.com/dom/notely/internal/service"
	"github.com/dom/notely/internal/storage"
)

func main() {
	configPath := flag.StringP("config", "c", "", "path to a YAML config file")
	port := flag.StringP("port", "p", "", "listen port, overrides PORT")
	databaseURL := flag.String("database-url", "", "postgres DSN, overrides DATABASE_URL")
	skipMigrations := flag.Bool("skip-migrations", false, "do not apply pending migrations on startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *databaseURL != "" {
		cfg.DatabaseURL = *databaseURL
	}

	log := newLogger(cfg)
	defer log.Sync()

	if err := run(cfg, log, *skipMigrations); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *zap.Logger, skipMigrations bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !skipMigrations {
		if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	gormLevel := logger.Warn
	if cfg.IsDevelopment() {
		gormLevel = logger.Info
	}
	db, err := postgres.NewConnection(cfg.DatabaseURL, gormLevel)
	if err != nil {
		return err
	}
	repos := postgres.NewRepositories(db)

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	lim := limiter.NewPG(pool, cfg.LoginLimiter.Window, cfg.LoginLimiter.MaxFailures, cfg.LoginLimiter.BlockFor)

	var avatars service.AvatarStore
	if cfg.Avatar.Enabled() {
		store, err := storage.NewS3AvatarStore(ctx, cfg.Avatar)
		if err != nil {
			return err
		}
		avatars = store
		log.Info("avatar uploads enabled", zap.String("bucket", cfg.Avatar.Bucket))
	} else {
		log.Warn("avatar storage not configured, uploads disabled")
	}

	services := service.NewServices(repos, cfg, lim, avatars, log)
	router := api.NewRouter(services, cfg, log)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) *zap.Logger {
	build := zap.NewProduction
	if cfg.IsDevelopment() {
		build = zap.NewDevelopment
	}
	log, err := build()
	if err != nil {
		return zap.NewNop()
	}
	return log.With(zap.String("service", "notely"))
}
