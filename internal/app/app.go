package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/granrifa/rifa-go/internal/broadcast"
	"github.com/granrifa/rifa-go/internal/config"
	"github.com/granrifa/rifa-go/internal/domain"
	"github.com/granrifa/rifa-go/internal/postgres"
	"github.com/granrifa/rifa-go/internal/redis"
	postgresrepo "github.com/granrifa/rifa-go/internal/repository/postgres"
	redisrepo "github.com/granrifa/rifa-go/internal/repository/redis"
	"github.com/granrifa/rifa-go/internal/service"
	"github.com/granrifa/rifa-go/internal/service/auth"
	"github.com/granrifa/rifa-go/internal/service/reservation"
	httpgin "github.com/granrifa/rifa-go/internal/transport/http/gin"
)

// defaultSettings seed the settings table on first startup.
var defaultSettings = map[string]string{
	domain.SettingPrice:      "50",
	domain.SettingRaffleName: "Gran Rifa Suzuki GSX-R",
	domain.SettingMotoImage:  "/uploads/moto.jpg",
}

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	if err := postgresrepo.EnsureSchema(
		context.Background(),
		pgxPool,
		cfg.Raffle.TicketCount,
		defaultSettings,
	); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	settingsStore := postgresrepo.NewSettingsStore(pgxPool)

	// Redis is optional: without it purchases skip the rate limiter and
	// Idempotency-Key replay.
	var (
		limiter          *redisrepo.SlidingWindowLimiter
		idempotencyStore *redisrepo.IdempotencyStore
	)
	if cfg.Redis.Addr != "" {
		rdb, err := redis.New(context.Background(), redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}

		limiter = redisrepo.NewSlidingWindowLimiter(rdb, "rifago:v1:rl", 10, 1*time.Minute)
		idempotencyStore = redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)
	} else {
		logger.Warn("REDIS_ADDR not set, rate limiting and idempotency disabled")
	}

	// Initialize broadcast hub and services
	hub := broadcast.NewHub(logger)

	services := service.NewServices(store, settingsStore, hub, limiter, logger, service.Config{
		Reservation: reservation.Config{TicketCount: cfg.Raffle.TicketCount},
	})

	authSvc, err := auth.New(auth.Config{
		Username:  cfg.Admin.User,
		Password:  cfg.Admin.Password,
		JWTSecret: cfg.Admin.JWTSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	if err := os.MkdirAll(cfg.Raffle.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	// Initialize Gin router
	router := httpgin.NewRouter(services, authSvc, hub, idempotencyStore, logger, httpgin.Dirs{
		Public:  cfg.Raffle.PublicDir,
		Uploads: cfg.Raffle.UploadDir,
	})

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
