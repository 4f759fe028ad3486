package service

import (
	"log/slog"

	"github.com/granrifa/rifa-go/internal/broadcast"
	"github.com/granrifa/rifa-go/internal/repository"
	redisrepo "github.com/granrifa/rifa-go/internal/repository/redis"
	"github.com/granrifa/rifa-go/internal/service/query"
	"github.com/granrifa/rifa-go/internal/service/reservation"
	"github.com/granrifa/rifa-go/internal/service/settings"
)

type Services struct {
	Reservation *reservation.Service
	Query       *query.Service
	Settings    *settings.Service
}

type Config struct {
	Reservation reservation.Config
}

func NewServices(
	store repository.Store,
	settingsStore repository.SettingsStore,
	hub *broadcast.Hub,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
	cfg Config,
) *Services {
	return &Services{
		Reservation: reservation.New(store, hub, limiter, logger, cfg.Reservation),
		Query:       query.New(store, settingsStore),
		Settings:    settings.New(settingsStore, hub),
	}
}
