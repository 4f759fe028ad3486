package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/granrifa/rifa-go/docs"
	"github.com/granrifa/rifa-go/internal/app"
	"github.com/granrifa/rifa-go/internal/config"
)

// @title RifaGo API
// @version 1.0
// @description Numbered raffle ticket sales with an admin panel and realtime updates.
// @host localhost:3000
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
