package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teamhub-backend/internal/config"
	"teamhub-backend/internal/interfaces/router"
	"teamhub-backend/internal/logger"

	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Setup(os.Stdout, "info", "development")
		log.Fatal().Err(err).Msg("config load")
	}
	logger.Setup(os.Stdout, cfg.LogLevel, cfg.Env)

	app, err := router.CreateApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create")
	}

	// Fail fast on unreachable dependencies before accepting traffic.
	sqlDB, err := app.DB.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("database handle")
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Msg("database connected")
	if app.Redis != nil {
		if err := app.Redis.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		log.Info().Msg("redis connected")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := app.Fiber.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Fiber.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	if err := app.Close(); err != nil {
		log.Error().Err(err).Msg("close resources")
	}
	log.Info().Msg("stopped")
}
