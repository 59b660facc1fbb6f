package bootstrap

import (
	"os"

	"teamhub-backend/internal/config"
	"teamhub-backend/internal/interfaces/router"
	"teamhub-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless runtimes (the api handler imports this package, not internal).
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(os.Stdout, cfg.LogLevel, cfg.Env)
	app, err := router.CreateApp(cfg)
	if err != nil {
		return nil, err
	}
	return app.Fiber, nil
}
