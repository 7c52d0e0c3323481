package app

import (
	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/middleware"
)

type Middleware struct {
	Admin *middleware.AdminMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Admin: middleware.NewAdminMiddleware(log, cfg.AdminJWTSecret),
	}
}
