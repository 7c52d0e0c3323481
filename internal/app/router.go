package app

import (
	"github.com/gin-gonic/gin"

	"github.com/bastionmc/kitsync/internal/server"
)

func wireRouter(cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:     cfg.ServiceName,
		KitHandler:      handlers.Kit,
		AccessHandler:   handlers.Access,
		FavoriteHandler: handlers.Favorite,
		SessionHandler:  handlers.Session,
		QuestHandler:    handlers.Quest,
		AdminMiddleware: middleware.Admin,
		AllowOrigins:    cfg.AllowOrigins,
	})
}
