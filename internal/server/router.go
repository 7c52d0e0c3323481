package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/bastionmc/kitsync/internal/handlers"
	"github.com/bastionmc/kitsync/internal/middleware"
)

type RouterConfig struct {
	ServiceName     string
	KitHandler      *handlers.KitHandler
	AccessHandler   *handlers.AccessHandler
	FavoriteHandler *handlers.FavoriteHandler
	SessionHandler  *handlers.SessionHandler
	QuestHandler    *handlers.QuestHandler
	AdminMiddleware *middleware.AdminMiddleware
	AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Gateway-facing session lifecycle
		api.POST("/players/:id/connect", cfg.SessionHandler.Connect)
		api.POST("/players/:id/disconnect", cfg.SessionHandler.Disconnect)
		api.GET("/sessions/online", cfg.SessionHandler.Online)

		// Kit reads and per-player operations
		api.GET("/kits/:name", cfg.KitHandler.GetKit)
		api.GET("/players/:id/kits", cfg.KitHandler.ListForPlayer)
		api.GET("/players/:id/kits/:name/allowed", cfg.KitHandler.CanUse)
		api.POST("/players/:id/equip", cfg.KitHandler.Equip)
		api.POST("/players/:id/unequip", cfg.KitHandler.Unequip)

		// Favorites
		api.GET("/players/:id/favorites/:kit", cfg.FavoriteHandler.Get)
		api.PUT("/players/:id/favorites/:kit", cfg.FavoriteHandler.Add)
		api.DELETE("/players/:id/favorites/:kit", cfg.FavoriteHandler.Remove)

		// Quest system callback
		api.POST("/quests/completed", cfg.QuestHandler.Completed)
	}

	admin := router.Group("/admin")
	admin.Use(cfg.AdminMiddleware.RequireAdmin())
	{
		admin.PUT("/kits", cfg.KitHandler.UpsertKit)
		admin.POST("/kits/reload", cfg.KitHandler.Reload)
		admin.GET("/players/:id/access/:kit", cfg.AccessHandler.GetAccess)
		admin.PUT("/players/:id/access/:kit", cfg.AccessHandler.Grant)
		admin.DELETE("/players/:id/access/:kit", cfg.AccessHandler.Revoke)
	}

	return router
}
