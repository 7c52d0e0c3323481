package app

import (
	"github.com/bastionmc/kitsync/internal/handlers"
	"github.com/bastionmc/kitsync/internal/logger"
)

type Handlers struct {
	Kit      *handlers.KitHandler
	Access   *handlers.AccessHandler
	Favorite *handlers.FavoriteHandler
	Session  *handlers.SessionHandler
	Quest    *handlers.QuestHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Kit:      handlers.NewKitHandler(log, services.Kits, services.Cache),
		Access:   handlers.NewAccessHandler(services.Access),
		Favorite: handlers.NewFavoriteHandler(services.Favorites),
		Session:  handlers.NewSessionHandler(log, services.Kits, services.Hub),
		Quest:    handlers.NewQuestHandler(log, services.Dispatcher, services.Tracker),
	}
}
