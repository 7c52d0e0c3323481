package app

import (
	"gorm.io/gorm"

	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/repos"
)

type Repos struct {
	Kit         repos.KitRepo
	KitAccess   repos.KitAccessRepo
	KitFavorite repos.KitFavoriteRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Kit:         repos.NewKitRepo(db, log),
		KitAccess:   repos.NewKitAccessRepo(db, log),
		KitFavorite: repos.NewKitFavoriteRepo(db, log),
	}
}
