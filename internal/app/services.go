package app

import (
	"os"
	"strings"

	"github.com/bastionmc/kitsync/internal/clients/perks"
	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/mainloop"
	"github.com/bastionmc/kitsync/internal/quests"
	"github.com/bastionmc/kitsync/internal/realtime"
	"github.com/bastionmc/kitsync/internal/realtime/bus"
	"github.com/bastionmc/kitsync/internal/services"
	"github.com/bastionmc/kitsync/internal/sessions"
)

type Services struct {
	Hub        *sessions.Hub
	Loop       *mainloop.Loop
	Dispatcher *quests.Dispatcher
	Tracker    quests.Tracker
	Catalog    *quests.Catalog
	Bus        realtime.Bus
	Perks      perks.Client
	Cache      *services.OnlineKitCache
	Access     services.KitAccessService
	Favorites  services.KitFavoriteService
	Kits       services.KitService
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	hub := sessions.NewHub(log)
	loop := mainloop.New(log)
	dispatcher := quests.NewDispatcher(log)
	tracker := quests.NewMemoryTracker()

	catalog := quests.EmptyCatalog()
	if cfg.QuestCatalogPath != "" {
		loaded, err := quests.LoadCatalog(cfg.QuestCatalogPath)
		if err != nil {
			return Services{}, err
		}
		catalog = loaded
		log.Info("Quest preset catalog loaded", "path", cfg.QuestCatalogPath, "presets", catalog.Len())
	} else {
		log.Warn("No quest preset catalog configured; quest-gated kits will not track")
	}

	var refreshBus realtime.Bus
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		rb, err := bus.NewRedisBus(log)
		if err != nil {
			return Services{}, err
		}
		refreshBus = rb
	} else {
		log.Warn("REDIS_ADDR not set; refresh events stay in-process")
		refreshBus = bus.NewMemoryBus()
	}

	perkClient := perks.NewHTTPClient(log, cfg.PerkServiceURL, cfg.PerkTimeout)

	cache := services.NewOnlineKitCache(reposet.Kit, hub, loop, tracker, catalog, refreshBus, log)
	dispatcher.Register(cache)

	accessService := services.NewKitAccessService(reposet.KitAccess, hub, loop, refreshBus, log)
	favoriteService := services.NewKitFavoriteService(reposet.KitFavorite, hub, loop, refreshBus, log)
	kitService := services.NewKitService(
		reposet.Kit,
		reposet.KitAccess,
		reposet.KitFavorite,
		accessService,
		favoriteService,
		cache,
		hub,
		loop,
		perkClient,
		refreshBus,
		log,
	)

	return Services{
		Hub:        hub,
		Loop:       loop,
		Dispatcher: dispatcher,
		Tracker:    tracker,
		Catalog:    catalog,
		Bus:        refreshBus,
		Perks:      perkClient,
		Cache:      cache,
		Access:     accessService,
		Favorites:  favoriteService,
		Kits:       kitService,
	}, nil
}
