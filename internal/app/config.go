package app

import (
	"strings"
	"time"

	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/utils"
)

type Config struct {
	ServiceName      string
	Environment      string
	AdminJWTSecret   string
	PerkServiceURL   string
	PerkTimeout      time.Duration
	QuestCatalogPath string
	AllowOrigins     []string
	Port             string
}

func LoadConfig(log *logger.Logger) Config {
	serviceName := utils.GetEnv("SERVICE_NAME", "kitsync", log)
	environment := utils.GetEnv("APP_ENV", "development", log)
	adminSecret := utils.GetEnv("ADMIN_JWT_SECRET", "defaultsecret", log)
	perkURL := utils.GetEnv("PERK_SERVICE_URL", "http://localhost:9090", log)
	perkTimeout := utils.GetEnvAsDuration("PERK_TIMEOUT", 2*time.Second, log)
	catalogPath := utils.GetEnv("QUEST_CATALOG_PATH", "", log)
	origins := utils.GetEnv("ALLOW_ORIGINS", "http://localhost:3000", log)
	port := utils.GetEnv("PORT", "8080", log)
	return Config{
		ServiceName:      serviceName,
		Environment:      environment,
		AdminJWTSecret:   adminSecret,
		PerkServiceURL:   perkURL,
		PerkTimeout:      perkTimeout,
		QuestCatalogPath: catalogPath,
		AllowOrigins:     strings.Split(origins, ","),
		Port:             port,
	}
}
