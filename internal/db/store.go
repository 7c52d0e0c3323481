package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/types"
	"github.com/bastionmc/kitsync/internal/utils"
)

type StoreService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewStoreService opens the durable store. Postgres is the production driver;
// STORE_DRIVER=sqlite keeps local development self-contained.
func NewStoreService(log *logger.Logger) (*StoreService, error) {
	serviceLog := log.With("service", "StoreService")

	driver := strings.ToLower(utils.GetEnv("STORE_DRIVER", "postgres", log))

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "sqlite":
		path := utils.GetEnv("SQLITE_PATH", "kitsync.db", log)
		log.Info("Opening sqlite store...", "path", path)
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	default:
		host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
		port := utils.GetEnv("POSTGRES_PORT", "5432", log)
		user := utils.GetEnv("POSTGRES_USER", "postgres", log)
		password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
		name := utils.GetEnv("POSTGRES_NAME", "kitsync", log)
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
		log.Info("Connecting to Postgres...")
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
	}
	if err != nil {
		serviceLog.Error("Failed to open store", "driver", driver, "error", err)
		return nil, fmt.Errorf("open store (%s): %w", driver, err)
	}

	return &StoreService{db: db, log: serviceLog}, nil
}

func (s *StoreService) AutoMigrateAll() error {
	s.log.Info("Auto migrating kit tables...")
	err := s.db.AutoMigrate(
		&types.Kit{},
		&types.KitRequirement{},
		&types.KitAccess{},
		&types.KitFavorite{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for kit tables", "error", err)
		return err
	}
	return nil
}

func (s *StoreService) DB() *gorm.DB {
	return s.db
}
