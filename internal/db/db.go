package db

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"laundry-reserve-backend/config"
	"laundry-reserve-backend/internal/model"
)

// Init opens the database connection, applies pool settings and runs
// migrations. A DSN starting with "postgres://" or "postgresql://" selects
// the postgres driver; anything else is treated as a sqlite path.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(openDialector(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Appliance{},
		&model.ReservationLog{},
	); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	log.Println("Database initialization complete.")
	return db, nil
}

func openDialector(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

// SeedFleet provisions any missing appliances so that the configured fleet
// size is present per kind. Appliances are created once and never deleted,
// so seeding is idempotent across restarts.
func SeedFleet(db *gorm.DB, washers, dryers int) error {
	fleet := []struct {
		kind string
		want int
	}{
		{model.KindWasher, washers},
		{model.KindDryer, dryers},
	}
	for _, f := range fleet {
		kind, want := f.kind, f.want
		var have int64
		if err := db.Model(&model.Appliance{}).Where("kind = ?", kind).Count(&have).Error; err != nil {
			return fmt.Errorf("failed to count %s fleet: %w", kind, err)
		}
		for i := have; i < int64(want); i++ {
			if err := db.Create(&model.Appliance{Kind: kind}).Error; err != nil {
				return fmt.Errorf("failed to provision %s: %w", kind, err)
			}
		}
		if have < int64(want) {
			log.Printf("Provisioned %d new %s appliance(s)", int64(want)-have, kind)
		}
	}
	return nil
}
