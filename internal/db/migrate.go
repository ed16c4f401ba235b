package db

import (
	"memetracker/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.TokenCall{},
		&models.Snapshot{},
		&models.Decision{},
		&models.PerformanceRecord{},
		&models.PerformanceHistoryPoint{},
		&models.SourceStats{},
		&models.WalletStats{},
	)
}
