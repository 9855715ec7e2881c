package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/radcool22/meditrack/models"
)

// Open connects to the database described by dsn. A DSN containing "host="
// or a postgres:// prefix selects Postgres; anything else is treated as a
// SQLite file path (":memory:" included).
func Open(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.Contains(dsn, "host=") || strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		if !strings.HasPrefix(dsn, "file:") {
			dsn = "file:" + dsn
		}
		dialector = sqlite.Open(dsn + "?_foreign_keys=on")
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Migrate runs auto-migration for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.OtpRecord{},
		&models.Report{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
