// Package store implements the repository interfaces on GORM. The rest of
// the application treats storage as a record store with range/filter queries
// and never reaches into the query layer directly.
package store

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/edconsult/commitdb/pkg/models"
)

// Open connects to Postgres and migrates the schema.
func Open(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("✅ Database connected")
	return db, nil
}

// Migrate runs schema auto-migration for all persisted entities.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Commitment{},
		&models.UsageRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
