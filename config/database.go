package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/qcmbuilder/qcm-api/models"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

const defaultSQLitePath = "qcm.db"

// Connect opens the configured database and migrates the schema.
func Connect(driver Driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("DB_URL is required for %s", driver)
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(&models.User{}, &models.Series{}, &models.Question{}, &models.SubCourse{})
	if err != nil {
		return fmt.Errorf("failed to auto migrate database: %w", err)
	}
	return nil
}
