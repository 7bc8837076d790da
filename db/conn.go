// Package db opens the crate database and keeps the schema migrated
package db

import (
	"fmt"
	"mcph/crate-api/model"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func New() (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch viper.GetString("db.type") {
	case "postgres":
		dialector = postgres.Open(viper.GetString("db.dsn"))
	default:
		dialector = sqlite.Open(viper.GetString("db.dsn"))
	}

	db, err := gorm.Open(dialector)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	err = db.AutoMigrate(model.Crate{}, model.ApiKey{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
