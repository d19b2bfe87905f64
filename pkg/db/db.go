package db

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/simsaas/simsaas/internal/models"
	"github.com/simsaas/simsaas/pkg/env"
	"github.com/simsaas/simsaas/pkg/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// Open connects to the database identified by kind and dsn.
func Open(kind, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch kind {
	case Postgres:
		dialector = postgres.Open(dsn)
	case SQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type %q", kind)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %v database", kind)
	}

	return gdb, nil
}

// Connection opens the database configured in the environment and
// migrates the schema.
func Connection() (*gorm.DB, error) {
	vars := env.Variables()

	gdb, err := Open(vars.DatabaseType, vars.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	if err = Migrate(gdb); err != nil {
		Close(gdb)
		return nil, err
	}

	log.Info("database ready", "type", vars.DatabaseType)

	return gdb, nil
}

// Migrate applies the schema for every model.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(models.All...); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(gdb *gorm.DB) {
	if gdb == nil {
		return
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return
	}

	if err = sqlDB.Close(); err != nil {
		log.Warn("failed to close database", "error", err)
	}
}
