package infra

import (
	"sync"

	"github.com/cenkalti/backoff"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"gorm.io/gorm"

	postgres_wrapper "github.com/tradecore/matchengine/pkg/infra/postgres"
)

// IMigrateTool migrates schema and data.
type IMigrateTool interface {
	// CreateDBAndMigrate connects with retries and migrates; used to set up
	// test databases.
	CreateDBAndMigrate(cfg *postgres_wrapper.PostgresConfig, migrationFile string) *gorm.DB

	// Migrate from current version to latest version.
	Migrate(source string, connStr string)
}

type migrateTool struct{}

var once sync.Once
var mutex = &sync.Mutex{}
var singleton IMigrateTool

// GetMigrateTool returns the singleton migrate tool.
func GetMigrateTool() IMigrateTool {
	once.Do(func() {
		singleton = &migrateTool{}
	})
	return singleton
}

// Migrate executes migrations serially.
func (mt *migrateTool) Migrate(source string, connStr string) {
	mutex.Lock()
	defer mutex.Unlock()

	zap.S().Info("Migrating...")

	mg, err := migrate.New(source, connStr)
	if err != nil {
		zap.S().Errorf("create new migration fail with err: %v", err)
		panic(err)
	}
	defer mg.Close()

	version, dirty, err := mg.Version()
	if err != nil && err != migrate.ErrNilVersion {
		panic(err)
	}

	if dirty {
		mg.Force(int(version) - 1) // nolint
	}

	err = mg.Up()
	if err != nil && err != migrate.ErrNoChange {
		panic(err)
	}

	zap.S().Info("Migration done")
}

// CreateDBAndMigrate connects to the database with backoff, then migrates.
func (mt *migrateTool) CreateDBAndMigrate(cfg *postgres_wrapper.PostgresConfig, migrationFile string) *gorm.DB {
	var db *gorm.DB
	boff := backoff.NewExponentialBackOff()

	err := backoff.Retry(func() error {
		var errNested error
		db, errNested = postgres_wrapper.InitPostgres(cfg)
		if errNested != nil {
			zap.S().Warnf("connect postgres error %s", errNested.Error())
		}
		return errNested
	}, boff)
	if err != nil {
		panic(err)
	}

	mt.Migrate(migrationFile, cfg.MigrationConnURL)
	return db
}
