package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/esiagate/esiagate/internal/assets"
	"github.com/esiagate/esiagate/internal/utils/tlog"

	"github.com/cenkalti/backoff/v5"
	"github.com/glebarez/sqlite"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxMigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqliteMigrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type DatabaseServiceConfig struct {
	Driver         string
	DatabasePath   string
	DSN            string
	ConnectRetries int
}

type DatabaseService struct {
	config   DatabaseServiceConfig
	database *gorm.DB
}

func NewDatabaseService(config DatabaseServiceConfig) *DatabaseService {
	if config.Driver == "" {
		config.Driver = DriverSQLite
	}
	return &DatabaseService{
		config: config,
	}
}

func (ds *DatabaseService) Init() error {
	dialector, err := ds.dialector()

	if err != nil {
		return err
	}

	gormDB, err := ds.open(dialector)

	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gormDB.DB()

	if err != nil {
		return err
	}

	if ds.config.Driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	err = ds.migrateDatabase(sqlDB)

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	ds.database = gormDB
	return nil
}

func (ds *DatabaseService) dialector() (gorm.Dialector, error) {
	switch ds.config.Driver {
	case DriverSQLite:
		dsn, err := sqliteDSN(ds.config.DatabasePath)
		if err != nil {
			return nil, err
		}
		return sqlite.Open(dsn), nil
	case DriverPostgres:
		if ds.config.DSN == "" {
			return nil, errors.New("postgres driver requires a dsn")
		}
		return postgres.Open(ds.config.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", ds.config.Driver)
	}
}

func (ds *DatabaseService) open(dialector gorm.Dialector) (*gorm.DB, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 500 * time.Millisecond
	exp.RandomizationFactor = 0.1
	exp.Multiplier = 1.5
	exp.Reset()

	tries := ds.config.ConnectRetries
	if tries < 1 {
		tries = 1
	}

	operation := func() (*gorm.DB, error) {
		db, err := gorm.Open(dialector, &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			tlog.App.Warn().Err(err).Str("driver", ds.config.Driver).Msg("Database connection failed, retrying")
			return nil, err
		}
		return db, nil
	}

	return backoff.Retry(context.Background(), operation, backoff.WithBackOff(exp), backoff.WithMaxTries(uint(tries)))
}

func (ds *DatabaseService) migrateDatabase(sqlDB *sql.DB) error {
	data, err := iofs.New(assets.Migrations, "migrations/"+ds.config.Driver)

	if err != nil {
		return err
	}

	var target database.Driver

	switch ds.config.Driver {
	case DriverPostgres:
		target, err = pgxMigrate.WithInstance(sqlDB, &pgxMigrate.Config{})
	default:
		target, err = sqliteMigrate.WithInstance(sqlDB, &sqliteMigrate.Config{})
	}

	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithInstance("iofs", data, "esiagate", target)

	if err != nil {
		return err
	}

	return migrator.Up()
}

func (ds *DatabaseService) GetDatabase() *gorm.DB {
	return ds.database
}

func sqliteDSN(path string) (string, error) {
	const pragma = "_pragma=foreign_keys(1)"

	if path == ":memory:" {
		return "file::memory:?" + pragma, nil
	}

	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	if strings.Contains(path, "?") {
		return path + "&" + pragma, nil
	}

	return path + "?" + pragma, nil
}
