// Package db provides a lightweight GORM-based SQLite wrapper for the bridge
// coordinator state: oracle registry, confirmations, consumed submissions and
// the order ledger.
package db

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pushchain/push-bridge-core/bridgeCore/store"
)

const (
	// InMemorySQLiteDSN is a special DSN to create an ephemeral in-memory SQLite database.
	InMemorySQLiteDSN = ":memory:"

	// dbDirPermissions sets directory permissions to 750 (rwxr-x---).
	dbDirPermissions = 0o750
)

// gormConfig disables logging output; the coordinator logs through zerolog.
var gormConfig = &gorm.Config{
	Logger: logger.Default.LogMode(logger.Silent),
}

// DB wraps a GORM client and provides simplified DB lifecycle management.
type DB struct {
	client *gorm.DB
}

// OpenFileDB opens (or creates) a file-backed SQLite database located in the given directory.
// If `migrateSchema` is true, all defined schema models are automatically migrated.
func OpenFileDB(dir, filename string, migrateSchema bool) (*DB, error) {
	dsn, err := prepareFilePath(dir, filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare database path")
	}
	return openSQLite(dsn, migrateSchema)
}

// OpenInMemoryDB opens a non-persistent SQLite database in memory.
func OpenInMemoryDB(migrateSchema bool) (*DB, error) {
	return openSQLite(InMemorySQLiteDSN, migrateSchema)
}

func openSQLite(dsn string, migrateSchema bool) (*DB, error) {
	if dsn != InMemorySQLiteDSN && !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000&mode=rwc"
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open SQLite database")
	}

	// A single connection serialises every transaction, which is what makes
	// an operation atomic with respect to concurrent callers. It also keeps
	// an in-memory database alive for the lifetime of the DB.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if migrateSchema {
		if err := db.AutoMigrate(store.SchemaModels()...); err != nil {
			return nil, errors.Wrap(err, "failed to auto-migrate database schema")
		}
	}

	return &DB{client: db}, nil
}

// Client returns the internal *gorm.DB instance for direct usage in queries.
func (d *DB) Client() *gorm.DB {
	return d.client
}

// Transact runs fn inside one transaction. Any error returned by fn rolls
// back every write it made and is returned unchanged. fn must only use the
// repo it is given.
func (d *DB) Transact(ctx context.Context, fn func(repo *store.Repo) error) error {
	return d.client.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(store.NewRepo(ctx, tx))
	})
}

// errSimulated forces the rollback of a simulated transaction.
var errSimulated = errors.New("simulated transaction")

// Simulate runs fn inside a transaction that is always rolled back and
// returns fn's error.
func (d *DB) Simulate(ctx context.Context, fn func(repo *store.Repo) error) error {
	err := d.Transact(ctx, func(repo *store.Repo) error {
		if err := fn(repo); err != nil {
			return err
		}
		return errSimulated
	})
	if errors.Is(err, errSimulated) {
		return nil
	}
	return err
}

// View runs read-only fn outside an explicit transaction.
func (d *DB) View(ctx context.Context, fn func(repo *store.Repo) error) error {
	return fn(store.NewRepo(ctx, d.client))
}

// Close safely closes the underlying database connection.
func (d *DB) Close() error {
	sqlDB, err := d.client.DB()
	if err != nil {
		return errors.Wrap(err, "failed to retrieve native sql.DB")
	}

	if err := sqlDB.Close(); err != nil {
		return errors.Wrap(err, "failed to close database connection")
	}

	return nil
}

// prepareFilePath ensures the target directory exists and returns the full database file path.
func prepareFilePath(dir, filename string) (string, error) {
	if strings.Contains(dir, InMemorySQLiteDSN) {
		return dir, nil
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, dbDirPermissions); err != nil {
			return "", errors.Wrapf(err, "failed to create directory: %s", dir)
		}
	} else if err != nil {
		return "", errors.Wrap(err, "error checking directory")
	}

	return fmt.Sprintf("%s/%s", dir, filename), nil
}
