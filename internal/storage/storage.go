package storage

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/frahmantamala/admin-console/internal"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	migrationTable = "schema_migrations"
)

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

// DB holds one connection pool exposed both through sqlx and gorm.
type DB struct {
	SQL    *sqlx.DB
	Gorm   *gorm.DB
	Driver string
}

// Open connects to the local store described by cfg. SQLite databases are
// created along with their parent directory.
func Open(cfg internal.StorageConfig) (*DB, error) {
	source := cfg.ExpandedSource()

	var (
		sqlDB     *sqlx.DB
		dialector gorm.Dialector
		err       error
	)

	switch cfg.Driver {
	case DriverSQLite:
		if source != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(source), 0o700); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		sqlDB, err = sqlx.Connect("sqlite3", source)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
		dialector = &sqlite.Dialector{DriverName: "sqlite3", Conn: sqlDB.DB}
	case DriverPostgres:
		sqlDB, err = sqlx.Connect("pgx", source)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		dialector = postgres.New(postgres.Config{Conn: sqlDB.DB})
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	return &DB{SQL: sqlDB, Gorm: gormDB, Driver: cfg.Driver}, nil
}

func (db *DB) gooseDialect() string {
	if db.Driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// Migrate applies every pending embedded migration.
func (db *DB) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetTableName(migrationTable)
	if err := goose.SetDialect(db.gooseDialect()); err != nil {
		return fmt.Errorf("goose: %w", err)
	}
	if err := goose.UpContext(ctx, db.SQL.DB, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Rollback reverts the most recent migration.
func (db *DB) Rollback(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetTableName(migrationTable)
	if err := goose.SetDialect(db.gooseDialect()); err != nil {
		return fmt.Errorf("goose: %w", err)
	}
	if err := goose.DownContext(ctx, db.SQL.DB, "migrations"); err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	return nil
}

// Version reports the current schema version.
func (db *DB) Version(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetTableName(migrationTable)
	if err := goose.SetDialect(db.gooseDialect()); err != nil {
		return 0, fmt.Errorf("goose: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db.SQL.DB)
}

func (db *DB) Ping(ctx context.Context) error {
	return db.SQL.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.SQL.Close()
}
