package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// PoolSettings bounds the connection pool of an opened catalog database.
type PoolSettings struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// DefaultPool is applied by Open.
var DefaultPool = PoolSettings{MaxOpen: 25, MaxIdle: 5, MaxLifetime: 5 * time.Minute}

// Open opens and pings the catalog database. For sqlite dsn is a file path
// and foreign keys are enforced on every pooled connection; for postgres it
// is a connection URL.
func Open(driver, dsn string) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite, "sqlite3", "":
		if dsn == "" {
			return nil, fmt.Errorf("sqlite path is empty")
		}
		db, err = sql.Open("sqlite3", "file:"+dsn+"?_foreign_keys=on&_busy_timeout=5000")
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres connection URL is empty")
		}
		db, err = sql.Open("postgres", dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	DefaultPool.apply(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}
	return db, nil
}

func (p PoolSettings) apply(db *sql.DB) {
	db.SetMaxOpenConns(p.MaxOpen)
	db.SetMaxIdleConns(p.MaxIdle)
	db.SetConnMaxLifetime(p.MaxLifetime)
}

// isPostgres reports whether db was opened with the lib/pq driver.
func isPostgres(db *sql.DB) bool {
	_, ok := db.Driver().(*pq.Driver)
	return ok
}

// schema is portable between SQLite and PostgreSQL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS brands (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ingredients (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		caution_grade TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT PRIMARY KEY,
		brand_id BIGINT NOT NULL REFERENCES brands(id),
		name TEXT NOT NULL,
		price INTEGER,
		category TEXT NOT NULL DEFAULT '',
		review_count INTEGER NOT NULL DEFAULT 0,
		feature_text TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		product_url TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS product_ingredients (
		product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		ingredient_id BIGINT NOT NULL REFERENCES ingredients(id),
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (product_id, ingredient_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)`,
	`CREATE INDEX IF NOT EXISTS idx_product_ingredients_ingredient ON product_ingredients(ingredient_id)`,
}

// Migrate creates the catalog tables and indexes. It is idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i, err)
		}
	}
	return nil
}
