package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalogTables = []string{"brands", "ingredients", "products", "product_ingredients"}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		dsn     string
		wantErr bool
	}{
		{name: "sqlite", driver: DriverSQLite, dsn: filepath.Join(t.TempDir(), "open.db")},
		{name: "sqlite3 alias", driver: "sqlite3", dsn: filepath.Join(t.TempDir(), "alias.db")},
		{name: "default driver", driver: "", dsn: filepath.Join(t.TempDir(), "default.db")},
		{name: "sqlite without path", driver: DriverSQLite, dsn: "", wantErr: true},
		{name: "sqlite in missing directory", driver: DriverSQLite, dsn: "/nonexistent/path/test.db", wantErr: true},
		{name: "postgres without url", driver: DriverPostgres, dsn: "", wantErr: true},
		{name: "unknown driver", driver: "mysql", dsn: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Open(tt.driver, tt.dsn)
			if tt.wantErr {
				if db != nil {
					_ = db.Close()
				}
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })

			assert.False(t, isPostgres(db))
			assert.Equal(t, DefaultPool.MaxOpen, db.Stats().MaxOpenConnections)
		})
	}
}

func TestOpen_SQLiteForeignKeys(t *testing.T) {
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// Several connections so the pragma is checked beyond the first one.
	for range 3 {
		var enabled int
		require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
		assert.Equal(t, 1, enabled)
	}
}

func TestMigrate(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Migrate(db), "second run")

	for _, table := range catalogTables {
		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count))
		assert.Equal(t, 1, count, "table %s", table)
	}
}

func TestMigrate_Constraints(t *testing.T) {
	db := newTestDB(t)
	seedTestCatalog(t, db)

	t.Run("unknown brand rejected", func(t *testing.T) {
		_, err := db.Exec("INSERT INTO products (id, brand_id, name) VALUES (99, 999, 'x')")
		assert.Error(t, err)
	})

	t.Run("ingredient links cascade", func(t *testing.T) {
		_, err := db.Exec("DELETE FROM products WHERE id = 10")
		require.NoError(t, err)

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM product_ingredients WHERE product_id = 10").Scan(&count))
		assert.Zero(t, count)
	})
}
