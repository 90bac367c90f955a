// Package testutil menyediakan DB SQLite sementara untuk test repository/service.
package testutil

import (
	"path/filepath"
	"testing"

	database "refqa_backend/internals/databases"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB membuka SQLite di t.TempDir() dan menjalankan AutoMigrate.
// Satu koneksi saja: SQLite cuma punya satu writer.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	return OpenDBAt(t, filepath.Join(t.TempDir(), "refqa.db"))
}

// OpenDBAt membuka file SQLite tertentu. Dua handle ke file yang sama
// berguna untuk mensimulasikan request yang berjalan bersamaan.
func OpenDBAt(t *testing.T, path string) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: database.UTCNow,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}
