package models

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates a file-backed SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "warehouse.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, Migrate(db), "failed to migrate test database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedArticle(t *testing.T, db *gorm.DB, code string, quantity, threshold int) *Article {
	t.Helper()
	a := &Article{Code: code, Name: "Article " + code, Category: "parts", Quantity: quantity, Threshold: threshold}
	require.NoError(t, db.Create(a).Error)
	return a
}

func seedProduct(t *testing.T, db *gorm.DB, code string, price int64) *Product {
	t.Helper()
	p := &Product{Code: code, Name: "Product " + code, Category: "kits", Price: price}
	require.NoError(t, db.Omit("Compositions").Create(p).Error)
	return p
}

func seedOrder(t *testing.T, db *gorm.DB, code string) *Order {
	t.Helper()
	o := &Order{Code: code, Status: OrderStatusPending}
	require.NoError(t, db.Omit("Lines").Create(o).Error)
	return o
}

var ctx = context.Background()
