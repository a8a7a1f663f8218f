package inventory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mytheresa/go-warehouse/models"
)

// setupTestDB creates a file-backed SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "inventory.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, models.Migrate(db), "failed to migrate test database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type fixture struct {
	t     *testing.T
	db    *gorm.DB
	links *models.CompositionsRepository
}

func newFixture(t *testing.T) *fixture {
	db := setupTestDB(t)
	return &fixture{t: t, db: db, links: models.NewCompositionsRepository(db)}
}

func (f *fixture) article(code string, quantity, threshold int) *models.Article {
	f.t.Helper()
	a := &models.Article{Code: code, Name: code, Category: "parts", Quantity: quantity, Threshold: threshold}
	require.NoError(f.t, f.db.Create(a).Error)
	return a
}

// product creates a product requiring each article in parts with its quantity.
func (f *fixture) product(code string, price int64, parts map[*models.Article]int) *models.Product {
	f.t.Helper()
	p := &models.Product{Code: code, Name: code, Category: "kits", Price: price}
	require.NoError(f.t, f.db.Omit("Compositions").Create(p).Error)
	for a, required := range parts {
		_, err := f.links.LinkArticleToProduct(context.Background(), p.ID, a.ID, required)
		require.NoError(f.t, err)
	}
	return p
}

// order stores an order and its lines without any stock effect.
func (f *fixture) order(code string, lines ...lineFixture) *models.Order {
	f.t.Helper()
	o := &models.Order{Code: code, Status: models.OrderStatusPending}
	require.NoError(f.t, f.db.Omit("Lines").Create(o).Error)
	for _, l := range lines {
		_, err := f.links.LinkProductToOrder(context.Background(), o.ID, l.product.ID, l.quantity, l.product.Price)
		require.NoError(f.t, err)
	}
	return o
}

func (f *fixture) quantity(a *models.Article) int {
	f.t.Helper()
	var fresh models.Article
	require.NoError(f.t, f.db.First(&fresh, a.ID).Error)
	return fresh.Quantity
}

type lineFixture struct {
	product  *models.Product
	quantity int
}

func line(p *models.Product, quantity int) lineFixture {
	return lineFixture{product: p, quantity: quantity}
}
