package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/farmlink/discovery/internal/database"
	"github.com/farmlink/discovery/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.RunMigrations(db))
	return db
}

type productOpt func(*models.Product)

func at(lon, lat float64) productOpt {
	return func(p *models.Product) {
		p.Longitude = &lon
		p.Latitude = &lat
	}
}

func withAttrs(category, brand string) productOpt {
	return func(p *models.Product) {
		p.Category = category
		p.Brand = brand
	}
}

func withCounters(views, favorites, chats int64) productOpt {
	return func(p *models.Product) {
		p.Views = views
		p.Favorites = favorites
		p.ChatCount = chats
	}
}

func createdAgo(d time.Duration) productOpt {
	return func(p *models.Product) {
		p.CreatedAt = time.Now().Add(-d)
	}
}

func createProduct(t *testing.T, db *gorm.DB, sellerID uuid.UUID, title string, opts ...productOpt) *models.Product {
	t.Helper()
	p := &models.Product{
		SellerID:    sellerID,
		Title:       title,
		Description: title,
		Category:    "Misc",
		Brand:       "Generic",
		Price:       decimal.NewFromInt(1),
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func productIDs[T any](items []T, id func(T) uuid.UUID) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, id(item))
	}
	return ids
}

func idOf(p models.Product) uuid.UUID { return p.ID }

func idOfHit(p models.ProductWithDistance) uuid.UUID { return p.ID }
