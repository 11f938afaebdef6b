package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"eshop-backend/internal/model"
	"eshop-backend/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection serializes concurrent transactions against the
	// in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.WebhookEvent{},
	))

	return db
}

func seedProduct(t *testing.T, db *gorm.DB, id string, price float64, stock int) {
	t.Helper()
	require.NoError(t, db.Create(&model.Product{ID: id, Name: "Product " + id, Price: price, Stock: stock}).Error)
}

func currentStock(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	var product model.Product
	require.NoError(t, db.Where("id = ?", id).First(&product).Error)
	return product.Stock
}

func TestProductRepository_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("decrements_stock", func(t *testing.T) {
		db := newTestDB(t)
		repo := repository.NewProductRepository(db)
		seedProduct(t, db, "p1", 10, 5)

		err := db.Transaction(func(tx *gorm.DB) error {
			return repo.Reserve(ctx, tx, "p1", 2)
		})

		require.NoError(t, err)
		assert.Equal(t, 3, currentStock(t, db, "p1"))
	})

	t.Run("insufficient_stock", func(t *testing.T) {
		db := newTestDB(t)
		repo := repository.NewProductRepository(db)
		seedProduct(t, db, "p1", 10, 1)

		err := db.Transaction(func(tx *gorm.DB) error {
			return repo.Reserve(ctx, tx, "p1", 2)
		})

		assert.ErrorIs(t, err, repository.ErrInsufficientStock)
		assert.Equal(t, 1, currentStock(t, db, "p1"))
	})

	t.Run("exact_remaining_stock_allowed", func(t *testing.T) {
		db := newTestDB(t)
		repo := repository.NewProductRepository(db)
		seedProduct(t, db, "p1", 10, 2)

		err := db.Transaction(func(tx *gorm.DB) error {
			return repo.Reserve(ctx, tx, "p1", 2)
		})

		require.NoError(t, err)
		assert.Equal(t, 0, currentStock(t, db, "p1"))
	})

	t.Run("unknown_product", func(t *testing.T) {
		db := newTestDB(t)
		repo := repository.NewProductRepository(db)

		err := db.Transaction(func(tx *gorm.DB) error {
			return repo.Reserve(ctx, tx, "nope", 1)
		})

		assert.ErrorIs(t, err, repository.ErrProductNotFound)
	})
}

func TestProductRepository_Reserve_Concurrent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := repository.NewProductRepository(db)

	const workers = 8
	seedProduct(t, db, "p1", 10, workers-1)

	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- db.Transaction(func(tx *gorm.DB) error {
				return repo.Reserve(ctx, tx, "p1", 1)
			})
		}()
	}
	wg.Wait()
	close(results)

	var ok, rejected int
	for err := range results {
		switch {
		case err == nil:
			ok++
		default:
			assert.ErrorIs(t, err, repository.ErrInsufficientStock)
			rejected++
		}
	}

	assert.Equal(t, workers-1, ok)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 0, currentStock(t, db, "p1"))
}

func TestProductRepository_Restock(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := repository.NewProductRepository(db)
	seedProduct(t, db, "p1", 10, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.Restock(ctx, tx, "p1", 3)
	})

	require.NoError(t, err)
	assert.Equal(t, 5, currentStock(t, db, "p1"))
}
