package products

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/RedAvocado22/quadzone-checkout/pkg/db/models"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec("PRAGMA busy_timeout = 5000").Error)

	schema := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newProduct(t *testing.T, db *gorm.DB, stock int, active bool) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:            uuid.New(),
		Name:          "Widget",
		Price:         decimal.NewFromInt(25),
		StockQuantity: stock,
		IsActive:      active,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestProductRepo_FindByID(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := newProduct(t, db, 10, true)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductRepo_FindByIDs(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := newProduct(t, db, 10, true)
	second := newProduct(t, db, 5, false)

	found, err := repo.FindByIDs(ctx, []uuid.UUID{first.ID, second.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestProductRepo_CreateInactivePersistsFlag(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := newProduct(t, db, 10, false)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, found.IsActive, "explicit false must survive the insert")
}

func TestProductRepo_Reserve(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := newProduct(t, db, 5, true)

	reserved, err := repo.Reserve(ctx, product.ID, 3)
	require.NoError(t, err)
	assert.True(t, reserved)

	// Remaining stock is 2; asking for 3 must not go negative.
	reserved, err = repo.Reserve(ctx, product.ID, 3)
	require.NoError(t, err)
	assert.False(t, reserved)

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.StockQuantity)
}

func TestProductRepo_ReserveInactiveProduct(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := newProduct(t, db, 5, false)

	reserved, err := repo.Reserve(ctx, product.ID, 1)
	require.NoError(t, err)
	assert.False(t, reserved)
}

func TestProductRepo_ReserveNonPositiveQty(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := newProduct(t, db, 5, true)

	reserved, err := repo.Reserve(ctx, product.ID, 0)
	require.NoError(t, err)
	assert.False(t, reserved)

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, found.StockQuantity)
}

func TestProductRepo_ReserveConcurrentLastUnits(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := newProduct(t, db, 1, true)

	var wg sync.WaitGroup
	results := make([]bool, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = repo.Reserve(ctx, product.ID, 1)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	reservedCount := 0
	for _, reserved := range results {
		if reserved {
			reservedCount++
		}
	}
	assert.Equal(t, 1, reservedCount, "only one reservation may win the last unit")

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.StockQuantity)
}

func TestProductRepo_Release(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := newProduct(t, db, 5, true)

	reserved, err := repo.Reserve(ctx, product.ID, 4)
	require.NoError(t, err)
	require.True(t, reserved)

	require.NoError(t, repo.Release(ctx, product.ID, 4))

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, found.StockQuantity)
}
