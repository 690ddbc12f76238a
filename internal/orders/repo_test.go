package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/RedAvocado22/quadzone-checkout/pkg/db/models"
	"github.com/RedAvocado22/quadzone-checkout/pkg/enums"
	"github.com/RedAvocado22/quadzone-checkout/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT,
  shipping_address TEXT NOT NULL,
  shipping_km NUMERIC,
  subtotal NUMERIC NOT NULL,
  tax_amount NUMERIC NOT NULL,
  shipping_cost NUMERIC NOT NULL,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL,
  coupon_code TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  notes TEXT,
  placed_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func newOrder(t *testing.T, db *gorm.DB, email string, status enums.OrderStatus, placedAt time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:              uuid.New(),
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           email,
		ShippingAddress: "12 Elm Street, Springfield, US",
		Subtotal:        decimal.NewFromInt(200),
		TaxAmount:       decimal.NewFromInt(16),
		ShippingCost:    decimal.NewFromInt(10),
		DiscountAmount:  decimal.Zero,
		TotalAmount:     decimal.NewFromInt(226),
		Status:          status,
		PlacedAt:        placedAt,
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: uuid.New(), Name: "Widget", UnitPrice: decimal.NewFromInt(100), Quantity: 2},
		},
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestOrderRepo_CreateAndFind(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := newOrder(t, db, "ada@example.com", enums.OrderStatusPending, time.Now().UTC())

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "ada@example.com", found.Email)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Widget", found.Items[0].Name)
	assert.True(t, found.TotalAmount.Equal(decimal.NewFromInt(226)))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrderRepo_SearchFilters(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	newOrder(t, db, "ada@example.com", enums.OrderStatusPending, base)
	newOrder(t, db, "ada@example.com", enums.OrderStatusShipped, base.Add(time.Minute))
	newOrder(t, db, "grace@example.com", enums.OrderStatusPending, base.Add(2*time.Minute))

	list, err := repo.Search(ctx, pagination.Params{}, OrderFilters{Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Len(t, list.Orders, 2)

	status := enums.OrderStatusPending
	list, err = repo.Search(ctx, pagination.Params{}, OrderFilters{Status: &status})
	require.NoError(t, err)
	assert.Len(t, list.Orders, 2)

	from := base.Add(90 * time.Second)
	list, err = repo.Search(ctx, pagination.Params{}, OrderFilters{DateFrom: &from})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, "grace@example.com", list.Orders[0].Email)
}

func TestOrderRepo_SearchPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		newOrder(t, db, "page@example.com", enums.OrderStatusPending, base.Add(time.Duration(i)*time.Minute))
	}

	first, err := repo.Search(ctx, pagination.Params{Limit: 2}, OrderFilters{Email: "page@example.com"})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	require.NotEmpty(t, first.NextCursor)
	// Newest first.
	assert.True(t, first.Orders[0].PlacedAt.After(first.Orders[1].PlacedAt))

	second, err := repo.Search(ctx, pagination.Params{Limit: 2, Cursor: first.NextCursor}, OrderFilters{Email: "page@example.com"})
	require.NoError(t, err)
	require.Len(t, second.Orders, 2)
	assert.True(t, first.Orders[1].PlacedAt.After(second.Orders[0].PlacedAt))

	third, err := repo.Search(ctx, pagination.Params{Limit: 2, Cursor: second.NextCursor}, OrderFilters{Email: "page@example.com"})
	require.NoError(t, err)
	assert.Len(t, third.Orders, 1)
	assert.Empty(t, third.NextCursor)
}

func TestOrderRepo_UpdateStatusConditional(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newOrder(t, db, "ada@example.com", enums.OrderStatusPending, time.Now().UTC())

	moved, err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusProcessing)
	require.NoError(t, err)
	assert.True(t, moved)

	// The order is no longer pending, so the same transition cannot re-apply.
	moved, err = repo.UpdateStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusProcessing)
	require.NoError(t, err)
	assert.False(t, moved)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, found.Status)
}
