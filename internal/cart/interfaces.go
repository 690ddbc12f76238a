package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RedAvocado22/quadzone-checkout/pkg/db/models"
)

// Repository defines persistence operations for cart rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.CartItem, error)
	FindItem(ctx context.Context, ownerID, productID uuid.UUID) (*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) error
	UpdateQuantity(ctx context.Context, ownerID, productID uuid.UUID, quantity int) error
	Delete(ctx context.Context, ownerID, productID uuid.UUID) error
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error
}
