package coupons

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/RedAvocado22/quadzone-checkout/pkg/db/models"
)

// Repository defines persistence operations for coupon rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context, includeInactive bool) ([]models.Coupon, error)
	Deactivate(ctx context.Context, code string) error
	IncrementUsage(ctx context.Context, code string, now time.Time) (bool, error)
}
