package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RedAvocado22/quadzone-checkout/pkg/enums"
)

// Coupon is read-mostly after creation. UsageCount only moves through the
// ledger's conditional increment; nothing else may write it.
type Coupon struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code              string             `gorm:"column:code;not null;uniqueIndex"`
	Kind              enums.DiscountKind `gorm:"column:kind;not null"`
	Value             decimal.Decimal    `gorm:"column:value;type:numeric(12,2);not null"`
	MaxDiscountAmount *decimal.Decimal   `gorm:"column:max_discount_amount;type:numeric(12,2)"`
	MinOrderAmount    decimal.Decimal    `gorm:"column:min_order_amount;type:numeric(12,2);not null;default:0"`
	MaxUsage          *int               `gorm:"column:max_usage"`
	UsageCount        int                `gorm:"column:usage_count;not null;default:0"`
	ValidFrom         time.Time          `gorm:"column:valid_from;not null"`
	ValidTo           time.Time          `gorm:"column:valid_to;not null"`
	Active            bool               `gorm:"column:active;not null"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
