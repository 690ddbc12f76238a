package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RedAvocado22/quadzone-checkout/pkg/enums"
)

// Order is the aggregate produced by a successful checkout. Customer fields
// are snapshots captured at placement time; later edits to the user row never
// flow back into the order.
type Order struct {
	ID     uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID *uuid.UUID `gorm:"column:user_id;type:uuid"`

	FirstName string  `gorm:"column:first_name;not null"`
	LastName  string  `gorm:"column:last_name;not null"`
	Email     string  `gorm:"column:email;not null"`
	Phone     *string `gorm:"column:phone"`

	ShippingAddress string   `gorm:"column:shipping_address;not null"`
	ShippingKm      *float64 `gorm:"column:shipping_km;type:numeric(8,2)"`

	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	ShippingCost   decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`

	CouponCode *string           `gorm:"column:coupon_code"`
	Status     enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	Notes      *string           `gorm:"column:notes"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	PlacedAt  time.Time `gorm:"column:placed_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
