package coupons

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rejection reasons returned by Validate. These are user-facing strings, not
// error codes; the dry-run endpoint echoes them verbatim.
const (
	ReasonNotFoundOrInactive = "not found or inactive"
	ReasonOutsideWindow      = "not started or expired"
	ReasonUsageLimitReached  = "usage limit reached"
	ReasonBelowMinimumOrder  = "below minimum order amount"
)

// ValidationResult is the outcome of a dry-run coupon check. A business-rule
// rejection sets Valid=false with a Reason; it is never surfaced as an error.
type ValidationResult struct {
	Valid          bool            `json:"valid"`
	Reason         string          `json:"message,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalTotal     decimal.Decimal `json:"final_total"`
}

// CreateCouponInput carries the admin-supplied fields for a new coupon.
type CreateCouponInput struct {
	Code              string           `json:"code" validate:"required"`
	Kind              string           `json:"kind" validate:"required,oneof=percentage fixed_amount"`
	Value             decimal.Decimal  `json:"value" validate:"required"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	MinOrderAmount    decimal.Decimal  `json:"min_order_amount"`
	MaxUsage          *int             `json:"max_usage,omitempty"`
	ValidFrom         time.Time        `json:"valid_from" validate:"required"`
	ValidTo           time.Time        `json:"valid_to" validate:"required"`
}
