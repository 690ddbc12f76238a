package checkout

import (
	"github.com/google/uuid"

	"github.com/RedAvocado22/quadzone-checkout/pkg/types"
)

// ItemInput is one requested line: the product and how many units.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CustomerInput carries guest-supplied identity fields. For registered
// checkouts the snapshot comes from the user row instead and these fields
// are ignored.
type CustomerInput struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone,omitempty"`
}

// CheckoutInput is the full request for one checkout attempt. Exactly one
// item source applies: explicit Items, or the stored cart named by
// CartOwnerID (which is cleared when the order commits).
type CheckoutInput struct {
	UserID        *uuid.UUID    `json:"user_id,omitempty"`
	Customer      CustomerInput `json:"customer"`
	Address       types.Address `json:"address"`
	Items         []ItemInput   `json:"items,omitempty"`
	CartOwnerID   *uuid.UUID    `json:"cart_owner_id,omitempty"`
	CouponCode    *string       `json:"coupon_code,omitempty"`
	PaymentMethod string        `json:"payment_method" validate:"required,oneof=cod card"`
	Notes         *string       `json:"notes,omitempty"`
}
