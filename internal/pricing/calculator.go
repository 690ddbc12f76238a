// Package pricing computes checkout monetary totals. Everything here is
// pure: no I/O, no clock, deterministic for identical inputs so totals can
// be recomputed on retries.
package pricing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/RedAvocado22/quadzone-checkout/pkg/errors"
)

// moneyPlaces is the currency minor-unit precision. All monetary results
// are rounded half-up to this many decimal places.
const moneyPlaces = 2

// LineItem is one priced entry in a cart or checkout request. UnitPrice is
// the snapshot price, never a live product lookup.
type LineItem struct {
	ProductID uuid.UUID
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal returns unit price times quantity, unrounded.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Totals is the full monetary breakdown of a checkout.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals derives the order totals from line items and modifiers.
//
// subtotal = Σ(unitPrice × quantity) rounded half-up to the minor unit,
// tax = subtotal × taxRate rounded the same way, and
// total = max(0, subtotal + tax + shipping − discount). The clamp keeps a
// discount larger than the rest of the order from producing a negative total.
func ComputeTotals(items []LineItem, taxRate, shippingFee, discount decimal.Decimal) (Totals, error) {
	if err := validateInputs(items, taxRate, shippingFee, discount); err != nil {
		return Totals{}, err
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal())
	}
	subtotal = RoundMoney(subtotal)

	tax := RoundMoney(subtotal.Mul(taxRate))
	shipping := RoundMoney(shippingFee)
	disc := RoundMoney(discount)

	total := subtotal.Add(tax).Add(shipping).Sub(disc)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: disc,
		Total:    total,
	}, nil
}

// RoundMoney rounds to the currency minor unit, half-up.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(moneyPlaces)
}

func validateInputs(items []LineItem, taxRate, shippingFee, discount decimal.Decimal) error {
	var problems error

	if len(items) == 0 {
		problems = multierr.Append(problems, fmt.Errorf("items: at least one line item is required"))
	}
	for i, item := range items {
		if item.Quantity <= 0 {
			problems = multierr.Append(problems, fmt.Errorf("items[%d]: quantity must be positive, got %d", i, item.Quantity))
		}
		if item.UnitPrice.IsNegative() {
			problems = multierr.Append(problems, fmt.Errorf("items[%d]: unit price must not be negative, got %s", i, item.UnitPrice))
		}
	}
	if taxRate.IsNegative() {
		problems = multierr.Append(problems, fmt.Errorf("taxRate: must not be negative, got %s", taxRate))
	}
	if shippingFee.IsNegative() {
		problems = multierr.Append(problems, fmt.Errorf("shippingFee: must not be negative, got %s", shippingFee))
	}
	if discount.IsNegative() {
		problems = multierr.Append(problems, fmt.Errorf("discount: must not be negative, got %s", discount))
	}

	if problems == nil {
		return nil
	}

	details := make([]string, 0, len(multierr.Errors(problems)))
	for _, err := range multierr.Errors(problems) {
		details = append(details, err.Error())
	}
	return errors.New(errors.CodeValidation, "invalid pricing input").WithDetails(details)
}
