package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RedAvocado22/quadzone-checkout/pkg/errors"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return d
}

func item(t *testing.T, price string, qty int) LineItem {
	t.Helper()
	return LineItem{ProductID: uuid.New(), UnitPrice: dec(t, price), Quantity: qty}
}

func TestComputeTotals_BaseCase(t *testing.T) {
	totals, err := ComputeTotals(
		[]LineItem{item(t, "100", 2)},
		dec(t, "0.08"), dec(t, "10"), decimal.Zero,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !totals.Subtotal.Equal(dec(t, "200")) {
		t.Fatalf("subtotal = %s, want 200", totals.Subtotal)
	}
	if !totals.Tax.Equal(dec(t, "16")) {
		t.Fatalf("tax = %s, want 16", totals.Tax)
	}
	if !totals.Total.Equal(dec(t, "226")) {
		t.Fatalf("total = %s, want 226", totals.Total)
	}
}

func TestComputeTotals_RoundsHalfUp(t *testing.T) {
	// 3 × 19.99 = 59.97; 8% tax = 4.7976 → 4.80 half-up.
	totals, err := ComputeTotals(
		[]LineItem{item(t, "19.99", 3)},
		dec(t, "0.08"), decimal.Zero, decimal.Zero,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !totals.Tax.Equal(dec(t, "4.80")) {
		t.Fatalf("tax = %s, want 4.80", totals.Tax)
	}
	if !totals.Total.Equal(dec(t, "64.77")) {
		t.Fatalf("total = %s, want 64.77", totals.Total)
	}
}

func TestComputeTotals_ClampsNegativeTotal(t *testing.T) {
	totals, err := ComputeTotals(
		[]LineItem{item(t, "10", 1)},
		decimal.Zero, dec(t, "5"), dec(t, "100"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !totals.Total.IsZero() {
		t.Fatalf("total = %s, want 0 (clamped)", totals.Total)
	}
	if !totals.Discount.Equal(dec(t, "100")) {
		t.Fatalf("discount = %s, want 100 (recorded as requested)", totals.Discount)
	}
}

func TestComputeTotals_Deterministic(t *testing.T) {
	items := []LineItem{item(t, "12.49", 3), item(t, "7.01", 2)}
	taxRate := dec(t, "0.08")
	shipping := dec(t, "12.5")
	discount := dec(t, "5")

	first, err := ComputeTotals(items, taxRate, shipping, discount)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := ComputeTotals(items, taxRate, shipping, discount)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if !first.Total.Equal(second.Total) || !first.Tax.Equal(second.Tax) {
		t.Fatalf("results differ: first=%+v second=%+v", first, second)
	}
}

func TestComputeTotals_RejectsBadInput(t *testing.T) {
	cases := []struct {
		name     string
		items    []LineItem
		taxRate  string
		shipping string
		discount string
	}{
		{"no items", nil, "0.08", "0", "0"},
		{"zero quantity", []LineItem{item(t, "10", 0)}, "0.08", "0", "0"},
		{"negative quantity", []LineItem{item(t, "10", -2)}, "0.08", "0", "0"},
		{"negative price", []LineItem{item(t, "-1", 1)}, "0.08", "0", "0"},
		{"negative tax rate", []LineItem{item(t, "10", 1)}, "-0.08", "0", "0"},
		{"negative shipping", []LineItem{item(t, "10", 1)}, "0.08", "-1", "0"},
		{"negative discount", []LineItem{item(t, "10", 1)}, "0.08", "0", "-5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeTotals(tc.items, dec(t, tc.taxRate), dec(t, tc.shipping), dec(t, tc.discount))
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			typed := errors.As(err)
			if typed == nil || typed.Code() != errors.CodeValidation {
				t.Fatalf("expected %s, got %v", errors.CodeValidation, err)
			}
		})
	}
}

func TestComputeTotals_CollectsAllProblems(t *testing.T) {
	_, err := ComputeTotals(
		[]LineItem{{ProductID: uuid.New(), UnitPrice: dec(t, "-1"), Quantity: 0}},
		dec(t, "-0.1"), decimal.Zero, decimal.Zero,
	)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}

	typed := errors.As(err)
	if typed == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	details, ok := typed.Details().([]string)
	if !ok {
		t.Fatalf("expected []string details, got %T", typed.Details())
	}
	if len(details) != 3 {
		t.Fatalf("expected 3 problems, got %d: %v", len(details), details)
	}
}
