package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/RedAvocado22/quadzone-checkout/internal/pricing"
	"github.com/RedAvocado22/quadzone-checkout/pkg/db"
	"github.com/RedAvocado22/quadzone-checkout/pkg/db/models"
	"github.com/RedAvocado22/quadzone-checkout/pkg/enums"
	"github.com/RedAvocado22/quadzone-checkout/pkg/errors"
	"github.com/RedAvocado22/quadzone-checkout/pkg/metrics"
)

// Service validates coupons against an order subtotal and owns the usage
// ledger commit. Validate is a pure dry-run; CommitUsage is the only mutation
// path for usage_count.
type Service interface {
	Validate(ctx context.Context, code string, orderSubtotal decimal.Decimal, now time.Time) (ValidationResult, error)
	CommitUsage(ctx context.Context, tx *gorm.DB, code string, now time.Time) error
	Create(ctx context.Context, input CreateCouponInput) (*models.Coupon, error)
	List(ctx context.Context, includeInactive bool) ([]models.Coupon, error)
	Deactivate(ctx context.Context, code string) error
}

type service struct {
	repo    Repository
	metrics *metrics.CheckoutMetrics
}

// NewService builds a coupon service with the required dependencies.
func NewService(repo Repository, m *metrics.CheckoutMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	return &service{repo: repo, metrics: m}, nil
}

// discount is the tagged variant behind the two coupon kinds. Each variant
// knows how to derive its amount from the order subtotal.
type discount interface {
	Amount(subtotal decimal.Decimal) decimal.Decimal
}

type fixedDiscount struct {
	value decimal.Decimal
}

func (d fixedDiscount) Amount(decimal.Decimal) decimal.Decimal {
	return pricing.RoundMoney(d.value)
}

type percentageDiscount struct {
	percent decimal.Decimal
	cap     *decimal.Decimal
}

func (d percentageDiscount) Amount(subtotal decimal.Decimal) decimal.Decimal {
	amount := subtotal.Mul(d.percent).Div(decimal.NewFromInt(100))
	if d.cap != nil && amount.GreaterThan(*d.cap) {
		amount = *d.cap
	}
	return pricing.RoundMoney(amount)
}

func discountFor(coupon *models.Coupon) discount {
	if coupon.Kind == enums.DiscountKindFixedAmount {
		return fixedDiscount{value: coupon.Value}
	}
	return percentageDiscount{percent: coupon.Value, cap: coupon.MaxDiscountAmount}
}

func (s *service) Validate(ctx context.Context, code string, orderSubtotal decimal.Decimal, now time.Time) (ValidationResult, error) {
	rejected := func(reason string) ValidationResult {
		s.metrics.IncCouponRejection(reason)
		return ValidationResult{
			Valid:          false,
			Reason:         reason,
			DiscountAmount: decimal.Zero,
			FinalTotal:     pricing.RoundMoney(orderSubtotal),
		}
	}

	if strings.TrimSpace(code) == "" {
		return rejected(ReasonNotFoundOrInactive), nil
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return rejected(ReasonNotFoundOrInactive), nil
		}
		return ValidationResult{}, errors.Wrap(errors.CodeDependency, err, "load coupon")
	}

	switch {
	case !coupon.Active:
		return rejected(ReasonNotFoundOrInactive), nil
	case now.Before(coupon.ValidFrom) || now.After(coupon.ValidTo):
		return rejected(ReasonOutsideWindow), nil
	case coupon.MaxUsage != nil && coupon.UsageCount >= *coupon.MaxUsage:
		return rejected(ReasonUsageLimitReached), nil
	case orderSubtotal.LessThan(coupon.MinOrderAmount):
		return rejected(ReasonBelowMinimumOrder), nil
	}

	amount := discountFor(coupon).Amount(orderSubtotal)
	finalTotal := pricing.RoundMoney(orderSubtotal).Sub(amount)
	if finalTotal.IsNegative() {
		finalTotal = decimal.Zero
	}

	return ValidationResult{
		Valid:          true,
		DiscountAmount: amount,
		FinalTotal:     finalTotal,
	}, nil
}

// CommitUsage consumes one usage slot inside the caller's transaction. A
// false verdict from the conditional increment means the slot vanished (or
// the window closed) between validate and commit; the caller must roll the
// whole checkout back.
func (s *service) CommitUsage(ctx context.Context, tx *gorm.DB, code string, now time.Time) error {
	committed, err := s.repo.WithTx(tx).IncrementUsage(ctx, code, now)
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "increment coupon usage")
	}
	if !committed {
		s.metrics.IncCouponRejection(ReasonUsageLimitReached)
		return errors.New(errors.CodeConflict, "coupon usage exhausted; retry without the coupon or with a different code")
	}
	return nil
}

func (s *service) Create(ctx context.Context, input CreateCouponInput) (*models.Coupon, error) {
	kind, err := enums.ParseDiscountKind(input.Kind)
	if err != nil {
		return nil, errors.New(errors.CodeValidation, err.Error())
	}
	if input.Value.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New(errors.CodeValidation, "coupon value must be positive")
	}
	if kind == enums.DiscountKindPercentage && input.Value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, errors.New(errors.CodeValidation, "percentage value must not exceed 100")
	}
	if !input.ValidTo.After(input.ValidFrom) {
		return nil, errors.New(errors.CodeValidation, "valid_to must be after valid_from")
	}
	if input.MaxUsage != nil && *input.MaxUsage <= 0 {
		return nil, errors.New(errors.CodeValidation, "max_usage must be positive when set")
	}
	if input.MinOrderAmount.IsNegative() {
		return nil, errors.New(errors.CodeValidation, "min_order_amount must not be negative")
	}

	coupon := &models.Coupon{
		Code:              strings.TrimSpace(input.Code),
		Kind:              kind,
		Value:             input.Value,
		MaxDiscountAmount: input.MaxDiscountAmount,
		MinOrderAmount:    input.MinOrderAmount,
		MaxUsage:          input.MaxUsage,
		ValidFrom:         input.ValidFrom,
		ValidTo:           input.ValidTo,
		Active:            true,
	}

	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_coupons_code") {
			return nil, errors.New(errors.CodeConflict, "coupon code already exists")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "create coupon")
	}
	return created, nil
}

func (s *service) List(ctx context.Context, includeInactive bool) ([]models.Coupon, error) {
	coupons, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list coupons")
	}
	return coupons, nil
}

func (s *service) Deactivate(ctx context.Context, code string) error {
	if err := s.repo.Deactivate(ctx, code); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.New(errors.CodeNotFound, "coupon not found or already inactive")
		}
		return errors.Wrap(errors.CodeDependency, err, "deactivate coupon")
	}
	return nil
}
