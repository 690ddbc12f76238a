package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/RedAvocado22/quadzone-checkout/pkg/db/models"
	"github.com/RedAvocado22/quadzone-checkout/pkg/enums"
	"github.com/RedAvocado22/quadzone-checkout/pkg/errors"
)

type stubCouponRepo struct {
	coupons         map[string]*models.Coupon
	findErr         error
	incrementResult bool
	incrementErr    error
	incrementCalls  int
}

func (s *stubCouponRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCouponRepo) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if s.coupons == nil {
		s.coupons = map[string]*models.Coupon{}
	}
	if _, exists := s.coupons[coupon.Code]; exists {
		return nil, gorm.ErrDuplicatedKey
	}
	s.coupons[coupon.Code] = coupon
	return coupon, nil
}

func (s *stubCouponRepo) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	coupon, ok := s.coupons[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return coupon, nil
}

func (s *stubCouponRepo) List(ctx context.Context, includeInactive bool) ([]models.Coupon, error) {
	var out []models.Coupon
	for _, coupon := range s.coupons {
		if !includeInactive && !coupon.Active {
			continue
		}
		out = append(out, *coupon)
	}
	return out, nil
}

func (s *stubCouponRepo) Deactivate(ctx context.Context, code string) error {
	coupon, ok := s.coupons[code]
	if !ok || !coupon.Active {
		return gorm.ErrRecordNotFound
	}
	coupon.Active = false
	return nil
}

func (s *stubCouponRepo) IncrementUsage(ctx context.Context, code string, now time.Time) (bool, error) {
	s.incrementCalls++
	return s.incrementResult, s.incrementErr
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return d
}

func testCoupon(mutate func(*models.Coupon)) *models.Coupon {
	now := time.Now().UTC()
	coupon := &models.Coupon{
		Code:           "SAVE20",
		Kind:           enums.DiscountKindFixedAmount,
		Value:          decimal.NewFromInt(20),
		MinOrderAmount: decimal.NewFromInt(50),
		ValidFrom:      now.Add(-time.Hour),
		ValidTo:        now.Add(24 * time.Hour),
		Active:         true,
	}
	if mutate != nil {
		mutate(coupon)
	}
	return coupon
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestValidate_FixedAmount(t *testing.T) {
	repo := &stubCouponRepo{coupons: map[string]*models.Coupon{"SAVE20": testCoupon(nil)}}
	svc := newTestService(t, repo)

	result, err := svc.Validate(context.Background(), "SAVE20", decimal.NewFromInt(200), time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid, got reason %q", result.Reason)
	}
	if !result.DiscountAmount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("discount = %s, want 20", result.DiscountAmount)
	}
	if !result.FinalTotal.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("final total = %s, want 180", result.FinalTotal)
	}
}

func TestValidate_PercentageWithCap(t *testing.T) {
	cap := decimal.NewFromInt(30)
	coupon := testCoupon(func(c *models.Coupon) {
		c.Kind = enums.DiscountKindPercentage
		c.Value = decimal.NewFromInt(50)
		c.MaxDiscountAmount = &cap
	})
	repo := &stubCouponRepo{coupons: map[string]*models.Coupon{"SAVE20": coupon}}
	svc := newTestService(t, repo)

	result, err := svc.Validate(context.Background(), "SAVE20", decimal.NewFromInt(100), time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid, got reason %q", result.Reason)
	}
	if !result.DiscountAmount.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("discount = %s, want 30 (capped)", result.DiscountAmount)
	}
	if !result.FinalTotal.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("final total = %s, want 70", result.FinalTotal)
	}
}

func TestValidate_PercentageUncapped(t *testing.T) {
	coupon := testCoupon(func(c *models.Coupon) {
		c.Kind = enums.DiscountKindPercentage
		c.Value = mustDecimal(t, "12.5")
	})
	repo := &stubCouponRepo{coupons: map[string]*models.Coupon{"SAVE20": coupon}}
	svc := newTestService(t, repo)

	result, err := svc.Validate(context.Background(), "SAVE20", decimal.NewFromInt(200), time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.DiscountAmount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("discount = %s, want 25", result.DiscountAmount)
	}
}

func TestValidate_Rejections(t *testing.T) {
	now := time.Now().UTC()
	exhausted := 5

	cases := []struct {
		name     string
		code     string
		coupon   *models.Coupon
		subtotal decimal.Decimal
		reason   string
	}{
		{
			name:     "blank code",
			code:     "  ",
			coupon:   testCoupon(nil),
			subtotal: decimal.NewFromInt(200),
			reason:   ReasonNotFoundOrInactive,
		},
		{
			name:     "unknown code",
			code:     "NOPE",
			coupon:   testCoupon(nil),
			subtotal: decimal.NewFromInt(200),
			reason:   ReasonNotFoundOrInactive,
		},
		{
			name:     "inactive",
			code:     "SAVE20",
			coupon:   testCoupon(func(c *models.Coupon) { c.Active = false }),
			subtotal: decimal.NewFromInt(200),
			reason:   ReasonNotFoundOrInactive,
		},
		{
			name:     "not started",
			code:     "SAVE20",
			coupon:   testCoupon(func(c *models.Coupon) { c.ValidFrom = now.Add(time.Hour) }),
			subtotal: decimal.NewFromInt(200),
			reason:   ReasonOutsideWindow,
		},
		{
			name:     "expired",
			code:     "SAVE20",
			coupon:   testCoupon(func(c *models.Coupon) { c.ValidTo = now.Add(-time.Minute) }),
			subtotal: decimal.NewFromInt(200),
			reason:   ReasonOutsideWindow,
		},
		{
			name: "usage limit reached",
			code: "SAVE20",
			coupon: testCoupon(func(c *models.Coupon) {
				c.MaxUsage = &exhausted
				c.UsageCount = 5
			}),
			subtotal: decimal.NewFromInt(200),
			reason:   ReasonUsageLimitReached,
		},
		{
			name:     "below minimum order",
			code:     "SAVE20",
			coupon:   testCoupon(nil),
			subtotal: decimal.NewFromInt(49),
			reason:   ReasonBelowMinimumOrder,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubCouponRepo{coupons: map[string]*models.Coupon{tc.coupon.Code: tc.coupon}}
			svc := newTestService(t, repo)

			result, err := svc.Validate(context.Background(), tc.code, tc.subtotal, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Valid {
				t.Fatal("expected rejection, got valid=true")
			}
			if result.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", result.Reason, tc.reason)
			}
			if !result.DiscountAmount.IsZero() {
				t.Fatalf("rejected validation must carry zero discount, got %s", result.DiscountAmount)
			}
		})
	}
}

func TestValidate_DiscountExceedingSubtotalClampsFinalTotal(t *testing.T) {
	coupon := testCoupon(func(c *models.Coupon) {
		c.Value = decimal.NewFromInt(500)
		c.MinOrderAmount = decimal.Zero
	})
	repo := &stubCouponRepo{coupons: map[string]*models.Coupon{"SAVE20": coupon}}
	svc := newTestService(t, repo)

	result, err := svc.Validate(context.Background(), "SAVE20", decimal.NewFromInt(100), time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.FinalTotal.IsZero() {
		t.Fatalf("final total = %s, want 0 (clamped)", result.FinalTotal)
	}
}

func TestCommitUsage_Success(t *testing.T) {
	repo := &stubCouponRepo{incrementResult: true}
	svc := newTestService(t, repo)

	if err := svc.CommitUsage(context.Background(), nil, "SAVE20", time.Now().UTC()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.incrementCalls != 1 {
		t.Fatalf("increment calls = %d, want 1", repo.incrementCalls)
	}
}

func TestCommitUsage_ExhaustedIsConflict(t *testing.T) {
	repo := &stubCouponRepo{incrementResult: false}
	svc := newTestService(t, repo)

	err := svc.CommitUsage(context.Background(), nil, "SAVE20", time.Now().UTC())
	if err == nil {
		t.Fatal("expected conflict error, got nil")
	}
	typed := errors.As(err)
	if typed == nil || typed.Code() != errors.CodeConflict {
		t.Fatalf("expected %s, got %v", errors.CodeConflict, err)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService(t, &stubCouponRepo{})
	now := time.Now().UTC()

	cases := []struct {
		name  string
		input CreateCouponInput
	}{
		{
			name: "unknown kind",
			input: CreateCouponInput{
				Code: "X", Kind: "bogus", Value: decimal.NewFromInt(10),
				ValidFrom: now, ValidTo: now.Add(time.Hour),
			},
		},
		{
			name: "non-positive value",
			input: CreateCouponInput{
				Code: "X", Kind: "fixed_amount", Value: decimal.Zero,
				ValidFrom: now, ValidTo: now.Add(time.Hour),
			},
		},
		{
			name: "percentage above 100",
			input: CreateCouponInput{
				Code: "X", Kind: "percentage", Value: decimal.NewFromInt(150),
				ValidFrom: now, ValidTo: now.Add(time.Hour),
			},
		},
		{
			name: "window inverted",
			input: CreateCouponInput{
				Code: "X", Kind: "fixed_amount", Value: decimal.NewFromInt(10),
				ValidFrom: now, ValidTo: now.Add(-time.Hour),
			},
		},
		{
			name: "zero max usage",
			input: CreateCouponInput{
				Code: "X", Kind: "fixed_amount", Value: decimal.NewFromInt(10),
				MaxUsage:  new(int),
				ValidFrom: now, ValidTo: now.Add(time.Hour),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
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

func TestCreate_Success(t *testing.T) {
	svc := newTestService(t, &stubCouponRepo{})
	now := time.Now().UTC()

	maxUsage := 100
	created, err := svc.Create(context.Background(), CreateCouponInput{
		Code:           " SUMMER25 ",
		Kind:           "percentage",
		Value:          decimal.NewFromInt(25),
		MinOrderAmount: decimal.NewFromInt(40),
		MaxUsage:       &maxUsage,
		ValidFrom:      now,
		ValidTo:        now.Add(30 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Code != "SUMMER25" {
		t.Fatalf("code = %q, want trimmed SUMMER25", created.Code)
	}
	if !created.Active {
		t.Fatal("new coupon must start active")
	}
	if created.Kind != enums.DiscountKindPercentage {
		t.Fatalf("kind = %s, want percentage", created.Kind)
	}
}
