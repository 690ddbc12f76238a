// Package checkout orchestrates the whole placement flow: item validation,
// shipping estimate, coupon dry-run, totals, then one atomic transaction
// covering stock reservation, order insert, coupon commit, and cart clear.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/RedAvocado22/quadzone-checkout/internal/coupons"
	"github.com/RedAvocado22/quadzone-checkout/internal/orders"
	"github.com/RedAvocado22/quadzone-checkout/internal/pricing"
	"github.com/RedAvocado22/quadzone-checkout/internal/products"
	"github.com/RedAvocado22/quadzone-checkout/internal/shipping"
	"github.com/RedAvocado22/quadzone-checkout/pkg/config"
	"github.com/RedAvocado22/quadzone-checkout/pkg/db/models"
	"github.com/RedAvocado22/quadzone-checkout/pkg/enums"
	"github.com/RedAvocado22/quadzone-checkout/pkg/errors"
	"github.com/RedAvocado22/quadzone-checkout/pkg/logger"
	"github.com/RedAvocado22/quadzone-checkout/pkg/metrics"
	"github.com/RedAvocado22/quadzone-checkout/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type couponVerifier interface {
	Validate(ctx context.Context, code string, orderSubtotal decimal.Decimal, now time.Time) (coupons.ValidationResult, error)
	CommitUsage(ctx context.Context, tx *gorm.DB, code string, now time.Time) error
}

type cartSource interface {
	Load(ctx context.Context, ownerID uuid.UUID) ([]models.CartItem, error)
	ClearInTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) error
}

type quoteEstimator interface {
	Estimate(ctx context.Context, address types.Address) shipping.Quote
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, input CheckoutInput) (*models.Order, error)
}

type service struct {
	tx        txRunner
	users     userLoader
	products  products.Repository
	orders    orders.Repository
	coupons   couponVerifier
	cart      cartSource
	estimator quoteEstimator
	pricing   config.PricingConfig
	metrics   *metrics.CheckoutMetrics
	log       *logger.Logger
	now       func() time.Time
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	users userLoader,
	productsRepo products.Repository,
	ordersRepo orders.Repository,
	couponSvc couponVerifier,
	cart cartSource,
	estimator quoteEstimator,
	pricingCfg config.PricingConfig,
	m *metrics.CheckoutMetrics,
	log *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart source required")
	}
	if estimator == nil {
		return nil, fmt.Errorf("shipping estimator required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        tx,
		users:     users,
		products:  productsRepo,
		orders:    ordersRepo,
		coupons:   couponSvc,
		cart:      cart,
		estimator: estimator,
		pricing:   pricingCfg,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}, nil
}

// Execute runs one checkout attempt end to end. All network work (geocoding,
// routing) happens before the transaction opens; the transaction itself only
// touches the database.
func (s *service) Execute(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	started := s.now()
	order, err := s.execute(ctx, input)
	s.metrics.ObserveDuration(s.now().Sub(started))
	if err != nil {
		s.metrics.IncFailed(string(errors.As(err).Code()))
		return nil, err
	}
	s.metrics.IncPlaced()
	return order, nil
}

func (s *service) execute(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	now := s.now().UTC()

	snapshot, err := s.resolveCustomer(ctx, input)
	if err != nil {
		return nil, err
	}

	lines, fromCart, err := s.resolveLines(ctx, input)
	if err != nil {
		return nil, err
	}

	// External calls finish before the transaction starts; the commit path
	// must not block on the network.
	quote := s.estimator.Estimate(ctx, input.Address)

	items := make([]pricing.LineItem, len(lines))
	for i, line := range lines {
		items[i] = pricing.LineItem{ProductID: line.ProductID, UnitPrice: line.UnitPrice, Quantity: line.Quantity}
	}
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal())
	}
	subtotal = pricing.RoundMoney(subtotal)

	discount := decimal.Zero
	var couponCode *string
	if input.CouponCode != nil && strings.TrimSpace(*input.CouponCode) != "" {
		code := strings.TrimSpace(*input.CouponCode)
		validation, err := s.coupons.Validate(ctx, code, subtotal, now)
		if err != nil {
			return nil, err
		}
		if !validation.Valid {
			return nil, errors.New(errors.CodeValidation, fmt.Sprintf("coupon rejected: %s", validation.Reason))
		}
		discount = validation.DiscountAmount
		couponCode = &code
	}

	totals, err := pricing.ComputeTotals(items, s.pricing.TaxRate, quote.Fee, discount)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          input.UserID,
		FirstName:       snapshot.FirstName,
		LastName:        snapshot.LastName,
		Email:           snapshot.Email,
		Phone:           snapshot.Phone,
		ShippingAddress: shipping.NormalizeAddress(input.Address),
		ShippingKm:      quote.DistanceKm,
		Subtotal:        totals.Subtotal,
		TaxAmount:       totals.Tax,
		ShippingCost:    totals.Shipping,
		DiscountAmount:  totals.Discount,
		TotalAmount:     totals.Total,
		CouponCode:      couponCode,
		Status:          enums.OrderStatusPending,
		Notes:           input.Notes,
		PlacedAt:        now,
	}
	for _, line := range lines {
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalog := s.products.WithTx(tx)
		for _, line := range lines {
			reserved, err := catalog.Reserve(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return errors.Wrap(errors.CodeDependency, err, "reserve stock")
			}
			if !reserved {
				return errors.New(errors.CodeConflict, fmt.Sprintf("insufficient stock for product %s", line.ProductID)).
					WithDetails(map[string]any{"product_id": line.ProductID, "requested": line.Quantity})
			}
		}

		if _, err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "persist order")
		}

		if couponCode != nil {
			if err := s.coupons.CommitUsage(ctx, tx, *couponCode, now); err != nil {
				return err
			}
		}

		if fromCart {
			if err := s.cart.ClearInTx(ctx, tx, *input.CartOwnerID); err != nil {
				return errors.Wrap(errors.CodeDependency, err, "clear cart")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(s.log.WithOrderID(ctx, order.ID.String()), "order placed")
	return order, nil
}

type customerSnapshot struct {
	FirstName string
	LastName  string
	Email     string
	Phone     *string
}

// resolveCustomer captures the identity fields written into the order. A
// registered user's row wins over any guest-supplied fields; the copy taken
// here is what the order displays forever.
func (s *service) resolveCustomer(ctx context.Context, input CheckoutInput) (customerSnapshot, error) {
	if input.UserID != nil {
		user, err := s.users.FindByID(ctx, *input.UserID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return customerSnapshot{}, errors.New(errors.CodeNotFound, "user not found")
			}
			return customerSnapshot{}, errors.Wrap(errors.CodeDependency, err, "load user")
		}
		if !user.IsActive {
			return customerSnapshot{}, errors.New(errors.CodeNotFound, "user not found")
		}
		return customerSnapshot{
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Phone:     user.Phone,
		}, nil
	}

	var problems error
	if strings.TrimSpace(input.Customer.FirstName) == "" {
		problems = multierr.Append(problems, fmt.Errorf("customer.first_name: required for guest checkout"))
	}
	if strings.TrimSpace(input.Customer.LastName) == "" {
		problems = multierr.Append(problems, fmt.Errorf("customer.last_name: required for guest checkout"))
	}
	if strings.TrimSpace(input.Customer.Email) == "" {
		problems = multierr.Append(problems, fmt.Errorf("customer.email: required for guest checkout"))
	}
	if problems != nil {
		return customerSnapshot{}, validationError(problems)
	}

	return customerSnapshot{
		FirstName: strings.TrimSpace(input.Customer.FirstName),
		LastName:  strings.TrimSpace(input.Customer.LastName),
		Email:     strings.TrimSpace(input.Customer.Email),
		Phone:     input.Customer.Phone,
	}, nil
}

type resolvedLine struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// resolveLines turns the item source into priced lines. Explicit items take
// the product's current price; cart items keep the snapshot taken at
// add-to-cart time.
func (s *service) resolveLines(ctx context.Context, input CheckoutInput) ([]resolvedLine, bool, error) {
	fromCart := len(input.Items) == 0 && input.CartOwnerID != nil

	if len(input.Items) > 0 && input.CartOwnerID != nil {
		return nil, false, errors.New(errors.CodeValidation, "provide either items or a cart owner, not both")
	}
	if len(input.Items) == 0 && input.CartOwnerID == nil {
		return nil, false, errors.New(errors.CodeValidation, "at least one line item is required")
	}

	var requested []ItemInput
	priceByProduct := map[uuid.UUID]decimal.Decimal{}
	if fromCart {
		cartItems, err := s.cart.Load(ctx, *input.CartOwnerID)
		if err != nil {
			return nil, false, errors.Wrap(errors.CodeDependency, err, "load cart")
		}
		if len(cartItems) == 0 {
			return nil, false, errors.New(errors.CodeValidation, "cart is empty")
		}
		for _, item := range cartItems {
			requested = append(requested, ItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
			priceByProduct[item.ProductID] = item.UnitPrice
		}
	} else {
		requested = input.Items
	}

	var problems error
	ids := make([]uuid.UUID, 0, len(requested))
	for i, item := range requested {
		if item.ProductID == uuid.Nil {
			problems = multierr.Append(problems, fmt.Errorf("items[%d]: product id required", i))
			continue
		}
		if item.Quantity <= 0 {
			problems = multierr.Append(problems, fmt.Errorf("items[%d]: quantity must be positive", i))
			continue
		}
		ids = append(ids, item.ProductID)
	}
	if problems != nil {
		return nil, false, validationError(problems)
	}

	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, false, errors.Wrap(errors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(catalog))
	for _, product := range catalog {
		byID[product.ID] = product
	}

	var missing []string
	lines := make([]resolvedLine, 0, len(requested))
	for i, item := range requested {
		product, ok := byID[item.ProductID]
		if !ok {
			missing = append(missing, fmt.Sprintf("items[%d]: product %s not found", i, item.ProductID))
			continue
		}
		if !product.IsActive {
			problems = multierr.Append(problems, fmt.Errorf("items[%d]: product %s is not available", i, item.ProductID))
			continue
		}
		if product.StockQuantity < item.Quantity {
			problems = multierr.Append(problems, fmt.Errorf("items[%d]: insufficient stock for product %s", i, item.ProductID))
			continue
		}

		unitPrice := product.Price
		if snapshot, ok := priceByProduct[item.ProductID]; ok {
			unitPrice = snapshot
		}
		lines = append(lines, resolvedLine{
			ProductID: item.ProductID,
			Name:      product.Name,
			UnitPrice: unitPrice,
			Quantity:  item.Quantity,
		})
	}
	if len(missing) > 0 {
		return nil, false, errors.New(errors.CodeNotFound, "product not found").WithDetails(missing)
	}
	if problems != nil {
		return nil, false, validationError(problems)
	}

	return lines, fromCart, nil
}

func validationError(problems error) *errors.Error {
	details := make([]string, 0, len(multierr.Errors(problems)))
	for _, err := range multierr.Errors(problems) {
		details = append(details, err.Error())
	}
	return errors.New(errors.CodeValidation, "invalid checkout input").WithDetails(details)
}
