package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/RedAvocado22/quadzone-checkout/internal/pricing"
	"github.com/RedAvocado22/quadzone-checkout/internal/products"
	"github.com/RedAvocado22/quadzone-checkout/pkg/db/models"
	"github.com/RedAvocado22/quadzone-checkout/pkg/errors"
)

// View is the cart representation returned to clients: one line per product
// plus the running subtotal.
type View struct {
	Items    []models.CartItem `json:"items"`
	Subtotal decimal.Decimal   `json:"subtotal"`
}

// Service mutates and reads a single owner's cart. The owner id covers both
// registered users and guest sessions.
type Service interface {
	Get(ctx context.Context, ownerID uuid.UUID) (*View, error)
	Load(ctx context.Context, ownerID uuid.UUID) ([]models.CartItem, error)
	AddItem(ctx context.Context, ownerID, productID uuid.UUID, quantity int) (*View, error)
	UpdateQuantity(ctx context.Context, ownerID, productID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, ownerID, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, ownerID uuid.UUID) error
	ClearInTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) error
}

type service struct {
	repo     Repository
	products products.Repository
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, productsRepo products.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo, products: productsRepo}, nil
}

func (s *service) Get(ctx context.Context, ownerID uuid.UUID) (*View, error) {
	if ownerID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "owner id required")
	}
	return s.view(ctx, ownerID)
}

// Load returns the raw cart lines with their snapshot prices. Checkout reads
// these instead of the rendered view.
func (s *service) Load(ctx context.Context, ownerID uuid.UUID) ([]models.CartItem, error) {
	if ownerID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "owner id required")
	}
	items, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "load cart items")
	}
	return items, nil
}

// AddItem merges quantity into an existing line for the product or creates a
// new line with the product's current price as the snapshot.
func (s *service) AddItem(ctx context.Context, ownerID, productID uuid.UUID, quantity int) (*View, error) {
	switch {
	case ownerID == uuid.Nil:
		return nil, errors.New(errors.CodeValidation, "owner id required")
	case productID == uuid.Nil:
		return nil, errors.New(errors.CodeValidation, "product id required")
	case quantity <= 0:
		return nil, errors.New(errors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "product not found")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, errors.New(errors.CodeNotFound, "product not found")
	}

	existing, err := s.repo.FindItem(ctx, ownerID, productID)
	switch {
	case err == gorm.ErrRecordNotFound:
		item := &models.CartItem{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			ProductID: productID,
			UnitPrice: product.Price,
			Quantity:  quantity,
		}
		if err := s.repo.Create(ctx, item); err != nil {
			return nil, errors.Wrap(errors.CodeDependency, err, "create cart item")
		}
	case err != nil:
		return nil, errors.Wrap(errors.CodeDependency, err, "load cart item")
	default:
		if err := s.repo.UpdateQuantity(ctx, ownerID, productID, existing.Quantity+quantity); err != nil {
			return nil, errors.Wrap(errors.CodeDependency, err, "update cart quantity")
		}
	}

	return s.view(ctx, ownerID)
}

// UpdateQuantity sets the line's quantity. A target of zero or below removes
// the line entirely.
func (s *service) UpdateQuantity(ctx context.Context, ownerID, productID uuid.UUID, quantity int) (*View, error) {
	if ownerID == uuid.Nil || productID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "owner id and product id required")
	}

	if quantity <= 0 {
		return s.RemoveItem(ctx, ownerID, productID)
	}

	if err := s.repo.UpdateQuantity(ctx, ownerID, productID, quantity); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "cart item not found")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "update cart quantity")
	}
	return s.view(ctx, ownerID)
}

func (s *service) RemoveItem(ctx context.Context, ownerID, productID uuid.UUID) (*View, error) {
	if err := s.repo.Delete(ctx, ownerID, productID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "cart item not found")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "remove cart item")
	}
	return s.view(ctx, ownerID)
}

func (s *service) Clear(ctx context.Context, ownerID uuid.UUID) error {
	if err := s.repo.DeleteByOwner(ctx, ownerID); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "clear cart")
	}
	return nil
}

// ClearInTx empties the cart inside the caller's transaction; checkout uses
// it so the cart only disappears when the order commit succeeds.
func (s *service) ClearInTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) error {
	return s.repo.WithTx(tx).DeleteByOwner(ctx, ownerID)
}

func (s *service) view(ctx context.Context, ownerID uuid.UUID) (*View, error) {
	items, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "load cart")
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return &View{
		Items:    items,
		Subtotal: pricing.RoundMoney(subtotal),
	}, nil
}
