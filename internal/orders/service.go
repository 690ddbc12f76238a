package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RedAvocado22/quadzone-checkout/pkg/db/models"
	"github.com/RedAvocado22/quadzone-checkout/pkg/enums"
	"github.com/RedAvocado22/quadzone-checkout/pkg/errors"
	"github.com/RedAvocado22/quadzone-checkout/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockReleaser returns reserved stock when an order is cancelled.
type StockReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// Service exposes order reads and the status state machine.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Search(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, target enums.OrderStatus) (*models.Order, error)
}

type service struct {
	repo  Repository
	tx    txRunner
	stock StockReleaser
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, stock StockReleaser) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock releaser required")
	}
	return &service{repo: repo, tx: tx, stock: stock}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "order not found")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) Search(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if params.Cursor != "" {
		if _, err := pagination.ParseCursor(params.Cursor); err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
		}
	}
	list, err := s.repo.Search(ctx, params, filters)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "search orders")
	}
	return list, nil
}

// UpdateStatus applies one legal transition. Cancellation additionally
// releases the reserved stock inside the same transaction as the status
// change.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	if !target.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown order status %q", target))
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(target) {
		return nil, errors.New(
			errors.CodeStateConflict,
			fmt.Sprintf("cannot transition order from %s to %s", order.Status, target),
		).WithDetails(map[string]string{
			"current_status":   order.Status.String(),
			"requested_status": target.String(),
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.WithTx(tx).UpdateStatus(ctx, id, order.Status, target)
		if err != nil {
			return errors.Wrap(errors.CodeDependency, err, "update order status")
		}
		if !moved {
			return errors.New(errors.CodeStateConflict, "order status changed concurrently; reload and retry")
		}

		if target == enums.OrderStatusCancelled {
			for _, item := range order.Items {
				if err := s.stock.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return errors.Wrap(errors.CodeDependency, err, "release reserved stock")
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = target
	return order, nil
}
