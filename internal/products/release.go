package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TxReleaser adapts the repository for callers that release stock inside
// their own transaction.
type TxReleaser struct {
	repo Repository
}

// NewTxReleaser wraps the repository into a transactional releaser.
func NewTxReleaser(repo Repository) *TxReleaser {
	return &TxReleaser{repo: repo}
}

// Release returns qty units of the product to stock within tx.
func (t *TxReleaser) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	return t.repo.WithTx(tx).Release(ctx, productID, qty)
}
