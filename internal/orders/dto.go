package orders

import (
	"time"

	"github.com/RedAvocado22/quadzone-checkout/pkg/db/models"
	"github.com/RedAvocado22/quadzone-checkout/pkg/enums"
)

// OrderFilters describe the inputs supported by the admin order search.
type OrderFilters struct {
	Status   *enums.OrderStatus
	Email    string
	DateFrom *time.Time
	DateTo   *time.Time
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
