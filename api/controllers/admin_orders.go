package controllers

import (
	"net/http"
	"strings"

	"github.com/RedAvocado22/quadzone-checkout/api/responses"
	"github.com/RedAvocado22/quadzone-checkout/api/validators"
	internalorders "github.com/RedAvocado22/quadzone-checkout/internal/orders"
	"github.com/RedAvocado22/quadzone-checkout/pkg/enums"
	pkgerrors "github.com/RedAvocado22/quadzone-checkout/pkg/errors"
	"github.com/RedAvocado22/quadzone-checkout/pkg/logger"
)

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminUpdateOrderStatus moves an order along its lifecycle. Illegal
// transitions come back as a state conflict with the current status in the
// details.
func AdminUpdateOrderStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target := enums.OrderStatus(strings.ToLower(strings.TrimSpace(payload.Status)))
		order, err := svc.UpdateStatus(r.Context(), orderID, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}
