package controllers

import (
	"net/http"

	"github.com/RedAvocado22/quadzone-checkout/api/responses"
	"github.com/RedAvocado22/quadzone-checkout/api/validators"
	checkoutsvc "github.com/RedAvocado22/quadzone-checkout/internal/checkout"
	pkgerrors "github.com/RedAvocado22/quadzone-checkout/pkg/errors"
	"github.com/RedAvocado22/quadzone-checkout/pkg/logger"
)

// Checkout runs one checkout attempt and returns the placed order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutsvc.CheckoutInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Execute(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
