package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RedAvocado22/quadzone-checkout/api/responses"
	"github.com/RedAvocado22/quadzone-checkout/api/validators"
	couponsvc "github.com/RedAvocado22/quadzone-checkout/internal/coupons"
	pkgerrors "github.com/RedAvocado22/quadzone-checkout/pkg/errors"
	"github.com/RedAvocado22/quadzone-checkout/pkg/logger"
)

type validateCouponRequest struct {
	Code       string          `json:"code" validate:"required"`
	OrderTotal decimal.Decimal `json:"order_total"`
}

// ValidateCoupon is the dry-run endpoint the storefront polls while the
// buyer types a code. Rejections come back as a 200 with valid=false and a
// reason, never as an error status.
func ValidateCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var payload validateCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.OrderTotal.IsNegative() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order_total must not be negative"))
			return
		}

		result, err := svc.Validate(r.Context(), payload.Code, payload.OrderTotal, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
