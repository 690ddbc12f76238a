// Package shipping derives a tiered delivery fee from the distance between
// the store origin and the customer's address. Every external failure mode
// collapses into a fallback quote; checkout never hard-fails because a
// mapping provider is down.
package shipping

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/RedAvocado22/quadzone-checkout/internal/pricing"
	"github.com/RedAvocado22/quadzone-checkout/pkg/config"
	"github.com/RedAvocado22/quadzone-checkout/pkg/geo"
	"github.com/RedAvocado22/quadzone-checkout/pkg/logger"
	"github.com/RedAvocado22/quadzone-checkout/pkg/metrics"
	"github.com/RedAvocado22/quadzone-checkout/pkg/types"
)

const (
	messageFreeShip = "Free ship"
	messageFallback = "cannot geocode - using minimum shipping"
)

// Quote is the ephemeral result of one estimate. It is recomputed per
// checkout attempt and never persisted.
type Quote struct {
	DistanceKm *float64        `json:"distance_km,omitempty"`
	Fee        decimal.Decimal `json:"fee"`
	Message    string          `json:"message"`
	Fallback   bool            `json:"fallback"`
}

// Resolver is the slice of the geo client the estimator needs.
type Resolver interface {
	Geocode(ctx context.Context, address string) (geo.LatLng, error)
	Distance(ctx context.Context, origin, destination geo.LatLng) (float64, error)
}

// Estimator computes shipping quotes against a fixed store origin.
type Estimator struct {
	resolver Resolver
	cfg      config.ShippingConfig
	origin   geo.LatLng
	metrics  *metrics.CheckoutMetrics
	log      *logger.Logger
}

// NewEstimator builds a shipping estimator with the required dependencies.
func NewEstimator(resolver Resolver, cfg config.ShippingConfig, m *metrics.CheckoutMetrics, log *logger.Logger) (*Estimator, error) {
	if resolver == nil {
		return nil, fmt.Errorf("geo resolver required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Estimator{
		resolver: resolver,
		cfg:      cfg,
		origin:   geo.LatLng{Latitude: cfg.OriginLat, Longitude: cfg.OriginLng},
		metrics:  m,
		log:      log,
	}, nil
}

// Estimate resolves the address and prices the distance. Geocoding or
// routing failures degrade to the minimum-fee fallback quote; the method
// never returns an error.
func (e *Estimator) Estimate(ctx context.Context, address types.Address) Quote {
	normalized := NormalizeAddress(address)
	if normalized == "" {
		e.log.Warn(ctx, "empty address after normalization, using fallback quote")
		return e.fallbackQuote()
	}

	ctx = e.log.WithField(ctx, "address", normalized)

	destination, err := e.resolver.Geocode(ctx, normalized)
	if err != nil {
		e.log.Warn(e.log.WithField(ctx, "error", err.Error()), "geocode failed, using fallback quote")
		return e.fallbackQuote()
	}

	distanceKm, err := e.resolver.Distance(ctx, e.origin, destination)
	if err != nil {
		e.log.Warn(e.log.WithField(ctx, "error", err.Error()), "distance lookup failed, using fallback quote")
		return e.fallbackQuote()
	}
	if distanceKm < 0 {
		e.log.Warn(e.log.WithField(ctx, "distance_km", distanceKm), "negative distance from provider, using fallback quote")
		return e.fallbackQuote()
	}

	return e.quoteForDistance(distanceKm)
}

func (e *Estimator) quoteForDistance(distanceKm float64) Quote {
	if distanceKm <= e.cfg.InnerCityFreeKm {
		return Quote{
			DistanceKm: &distanceKm,
			Fee:        decimal.Zero,
			Message:    messageFreeShip,
		}
	}

	distance := decimal.NewFromFloat(distanceKm)
	freeKm := decimal.NewFromFloat(e.cfg.InnerCityFreeKm)
	thresholdKm := decimal.NewFromFloat(e.cfg.DiscountedThresholdKm)

	fee := e.cfg.HandlingFee
	if distanceKm <= e.cfg.DiscountedThresholdKm {
		fee = fee.Add(distance.Sub(freeKm).Mul(e.cfg.DiscountedRate))
	} else {
		fee = fee.
			Add(thresholdKm.Sub(freeKm).Mul(e.cfg.DiscountedRate)).
			Add(distance.Sub(thresholdKm).Mul(e.cfg.StandardRate))
	}

	return Quote{
		DistanceKm: &distanceKm,
		Fee:        pricing.RoundMoney(fee),
		Message:    fmt.Sprintf("Shipping for %.1f km", distanceKm),
	}
}

func (e *Estimator) fallbackQuote() Quote {
	e.metrics.IncShippingFallback()
	return Quote{
		Fee:      pricing.RoundMoney(e.cfg.MinimumFee),
		Message:  messageFallback,
		Fallback: true,
	}
}
