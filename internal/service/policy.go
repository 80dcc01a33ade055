package service

import (
	"math"
	"time"

	"motorent/internal/pricing"
)

// Policy holds the externally configured business constants.
type Policy struct {
	Tax                   pricing.TaxRates
	MinBookingHours       float64
	MinCancellationCharge float64
	AdvancePaymentPercent float64
	CartItemStaleAfter    time.Duration
	Currency              string
	Location              *time.Location
}

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		Tax:                   pricing.TaxRates{Electric: 5, NonElectric: 28},
		MinBookingHours:       6,
		MinCancellationCharge: 199,
		AdvancePaymentPercent: 20,
		CartItemStaleAfter:    24 * time.Hour,
		Currency:              "INR",
		Location:              time.UTC,
	}
}

// paymentTolerance absorbs float residue when comparing paid and due amounts.
const paymentTolerance = 0.01

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func toMinorUnits(v float64) int64 {
	return int64(math.Round(v * 100))
}
