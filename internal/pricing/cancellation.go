package pricing

import (
	"math"
	"time"

	"motorent/internal/domain"
)

// CancellationInput is everything the cancellation charge depends on.
type CancellationInput struct {
	PaymentStatus  domain.PaymentStatus
	PaidAmount     float64
	RentTotal      float64
	TotalTax       float64
	EarliestPickup time.Time
	Now            time.Time
	// Location is the zone whose calendar days are counted. Nil means the
	// zone of EarliestPickup.
	Location *time.Location
}

// CancellationQuote is the charge and refund for cancelling a booking.
type CancellationQuote struct {
	DaysUntilPickup    int
	ChargePercentage   float64
	Basis              float64
	CancellationCharge float64
	RefundableAmount   float64
}

// CancellationInputFor builds the calculator input from a booking, counting
// days in loc.
func CancellationInputFor(b *domain.Booking, now time.Time, loc *time.Location) CancellationInput {
	return CancellationInput{
		PaymentStatus:  b.PaymentStatus,
		PaidAmount:     b.PaidAmount,
		RentTotal:      b.RentTotal,
		TotalTax:       b.TotalTax,
		EarliestPickup: b.EarliestPickup(),
		Now:            now,
		Location:       loc,
	}
}

// CalculateCancellationCharge applies the refund policy tiers. The same result
// is shown as the estimate and recorded on cancellation.
func CalculateCancellationCharge(in CancellationInput, minimumCharge float64) CancellationQuote {
	days := DaysBetween(in.Now, in.EarliestPickup, in.Location)

	var pct float64
	switch {
	case days < 3:
		pct = 1.0
	case days < 7:
		pct = 0.5
	default:
		pct = 0
	}

	basis := in.RentTotal + in.TotalTax
	if in.PaymentStatus == domain.PaymentStatusPartialPaid {
		basis = in.PaidAmount
	}

	charge := math.Max(basis*pct, minimumCharge)

	return CancellationQuote{
		DaysUntilPickup:    days,
		ChargePercentage:   pct,
		Basis:              basis,
		CancellationCharge: charge,
		RefundableAmount:   math.Max(in.PaidAmount-charge, 0),
	}
}

// DaysBetween counts whole calendar days from the date of from to the date of
// to, both taken in loc. A nil loc uses the location of to.
func DaysBetween(from, to time.Time, loc *time.Location) int {
	if loc == nil {
		loc = to.Location()
	}
	f, t := from.In(loc), to.In(loc)
	start := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, loc)
	end := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return int(math.Round(end.Sub(start).Hours() / 24))
}
