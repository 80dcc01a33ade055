package pricing

import "motorent/internal/domain"

const (
	// ProratedExtraHoursLimit is the largest leftover that is billed per hour.
	// Anything above it is billed as a full extra day, both for the stored
	// rent and for the breakup shown to customers.
	ProratedExtraHoursLimit = 4.0

	// ExtraHourRate is the share of the day rate charged per prorated hour.
	ExtraHourRate = 0.10
)

// Rates are the two day rates of a motorcycle.
type Rates struct {
	Weekday float64
	Weekend float64
}

// RatesOf returns the day rates of a motorcycle.
func RatesOf(m *domain.Motorcycle) Rates {
	return Rates{Weekday: m.PricePerDayMonThu, Weekend: m.PricePerDayFriSun}
}

func (r Rates) forDay(t DayType) float64 {
	if t == DayTypeWeekend {
		return r.Weekend
	}
	return r.Weekday
}

// Breakup is the per-unit price breakdown of one rental line.
type Breakup struct {
	WeekdayCount        int
	WeekdayRate         float64
	WeekendCount        int
	WeekendRate         float64
	ExtraHours          float64
	ExtraHoursRate      float64
	ExtraHoursCharge    float64
	ExtraHoursAsFullDay bool
	RentPerUnit         float64
}

// PriceBreakup prices one unit over a period.
func PriceBreakup(p Period, r Rates) Breakup {
	b := Breakup{
		WeekdayCount: p.WeekdayCount,
		WeekdayRate:  r.Weekday,
		WeekendCount: p.WeekendCount,
		WeekendRate:  r.Weekend,
		ExtraHours:   p.ExtraHours,
	}

	rent := float64(p.WeekdayCount)*r.Weekday + float64(p.WeekendCount)*r.Weekend

	if p.ExtraHours > 0 {
		b.ExtraHoursRate = r.forDay(p.LastDayTypeForExtraHours)
		if p.ExtraHours > ProratedExtraHoursLimit {
			b.ExtraHoursAsFullDay = true
			b.ExtraHoursCharge = b.ExtraHoursRate
		} else {
			b.ExtraHoursCharge = b.ExtraHoursRate * ExtraHourRate * p.ExtraHours
		}
		rent += b.ExtraHoursCharge
	}

	b.RentPerUnit = rent
	return b
}

// TaxRates are the GST percentages applied to rent.
type TaxRates struct {
	Electric    float64
	NonElectric float64
}

// For returns the tax percentage that applies to a motorcycle.
func (t TaxRates) For(m *domain.Motorcycle) float64 {
	if m.IsElectric() {
		return t.Electric
	}
	return t.NonElectric
}

// LineQuote is the persisted pricing of a cart line.
type LineQuote struct {
	Period        Period
	Breakup       Breakup
	RentAmount    float64
	TaxPercentage float64
	TotalTax      float64
}

// QuoteLine prices quantity units of a motorcycle over a period.
func QuoteLine(p Period, m *domain.Motorcycle, quantity int, tax TaxRates) LineQuote {
	b := PriceBreakup(p, RatesOf(m))
	rent := b.RentPerUnit * float64(quantity)
	pct := tax.For(m)
	return LineQuote{
		Period:        p,
		Breakup:       b,
		RentAmount:    rent,
		TaxPercentage: pct,
		TotalTax:      rent * pct / 100,
	}
}
