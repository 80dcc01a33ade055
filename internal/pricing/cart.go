package pricing

import "motorent/internal/domain"

// discountEpsilon is the smallest leftover FLAT discount worth sweeping.
const discountEpsilon = 1e-9

// Totals are the read-time aggregates of a cart. They are never persisted.
type Totals struct {
	RentTotal            float64
	DiscountTotal        float64
	TotalTax             float64
	SecurityDepositTotal float64
	DiscountedRentTotal  float64
	DiscountedTotal      float64
	CartTotal            float64
}

// PriceCart applies an optional coupon to the cart lines and aggregates totals.
// It returns new lines with DiscountedRentAmount and TotalTax set; tax is always
// charged on the discounted rent. The input slice is not modified.
func PriceCart(items []domain.CartItem, coupon *domain.PromoCode) ([]domain.CartItem, Totals) {
	lines := make([]domain.CartItem, len(items))
	copy(lines, items)

	var totals Totals
	for i := range lines {
		lines[i].DiscountedRentAmount = lines[i].RentAmount
		totals.RentTotal += lines[i].RentAmount
		totals.SecurityDepositTotal += lines[i].SecurityDeposit * float64(lines[i].Quantity)
	}

	if coupon != nil {
		switch coupon.Type {
		case domain.DiscountPercentage:
			applyPercentage(lines, coupon.DiscountValue)
		case domain.DiscountFlat:
			applyFlat(lines, coupon.DiscountValue, totals.RentTotal)
		}
	}

	var discountedRent float64
	for i := range lines {
		lines[i].TotalTax = lines[i].DiscountedRentAmount * lines[i].TaxPercentage / 100
		totals.TotalTax += lines[i].TotalTax
		discountedRent += lines[i].DiscountedRentAmount
	}

	totals.DiscountTotal = totals.RentTotal - discountedRent
	totals.DiscountedRentTotal = discountedRent + totals.TotalTax
	totals.DiscountedTotal = totals.DiscountedRentTotal + totals.SecurityDepositTotal
	totals.CartTotal = totals.RentTotal + totals.TotalTax

	return lines, totals
}

// PreDiscountTotal is the cart total used for coupon thresholds: rent plus tax
// with no coupon applied.
func PreDiscountTotal(items []domain.CartItem) float64 {
	_, totals := PriceCart(items, nil)
	return totals.CartTotal
}

func applyPercentage(lines []domain.CartItem, percent float64) {
	for i := range lines {
		discount := lines[i].RentAmount * percent / 100
		if discount > lines[i].RentAmount {
			discount = lines[i].RentAmount
		}
		if discount < 0 {
			discount = 0
		}
		lines[i].DiscountedRentAmount = lines[i].RentAmount - discount
	}
}

// applyFlat spreads value across lines by share of the remaining rent, capping
// each line at its own rent, then sweeps any capped leftover into lines that
// still have room.
func applyFlat(lines []domain.CartItem, value, rentTotal float64) {
	remainingDiscount := value
	remainingRent := rentTotal

	for i := range lines {
		if remainingDiscount <= 0 || remainingRent <= 0 {
			break
		}
		rent := lines[i].RentAmount
		share := remainingDiscount * rent / remainingRent
		if share > rent {
			share = rent
		}
		lines[i].DiscountedRentAmount = rent - share
		remainingDiscount -= share
		remainingRent -= rent
	}

	for i := range lines {
		if remainingDiscount <= discountEpsilon {
			return
		}
		room := lines[i].DiscountedRentAmount
		if room <= 0 {
			continue
		}
		take := remainingDiscount
		if take > room {
			take = room
		}
		lines[i].DiscountedRentAmount -= take
		remainingDiscount -= take
	}
}
