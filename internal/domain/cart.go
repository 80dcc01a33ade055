package domain

import "time"

// CartItem is one rental line. A cart holds at most one line per motorcycle.
type CartItem struct {
	ID              string
	MotorcycleID    string
	Quantity        int
	PickupAt        time.Time
	DropoffAt       time.Time
	PickupLocation  Branch
	DropoffLocation Branch

	// Computed when the line is added and persisted with it.
	Duration      string
	TotalHours    float64
	RentAmount    float64
	TaxPercentage float64
	TotalTax      float64

	// Computed on read, never persisted on the cart.
	DiscountedRentAmount float64
	SecurityDeposit      float64 // per unit
}

// Cart is the single cart of a customer. CouponID is a weak reference that is
// re-resolved on every read; an empty value means no coupon.
type Cart struct {
	CustomerID string
	Items      []CartItem
	CouponID   string
	UpdatedAt  time.Time
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItem returns the index of the line with the given id, or -1.
func (c *Cart) FindItem(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}
