package domain

// Branch is a physical pickup/dropoff location. Stock is tracked per motorcycle per branch.
type Branch string

// Category classifies a motorcycle. Only ELECTRIC affects pricing (tax rate).
type Category string

const (
	CategoryElectric Category = "ELECTRIC"
	CategoryPetrol   Category = "PETROL"
	CategoryScooter  Category = "SCOOTER"
	CategoryCruiser  Category = "CRUISER"
)

// BranchStock is one entry of a motorcycle's per-branch stock ledger.
type BranchStock struct {
	Branch   Branch
	Quantity int
}

// Motorcycle is fleet reference data. Rates are per calendar day.
type Motorcycle struct {
	ID                string
	Make              string
	Model             string
	Variant           string
	Color             string
	PricePerDayMonThu float64
	PricePerDayFriSun float64
	SecurityDeposit   float64
	Categories        []Category
	AvailableInCities []BranchStock
}

// IsElectric reports whether the motorcycle carries the ELECTRIC category.
func (m *Motorcycle) IsElectric() bool {
	for _, c := range m.Categories {
		if c == CategoryElectric {
			return true
		}
	}
	return false
}

// StockAt returns the available quantity at a branch, or -1 if the motorcycle
// is not offered there at all.
func (m *Motorcycle) StockAt(branch Branch) int {
	for _, s := range m.AvailableInCities {
		if s.Branch == branch {
			return s.Quantity
		}
	}
	return -1
}

// StockAdjustment is a signed change to one branch counter of one motorcycle.
type StockAdjustment struct {
	MotorcycleID string
	Branch       Branch
	Delta        int
}
