package check

import "github.com/shopspring/decimal"

// Catalog maps menu item SKUs to unit prices. Unknown SKUs price at zero;
// the POS tolerates items it cannot price rather than rejecting them.
type Catalog map[string]float64

// DefaultCatalog returns the room-service menu, kept in sync with the menu
// mock the terminals are configured against.
func DefaultCatalog() Catalog {
	return Catalog{
		"RS-BURGER": 14.0,
		"RS-CHEESE": 15.0,
		"RS-FRIES":  5.0,
		"RS-SALAD":  6.0,
	}
}

// Price resolves the unit price for a SKU, zero when absent.
func (c Catalog) Price(sku string) decimal.Decimal {
	return decimal.NewFromFloat(c[sku])
}
