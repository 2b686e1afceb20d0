package check

import "github.com/shopspring/decimal"

// Tax and service rates applied to the subtotal. Deployment-fixed.
var (
	taxRate     = decimal.NewFromFloat(0.09)
	serviceRate = decimal.NewFromFloat(0.10)
)

// PriceItems resolves unit prices and line totals for ordered items against
// the catalog. Prices are captured here, at add time, and never re-resolved.
// A zero quantity is treated as one.
func PriceItems(adds []ItemAdd, catalog Catalog) []LineItem {
	items := make([]LineItem, 0, len(adds))
	for _, add := range adds {
		qty := add.Qty
		if qty <= 0 {
			qty = 1
		}
		unit := catalog.Price(add.Sku)
		total := unit.Mul(decimal.NewFromInt(int64(qty))).Round(2)
		items = append(items, LineItem{
			Sku:       add.Sku,
			Quantity:  qty,
			UnitPrice: unit.InexactFloat64(),
			Total:     total.InexactFloat64(),
		})
	}
	return items
}

// Recompute derives check totals from the item list. Subtotal, tax and
// service are each rounded to two decimals independently; the total due is
// the exact sum of the three rounded components, so the invariant
// totalDue == subtotal + taxTotal + serviceChargeTotal holds after rounding.
// Pure and idempotent: recomputing over the same items yields the same
// totals.
func Recompute(items []LineItem) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(decimal.NewFromFloat(item.Total))
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(taxRate).Round(2)
	service := subtotal.Mul(serviceRate).Round(2)
	total := subtotal.Add(tax).Add(service)

	return Totals{
		Subtotal:           subtotal.InexactFloat64(),
		TaxTotal:           tax.InexactFloat64(),
		ServiceChargeTotal: service.InexactFloat64(),
		TotalDue:           total.InexactFloat64(),
	}
}
