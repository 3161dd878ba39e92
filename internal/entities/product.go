package entities

import "math"

// Product is the inventory-relevant subset of the catalog record. The
// orchestrator only ever mutates the two quantity counters; everything else
// belongs to the catalog domain.
type Product struct {
	ID                string
	Name              string
	SellerID          string
	SellingPrice      int64
	TaxRate           float64
	QuantityAvailable int
	QuantitySold      int
}

// LineTax is the tax in cents for quantity units of this product,
// rounded once per line.
func (p Product) LineTax(quantity int) int64 {
	subtotal := p.SellingPrice * int64(quantity)
	return int64(math.Round(float64(subtotal) * p.TaxRate / 100))
}

type CartItem struct {
	BuyerID   string
	ProductID string
	Quantity  int
}
