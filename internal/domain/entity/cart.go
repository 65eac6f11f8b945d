package entity

import "github.com/shopspring/decimal"

// CartItem copia del producto al momento de agregarlo al carrito.
type CartItem struct {
	ProductID int64           `json:"id"`
	Name      string          `json:"nombre"`
	Price     decimal.Decimal `json:"precio"`
	Image     string          `json:"imagen"`
	Quantity  int             `json:"cantidad"`
}

// LineTotal precio por cantidad.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SumItems Σ precio×cantidad.
func SumItems(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}
