package domain

import "time"

type CartLine struct {
	Product  Product `json:"product"`
	Quantity int64   `json:"quantity"`
}

// Cart holds at most one line per product id. Lines keep insertion order for
// display; totals are computed on demand, never cached.
type Cart struct {
	ID        string     `json:"id"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Cart) TotalItems() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

func (c *Cart) TotalPrice() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.Product.PriceInCents * line.Quantity
	}
	return total
}

// Currency returns the currency shared by all lines, or "" for an empty cart.
// Single-currency carts are enforced at add time.
func (c *Cart) Currency() string {
	if len(c.Lines) == 0 {
		return ""
	}
	return c.Lines[0].Product.Currency
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// FindLine returns the index of the line holding productID, or -1.
func (c *Cart) FindLine(productID string) int {
	for i, line := range c.Lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}
