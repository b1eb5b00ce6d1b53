package domain

// CheckoutItem is a denormalized snapshot of a cart line taken at the moment
// checkout begins. It intentionally carries no product id so later catalog
// edits cannot alter an in-flight session's terms.
type CheckoutItem struct {
	ProductName        string `json:"product_name"`
	ProductDescription string `json:"product_description"`
	PriceInCents       int64  `json:"price_in_cents"`
	Currency           string `json:"currency"`
	Quantity           int64  `json:"quantity"`
}

// CheckoutSession is the processor-hosted payment flow entry point. It exists
// only for the duration of the redirect handoff and is never persisted.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SnapshotLines converts cart lines into checkout items.
func SnapshotLines(lines []CartLine) []CheckoutItem {
	items := make([]CheckoutItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, CheckoutItem{
			ProductName:        line.Product.Name,
			ProductDescription: line.Product.Description,
			PriceInCents:       line.Product.PriceInCents,
			Currency:           line.Product.Currency,
			Quantity:           line.Quantity,
		})
	}
	return items
}
