package domain

// Product is owned by the catalog; the cart only references it read-only.
// ImageURL is a lazily resolved reference, the cart never copies image bytes.
type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	PriceInCents int64  `json:"price_in_cents"`
	Currency     string `json:"currency"`
	ImageURL     string `json:"image_url"`
}
