package domain

// CartLine is one product in a cart. Name, price and image are cached when the
// product is added; the cart never follows later catalog edits.
type CartLine struct {
	ProductID string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	ImageURL  string `json:"image_url,omitempty"`
	Quantity  int    `json:"quantity"`
}

// Subtotal is price times quantity.
func (l CartLine) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}
