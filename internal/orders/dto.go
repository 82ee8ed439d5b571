package orders

// OrderSummary is the listing shape shared by guest and photographer views.
// GuestName is only populated on the photographer side.
type OrderSummary struct {
	ID         string             `json:"id"`
	Status     string             `json:"status"`
	GuestName  string             `json:"guest_name,omitempty"`
	TotalCents int                `json:"total_cents"`
	Currency   string             `json:"currency"`
	CreatedAt  string             `json:"created_at"`
	Items      []OrderItemSummary `json:"items"`
}

// PhotographerOrderPage is one cursor page of the photographer's orders.
type PhotographerOrderPage struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type OrderItemSummary struct {
	PhotoID        string `json:"photo_id,omitempty"`
	UnitPriceCents int    `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
}

// DownloadBundle is only produced for paid orders; URLs inside are
// short-lived signed reads.
type DownloadBundle struct {
	OrderID string         `json:"order_id"`
	Photos  []DownloadLink `json:"photos"`
}

type DownloadLink struct {
	PhotoID     string `json:"photo_id"`
	DownloadURL string `json:"download_url"`
}
