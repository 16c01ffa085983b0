package order

import "time"

type Order struct {
	Code          string        `json:"code"`
	CustomerID    string        `json:"customer_id"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod string        `json:"payment_method"`
	// NUMERIC -> string, computed server-side at creation and frozen.
	Total           string         `json:"total"`
	Address         Address        `json:"address"`
	GatewayOrderRef string         `json:"gateway_order_ref,omitempty"`
	Instructions    string         `json:"instructions,omitempty"`
	Items           []Item         `json:"items"`
	History         []HistoryEntry `json:"history"`
	DeliveredAt     *time.Time     `json:"delivered_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Item is a snapshot of the catalog entry at order time. Name and price are
// copied, never joined back to the catalog, so old orders survive menu edits.
type Item struct {
	ID        string `json:"id"`
	OrderCode string `json:"order_code"`
	EntryID   string `json:"entry_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// HistoryEntry is append-only; the last entry always mirrors Order.Status.
type HistoryEntry struct {
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
	Note   string    `json:"note,omitempty"`
}

type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	Phone  string `json:"phone"`
}

func (a Address) Complete() bool {
	return a.Street != "" && a.City != "" && a.Phone != ""
}
