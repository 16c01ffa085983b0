package order

// CreateOrderItem cart line payload.
// swagger:model CreateOrderItem
type CreateOrderItem struct {
	EntryID  string `json:"entry_id" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Quantity int    `json:"quantity" example:"2"`
}

// CreateOrderRequest order creation payload. Prices are never accepted from
// the client; the server reprices every line from the catalog.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	Items         []CreateOrderItem `json:"items"`
	Address       Address           `json:"address"`
	PaymentMethod string            `json:"payment_method" example:"card"`
	Instructions  string            `json:"instructions,omitempty"`
}

// TransitionRequest staff status-advance payload.
// swagger:model TransitionRequest
type TransitionRequest struct {
	Status Status `json:"status" example:"preparing"`
	Note   string `json:"note,omitempty"`
}
