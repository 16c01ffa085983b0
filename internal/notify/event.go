package notify

import "time"

const (
	// StaffAudience is the fixed broadcast key every staff connection joins.
	StaffAudience = "staff"

	EventOrderCreated = "order_created"
	EventOrderStatus  = "order_status"
)

type Event struct {
	Type    string      `json:"type"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload"`
}

// Conn is one live client connection. Send must not block; implementations
// buffer and report an error when the buffer is full or the peer is gone.
type Conn interface {
	Send(Event) error
	Close() error
}
