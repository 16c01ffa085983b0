package order

// Status is the closed set of order lifecycle states.
type Status string

const (
	StatusPlaced         Status = "placed"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusReady          Status = "ready"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// transitions is the single authoritative adjacency table. Every legality
// check goes through CanTransition; no call site compares status strings.
var transitions = map[Status][]Status{
	StatusPlaced:         {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusReady, StatusCancelled},
	StatusReady:          {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// statusRank orders the forward path so "confirmed or later" checks have one
// home. Cancelled sits outside the forward path.
var statusRank = map[Status]int{
	StatusPlaced:         0,
	StatusConfirmed:      1,
	StatusPreparing:      2,
	StatusReady:          3,
	StatusOutForDelivery: 4,
	StatusDelivered:      5,
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Reached reports whether s sits at or beyond t on the forward path.
// A cancelled order has reached nothing.
func (s Status) Reached(t Status) bool {
	sr, ok1 := statusRank[s]
	tr, ok2 := statusRank[t]
	return ok1 && ok2 && sr >= tr
}

// PaymentStatus tracks the gateway-facing side of an order.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// ActorKind identifies who is asking for a transition.
type ActorKind string

const (
	ActorCustomer      ActorKind = "customer"
	ActorStaff         ActorKind = "staff"
	ActorPaymentSystem ActorKind = "payment_system"
)

type Actor struct {
	Kind ActorKind
	ID   string
}
