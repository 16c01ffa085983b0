package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quickeats/orders-backend/internal/catalog"
	"github.com/quickeats/orders-backend/internal/metrics"
	"github.com/quickeats/orders-backend/internal/notify"
)

// Publisher pushes a lifecycle event to every live connection of an
// audience. Implemented by notify.Dispatcher; faked in tests.
type Publisher interface {
	Publish(audience, eventType string, payload interface{})
}

// Mailer sends the order receipt. Failures are logged, never propagated.
type Mailer interface {
	SendReceipt(ctx context.Context, contact string, o *Order) error
}

// CustomerDirectory resolves the owning customer's contact address and
// doubles as the existence check at creation.
type CustomerDirectory interface {
	Contact(ctx context.Context, id string) (string, error)
}

// Engine owns every mutation of an order: creation, the status state
// machine, audit history and the coupled side effects. Nothing else writes
// order state.
type Engine struct {
	repo      Repository
	store     catalog.Store
	adjuster  *catalog.Adjuster
	pub       Publisher
	mailer    Mailer
	customers CustomerDirectory

	// Per-order serialization point: transitions for one code never run
	// concurrently in this process. The conditional status write in the
	// repo is the backstop for anything outside it.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngine(repo Repository, store catalog.Store, pub Publisher, mailer Mailer, customers CustomerDirectory) *Engine {
	return &Engine{
		repo:      repo,
		store:     store,
		adjuster:  catalog.NewAdjuster(store),
		pub:       pub,
		mailer:    mailer,
		customers: customers,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (e *Engine) lockFor(code string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[code]
	if !ok {
		l = &sync.Mutex{}
		e.locks[code] = l
	}
	return l
}

// NewOrderCode builds the human-readable order identity: sortable by
// creation second, random suffix against same-second collisions.
func NewOrderCode() string {
	b := make([]byte, 2)
	_, _ = rand.Read(b)
	return fmt.Sprintf("QE-%d-%s", time.Now().Unix(), hex.EncodeToString(b))
}

// CreateOrder validates the cart, reprices every line from the catalog,
// reserves stock and persists the order in placed status. The staff
// broadcast audience is told a new order exists; the customer has nothing
// to be told yet.
func (e *Engine) CreateOrder(ctx context.Context, customerID string, req CreateOrderRequest) (*Order, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: missing customer", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: empty cart", ErrValidation)
	}
	if !req.Address.Complete() {
		return nil, fmt.Errorf("%w: incomplete delivery address", ErrValidation)
	}
	if req.PaymentMethod == "" {
		return nil, fmt.Errorf("%w: missing payment method", ErrValidation)
	}
	if _, err := e.customers.Contact(ctx, customerID); err != nil {
		return nil, fmt.Errorf("%w: unknown customer", ErrValidation)
	}

	// Price pass: snapshot name and unit price for every line before any
	// counter moves, so the stored total and the reservation come from one
	// consistent read.
	code := NewOrderCode()
	total := decimal.Zero
	items := make([]Item, 0, len(req.Items))
	lines := make([]catalog.Line, 0, len(req.Items))
	for _, in := range req.Items {
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		entry, err := e.store.Get(ctx, in.EntryID)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown item %s", ErrValidation, in.EntryID)
		}
		if !entry.Available {
			return nil, fmt.Errorf("%w: item %s is not orderable", ErrValidation, entry.Name)
		}
		price, err := decimal.NewFromString(entry.Price)
		if err != nil {
			return nil, fmt.Errorf("catalog price for %s: %w", in.EntryID, err)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(in.Quantity))))
		items = append(items, Item{
			ID:        uuid.NewString(),
			OrderCode: code,
			EntryID:   entry.ID,
			Name:      entry.Name,
			Quantity:  in.Quantity,
			Price:     entry.Price,
		})
		lines = append(lines, catalog.Line{EntryID: entry.ID, Quantity: in.Quantity})
	}

	// Reserve pass: atomic conditional decrements, rolled back as a whole
	// on the first shortfall.
	if err := e.adjuster.Reserve(ctx, lines); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o := &Order{
		Code:          code,
		CustomerID:    customerID,
		Status:        StatusPlaced,
		PaymentStatus: PaymentPending,
		PaymentMethod: req.PaymentMethod,
		Total:         total.StringFixed(2),
		Address:       req.Address,
		Instructions:  req.Instructions,
		Items:         items,
		History:       []HistoryEntry{{Status: StatusPlaced, At: now, Note: "order placed"}},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.repo.Create(ctx, o); err != nil {
		// Undo the reservation; the customer never saw this order.
		_ = e.adjuster.Release(ctx, lines)
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	e.pub.Publish(notify.StaffAudience, notify.EventOrderCreated, map[string]interface{}{
		"code":        o.Code,
		"customer_id": o.CustomerID,
		"status":      o.Status,
		"total":       o.Total,
	})
	return o, nil
}

// Transition moves an order one edge along the status graph, appending the
// audit entry and firing the coupled side effects. Calls for the same order
// are serialized.
func (e *Engine) Transition(ctx context.Context, code string, to Status, actor Actor, note string) (*Order, error) {
	if !to.Valid() || to == StatusPlaced {
		return nil, fmt.Errorf("%w: unknown target status %q", ErrInvalidTransition, to)
	}

	l := e.lockFor(code)
	l.Lock()
	defer l.Unlock()

	o, err := e.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if o.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: order is %s", ErrTerminalState, o.Status)
	}
	if to == StatusCancelled && o.Status == StatusOutForDelivery {
		// Too late to cancel once the courier left.
		return nil, fmt.Errorf("%w: order already dispatched", ErrTerminalState)
	}
	if !o.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	if err := authorize(o, to, actor); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := HistoryEntry{Status: to, At: now, Note: note}
	var deliveredAt *time.Time
	if to == StatusDelivered {
		deliveredAt = &now
	}

	if err := e.repo.UpdateStatus(ctx, code, o.Status, to, entry, deliveredAt); err != nil {
		if errors.Is(err, ErrStale) {
			// Someone outside this process won the write. Report the edge
			// as gone; the caller rereads and resyncs.
			return nil, fmt.Errorf("%w: status moved concurrently", ErrInvalidTransition)
		}
		return nil, err
	}

	o.Status = to
	o.History = append(o.History, entry)
	o.DeliveredAt = deliveredAt
	o.UpdatedAt = now

	if to == StatusCancelled {
		lines := make([]catalog.Line, 0, len(o.Items))
		for _, it := range o.Items {
			lines = append(lines, catalog.Line{EntryID: it.EntryID, Quantity: it.Quantity})
		}
		// Release failures are logged inside the adjuster; the cancellation
		// itself is already durable.
		_ = e.adjuster.Release(ctx, lines)
	}

	metrics.Transitions.WithLabelValues(string(to)).Inc()
	payload := map[string]interface{}{
		"code":   o.Code,
		"status": o.Status,
		"note":   note,
	}
	e.pub.Publish(o.CustomerID, notify.EventOrderStatus, payload)
	e.pub.Publish(notify.StaffAudience, notify.EventOrderStatus, payload)

	if to == StatusConfirmed {
		go e.sendReceipt(o)
	}
	return o, nil
}

// Cancel is the convenience edge into cancelled.
func (e *Engine) Cancel(ctx context.Context, code string, actor Actor) (*Order, error) {
	return e.Transition(ctx, code, StatusCancelled, actor, "order cancelled")
}

func authorize(o *Order, to Status, actor Actor) error {
	switch to {
	case StatusConfirmed:
		if actor.Kind != ActorPaymentSystem {
			return fmt.Errorf("%w: only the payment system may confirm", ErrInvalidTransition)
		}
	case StatusCancelled:
		if actor.Kind == ActorStaff {
			return nil
		}
		if actor.Kind == ActorCustomer && actor.ID == o.CustomerID {
			return nil
		}
		return fmt.Errorf("%w: actor may not cancel this order", ErrInvalidTransition)
	default:
		if actor.Kind != ActorStaff {
			return fmt.Errorf("%w: staff-only transition", ErrInvalidTransition)
		}
	}
	return nil
}

func (e *Engine) sendReceipt(o *Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	contact, err := e.customers.Contact(ctx, o.CustomerID)
	if err != nil {
		log.Printf("[engine] receipt contact lookup failed order=%s err=%v", o.Code, err)
		return
	}
	if err := e.mailer.SendReceipt(ctx, contact, o); err != nil {
		log.Printf("[engine] receipt mail failed order=%s err=%v", o.Code, err)
	}
}
