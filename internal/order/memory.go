package order

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo keeps orders in a process-local map. Used by tests and by the
// DB-less dev mode.
type MemoryRepo struct {
	mu sync.RWMutex
	m  map[string]*Order
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{m: make(map[string]*Order)}
}

func clone(o *Order) *Order {
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	cp.History = append([]HistoryEntry(nil), o.History...)
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		cp.DeliveredAt = &t
	}
	return &cp
}

func (r *MemoryRepo) Create(ctx context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[o.Code] = clone(o)
	return nil
}

func (r *MemoryRepo) GetByCode(ctx context.Context, code string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.m[code]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(o), nil
}

func (r *MemoryRepo) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var all []Order
	for _, o := range r.m {
		if o.CustomerID == customerID {
			all = append(all, *clone(o))
		}
	}
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, code string, from, to Status, entry HistoryEntry, deliveredAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.m[code]
	if !ok {
		return ErrNotFound
	}
	if o.Status != from {
		return ErrStale
	}
	o.Status = to
	o.History = append(o.History, entry)
	if deliveredAt != nil {
		t := *deliveredAt
		o.DeliveredAt = &t
	}
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepo) SetPaymentRef(ctx context.Context, code, gatewayOrderRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.m[code]
	if !ok {
		return ErrNotFound
	}
	o.GatewayOrderRef = gatewayOrderRef
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepo) SetPaymentStatus(ctx context.Context, code string, ps PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.m[code]
	if !ok {
		return ErrNotFound
	}
	o.PaymentStatus = ps
	o.UpdatedAt = time.Now().UTC()
	return nil
}
