package catalog

import (
	"context"
	"log"
)

// Adjuster applies stock side effects for order creation and cancellation.
type Adjuster struct {
	store Store
}

func NewAdjuster(store Store) *Adjuster { return &Adjuster{store: store} }

// Reserve decrements stock for every line. The first failing line rolls back
// the decrements already applied, so the caller never observes a partial
// reservation.
func (a *Adjuster) Reserve(ctx context.Context, lines []Line) error {
	for i, l := range lines {
		if err := a.store.Adjust(ctx, l.EntryID, -l.Quantity); err != nil {
			for _, done := range lines[:i] {
				if rerr := a.store.Adjust(ctx, done.EntryID, done.Quantity); rerr != nil {
					log.Printf("[inventory] rollback failed entry=%s qty=%d err=%v", done.EntryID, done.Quantity, rerr)
				}
			}
			return err
		}
	}
	return nil
}

// Release replays the original reservation in reverse. Quantities come from
// the order's stored line items, so a release can never exceed what was
// reserved.
func (a *Adjuster) Release(ctx context.Context, lines []Line) error {
	var firstErr error
	for _, l := range lines {
		if err := a.store.Adjust(ctx, l.EntryID, l.Quantity); err != nil {
			log.Printf("[inventory] release failed entry=%s qty=%d err=%v", l.EntryID, l.Quantity, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
