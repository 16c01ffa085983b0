package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func seeded(entries ...*Entry) *MemStore {
	s := NewMemStore()
	for _, e := range entries {
		s.Put(e)
	}
	return s
}

func TestReserve_DecrementsEveryLine(t *testing.T) {
	t.Parallel()
	s := seeded(
		&Entry{ID: "A", Name: "A", Price: "10.00", Stock: 5, Available: true},
		&Entry{ID: "B", Name: "B", Price: "20.00", Stock: 2, Available: true},
	)
	a := NewAdjuster(s)

	if err := a.Reserve(context.Background(), []Line{{"A", 2}, {"B", 2}}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	ea, _ := s.Get(context.Background(), "A")
	eb, _ := s.Get(context.Background(), "B")
	if ea.Stock != 3 || eb.Stock != 0 {
		t.Fatalf("stock a=%d b=%d, want 3 and 0", ea.Stock, eb.Stock)
	}
	// Hitting zero marks the entry unavailable.
	if eb.Available {
		t.Fatal("B still available at zero stock")
	}
}

func TestReserve_PartialFailureRollsBack(t *testing.T) {
	t.Parallel()
	s := seeded(
		&Entry{ID: "A", Name: "A", Price: "10.00", Stock: 5, Available: true},
		&Entry{ID: "B", Name: "B", Price: "20.00", Stock: 1, Available: true},
		&Entry{ID: "C", Name: "C", Price: "5.00", Stock: 9, Available: true},
	)
	a := NewAdjuster(s)

	err := a.Reserve(context.Background(), []Line{{"A", 3}, {"B", 2}, {"C", 1}})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err=%v, want ErrInsufficientStock", err)
	}
	// Post-failure every counter equals its pre-call value.
	for id, want := range map[string]int{"A": 5, "B": 1, "C": 9} {
		e, _ := s.Get(context.Background(), id)
		if e.Stock != want {
			t.Fatalf("stock %s=%d, want %d", id, e.Stock, want)
		}
	}
}

func TestRelease_RestoresAndRemarksAvailable(t *testing.T) {
	t.Parallel()
	s := seeded(&Entry{ID: "A", Name: "A", Price: "10.00", Stock: 2, Available: true})
	a := NewAdjuster(s)

	if err := a.Reserve(context.Background(), []Line{{"A", 2}}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	e, _ := s.Get(context.Background(), "A")
	if e.Stock != 0 || e.Available {
		t.Fatalf("stock=%d available=%v, want 0/false", e.Stock, e.Available)
	}

	if err := a.Release(context.Background(), []Line{{"A", 2}}); err != nil {
		t.Fatalf("release: %v", err)
	}
	e, _ = s.Get(context.Background(), "A")
	if e.Stock != 2 || !e.Available {
		t.Fatalf("stock=%d available=%v, want 2/true", e.Stock, e.Available)
	}
}

func TestAdjust_ConcurrentLastUnits(t *testing.T) {
	t.Parallel()
	s := seeded(&Entry{ID: "A", Name: "A", Price: "10.00", Stock: 3, Available: true})
	a := NewAdjuster(s)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = a.Reserve(context.Background(), []Line{{"A", 1}})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if wins != 3 {
		t.Fatalf("wins=%d, want exactly 3", wins)
	}
	e, _ := s.Get(context.Background(), "A")
	if e.Stock != 0 {
		t.Fatalf("stock=%d, want 0", e.Stock)
	}
}

func TestAdjust_UnknownEntry(t *testing.T) {
	t.Parallel()
	s := NewMemStore()
	if err := s.Adjust(context.Background(), "ghost", -1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}
