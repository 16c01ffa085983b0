package catalog

import (
	"context"
	"sync"
	"time"
)

type MemStore struct {
	mu sync.Mutex
	m  map[string]*Entry
}

func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string]*Entry)}
}

func (s *MemStore) Put(e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.m[e.ID] = &cp
}

func (s *MemStore) Get(ctx context.Context, id string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *MemStore) Adjust(ctx context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[id]
	if !ok {
		return ErrNotFound
	}
	next := e.Stock + delta
	if next < 0 {
		return ErrInsufficientStock
	}
	if next == 0 {
		e.Available = false
	} else if e.Stock == 0 && next > 0 {
		e.Available = true
	}
	e.Stock = next
	e.UpdatedAt = time.Now().UTC()
	return nil
}
