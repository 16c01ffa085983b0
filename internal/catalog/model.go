package catalog

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("catalog entry not found")

	// ErrInsufficientStock means a conditional decrement would have gone
	// negative. The counter is left untouched.
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// NUMERIC -> string
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Line is a stock movement: entry id plus quantity. The adjuster replays
// these from the order's own item records, never from client input.
type Line struct {
	EntryID  string
	Quantity int
}
