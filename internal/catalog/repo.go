package catalog

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the collaborator contract the engine consumes: one read, one
// atomic adjust. Backed by Postgres here, by HTTP against a remote catalog
// service in client.go, and by a map in memory.go for tests.
type Store interface {
	Get(ctx context.Context, id string) (*Entry, error)
	// Adjust applies delta to the entry's stock counter. The decrement is
	// conditional: it fails with ErrInsufficientStock instead of going
	// negative. An entry that hit zero becomes unavailable; a release that
	// lifts it back above zero re-marks it available.
	Adjust(ctx context.Context, id string, delta int) error
}

type PGStore struct{ db *pgxpool.Pool }

func NewPGStore(db *pgxpool.Pool) *PGStore { return &PGStore{db: db} }

func (s *PGStore) Get(ctx context.Context, id string) (*Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var e Entry
	err := s.db.QueryRow(ctx, `
		SELECT id, name, price::text, stock, available, created_at, updated_at
		FROM menu_entries WHERE id=$1
	`, id).Scan(&e.ID, &e.Name, &e.Price, &e.Stock, &e.Available, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (s *PGStore) Adjust(ctx context.Context, id string, delta int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
		UPDATE menu_entries
		SET stock = stock + $2,
		    available = CASE
		      WHEN stock + $2 <= 0 THEN FALSE
		      WHEN stock = 0 AND stock + $2 > 0 THEN TRUE
		      ELSE available
		    END,
		    updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0
	`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the row is missing or the guard rejected the decrement.
		if _, gerr := s.Get(ctx, id); gerr != nil {
			return gerr
		}
		return ErrInsufficientStock
	}
	return nil
}
