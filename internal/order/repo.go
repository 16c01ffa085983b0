package order

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByCode(ctx context.Context, code string) (*Order, error)
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]Order, error)
	// UpdateStatus applies the transition only while the stored status still
	// equals from, and appends the history entry in the same transaction.
	UpdateStatus(ctx context.Context, code string, from, to Status, entry HistoryEntry, deliveredAt *time.Time) error
	SetPaymentRef(ctx context.Context, code, gatewayOrderRef string) error
	SetPaymentStatus(ctx context.Context, code string, ps PaymentStatus) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    INSERT INTO orders (code, customer_id, status, payment_status, payment_method,
                        total, street, city, phone, gateway_order_ref, instructions,
                        created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW(),NOW())
  `, o.Code, o.CustomerID, o.Status, o.PaymentStatus, o.PaymentMethod,
		o.Total, o.Address.Street, o.Address.City, o.Address.Phone,
		o.GatewayOrderRef, o.Instructions); err != nil {
		return err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
      INSERT INTO order_items (id, order_code, entry_id, name, quantity, price)
      VALUES ($1,$2,$3,$4,$5,$6)
    `, it.ID, o.Code, it.EntryID, it.Name, it.Quantity, it.Price); err != nil {
			return err
		}
	}

	for _, h := range o.History {
		if _, err := tx.Exec(ctx, `
      INSERT INTO order_history (order_code, status, at, note)
      VALUES ($1,$2,$3,$4)
    `, o.Code, h.Status, h.At, h.Note); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByCode(ctx context.Context, code string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var o Order
	if err := r.db.QueryRow(ctx, `
    SELECT code, customer_id, status, payment_status, payment_method, total::text,
           street, city, phone, gateway_order_ref, instructions, delivered_at,
           created_at, updated_at
    FROM orders WHERE code=$1
  `, code).Scan(&o.Code, &o.CustomerID, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&o.Total, &o.Address.Street, &o.Address.City, &o.Address.Phone,
		&o.GatewayOrderRef, &o.Instructions, &o.DeliveredAt,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, ErrNotFound
	}

	rows, err := r.db.Query(ctx, `
    SELECT id, order_code, entry_id, name, quantity, price::text
    FROM order_items WHERE order_code=$1
  `, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderCode, &it.EntryID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hrows, err := r.db.Query(ctx, `
    SELECT status, at, note
    FROM order_history WHERE order_code=$1 ORDER BY id ASC
  `, code)
	if err != nil {
		return nil, err
	}
	defer hrows.Close()
	for hrows.Next() {
		var h HistoryEntry
		if err := hrows.Scan(&h.Status, &h.At, &h.Note); err != nil {
			return nil, err
		}
		o.History = append(o.History, h)
	}
	return &o, hrows.Err()
}

func (r *PGRepo) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
    SELECT code, customer_id, status, payment_status, payment_method, total::text,
           street, city, phone, gateway_order_ref, instructions, delivered_at,
           created_at, updated_at
    FROM orders WHERE customer_id=$1
    ORDER BY created_at DESC LIMIT $2 OFFSET $3
  `, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.Code, &o.CustomerID, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
			&o.Total, &o.Address.Street, &o.Address.City, &o.Address.Phone,
			&o.GatewayOrderRef, &o.Instructions, &o.DeliveredAt,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PGRepo) UpdateStatus(ctx context.Context, code string, from, to Status, entry HistoryEntry, deliveredAt *time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
    UPDATE orders
    SET status = $3, delivered_at = COALESCE($4, delivered_at), updated_at = NOW()
    WHERE code = $1 AND status = $2
  `, code, from, to, deliveredAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStale
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO order_history (order_code, status, at, note)
    VALUES ($1,$2,$3,$4)
  `, code, entry.Status, entry.At, entry.Note); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) SetPaymentRef(ctx context.Context, code, gatewayOrderRef string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
    UPDATE orders SET gateway_order_ref = $2, updated_at = NOW() WHERE code = $1
  `, code, gatewayOrderRef)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) SetPaymentStatus(ctx context.Context, code string, ps PaymentStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
    UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE code = $1
  `, code, ps)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
