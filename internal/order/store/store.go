package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/orderdesk/internal/order"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const selectOrderColumns = `
	id, order_number, invoice_number, customer_id, status, payment_status, payment_method,
	items, subtotal, tax, fees, total, created_by, cancel_reason, timeline, version,
	created_at, updated_at
`

// scanOrder expects the columns of selectOrderColumns in order.
func scanOrder(s scanner) (*order.Order, error) {
	var o order.Order

	var orderNo, invoiceNo sql.NullString

	var items, timeline []byte

	if err := s.Scan(
		&o.ID, &orderNo, &invoiceNo, &o.CustomerID, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&items, &o.Subtotal, &o.Tax, &o.Fees, &o.Total, &o.CreatedBy, &o.CancelReason, &timeline, &o.Version,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if orderNo.Valid {
		o.OrderNumber = &orderNo.String
	}

	if invoiceNo.Valid {
		o.InvoiceNumber = &invoiceNo.String
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}

	if err := json.Unmarshal(timeline, &o.Timeline); err != nil {
		return nil, fmt.Errorf("decoding timeline: %w", err)
	}

	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()

	return &o, nil
}

func getOrder(ctx context.Context, q querier, id uuid.UUID) (*order.Order, error) {
	query := `SELECT ` + selectOrderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrNotFound
		}

		return nil, fmt.Errorf("getting order: %w", err)
	}

	return o, nil
}

func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return getOrder(ctx, s.db, id)
}

func (s *Store) LoadOrders(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	query := `SELECT ` + selectOrderColumns + ` FROM orders WHERE 1 = 1`

	var args []any

	argIdx := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.CustomerID != nil {
		query += fmt.Sprintf(" AND customer_id = $%d", argIdx)

		args = append(args, *filter.CustomerID)
		argIdx++
	}

	if filter.CreatedBy != nil {
		query += fmt.Sprintf(" AND created_by = $%d", argIdx)

		args = append(args, *filter.CreatedBy)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND created_at < $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}

		orders = append(orders, o)
	}

	return orders, rows.Err()
}

func (s *Store) ListMessages(ctx context.Context, orderID uuid.UUID) ([]*order.Message, error) {
	query := `
		SELECT id, order_id, type, channel, status, sent_by, sent_at, details
		FROM messages
		WHERE order_id = $1
		ORDER BY sent_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var msgs []*order.Message

	for rows.Next() {
		var m order.Message
		if err := rows.Scan(&m.ID, &m.OrderID, &m.Type, &m.Channel, &m.Status, &m.By, &m.At, &m.Details); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}

		m.At = m.At.UTC()
		msgs = append(msgs, &m)
	}

	return msgs, rows.Err()
}

// Sequences are not rolled back with the surrounding transaction, so a number
// drawn for a failed accept is skipped rather than handed out again.
func (s *Store) NextOrderNumber(ctx context.Context) (string, error) {
	return s.next(ctx, "order_number_seq", "ORD")
}

func (s *Store) NextInvoiceNumber(ctx context.Context) (string, error) {
	return s.next(ctx, "invoice_number_seq", "INV")
}

func (s *Store) next(ctx context.Context, sequence, prefix string) (string, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT nextval($1::regclass)", sequence).Scan(&n); err != nil {
		return "", fmt.Errorf("drawing from %s: %w", sequence, err)
	}

	return fmt.Sprintf("%s-%d", prefix, n), nil
}

func orderLockKey(id uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte("order"))
	h.Write([]byte{0})
	h.Write(id[:])

	return int64(h.Sum64())
}

type unitOfWork struct {
	tx *sql.Tx
}

// Begin opens a transaction holding an advisory lock on the order until it ends.
func (s *Store) Begin(ctx context.Context, orderID uuid.UUID) (order.UnitOfWork, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning order tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", orderLockKey(orderID)); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring order lock: %w", err)
	}

	return &unitOfWork{tx: dbTx}, nil
}

func (u *unitOfWork) Commit() error   { return u.tx.Commit() }
func (u *unitOfWork) Rollback() error { return u.tx.Rollback() }

func (u *unitOfWork) GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return getOrder(ctx, u.tx, id)
}

func (u *unitOfWork) SaveOrder(ctx context.Context, o *order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encoding items: %w", err)
	}

	timeline, err := json.Marshal(o.Timeline)
	if err != nil {
		return fmt.Errorf("encoding timeline: %w", err)
	}

	if o.Version == 0 {
		err = u.insert(ctx, o, items, timeline)
	} else {
		err = u.update(ctx, o, items, timeline)
	}

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", order.ErrConcurrency, pgErr.ConstraintName)
		}

		return err
	}

	o.Version++

	return nil
}

func (u *unitOfWork) insert(ctx context.Context, o *order.Order, items, timeline []byte) error {
	query := `
		INSERT INTO orders (
			id, order_number, invoice_number, customer_id, status, payment_status, payment_method,
			items, subtotal, tax, fees, total, created_by, cancel_reason, timeline, version,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 1, $16, $17)
	`

	_, err := u.tx.ExecContext(ctx, query,
		o.ID, o.OrderNumber, o.InvoiceNumber, o.CustomerID, o.Status, o.PaymentStatus, o.PaymentMethod,
		items, o.Subtotal, o.Tax, o.Fees, o.Total, o.CreatedBy, o.CancelReason, timeline,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	return nil
}

func (u *unitOfWork) update(ctx context.Context, o *order.Order, items, timeline []byte) error {
	query := `
		UPDATE orders
		SET order_number = $1, invoice_number = $2, customer_id = $3, status = $4,
			payment_status = $5, payment_method = $6, items = $7, subtotal = $8, tax = $9,
			fees = $10, total = $11, cancel_reason = $12, timeline = $13,
			version = version + 1, updated_at = $14
		WHERE id = $15 AND version = $16
	`

	res, err := u.tx.ExecContext(ctx, query,
		o.OrderNumber, o.InvoiceNumber, o.CustomerID, o.Status,
		o.PaymentStatus, o.PaymentMethod, items, o.Subtotal, o.Tax,
		o.Fees, o.Total, o.CancelReason, timeline,
		o.UpdatedAt,
		o.ID, o.Version,
	)
	if err != nil {
		return fmt.Errorf("updating order: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("%w: order %s changed since version %d", order.ErrConcurrency, o.ID, o.Version)
	}

	return nil
}

func (u *unitOfWork) AppendMessage(ctx context.Context, m *order.Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	query := `
		INSERT INTO messages (id, order_id, type, channel, status, sent_by, sent_at, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if _, err := u.tx.ExecContext(ctx, query,
		m.ID, m.OrderID, m.Type, m.Channel, m.Status, m.By, m.At, m.Details,
	); err != nil {
		return fmt.Errorf("appending message: %w", err)
	}

	return nil
}
