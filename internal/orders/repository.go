package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tradedesk/tradedesk/internal/platform/db"
	"github.com/tradedesk/tradedesk/internal/platform/httpx"
	"github.com/tradedesk/tradedesk/internal/shared"
)

// Repository persists orders.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id uuid.UUID) (Order, error)
	List(ctx context.Context, f Filter) ([]Order, error)
	Snapshot(ctx context.Context, since time.Time) (StatsSnapshot, error)

	CustomerBlocked(ctx context.Context, id uuid.UUID) (bool, error)
	CargoExists(ctx context.Context, id uuid.UUID) (bool, error)
	ItemStock(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error)

	Insert(ctx context.Context, o Order, lines []SubmissionLine) error
	Update(ctx context.Context, id uuid.UUID, sub Submission) error
	LockStatus(ctx context.Context, id uuid.UUID) (Status, error)
	SetStatus(ctx context.Context, id uuid.UUID, to Status) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db   db.Querier
	pool *pgxpool.Pool
}

// NewRepository returns a PostgreSQL backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const selectOrder = `
	SELECT o.id, o.type, o.status, o.customer_id, c.name,
	       o.cargo_id, COALESCE(cg.name, ''),
	       o.created_by, o.created_by_type, COALESCE(s.name, a.name, ''),
	       o.created_at
	FROM orders o
	JOIN customers c ON c.id = o.customer_id
	LEFT JOIN cargo cg ON cg.id = o.cargo_id
	LEFT JOIN salesmen s ON o.created_by_type = 'salesman' AND s.id = o.created_by
	LEFT JOIN admins a ON o.created_by_type = 'admin' AND a.id = o.created_by`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o         Order
		cargoID   *uuid.UUID
		cargoName string
		creatorID *uuid.UUID
		creator   string
	)
	err := row.Scan(&o.ID, &o.Type, &o.Status, &o.Customer.ID, &o.Customer.Name,
		&cargoID, &cargoName, &creatorID, &o.CreatedByType, &creator, &o.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	if cargoID != nil {
		o.Cargo = &Ref{ID: *cargoID, Name: cargoName}
	}
	if creatorID != nil {
		o.CreatedBy = &Ref{ID: *creatorID, Name: creator}
	}
	o.Items = []Line{}
	return o, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, selectOrder+` WHERE o.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("%w: order not found", shared.ErrNotFound)
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	list := []Order{o}
	if err := r.attachLines(ctx, list); err != nil {
		return Order{}, err
	}
	return list[0], nil
}

func (r *repository) List(ctx context.Context, f Filter) ([]Order, error) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conditions = append(conditions, fmt.Sprintf("(c.name ILIKE %s OR o.id::text ILIKE %s)", p, p))
	}
	if f.Status != "" {
		conditions = append(conditions, "o.status = "+arg(string(f.Status)))
	}
	if f.Type != "" {
		conditions = append(conditions, "o.type = "+arg(string(f.Type)))
	}
	if from, to, ok := f.Period(time.UTC); ok {
		conditions = append(conditions, "o.created_at >= "+arg(from), "o.created_at < "+arg(to))
	}

	query := selectOrder
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY o.created_at DESC, o.id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachLines loads the lines of every order in one query.
func (r *repository) attachLines(ctx context.Context, list []Order) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, len(list))
	index := make(map[uuid.UUID]int, len(list))
	for i, o := range list {
		ids[i] = o.ID.String()
		index[o.ID] = i
	}
	rows, err := r.db.Query(ctx, `
		SELECT oi.order_id, i.id, i.name, i.price::text, i.quantity, oi.quantity
		FROM order_items oi
		JOIN items i ON i.id = oi.item_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.order_id, oi.position`, ids)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID uuid.UUID
			line    Line
			price   string
		)
		if err := rows.Scan(&orderID, &line.Item.ID, &line.Item.Name, &price, &line.Item.Quantity, &line.Quantity); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if line.Item.Price, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("parse price %q: %w", price, err)
		}
		i := index[orderID]
		list[i].Items = append(list[i].Items, line)
	}
	return rows.Err()
}

func (r *repository) Snapshot(ctx context.Context, since time.Time) (StatsSnapshot, error) {
	snap := StatsSnapshot{ByStatus: make(map[Status]int, len(Statuses))}

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return snap, fmt.Errorf("count orders: %w", err)
	}
	for rows.Next() {
		var (
			st Status
			n  int
		)
		if err := rows.Scan(&st, &n); err != nil {
			rows.Close()
			return snap, err
		}
		snap.ByStatus[st] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, err
	}

	err = r.db.QueryRow(ctx, `SELECT (SELECT COUNT(*) FROM customers), (SELECT COUNT(*) FROM salesmen)`).
		Scan(&snap.Customers, &snap.Salesmen)
	if err != nil {
		return snap, fmt.Errorf("count parties: %w", err)
	}

	rows, err = r.db.Query(ctx, `
		SELECT to_char(date_trunc('month', created_at AT TIME ZONE 'UTC'), 'YYYY-MM') AS month,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'delivered')
		FROM orders
		WHERE created_at >= $1
		GROUP BY month`, since)
	if err != nil {
		return snap, fmt.Errorf("order trends: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			label string
			m     MonthCount
		)
		if err := rows.Scan(&label, &m.Orders, &m.Delivered); err != nil {
			return snap, err
		}
		if m.Month, err = time.Parse("2006-01", label); err != nil {
			return snap, fmt.Errorf("parse month %q: %w", label, err)
		}
		snap.Months = append(snap.Months, m)
	}
	return snap, rows.Err()
}

func (r *repository) CustomerBlocked(ctx context.Context, id uuid.UUID) (bool, error) {
	var blocked bool
	err := r.db.QueryRow(ctx, `SELECT is_blocked FROM customers WHERE id = $1`, id).Scan(&blocked)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("%w: customer not found", shared.ErrNotFound)
	}
	return blocked, err
}

func (r *repository) CargoExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cargo WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) ItemStock(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	rows, err := r.db.Query(ctx, `SELECT id, quantity FROM items WHERE id = ANY($1::uuid[])`, strs)
	if err != nil {
		return nil, fmt.Errorf("item stock: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id  uuid.UUID
			qty int
		)
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		out[id] = qty
	}
	return out, rows.Err()
}

func (r *repository) Insert(ctx context.Context, o Order, lines []SubmissionLine) error {
	var cargo, creator *uuid.UUID
	if o.Cargo != nil {
		cargo = &o.Cargo.ID
	}
	if o.CreatedBy != nil {
		creator = &o.CreatedBy.ID
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO orders (id, type, status, customer_id, cargo_id, created_by, created_by_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, string(o.Type), string(o.Status), o.Customer.ID, cargo, creator, string(o.CreatedByType), o.CreatedAt)
	if err != nil {
		return httpx.TranslatePG(fmt.Errorf("insert order: %w", err), "order")
	}
	return r.insertLines(ctx, o.ID, lines)
}

func (r *repository) insertLines(ctx context.Context, orderID uuid.UUID, lines []SubmissionLine) error {
	for i, l := range lines {
		_, err := r.db.Exec(ctx, `
			INSERT INTO order_items (order_id, position, item_id, quantity)
			VALUES ($1, $2, $3, $4)`, orderID, i+1, l.Item, l.Quantity)
		if err != nil {
			return httpx.TranslatePG(fmt.Errorf("insert order item: %w", err), "order item")
		}
	}
	return nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, sub Submission) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET type = $2, customer_id = $3, cargo_id = $4, updated_at = NOW()
		WHERE id = $1`, id, string(sub.Type), sub.Customer, sub.Cargo)
	if err != nil {
		return httpx.TranslatePG(fmt.Errorf("update order: %w", err), "order")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order not found", shared.ErrNotFound)
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("clear order items: %w", err)
	}
	return r.insertLines(ctx, id, sub.Items)
}

func (r *repository) LockStatus(ctx context.Context, id uuid.UUID) (Status, error) {
	var st Status
	err := r.db.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&st)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: order not found", shared.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("lock order: %w", err)
	}
	return st, nil
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, to Status) error {
	_, err := r.db.Exec(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(to))
	if err != nil {
		return fmt.Errorf("set order status: %w", err)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order not found", shared.ErrNotFound)
	}
	return nil
}
