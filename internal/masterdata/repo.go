package masterdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradedesk/tradedesk/internal/platform/db"
	"github.com/tradedesk/tradedesk/internal/platform/httpx"
	"github.com/tradedesk/tradedesk/internal/shared"
)

// Repository stores records of one kind.
type Repository[T Record] interface {
	List(ctx context.Context, q Query) ([]T, int, error)
	Get(ctx context.Context, id uuid.UUID) (T, error)
	Create(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, rec T) (T, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repo[T Record] struct {
	db   db.Querier
	kind Kind[T]
}

// NewRepository returns a PostgreSQL backed repository for kind.
func NewRepository[T Record](pool *pgxpool.Pool, kind Kind[T]) Repository[T] {
	return &repo[T]{db: pool, kind: kind}
}

// listSQL renders the count and page statements for q.
func (k Kind[T]) listSQL(q Query) (count, list string, args []any) {
	var conditions []string
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if q.Search != "" && len(k.Search) > 0 {
		p := arg("%" + q.Search + "%")
		parts := make([]string, len(k.Search))
		for i, col := range k.Search {
			parts[i] = fmt.Sprintf("%s ILIKE %s", col, p)
		}
		conditions = append(conditions, "("+strings.Join(parts, " OR ")+")")
	}
	cols := make([]string, 0, len(q.Filters))
	for col := range q.Filters {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		conditions = append(conditions, fmt.Sprintf("%s = %s", col, arg(q.Filters[col])))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	count = fmt.Sprintf("SELECT COUNT(*) FROM %s%s", k.Table, where)
	list = fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s", k.Select, k.Table, where, k.Order)
	if q.Page.PerPage > 0 {
		list += fmt.Sprintf(" LIMIT %d OFFSET %d", q.Page.PerPage, q.Page.Offset())
	}
	return count, list, args
}

func (k Kind[T]) insertSQL() string {
	cols := append([]string{"id", "created_at"}, k.Columns...)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		k.Table, strings.Join(cols, ", "), db.Placeholders(1, len(cols)), k.Select)
}

func (k Kind[T]) updateSQL() string {
	sets := make([]string, len(k.Columns))
	for i, col := range k.Columns {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+2)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $1 RETURNING %s",
		k.Table, strings.Join(sets, ", "), k.Select)
}

func (r *repo[T]) notFound() error {
	return fmt.Errorf("%w: %s not found", shared.ErrNotFound, r.kind.Name)
}

func (r *repo[T]) List(ctx context.Context, q Query) ([]T, int, error) {
	countSQL, listSQL, args := r.kind.listSQL(q)

	var total int
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", r.kind.Table, err)
	}

	rows, err := r.db.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", r.kind.Table, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		rec, err := r.kind.Scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", r.kind.Name, err)
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (r *repo[T]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", r.kind.Select, r.kind.Table)
	rec, err := r.kind.Scan(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, r.notFound()
	}
	return rec, err
}

func (r *repo[T]) Create(ctx context.Context, rec T) (T, error) {
	args := append([]any{rec.Key(), rec.Created()}, r.kind.Values(rec)...)
	out, err := r.kind.Scan(r.db.QueryRow(ctx, r.kind.insertSQL(), args...))
	if err != nil {
		return out, httpx.TranslatePG(fmt.Errorf("insert %s: %w", r.kind.Name, err), r.kind.Name)
	}
	return out, nil
}

func (r *repo[T]) Update(ctx context.Context, rec T) (T, error) {
	args := append([]any{rec.Key()}, r.kind.Values(rec)...)
	out, err := r.kind.Scan(r.db.QueryRow(ctx, r.kind.updateSQL(), args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return out, r.notFound()
	}
	if err != nil {
		return out, httpx.TranslatePG(fmt.Errorf("update %s: %w", r.kind.Name, err), r.kind.Name)
	}
	return out, nil
}

func (r *repo[T]) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.kind.Table), id)
	if err != nil {
		return httpx.TranslatePG(fmt.Errorf("delete %s: %w", r.kind.Name, err), r.kind.Name)
	}
	if tag.RowsAffected() == 0 {
		return r.notFound()
	}
	return nil
}
