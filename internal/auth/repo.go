package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradedesk/tradedesk/internal/platform/httpx"
	"github.com/tradedesk/tradedesk/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (Account, error)
	UpsertAdmin(ctx context.Context, name, username, passwordHash string) (uuid.UUID, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByUsername looks the username up among admins first, then salesmen.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (Account, error) {
	const query = `
		SELECT id, name, username, password_hash, 'admin' AS role, created_at FROM admins WHERE username = $1
		UNION ALL
		SELECT id, name, username, password_hash, 'salesman' AS role, created_at FROM salesmen WHERE username = $1
		LIMIT 1`
	var a Account
	err := r.pool.QueryRow(ctx, query, strings.ToLower(username)).
		Scan(&a.ID, &a.Name, &a.Username, &a.PasswordHash, &a.Role, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, shared.ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("find account: %w", err)
	}
	return a, nil
}

// UpsertAdmin creates the admin account or resets its name and password.
func (r *PGRepository) UpsertAdmin(ctx context.Context, name, username, passwordHash string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO admins (id, name, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO UPDATE SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash
		RETURNING id`,
		uuid.New(), name, strings.ToLower(username), passwordHash, time.Now().UTC()).Scan(&id)
	if err != nil {
		return uuid.Nil, httpx.TranslatePG(fmt.Errorf("upsert admin: %w", err), "admin")
	}
	return id, nil
}

var _ Repository = (*PGRepository)(nil)
