package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/obsdemo/internal/domain"
)

// schema — DDL таблицы пользователей.
const schema = `
	CREATE TABLE IF NOT EXISTS demo_users (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL DEFAULT '',
		status     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)
`

// PostgresUserRepo — хранилище пользователей в Postgres.
type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepo создаёт новый PostgresUserRepo.
func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

// EnsureSchema создаёт таблицу demo_users, если её нет.
func (r *PostgresUserRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Create сохраняет пользователя.
func (r *PostgresUserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO demo_users (id, name, email, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Status,
		user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID возвращает пользователя по ID.
func (r *PostgresUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, name, email, status, created_at
		FROM demo_users
		WHERE id = $1
	`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Status,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

// Count возвращает количество пользователей.
func (r *PostgresUserRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM demo_users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
