package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shaiso/obsdemo/internal/domain"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"wrapped unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"other sqlstate", &pgconn.PgError{Code: "23502"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestPostgresUserRepo требует живой Postgres: TEST_DB_URL.
func TestPostgresUserRepo(t *testing.T) {
	dsn := os.Getenv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("TEST_DB_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer pool.Close()

	r := NewPostgresUserRepo(pool)
	if err := r.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	id := fmt.Sprintf("test-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM demo_users WHERE id = $1`, id)
	})

	before, err := r.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}

	u := domain.NewUser(id, "Jane", "jane@example.com", time.Now().UTC().Truncate(time.Millisecond))
	if err := r.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Create(ctx, u); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("duplicate Create error = %v, want ErrAlreadyExists", err)
	}

	got, err := r.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Jane" || got.Email != "jane@example.com" || got.Status != domain.UserStatusActive {
		t.Errorf("unexpected user %+v", got)
	}
	if !got.CreatedAt.Equal(u.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, u.CreatedAt)
	}

	if _, err := r.GetByID(ctx, id+"-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID missing error = %v, want ErrNotFound", err)
	}

	after, err := r.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if after != before+1 {
		t.Errorf("Count = %d, want %d", after, before+1)
	}
}
