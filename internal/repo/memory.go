package repo

import (
	"context"
	"sync"

	"github.com/shaiso/obsdemo/internal/domain"
)

// MemoryUserRepo — хранилище пользователей в памяти процесса.
// Данные теряются при перезапуске.
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepo создаёт пустой MemoryUserRepo.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]domain.User)}
}

// Create сохраняет пользователя. Повторный id — ErrAlreadyExists.
func (r *MemoryUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return ErrAlreadyExists
	}
	r.users[user.ID] = *user
	return nil
}

// GetByID возвращает копию пользователя.
func (r *MemoryUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// Count возвращает количество пользователей.
func (r *MemoryUserRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}
