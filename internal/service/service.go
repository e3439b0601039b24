package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/obsdemo/internal/domain"
	"github.com/shaiso/obsdemo/internal/repo"
)

// Диапазоны имитированных задержек.
const (
	GetUserDelayMin    = 50 * time.Millisecond
	GetUserDelayMax    = 200 * time.Millisecond
	CreateUserDelayMin = 100 * time.Millisecond
	CreateUserDelayMax = 300 * time.Millisecond
	SlowDelayMin       = 1000 * time.Millisecond
	SlowDelayMax       = 4000 * time.Millisecond
)

// Вероятности сбоев по умолчанию.
const (
	DefaultCreateFailureRate = 0.1
	DefaultErrorRate         = 0.5
)

// UserStore — хранилище пользователей.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Count(ctx context.Context) (int, error)
}

// EventPublisher публикует события о пользователях.
type EventPublisher interface {
	PublishUserCreated(ctx context.Context, user *domain.User) error
}

// CreateUserInput — данные для создания пользователя.
type CreateUserInput struct {
	Name  string
	Email string
}

// Stats — сводка по сервису.
type Stats struct {
	TotalUsers int
	Timestamp  time.Time
}

// Config — зависимости Service.
type Config struct {
	Store  UserStore
	Chaos  Chaos
	Events EventPublisher // опционально
	Logger *slog.Logger

	// Sleep — ожидание с учётом отмены контекста. По умолчанию SleepContext.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time

	CreateFailureRate float64
	ErrorRate         float64
}

// Service — бизнес-операции демо-сервиса.
type Service struct {
	store  UserStore
	chaos  Chaos
	events EventPublisher
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time

	createFailureRate float64
	errorRate         float64
}

// New создаёт Service. Нулевые поля Config заменяются значениями по умолчанию,
// кроме вероятностей: их задаёт конфигурация.
func New(cfg Config) *Service {
	s := &Service{
		store:             cfg.Store,
		chaos:             cfg.Chaos,
		events:            cfg.Events,
		logger:            cfg.Logger,
		sleep:             cfg.Sleep,
		now:               cfg.Now,
		createFailureRate: cfg.CreateFailureRate,
		errorRate:         cfg.ErrorRate,
	}
	if s.store == nil {
		s.store = repo.NewMemoryUserRepo()
	}
	if s.chaos == nil {
		s.chaos = NewRandomChaos(0)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.sleep == nil {
		s.sleep = SleepContext
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SleepContext ждёт d или отмены ctx.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetUser возвращает пользователя по ID.
func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.logger.DebugContext(ctx, "looking up user", "user_id", id)

	if err := s.sleep(ctx, s.chaos.Delay(GetUserDelayMin, GetUserDelayMax)); err != nil {
		return nil, fmt.Errorf("lookup interrupted: %w", err)
	}

	user, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		s.logger.WarnContext(ctx, "user not found", "user_id", id)
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// CreateUser создаёт пользователя с заданным ID.
//
// Имя обязательно. С вероятностью CreateFailureRate операция завершается
// имитированной ошибкой хранилища. Событие user.created публикуется после
// сохранения; ошибка публикации только логируется.
func (s *Service) CreateUser(ctx context.Context, id string, in CreateUserInput) (*domain.User, error) {
	s.logger.DebugContext(ctx, "creating user", "user_id", id)

	if err := s.sleep(ctx, s.chaos.Delay(CreateUserDelayMin, CreateUserDelayMax)); err != nil {
		return nil, fmt.Errorf("create interrupted: %w", err)
	}

	if in.Name == "" {
		return nil, fmt.Errorf("missing required field name: %w", domain.ErrOperationFailed)
	}

	user := domain.NewUser(id, in.Name, in.Email, s.now())

	if s.chaos.ShouldFail(s.createFailureRate) {
		return nil, fmt.Errorf("simulated database error: %w", domain.ErrOperationFailed)
	}

	err := s.store.Create(ctx, user)
	if errors.Is(err, repo.ErrAlreadyExists) {
		return nil, fmt.Errorf("user %s already exists: %w", id, domain.ErrOperationFailed)
	}
	if err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishUserCreated(ctx, user); err != nil {
			s.logger.WarnContext(ctx, "failed to publish user.created", "user_id", id, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "user created", "user_id", id)
	return user, nil
}

// NewUserID генерирует ID нового пользователя.
func NewUserID() string {
	return uuid.NewString()
}

// SimulateSlow ждёт случайное время в [1000, 4000) мс и возвращает его.
func (s *Service) SimulateSlow(ctx context.Context) (time.Duration, error) {
	d := s.chaos.Delay(SlowDelayMin, SlowDelayMax)
	s.logger.DebugContext(ctx, "simulating slow processing", "delay_ms", d.Milliseconds())

	if err := s.sleep(ctx, d); err != nil {
		s.logger.WarnContext(ctx, "slow processing interrupted")
		return 0, fmt.Errorf("slow processing interrupted: %w", err)
	}
	return d, nil
}

// SimulateError завершается ошибкой при force или с вероятностью ErrorRate.
func (s *Service) SimulateError(ctx context.Context, force bool) error {
	if force || s.chaos.ShouldFail(s.errorRate) {
		return fmt.Errorf("simulated error: %w", domain.ErrOperationFailed)
	}
	return nil
}

// RandomValue возвращает случайное значение в [0, 100).
func (s *Service) RandomValue() float64 {
	return s.chaos.Value()
}

// Stats возвращает количество пользователей и время снимка.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count users: %w", err)
	}
	return Stats{TotalUsers: n, Timestamp: s.now()}, nil
}
