package domain

import "time"

// UserStatusActive — статус нового пользователя.
const UserStatusActive = "active"

// User — запись пользователя демо-сервиса.
//
// Хранится в процессе (map по ID) или, опционально, в Postgres.
// Уникальность — только по ID.
type User struct {
	// ID — идентификатор пользователя (UUID, генерируется API).
	ID string `json:"id"`

	// Name — имя, обязательное поле при создании.
	Name string `json:"name"`

	// Email — необязательный адрес, по умолчанию пустой.
	Email string `json:"email"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// Status — статус пользователя ("active").
	Status string `json:"status"`
}

// NewUser создаёт активного пользователя.
func NewUser(id, name, email string, now time.Time) *User {
	return &User{
		ID:        id,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		Status:    UserStatusActive,
	}
}
