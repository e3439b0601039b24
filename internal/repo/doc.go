// Package repo хранит пользователей.
//
// MemoryUserRepo используется по умолчанию, PostgresUserRepo — когда задан DB_URL.
// Оба возвращают ErrNotFound и ErrAlreadyExists.
package repo
