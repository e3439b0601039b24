// Package service содержит бизнес-операции демо-сервиса.
//
// Операции намеренно простые: поиск и создание пользователя, искусственная
// задержка, случайная ошибка. Случайность вынесена в Chaos, чтобы тесты
// могли зафиксировать исход.
package service
