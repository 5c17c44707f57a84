package domain

import "errors"

// Ошибки жизненного цикла. Сравнивать через errors.Is, bulk-операции
// преобразуют их в per-item причины.
var (
	// ErrNotFound возвращается, если сущность не существует или принадлежит
	// другому пользователю (для вызывающего эти случаи неразличимы)
	ErrNotFound = errors.New("not found")

	// ErrAlreadyDeleted возвращается при повторном мягком удалении
	ErrAlreadyDeleted = errors.New("already deleted")

	// ErrNotDeleted возвращается при попытке восстановить живую сущность
	ErrNotDeleted = errors.New("not deleted")

	// ErrUnauthorized возвращается при отсутствии административной роли
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation возвращается при некорректном входе (например, пустой список id)
	ErrValidation = errors.New("validation error")
)
