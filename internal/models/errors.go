package models

import (
	"errors"
	"fmt"
)

// Доменные ошибки ядра. Все слои выше сравнивают их через errors.Is.
var (
	// ErrValidation — нарушены ограничения полей (длина, обязательность, формат).
	ErrValidation = errors.New("validation failed")
	// ErrSlugCollision — slug занят и подобрать свободный вариант не удалось.
	ErrSlugCollision = errors.New("slug collision")
	// ErrInvalidTransition — переход статуса не разрешён из текущего состояния.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrCommentNotFound — parent_id или id комментария не найден в этой статье.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrNotAuthorized — роль или владение не позволяют действие.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrNotFound — статья не найдена.
	ErrNotFound = errors.New("not found")
)

// TransitionError — отказ перехода с указанием текущего и запрошенного статуса.
// errors.Is(err, ErrInvalidTransition) == true.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
