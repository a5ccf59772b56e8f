package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound возвращается, если запись с указанным идентификатором отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrValidation — входные данные не прошли проверку, запись не создана.
	ErrValidation = errors.New("validation failed")
	// ErrStorageCorrupt — документ в хранилище не удалось разобрать.
	// Поглощается на уровне DocumentStore и наружу не пробрасывается.
	ErrStorageCorrupt = errors.New("stored document is corrupt")
	// ErrWriteFailure — документ не удалось записать. Ошибка Save* логируется и поглощается,
	// Update* возвращает её, если слот не удалось прочитать.
	ErrWriteFailure = errors.New("document write failed")
	// ErrSlotNotFound возвращается бэкендом, если слот ещё ни разу не записывался.
	ErrSlotNotFound = errors.New("document slot not found")
	// ErrIDSpaceExhausted — в документе уже есть id math.MaxInt64, следующий выдать нельзя.
	ErrIDSpaceExhausted = errors.New("id space exhausted")
)

// ValidationError описывает отклонённое поле с человекочитаемой причиной.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError создаёт ошибку валидации для поля.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsNotFound проверяет, относится ли ошибка к отсутствующей записи.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation проверяет, является ли ошибка ошибкой валидации.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
