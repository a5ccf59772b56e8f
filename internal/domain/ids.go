package domain

import (
	"math"
	"strconv"
	"strings"
)

// MaxID возвращает наибольший идентификатор коллекции или 0 для пустой.
func MaxID[T any](items []T, idOf func(T) int64) int64 {
	var maxID int64
	for _, item := range items {
		if id := idOf(item); id > maxID {
			maxID = id
		}
	}
	return maxID
}

// NextID выделяет следующий идентификатор в пространстве коллекции: 1 для пустой,
// иначе max+1. Удалённые идентификаторы не переиспользуются, пропуски допустимы.
// Если max уже равен math.MaxInt64, возвращает ErrIDSpaceExhausted.
func NextID[T any](items []T, idOf func(T) int64) (int64, error) {
	return nextAfter(MaxID(items, idOf))
}

func nextAfter(id int64) (int64, error) {
	if id == math.MaxInt64 {
		return 0, ErrIDSpaceExhausted
	}
	return id + 1, nil
}

// ProductID, AnnouncementID и OrderID — селекторы для NextID.
func ProductID(p Product) int64           { return p.ID }
func AnnouncementID(a Announcement) int64 { return a.ID }
func OrderID(o Order) int64               { return o.ID }

// ParseID разбирает идентификатор из строки цифр (как он приходит из маршрута).
func ParseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, NewValidationError("id", "is required")
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, NewValidationError("id", "must contain digits only")
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, NewValidationError("id", "is out of range")
	}
	return id, nil
}
