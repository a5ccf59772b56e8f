package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// documentBackendInMemory держит документы в памяти процесса (для разработки и тестов).
// Содержимое теряется при перезапуске.
type documentBackendInMemory struct {
	mu    sync.RWMutex
	slots map[domain.DocumentSlot][]byte
}

// NewDocumentBackend возвращает пустой in-memory бэкенд.
func NewDocumentBackend() domain.DocumentBackend {
	return &documentBackendInMemory{
		slots: make(map[domain.DocumentSlot][]byte),
	}
}

// Read возвращает копию байтов слота или ErrSlotNotFound.
func (b *documentBackendInMemory) Read(_ context.Context, slot domain.DocumentSlot) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.slots[slot]
	if !ok {
		return nil, domain.ErrSlotNotFound
	}
	return append([]byte(nil), data...), nil
}

// Write заменяет содержимое слота копией data.
func (b *documentBackendInMemory) Write(_ context.Context, slot domain.DocumentSlot, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.slots[slot] = append([]byte(nil), data...)
	return nil
}

func (b *documentBackendInMemory) Name() string {
	return "memory"
}

var _ domain.DocumentBackend = (*documentBackendInMemory)(nil)
