package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const opTimeout = 5 * time.Second

// documentBackend хранит слоты в таблице documents. Тело хранится как TEXT, а не JSONB:
// повреждённое содержимое должно сохраниться байт в байт, чтобы его разобрал DocumentStore.
type documentBackend struct {
	db *sql.DB
}

// NewDocumentBackend создаёт PostgreSQL-реализацию DocumentBackend.
func NewDocumentBackend(store *Store) domain.DocumentBackend {
	return &documentBackend{db: store.DB()}
}

func (b *documentBackend) Read(ctx context.Context, slot domain.DocumentSlot) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var body string
	err := b.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE slot = $1`, string(slot)).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSlotNotFound
		}
		return nil, fmt.Errorf("select document %s: %w", slot, err)
	}
	return []byte(body), nil
}

func (b *documentBackend) Write(ctx context.Context, slot domain.DocumentSlot, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := b.db.ExecContext(ctx, `
		INSERT INTO documents (slot, body, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (slot) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
	`, string(slot), string(data))
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", slot, err)
	}
	return nil
}

func (b *documentBackend) Name() string {
	return "postgres"
}

var _ domain.DocumentBackend = (*documentBackend)(nil)
