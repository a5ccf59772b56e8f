package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// DocumentBackend хранит каждый слот отдельным JSON-файлом в каталоге данных.
// Запись идёт во временный файл с последующим rename, поэтому читатель видит
// либо старую, либо новую версию документа целиком.
type DocumentBackend struct {
	dir string
}

// NewDocumentBackend создаёт каталог данных (если его нет) и возвращает бэкенд.
func NewDocumentBackend(dir string) (*DocumentBackend, error) {
	if dir == "" {
		return nil, errors.New("data dir is required")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &DocumentBackend{dir: dir}, nil
}

// Path возвращает путь к файлу слота.
func (b *DocumentBackend) Path(slot domain.DocumentSlot) string {
	return filepath.Join(b.dir, filepath.Base(string(slot)))
}

func (b *DocumentBackend) Read(_ context.Context, slot domain.DocumentSlot) ([]byte, error) {
	data, err := os.ReadFile(b.Path(slot))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrSlotNotFound
		}
		return nil, fmt.Errorf("read %s: %w", slot, err)
	}
	return data, nil
}

func (b *DocumentBackend) Write(_ context.Context, slot domain.DocumentSlot, data []byte) (err error) {
	tmp, err := os.CreateTemp(b.dir, "."+filepath.Base(string(slot))+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", slot, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file for %s: %w", slot, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file for %s: %w", slot, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file for %s: %w", slot, err)
	}
	if err = os.Chmod(tmpName, filePerm); err != nil {
		return fmt.Errorf("chmod temp file for %s: %w", slot, err)
	}
	if err = os.Rename(tmpName, b.Path(slot)); err != nil {
		return fmt.Errorf("replace %s: %w", slot, err)
	}
	return nil
}

func (b *DocumentBackend) Name() string {
	return "file"
}

var _ domain.DocumentBackend = (*DocumentBackend)(nil)
