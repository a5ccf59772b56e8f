package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func TestDocumentBackend_MissingSlot(t *testing.T) {
	backend := memory.NewDocumentBackend()

	if _, err := backend.Read(context.Background(), domain.SlotOrders); !errors.Is(err, domain.ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestDocumentBackend_WriteRead(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewDocumentBackend()

	data := []byte(`[{"id":1}]`)
	if err := backend.Write(ctx, domain.SlotOrders, data); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	// изменение исходного буфера не должно влиять на хранимые данные
	data[0] = 'X'

	got, err := backend.Read(ctx, domain.SlotOrders)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != `[{"id":1}]` {
		t.Fatalf("unexpected content: %s", got)
	}

	got[0] = 'Y'
	again, _ := backend.Read(ctx, domain.SlotOrders)
	if string(again) != `[{"id":1}]` {
		t.Fatalf("read must return a copy, got %s", again)
	}
}

func TestDocumentBackend_SlotsAreIndependent(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewDocumentBackend()

	if err := backend.Write(ctx, domain.SlotCatalog, []byte(`{}`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := backend.Read(ctx, domain.SlotOrders); !errors.Is(err, domain.ErrSlotNotFound) {
		t.Fatalf("orders slot must stay missing, got %v", err)
	}
	if backend.Name() != "memory" {
		t.Fatalf("unexpected name: %s", backend.Name())
	}
}
