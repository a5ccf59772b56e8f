package domain_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestCatalogNormalize_KeysAlwaysPresent(t *testing.T) {
	var catalog domain.Catalog
	catalog.Normalize()

	raw, err := json.Marshal(catalog)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(raw) != `{"products":[],"posts":[]}` {
		t.Fatalf("unexpected json: %s", raw)
	}
}

func TestCatalogFindProduct(t *testing.T) {
	catalog := domain.Catalog{Products: []domain.Product{{ID: 1, Name: "Laptop"}, {ID: 4, Name: "Phone"}}}

	p, ok := catalog.FindProduct(4)
	if !ok || p.Name != "Phone" {
		t.Fatalf("expected Phone, got %+v (found=%v)", p, ok)
	}
	if _, ok := catalog.FindProduct(2); ok {
		t.Fatal("expected product 2 to be absent")
	}
}

func TestCatalogAllocate_NeverReusesDeletedMax(t *testing.T) {
	catalog := domain.Catalog{Products: []domain.Product{{ID: 3}, {ID: 7}, {ID: 2}}}

	catalog.RememberIDs()
	catalog.Products = catalog.Products[:1] // удалили 7 и 2

	if got, err := catalog.AllocateProductID(); err != nil || got != 8 {
		t.Fatalf("expected 8 after deleting the max id, got %d (%v)", got, err)
	}
	if got, err := catalog.AllocateAnnouncementID(); err != nil || got != 1 {
		t.Fatalf("expected 1 for empty posts, got %d (%v)", got, err)
	}
}

func TestCatalogAllocate_RefusesToWrapAround(t *testing.T) {
	catalog := domain.Catalog{Products: []domain.Product{{ID: math.MaxInt64}}}
	if _, err := catalog.AllocateProductID(); !errors.Is(err, domain.ErrIDSpaceExhausted) {
		t.Fatalf("expected ErrIDSpaceExhausted, got %v", err)
	}

	catalog = domain.Catalog{LastIDs: domain.IDWatermarks{Posts: math.MaxInt64}}
	if _, err := catalog.AllocateAnnouncementID(); !errors.Is(err, domain.ErrIDSpaceExhausted) {
		t.Fatalf("expected ErrIDSpaceExhausted from watermark, got %v", err)
	}
	if catalog.LastIDs.Posts != math.MaxInt64 {
		t.Fatal("failed allocation must not move the watermark")
	}
}

func TestCatalogLastIDs_OmittedWhenZero(t *testing.T) {
	raw, err := json.Marshal(domain.EmptyCatalog())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(raw) != `{"products":[],"posts":[]}` {
		t.Fatalf("unexpected json: %s", raw)
	}

	withMarks := domain.Catalog{LastIDs: domain.IDWatermarks{Products: 4}}
	withMarks.Normalize()
	raw, err = json.Marshal(withMarks)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(raw) != `{"products":[],"posts":[],"last_ids":{"products":4,"posts":0}}` {
		t.Fatalf("unexpected json: %s", raw)
	}
}
