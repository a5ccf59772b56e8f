package domain_test

import (
	"errors"
	"math"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func mustNextID[T any](t *testing.T, items []T, idOf func(T) int64) int64 {
	t.Helper()
	id, err := domain.NextID(items, idOf)
	if err != nil {
		t.Fatalf("NextID failed: %v", err)
	}
	return id
}

func TestNextID_Empty(t *testing.T) {
	if got := mustNextID(t, []domain.Product{}, domain.ProductID); got != 1 {
		t.Fatalf("expected 1 for empty collection, got %d", got)
	}
	if got := mustNextID[domain.Order](t, nil, domain.OrderID); got != 1 {
		t.Fatalf("expected 1 for nil collection, got %d", got)
	}
}

func TestNextID_MaxPlusOneWithoutReuse(t *testing.T) {
	products := []domain.Product{{ID: 3}, {ID: 7}, {ID: 2}}
	if got := mustNextID(t, products, domain.ProductID); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}

	products = append(products, domain.Product{ID: 8})
	// удаляем 7: максимум остаётся 8, следующий — 9
	filtered := products[:0]
	for _, p := range products {
		if p.ID != 7 {
			filtered = append(filtered, p)
		}
	}
	if got := mustNextID(t, filtered, domain.ProductID); got != 9 {
		t.Fatalf("expected 9 after deleting a middle id, got %d", got)
	}
}

func TestNextID_IndependentSpaces(t *testing.T) {
	posts := []domain.Announcement{{ID: 1}}
	orders := []domain.Order{{ID: 41}}
	if got := mustNextID(t, posts, domain.AnnouncementID); got != 2 {
		t.Fatalf("expected 2 for posts, got %d", got)
	}
	if got := mustNextID(t, orders, domain.OrderID); got != 42 {
		t.Fatalf("expected 42 for orders, got %d", got)
	}
}

func TestNextID_RefusesToOverflow(t *testing.T) {
	orders := []domain.Order{{ID: 5}, {ID: math.MaxInt64}}
	if _, err := domain.NextID(orders, domain.OrderID); !errors.Is(err, domain.ErrIDSpaceExhausted) {
		t.Fatalf("expected ErrIDSpaceExhausted, got %v", err)
	}
	if got := domain.MaxID(orders, domain.OrderID); got != math.MaxInt64 {
		t.Fatalf("unexpected max id %d", got)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "1", want: 1},
		{raw: " 42 ", want: 42},
		{raw: "007", want: 7},
		{raw: "", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "1a", wantErr: true},
		{raw: "99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := domain.ParseID(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
