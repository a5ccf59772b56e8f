package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

func noEnv(string) string { return "" }

func TestRunRequiresDSN(t *testing.T) {
	var out bytes.Buffer
	err := run(nil, noEnv, &out)
	if err == nil || !strings.Contains(err.Error(), envPostgresDSN) {
		t.Fatalf("expected missing DSN error, got %v", err)
	}
}

func TestRunRejectsUnknownDirection(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-direction", "down", "-dsn", "postgres://unused"}, noEnv, &out)
	if err == nil || !strings.Contains(err.Error(), "unsupported direction") {
		t.Fatalf("expected unsupported direction error, got %v", err)
	}
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"-steps", "2"}, noEnv, &out); err == nil {
		t.Fatal("expected flag parse error")
	}
}

func testPostgresDSN(t *testing.T) string {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("STOREFRONT_POSTGRES_TEST_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv(envPostgresDSN))
	}
	if dsn == "" {
		t.Skip("postgres dsn is not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		t.Skipf("postgres is unavailable: %v", err)
	}
	_ = store.Close()
	return dsn
}

func TestRunUpAndStatus(t *testing.T) {
	dsn := testPostgresDSN(t)
	env := func(key string) string {
		if key == envPostgresDSN {
			return dsn
		}
		return ""
	}

	var out bytes.Buffer
	if err := run([]string{"-direction", "up"}, env, &out); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if !strings.Contains(out.String(), "migrate up ok") {
		t.Fatalf("unexpected output: %q", out.String())
	}

	out.Reset()
	if err := run([]string{"-direction", "status"}, env, &out); err != nil {
		t.Fatalf("migration status: %v", err)
	}
	if !strings.Contains(out.String(), "applied=") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}
