package testsupport

import (
	"context"
	"testing"

	"bazaarscan/internal/catalog"
	"bazaarscan/internal/config"
)

// MustOpenStore opens the catalog store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.OpenStore(cfg.Catalog.DatabasePath)
	if err != nil {
		t.Fatalf("catalog.OpenStore: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedStore upserts entries into store.
func SeedStore(t testing.TB, store *catalog.Store, entries []catalog.Entry) {
	t.Helper()

	if _, err := store.Upsert(context.Background(), entries); err != nil {
		t.Fatalf("store.Upsert: %v", err)
	}
}
