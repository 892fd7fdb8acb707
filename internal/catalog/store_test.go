package catalog

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStoreUpsertAndList(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	changed, err := store.Upsert(ctx, []Entry{
		{Name: "Boomerang", Kind: KindItem, ImageURL: "https://example.com/images/items/boomerang.png"},
		{Name: "Fireball", Kind: KindSkill, ImageURL: "https://example.com/images/skills/fireball.png"},
		{Name: "", ImageURL: "https://example.com/skip.png"},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if changed != 2 {
		t.Fatalf("expected 2 inserted rows, got %d", changed)
	}

	changed, err = store.Upsert(ctx, []Entry{
		{Name: "Boomerang", Kind: KindItem, ImageURL: "https://example.com/images/items/boomerang-v2.png"},
		{Name: "Fireball", Kind: KindSkill, ImageURL: "https://example.com/images/skills/fireball.png"},
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if changed != 1 {
		t.Fatalf("expected only the changed row to update, got %d", changed)
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "1" || entries[0].ImageURL != "https://example.com/images/items/boomerang-v2.png" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	limited, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit 1, got %d", len(limited))
	}
	count, err := store.Count(ctx)
	if err != nil || count != 2 {
		t.Fatalf("count = %d, %v", count, err)
	}
}
