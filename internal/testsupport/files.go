package testsupport

import (
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"bazaarscan/internal/catalog"
)

// WritePNG encodes img to path, creating parent directories.
func WritePNG(t testing.TB, path string, img image.Image) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// WriteManifest writes a JSON catalog manifest into dir and returns its path.
func WriteManifest(t testing.TB, dir string, items []catalog.ManifestItem) string {
	t.Helper()

	data, err := json.MarshalIndent(catalog.Manifest{Count: len(items), Items: items}, "", "  ")
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

// IconCatalog writes one 64px icon PNG per seed into dir and returns matching
// item entries. Entry IDs are the provided ids in order.
func IconCatalog(t testing.TB, dir string, ids []string, seeds []int64) []catalog.Entry {
	t.Helper()

	entries := make([]catalog.Entry, len(ids))
	for i, id := range ids {
		path := filepath.Join(dir, id+".png")
		WritePNG(t, path, Icon(seeds[i], 64))
		entries[i] = catalog.Entry{ID: id, Name: "Item " + id, Kind: catalog.KindItem, ImageURL: path}
	}
	return entries
}
