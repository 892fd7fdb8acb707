package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bazaarscan/internal/catalog"
	"bazaarscan/internal/config"
	"bazaarscan/internal/testsupport"
)

func TestCatalogImportAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	manifest := writeIconManifest(t, t.TempDir(), []string{"a", "b"}, []int64{11, 12})

	out, _, err := runCLI(t, env.configPath, "catalog", "import", manifest)
	if err != nil {
		t.Fatalf("catalog import: %v", err)
	}
	requireContains(t, out, "Imported 2 entries (2 changed, 2 total)")

	out, _, err = runCLI(t, env.configPath, "catalog", "import", manifest)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	requireContains(t, out, "(0 changed, 2 total)")

	out, _, err = runCLI(t, env.configPath, "--format", "json", "catalog", "list")
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	var entries []catalog.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode list: %v\n%s", err, out)
	}
	if len(entries) != 2 || entries[0].Name != "Item a" || entries[1].Name != "Item b" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	out, _, err = runCLI(t, env.configPath, "--format", "table", "catalog", "list", "--limit", "1")
	if err != nil {
		t.Fatalf("catalog list table: %v", err)
	}
	requireContains(t, out, "Item a")
	if strings.Contains(out, "Item b") {
		t.Fatalf("expected limit to drop second entry:\n%s", out)
	}
}

func TestCatalogWarmAndPurge(t *testing.T) {
	dir := t.TempDir()
	manifest := writeIconManifest(t, dir, []string{"a", "b", "c"}, []int64{21, 22, 23})
	env := setupCLITestEnv(t, testsupport.WithManifest(manifest), testsupport.WithCacheBackend(config.CacheBackendSQLite))

	out, _, err := runCLI(t, env.configPath, "--format", "json", "catalog", "warm")
	if err != nil {
		t.Fatalf("catalog warm: %v", err)
	}
	var report warmReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode warm report: %v\n%s", err, out)
	}
	if report.Considered != 3 || report.References != 3 || report.CacheHits != 0 || report.Failed != 0 {
		t.Fatalf("unexpected first warm %+v", report)
	}

	out, _, err = runCLI(t, env.configPath, "--format", "json", "catalog", "warm")
	if err != nil {
		t.Fatalf("second warm: %v", err)
	}
	report = warmReport{}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode warm report: %v", err)
	}
	if report.CacheHits != 3 {
		t.Fatalf("expected persistent cache hits, got %+v", report)
	}

	out, _, err = runCLI(t, env.configPath, "catalog", "purge")
	if err != nil {
		t.Fatalf("catalog purge: %v", err)
	}
	requireContains(t, out, "Removed 3 cached fingerprints")
}

func TestCatalogWarmReportsFailures(t *testing.T) {
	dir := t.TempDir()
	manifest := writeIconManifest(t, dir, []string{"a", "b"}, []int64{31, 32})
	if err := os.Remove(filepath.Join(dir, "b.png")); err != nil {
		t.Fatalf("remove icon: %v", err)
	}
	env := setupCLITestEnv(t, testsupport.WithManifest(manifest))

	out, stderr, err := runCLI(t, env.configPath, "--format", "json", "catalog", "warm")
	if err != nil {
		t.Fatalf("catalog warm: %v", err)
	}
	requireContains(t, stderr, "cache_backend is memory")
	var report warmReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode warm report: %v", err)
	}
	if report.References != 1 || report.Failed != 1 || len(report.Failures) != 1 || report.Failures[0].ID != "b" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestCatalogImportRequiresDatabase(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Catalog.DatabasePath = ""
	writeTestConfig(t, env.configPath, env.cfg)
	manifest := writeIconManifest(t, t.TempDir(), []string{"a"}, []int64{41})

	if _, _, err := runCLI(t, env.configPath, "catalog", "import", manifest); err == nil {
		t.Fatal("expected import without database_path to fail")
	}
	if _, _, err := runCLI(t, env.configPath, "catalog", "list"); err == nil {
		t.Fatal("expected list without any catalog source to fail")
	}
}
