package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"bazaarscan/internal/catalog"
	"bazaarscan/internal/config"
	"bazaarscan/internal/fingerprint"
	"bazaarscan/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

// writeBoard renders a row of icons for seeds and returns the screenshot path
// with --region flags locating each icon.
func writeBoard(t *testing.T, dir string, seeds ...int64) (string, []string) {
	t.Helper()
	img := testsupport.Solid(1000, 120, 128)
	regions := testsupport.RowRegions(10, 10, 20, 80, 20)
	for i, seed := range seeds {
		testsupport.DrawIcon(img, regions[i], seed)
	}
	path := filepath.Join(dir, "board.png")
	testsupport.WritePNG(t, path, img)
	return path, regionFlags(regions)
}

func regionFlags(regions []fingerprint.Region) []string {
	flags := make([]string, 0, 2*len(regions))
	for _, r := range regions {
		flags = append(flags, "--region", fmt.Sprintf("%d,%d,%d,%d", r.Left, r.Top, r.Width, r.Height))
	}
	return flags
}

// writeIconManifest writes icon PNGs and a manifest referencing them by
// relative file name.
func writeIconManifest(t *testing.T, dir string, ids []string, seeds []int64) string {
	t.Helper()
	items := make([]catalog.ManifestItem, len(ids))
	for i, id := range ids {
		testsupport.WritePNG(t, filepath.Join(dir, id+".png"), testsupport.Icon(seeds[i], 64))
		items[i] = catalog.ManifestItem{ID: id, Name: "Item " + id, ImageFile: id + ".png"}
	}
	return testsupport.WriteManifest(t, dir, items)
}
