package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"bazaarscan/internal/services"
)

// Manifest is the document written by the catalog seeding scrapers.
type Manifest struct {
	Count int            `json:"count" yaml:"count"`
	Items []ManifestItem `json:"items" yaml:"items"`
}

// ManifestItem is one scraped catalog image.
type ManifestItem struct {
	ID             string `json:"id,omitempty" yaml:"id,omitempty"`
	Name           string `json:"name" yaml:"name"`
	Kind           string `json:"kind,omitempty" yaml:"kind,omitempty"`
	ImageFile      string `json:"image_file,omitempty" yaml:"image_file,omitempty"`
	SourceImageURL string `json:"source_image_url,omitempty" yaml:"source_image_url,omitempty"`
	PublicImageURL string `json:"public_image_url,omitempty" yaml:"public_image_url,omitempty"`
}

// ReadManifest parses a JSON or YAML manifest file. The format is chosen by
// extension; anything other than .yaml or .yml is read as JSON.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var manifest Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &manifest)
	default:
		err = json.Unmarshal(data, &manifest)
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return manifest, nil
}

// Entries converts manifest items into catalog entries. Items without a name
// or image are skipped, duplicate names (case-folded) keep the first item, and
// relative image files are resolved against baseDir. IDs are unique: a
// repeated ID, such as two names with the same slug, gets a numeric suffix.
func (m Manifest) Entries(baseDir string) []Entry {
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(m.Items))
	ids := make(map[string]struct{}, len(m.Items))
	entries := make([]Entry, 0, len(m.Items))
	for _, item := range m.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		key := fold.String(name)
		if _, dup := seen[key]; dup {
			continue
		}
		url := item.imageURL(baseDir)
		if url == "" {
			continue
		}
		seen[key] = struct{}{}

		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = Slug(name)
		}
		id = uniqueID(id, ids)
		kind := strings.ToLower(strings.TrimSpace(item.Kind))
		if kind == "" {
			kind = KindFromURL(firstNonEmpty(item.PublicImageURL, item.SourceImageURL, item.ImageFile))
			if kind == KindOther && item.PublicImageURL == "" && item.SourceImageURL == "" {
				// Local-only files carry no layout hint.
				kind = ""
			}
		}
		entries = append(entries, Entry{ID: id, Name: name, Kind: kind, ImageURL: url})
	}
	return entries
}

func (item ManifestItem) imageURL(baseDir string) string {
	if u := strings.TrimSpace(item.PublicImageURL); u != "" {
		return u
	}
	if u := strings.TrimSpace(item.SourceImageURL); u != "" {
		return u
	}
	file := strings.TrimSpace(item.ImageFile)
	if file == "" {
		return ""
	}
	if !filepath.IsAbs(file) && baseDir != "" {
		file = filepath.Join(baseDir, file)
	}
	return file
}

// Slug turns a display name into a stable identifier.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// uniqueID returns id, or id-2, id-3, ... when taken, and records the result.
func uniqueID(id string, taken map[string]struct{}) string {
	if id == "" {
		id = "item"
	}
	out := id
	for n := 2; ; n++ {
		if _, dup := taken[out]; !dup {
			break
		}
		out = fmt.Sprintf("%s-%d", id, n)
	}
	taken[out] = struct{}{}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ManifestSource lists entries straight from a manifest file.
type ManifestSource struct {
	Path string
}

// List implements Source.
func (s ManifestSource) List(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.Path) == "" {
		return nil, services.Wrap(services.ErrCatalogQueryFailed, "catalog", "list manifest", "manifest path not configured", nil)
	}
	manifest, err := ReadManifest(s.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrCatalogQueryFailed, "catalog", "list manifest", s.Path, err)
	}
	entries := manifest.Entries(filepath.Dir(s.Path))
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
