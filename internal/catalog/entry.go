package catalog

import (
	"context"
	"strings"

	"bazaarscan/internal/fingerprint"
)

// Entry kinds derived from the seeding layout.
const (
	KindItem  = "item"
	KindSkill = "skill"
	KindOther = "other"
)

// Entry is one catalog row as returned by a Source.
type Entry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind,omitempty"`
	ImageURL string `json:"image_url"`
}

// IsItem reports whether the entry takes part in item matching. Entries
// without a kind predate kind tagging and are treated as items.
func (e Entry) IsItem() bool {
	kind := strings.ToLower(strings.TrimSpace(e.Kind))
	return kind == "" || kind == KindItem
}

// CacheKey identifies the fingerprint of this entry's current image.
func (e Entry) CacheKey() string {
	return e.ID + "@" + e.ImageURL
}

// KindFromURL classifies an image URL by its path segment.
func KindFromURL(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "/images/items/"):
		return KindItem
	case strings.Contains(lower, "/images/skills/"):
		return KindSkill
	default:
		return KindOther
	}
}

// FilterItems keeps item entries in their original order.
func FilterItems(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsItem() {
			out = append(out, e)
		}
	}
	return out
}

// Reference is a catalog entry with its computed fingerprint.
type Reference struct {
	Entry
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
}

// Source lists catalog entries. limit <= 0 means no limit.
type Source interface {
	List(ctx context.Context, limit int) ([]Entry, error)
}

// StaticSource serves a fixed slice of entries.
type StaticSource []Entry

// List implements Source.
func (s StaticSource) List(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []Entry(s)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return append([]Entry(nil), out...), nil
}
