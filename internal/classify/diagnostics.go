package classify

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"

	"bazaarscan/internal/fingerprint"
	"bazaarscan/internal/grouping"
	"bazaarscan/internal/resolve"
	"bazaarscan/internal/segment"
)

// CatalogStats summarizes the catalog load for one request.
type CatalogStats struct {
	Listed     int           `json:"listed"`
	Considered int           `json:"considered"`
	References int           `json:"references"`
	Failed     int           `json:"failed"`
	CacheHits  int           `json:"cache_hits"`
	Truncated  int           `json:"truncated"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Diagnostics exposes intermediate pipeline state. None of it is part of the
// contract.
type Diagnostics struct {
	RequestID string `json:"request_id"`
	// Anchor is -1 when slot regions were supplied by the caller.
	Anchor            int              `json:"anchor"`
	Slots             []segment.Slot   `json:"slots"`
	AdjacentDistances []int            `json:"adjacent_distances"`
	Groups            []grouping.Group `json:"groups"`
	Units             []resolve.Unit   `json:"units"`
	Catalog           CatalogStats     `json:"catalog"`
}

// WriteDebugCrops renders each slot and group region of img into dir as PNG
// files and returns the written paths.
func WriteDebugCrops(dir string, img image.Image, diag *Diagnostics) ([]string, error) {
	if diag == nil {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}
	var written []string
	for _, slot := range diag.Slots {
		path := filepath.Join(dir, fmt.Sprintf("slot_%02d.png", slot.Index))
		if err := writeCrop(path, img, slot.Region); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	for _, g := range diag.Groups {
		path := filepath.Join(dir, fmt.Sprintf("group_%02d_span%d.png", g.Start, g.Span))
		if err := writeCrop(path, img, g.Region); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeCrop(path string, img image.Image, region fingerprint.Region) error {
	rect := region.Rect().Intersect(img.Bounds())
	if rect.Empty() {
		return fmt.Errorf("crop %s: region outside image", filepath.Base(path))
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(dst, image.Point{}, img, rect, draw.Src, nil)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create crop: %w", err)
	}
	if err := png.Encode(file, dst); err != nil {
		_ = file.Close()
		return fmt.Errorf("encode crop: %w", err)
	}
	return file.Close()
}
