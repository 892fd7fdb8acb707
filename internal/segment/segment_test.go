package segment

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"bazaarscan/internal/fingerprint"
	"bazaarscan/internal/services"
)

// bandImage draws vertical stripes over rows [line, line+thickness) on a flat
// grey background.
func bandImage(width, height, line, thickness int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	for y := line; y < line+thickness && y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(0)
			if (x/24)%2 == 0 {
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestSlotTopsFollowBandIndependentOfHeight(t *testing.T) {
	for _, height := range []int{1080, 2160} {
		line := height * 30 / 100
		img := bandImage(1920, height, line, 48)
		analysis, err := Analyze(img, DefaultLayout())
		if err != nil {
			t.Fatalf("height %d: analyze: %v", height, err)
		}
		if len(analysis.Slots) != 10 {
			t.Fatalf("height %d: expected 10 slots, got %d", height, len(analysis.Slots))
		}
		for _, slot := range analysis.Slots {
			if diff := slot.Region.Top - line; diff < -24 || diff > 24 {
				t.Fatalf("height %d: slot %d top %d not near band line %d (anchor %d)", height, slot.Index, slot.Region.Top, line, analysis.Anchor)
			}
		}
	}
}

func TestFindAnchorTiesPickTopmostRow(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 640, 360))
	anchor, err := FindAnchor(img, DefaultLayout())
	if err != nil {
		t.Fatalf("find anchor: %v", err)
	}
	// Flat image: every row scores zero, so the first searched row wins.
	// Analysis size is 320x180, first row floor(0.08*180)=14, rescaled x2.
	if anchor != 28 {
		t.Fatalf("expected anchor 28, got %d", anchor)
	}
}

func TestSmallImagesAreNotUpscaled(t *testing.T) {
	img := bandImage(200, 100, 40, 10)
	anchor, err := FindAnchor(img, DefaultLayout())
	if err != nil {
		t.Fatalf("find anchor: %v", err)
	}
	if anchor < 38 || anchor > 50 {
		t.Fatalf("expected anchor inside band rows 40-49, got %d", anchor)
	}
}

func TestSlotRegionsGeometry(t *testing.T) {
	bounds := image.Rect(0, 0, 1000, 600)
	regions := SlotRegions(bounds, 100, DefaultLayout())
	if len(regions) != 10 {
		t.Fatalf("expected 10 regions, got %d", len(regions))
	}
	// offset round(0.004*1000)=4, height round(0.075*1000)=75
	for i, r := range regions {
		if r.Top != 104 || r.Height != 75 {
			t.Fatalf("region %d: unexpected band %+v", i, r)
		}
		if r.Width <= 0 || !r.Rect().In(bounds) {
			t.Fatalf("region %d outside bounds: %+v", i, r)
		}
		if i > 0 && r.Left <= regions[i-1].Left+regions[i-1].Width-1 {
			t.Fatalf("regions %d and %d overlap", i-1, i)
		}
	}
	// column width 64, inset 3.84
	if regions[0].Left != 184 || regions[0].Width != 56 {
		t.Fatalf("unexpected first column %+v", regions[0])
	}
}

func TestSlotRegionsClampNearBottom(t *testing.T) {
	bounds := image.Rect(0, 0, 1000, 600)
	regions := SlotRegions(bounds, 590, DefaultLayout())
	for i, r := range regions {
		if r.Top+r.Height > bounds.Max.Y || r.Top < 0 {
			t.Fatalf("region %d not clamped: %+v", i, r)
		}
	}
}

func TestSegmentRejectsEmptyImage(t *testing.T) {
	if _, err := Segment(nil, DefaultLayout()); !errors.Is(err, services.ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage for nil, got %v", err)
	}
	empty := image.NewGray(image.Rect(0, 0, 0, 10))
	if _, err := Segment(empty, DefaultLayout()); !errors.Is(err, services.ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage for empty image, got %v", err)
	}
}

func TestFromRegionsKeepsOrderAndPropagatesErrors(t *testing.T) {
	img := bandImage(400, 200, 50, 40)
	regions := []fingerprint.Region{
		{Left: 0, Top: 40, Width: 40, Height: 40},
		{Left: 40, Top: 40, Width: 40, Height: 40},
		{Left: 80, Top: 40, Width: 40, Height: 40},
	}
	slots, err := FromRegions(img, regions)
	if err != nil {
		t.Fatalf("from regions: %v", err)
	}
	for i, slot := range slots {
		if slot.Index != i || slot.Region != regions[i] {
			t.Fatalf("slot %d out of order: %+v", i, slot)
		}
		want, _ := fingerprint.Compute(img, regions[i])
		if slot.Fingerprint != want {
			t.Fatalf("slot %d fingerprint mismatch", i)
		}
	}
	regions = append(regions, fingerprint.Region{Left: 0, Top: 0, Width: 0, Height: 5})
	if _, err := FromRegions(img, regions); !errors.Is(err, services.ErrInvalidRegion) {
		t.Fatalf("expected ErrInvalidRegion, got %v", err)
	}
}
