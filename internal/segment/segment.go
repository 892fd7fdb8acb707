package segment

import (
	"fmt"
	"image"
	"math"
	"sync"

	"golang.org/x/image/draw"

	"bazaarscan/internal/fingerprint"
	"bazaarscan/internal/services"
)

// Slot is one fixed subdivision of the icon band.
type Slot struct {
	Index       int                     `json:"index"`
	Region      fingerprint.Region      `json:"region"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
}

// Analysis is the full segmentation outcome, including the anchor row.
type Analysis struct {
	Anchor int    `json:"anchor"`
	Slots  []Slot `json:"slots"`
}

// Segment returns the fingerprinted slots of img.
func Segment(img image.Image, layout Layout) ([]Slot, error) {
	analysis, err := Analyze(img, layout)
	if err != nil {
		return nil, err
	}
	return analysis.Slots, nil
}

// Analyze finds the anchor row, derives slot regions and fingerprints them.
func Analyze(img image.Image, layout Layout) (Analysis, error) {
	layout = layout.normalized()
	anchor, err := FindAnchor(img, layout)
	if err != nil {
		return Analysis{}, err
	}
	regions := SlotRegions(img.Bounds(), anchor, layout)
	slots, err := FromRegions(img, regions)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{Anchor: anchor, Slots: slots}, nil
}

// FindAnchor returns the full-resolution y coordinate of the icon band anchor.
func FindAnchor(img image.Image, layout Layout) (int, error) {
	if err := checkImage(img); err != nil {
		return 0, err
	}
	layout = layout.normalized()
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	aw := min(layout.AnalysisWidth, width)
	ah := max(1, int(math.Round(float64(height)*float64(aw)/float64(width))))
	gray := image.NewGray(image.Rect(0, 0, aw, ah))
	draw.BiLinear.Scale(gray, gray.Bounds(), img, bounds, draw.Src, nil)

	x0 := int(math.Floor(layout.IconLeft * float64(aw)))
	x1 := min(aw-1, int(math.Ceil(layout.IconRight*float64(aw))))
	y0 := int(math.Floor(layout.SearchTop * float64(ah)))
	y1 := min(ah-1, int(math.Ceil(layout.SearchBottom*float64(ah))))

	bestRow, bestEnergy := y0, -1.0
	for y := y0; y <= y1; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+aw]
		var energy float64
		for x := x0; x < x1; x++ {
			diff := int(row[x+1]) - int(row[x])
			if diff < 0 {
				diff = -diff
			}
			energy += float64(diff)
		}
		rel := float64(y) / float64(ah)
		energy *= 1 + layout.TopBias*(1-rel)
		if energy > bestEnergy {
			bestRow, bestEnergy = y, energy
		}
	}
	anchor := bounds.Min.Y + int(math.Round(float64(bestRow)*float64(height)/float64(ah)))
	return min(anchor, bounds.Max.Y-1), nil
}

// SlotRegions divides the band below anchor into layout.Slots columns.
func SlotRegions(bounds image.Rectangle, anchor int, layout Layout) []fingerprint.Region {
	layout = layout.normalized()
	width := float64(bounds.Dx())

	bandHeight := min(bounds.Dy(), max(1, int(math.Round(layout.BandHeight*width))))
	top := anchor + int(math.Round(layout.BandOffset*width))
	if top+bandHeight > bounds.Max.Y {
		top = bounds.Max.Y - bandHeight
	}
	top = max(top, bounds.Min.Y)

	left := float64(bounds.Min.X) + layout.IconLeft*width
	colWidth := (layout.IconRight - layout.IconLeft) * width / float64(layout.Slots)
	inset := layout.ColumnInset * colWidth

	regions := make([]fingerprint.Region, layout.Slots)
	for i := range regions {
		x0 := int(math.Round(left + float64(i)*colWidth + inset))
		x1 := int(math.Round(left + float64(i+1)*colWidth - inset))
		x0 = clamp(x0, bounds.Min.X, bounds.Max.X-1)
		x1 = clamp(x1, x0+1, bounds.Max.X)
		regions[i] = fingerprint.Region{Left: x0, Top: top, Width: x1 - x0, Height: bandHeight}
	}
	return regions
}

// FromRegions fingerprints caller-supplied regions. Slot indexes follow the
// order of regions.
func FromRegions(img image.Image, regions []fingerprint.Region) ([]Slot, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}
	slots := make([]Slot, len(regions))
	errs := make([]error, len(regions))
	var wg sync.WaitGroup
	for i, region := range regions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fp, err := fingerprint.Compute(img, region)
			if err != nil {
				errs[i] = fmt.Errorf("slot %d: %w", i, err)
				return
			}
			slots[i] = Slot{Index: i, Region: region, Fingerprint: fp}
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return slots, nil
}

func checkImage(img image.Image) error {
	if img == nil {
		return services.Wrap(services.ErrInvalidImage, "segment", "read image", "image is nil", nil)
	}
	if img.Bounds().Empty() {
		return services.Wrap(services.ErrInvalidImage, "segment", "read image", fmt.Sprintf("image has no area (%dx%d)", img.Bounds().Dx(), img.Bounds().Dy()), nil)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
