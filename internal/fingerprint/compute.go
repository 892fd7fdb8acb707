package fingerprint

import (
	"image"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat"

	"bazaarscan/internal/services"
)

// Region is a rectangle over a source image, in that image's coordinates.
type Region struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the region into an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height)
}

// RegionFromRect converts an image.Rectangle into a Region.
func RegionFromRect(rect image.Rectangle) Region {
	return Region{Left: rect.Min.X, Top: rect.Min.Y, Width: rect.Dx(), Height: rect.Dy()}
}

// Union returns the smallest region covering r and other.
func (r Region) Union(other Region) Region {
	return RegionFromRect(r.Rect().Union(other.Rect()))
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Compute fingerprints region of img.
func Compute(img image.Image, region Region) (Fingerprint, error) {
	if img == nil {
		return Fingerprint{}, services.Wrap(services.ErrInvalidRegion, "fingerprint", "compute", "image is nil", nil)
	}
	if region.Empty() {
		return Fingerprint{}, services.Wrap(services.ErrInvalidRegion, "fingerprint", "compute", "region has zero width or height", nil)
	}
	rect := region.Rect().Intersect(img.Bounds())
	if rect.Empty() {
		return Fingerprint{}, services.Wrap(services.ErrInvalidRegion, "fingerprint", "compute", "region lies outside the image", nil)
	}
	return Fingerprint{
		AHash: averageHash(grayscale(img, rect, 8, 8)),
		DHash: differenceHash(grayscale(img, rect, 9, 8)),
		PHash: amplitudeHash(grayscale(img, rect, 32, 32)),
	}, nil
}

// ComputeImage fingerprints the whole image.
func ComputeImage(img image.Image) (Fingerprint, error) {
	if img == nil {
		return Fingerprint{}, services.Wrap(services.ErrInvalidRegion, "fingerprint", "compute", "image is nil", nil)
	}
	return Compute(img, RegionFromRect(img.Bounds()))
}

// grayscale resamples src[rect] into a w×h luminance buffer.
func grayscale(src image.Image, rect image.Rectangle, w, h int) []float64 {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, rect, draw.Src, nil)
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x, v := range row {
			out[y*w+x] = float64(v)
		}
	}
	return out
}

func averageHash(px []float64) Hash {
	mean := stat.Mean(px, nil)
	var h Hash
	for i, v := range px {
		if v >= mean {
			h |= 1 << (HashBits - 1 - i)
		}
	}
	return h
}

// differenceHash expects a 9×8 buffer.
func differenceHash(px []float64) Hash {
	var h Hash
	bit := 0
	for y := 0; y < 8; y++ {
		row := px[y*9 : y*9+9]
		for x := 0; x < 8; x++ {
			if row[x] > row[x+1] {
				h |= 1 << (HashBits - 1 - bit)
			}
			bit++
		}
	}
	return h
}

// amplitudeHash expects a 32×32 buffer and thresholds 4×4 block means.
func amplitudeHash(px []float64) Hash {
	samples := make([]float64, 64)
	for by := 0; by < 8; by++ {
		for bx := 0; bx < 8; bx++ {
			var sum float64
			for y := by * 4; y < by*4+4; y++ {
				for x := bx * 4; x < bx*4+4; x++ {
					sum += px[y*32+x]
				}
			}
			samples[by*8+bx] = sum / 16
		}
	}
	return averageHash(samples)
}
