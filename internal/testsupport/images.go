package testsupport

import (
	"image"
	"image/color"
	"math/rand"

	"bazaarscan/internal/fingerprint"
)

// iconCells is the side length of the synthetic icon grid.
const iconCells = 8

// Solid returns a w×h image filled with a single grey level.
func Solid(w, h int, level uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = level
	}
	return img
}

// IconPattern returns the 8×8 black/white cell pattern for seed. Exactly half
// the cells are white, so patterns from different seeds are far apart in
// every hash family while any rendering of one seed hashes alike.
func IconPattern(seed int64) [iconCells * iconCells]bool {
	var cells [iconCells * iconCells]bool
	rng := rand.New(rand.NewSource(seed))
	for _, idx := range rng.Perm(len(cells))[:len(cells)/2] {
		cells[idx] = true
	}
	return cells
}

// Icon renders the pattern for seed as a size×size image.
func Icon(seed int64, size int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	DrawIcon(img, fingerprint.Region{Width: size, Height: size}, seed)
	return img
}

// DrawIcon renders the pattern for seed into region of dst.
func DrawIcon(dst *image.Gray, region fingerprint.Region, seed int64) {
	cells := IconPattern(seed)
	for y := 0; y < region.Height; y++ {
		cy := y * iconCells / region.Height
		for x := 0; x < region.Width; x++ {
			cx := x * iconCells / region.Width
			v := uint8(0)
			if cells[cy*iconCells+cx] {
				v = 255
			}
			dst.SetGray(region.Left+x, region.Top+y, color.Gray{Y: v})
		}
	}
}

// RowRegions lays out n square slots of size px along one row, separated by
// gap px, starting at (left, top).
func RowRegions(n, left, top, size, gap int) []fingerprint.Region {
	regions := make([]fingerprint.Region, n)
	for i := range regions {
		regions[i] = fingerprint.Region{Left: left + i*(size+gap), Top: top, Width: size, Height: size}
	}
	return regions
}
