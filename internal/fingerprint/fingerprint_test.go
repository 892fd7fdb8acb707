package fingerprint

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"bazaarscan/internal/services"
)

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*255/w + y*97/h) % 256)
			img.Set(x, y, color.RGBA{R: v, G: uint8(255 - int(v)), B: 128, A: 255})
		}
	}
	return img
}

// doubled returns a 2× nearest-neighbour copy of src.
func doubled(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx()*2, b.Dy()*2))
	for y := 0; y < b.Dy()*2; y++ {
		for x := 0; x < b.Dx()*2; x++ {
			out.Set(x, y, src.At(b.Min.X+x/2, b.Min.Y+y/2))
		}
	}
	return out
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestComputeDeterministic(t *testing.T) {
	img := gradientImage(120, 80)
	region := Region{Left: 10, Top: 5, Width: 64, Height: 48}
	first, err := Compute(img, region)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Compute(img, region)
		if err != nil {
			t.Fatalf("compute %d: %v", i, err)
		}
		if again != first {
			t.Fatalf("run %d: got %s, want %s", i, again, first)
		}
	}
	if first.AHash == 0 && first.DHash == 0 && first.PHash == 0 {
		t.Fatalf("expected non-trivial hashes for a gradient, got %s", first)
	}
}

func TestComputeRejectsInvalidRegions(t *testing.T) {
	img := gradientImage(40, 40)
	cases := map[string]Region{
		"zero width":  {Left: 0, Top: 0, Width: 0, Height: 10},
		"zero height": {Left: 0, Top: 0, Width: 10, Height: 0},
		"negative":    {Left: 0, Top: 0, Width: -5, Height: 10},
		"outside":     {Left: 100, Top: 100, Width: 10, Height: 10},
	}
	for name, region := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Compute(img, region); !errors.Is(err, services.ErrInvalidRegion) {
				t.Fatalf("expected ErrInvalidRegion, got %v", err)
			}
		})
	}
	if _, err := Compute(nil, Region{Width: 1, Height: 1}); !errors.Is(err, services.ErrInvalidRegion) {
		t.Fatalf("expected ErrInvalidRegion for nil image, got %v", err)
	}
}

func TestBlackRegionMatchesUpscaledCopy(t *testing.T) {
	small := solidImage(800, 400, color.Black)
	large := doubled(small)
	a, err := ComputeImage(small)
	if err != nil {
		t.Fatalf("compute small: %v", err)
	}
	b, err := ComputeImage(large)
	if err != nil {
		t.Fatalf("compute large: %v", err)
	}
	if score := Score(a, b); score < 60 {
		t.Fatalf("expected score >= 60, got %d", score)
	}
}

func TestGradientSurvivesRescale(t *testing.T) {
	src := gradientImage(200, 100)
	a, err := ComputeImage(src)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	b, err := ComputeImage(doubled(src))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if score := Score(a, b); score < 56 {
		t.Fatalf("expected rescaled gradient to stay similar, got %d (%+v)", score, Compare(a, b))
	}
}

func TestDistanceProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a := Hash(rng.Uint64())
		b := Hash(rng.Uint64())
		if Distance(a, a) != 0 {
			t.Fatalf("distance(a,a) != 0 for %s", a)
		}
		d := Distance(a, b)
		if d != Distance(b, a) {
			t.Fatalf("distance not symmetric for %s %s", a, b)
		}
		if d < 0 || d > HashBits {
			t.Fatalf("distance out of range: %d", d)
		}
	}
	if got := Distance(0, ^Hash(0)); got != 64 {
		t.Fatalf("expected 64 for complementary hashes, got %d", got)
	}
}

func TestScoreBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		a := Fingerprint{AHash: Hash(rng.Uint64()), DHash: Hash(rng.Uint64()), PHash: Hash(rng.Uint64())}
		b := Fingerprint{AHash: Hash(rng.Uint64()), DHash: Hash(rng.Uint64()), PHash: Hash(rng.Uint64())}
		if Score(a, a) != MaxScore {
			t.Fatalf("score(a,a) != 64 for %s", a)
		}
		s := Score(a, b)
		if s < 0 || s > MaxScore {
			t.Fatalf("score out of range: %d", s)
		}
		if s != Score(b, a) {
			t.Fatalf("score not symmetric")
		}
	}
	opposite := Fingerprint{AHash: ^Hash(0), DHash: ^Hash(0), PHash: ^Hash(0)}
	if got := Score(Fingerprint{}, opposite); got != 0 {
		t.Fatalf("expected 0 for fully opposite fingerprints, got %d", got)
	}
}

func TestScoreWeighting(t *testing.T) {
	a := Fingerprint{}
	// dA=4, dD=0, dP=2 -> (4+0+4)/4 = 2
	b := Fingerprint{AHash: 0xF, PHash: 0x3}
	if got := Score(a, b); got != 62 {
		t.Fatalf("expected 62, got %d", got)
	}
	// (1+0+2*1)/4 = 0.75 -> 1
	c := Fingerprint{AHash: 0x1, PHash: 0x1}
	if got := Score(a, c); got != 63 {
		t.Fatalf("expected 63, got %d", got)
	}
	// 2/4 = 0.5 rounds half to even -> 0
	d := Fingerprint{AHash: 0x3}
	if got := Score(a, d); got != 64 {
		t.Fatalf("expected 64, got %d", got)
	}
	flat := Weights{AHash: 1, DHash: 1, PHash: 1}
	if got := flat.Score(a, b); got != 62 {
		t.Fatalf("expected 62 with flat weights, got %d", got)
	}
	if got := (Weights{}).Score(a, b); got != Score(a, b) {
		t.Fatalf("zero weights should fall back to defaults")
	}
}

func TestHashTextRoundTrip(t *testing.T) {
	fp := Fingerprint{AHash: 0x0123456789abcdef, DHash: 1, PHash: ^Hash(0)}
	if got := fp.AHash.String(); got != "0123456789abcdef" {
		t.Fatalf("unexpected hex: %s", got)
	}
	data, err := json.Marshal(fp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"ahash":"0123456789abcdef","dhash":"0000000000000001","phash":"ffffffffffffffff"}`
	if string(data) != want {
		t.Fatalf("unexpected json: %s", data)
	}
	parsed, err := ParseFingerprint(fp.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != fp {
		t.Fatalf("parsed %s, want %s", parsed, fp)
	}
	if _, err := ParseHash("xyz"); err == nil {
		t.Fatal("expected parse error for short hash")
	}
}

func TestRegionUnion(t *testing.T) {
	a := Region{Left: 10, Top: 20, Width: 30, Height: 40}
	b := Region{Left: 50, Top: 18, Width: 30, Height: 40}
	got := a.Union(b)
	want := Region{Left: 10, Top: 18, Width: 70, Height: 42}
	if got != want {
		t.Fatalf("union = %+v, want %+v", got, want)
	}
}
