package grouping

import (
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"bazaarscan/internal/fingerprint"
	"bazaarscan/internal/segment"
	"bazaarscan/internal/services"
)

func stripImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 200, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y * 10), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}

func slotsWithHashes(hashes ...fingerprint.Hash) []segment.Slot {
	slots := make([]segment.Slot, len(hashes))
	for i, h := range hashes {
		slots[i] = segment.Slot{
			Index:       i,
			Region:      fingerprint.Region{Left: i * 20, Top: 0, Width: 18, Height: 20},
			Fingerprint: fingerprint.Fingerprint{AHash: h},
		}
	}
	return slots
}

func TestConsolidateSpans(t *testing.T) {
	const (
		a fingerprint.Hash = 0
		b fingerprint.Hash = ^fingerprint.Hash(0)
		c fingerprint.Hash = 0x00000000ffffffff
		d fingerprint.Hash = 0xffffffff00000000
	)
	img := stripImage()
	slots := slotsWithHashes(a, b, b, c, c, c, c, c, d, d)
	groups, err := Consolidate(img, slots, DefaultPolicy())
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	wantSpans := []int{1, 2, 4, 1, 2}
	if len(groups) != len(wantSpans) {
		t.Fatalf("expected %d groups, got %d", len(wantSpans), len(groups))
	}
	for i, g := range groups {
		if g.Span != wantSpans[i] {
			t.Fatalf("group %d span = %d, want %d", i, g.Span, wantSpans[i])
		}
	}
	if err := Validate(groups, len(slots)); err != nil {
		t.Fatalf("validate: %v", err)
	}

	wide := groups[2]
	wantRegion := fingerprint.Region{Left: 60, Top: 0, Width: 78, Height: 20}
	if wide.Region != wantRegion {
		t.Fatalf("merged region = %+v, want %+v", wide.Region, wantRegion)
	}
	want, err := fingerprint.Compute(img, wantRegion)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if wide.Fingerprint != want {
		t.Fatalf("merged group must be re-fingerprinted over its union region")
	}
	if got := wide.Indexes(); len(got) != 4 || got[0] != 3 || got[3] != 6 {
		t.Fatalf("unexpected indexes %v", got)
	}
}

func TestConsolidateRespectsMergeDistance(t *testing.T) {
	img := stripImage()
	// 0x3ff differs from 0 by exactly 10 bits, 0x7ff by 11.
	slots := slotsWithHashes(0, 0x3ff, 0x3ff^0x7ff)
	groups, err := Consolidate(img, slots, DefaultPolicy())
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if len(groups) != 2 || groups[0].Span != 2 || groups[1].Span != 1 {
		t.Fatalf("unexpected grouping: %+v", groups)
	}
	groups, err = Consolidate(img, slots, Policy{MergeDistance: 9, MaxSpan: 4})
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("expected no merges at distance 9, got %d groups", len(groups))
	}
}

func TestConsolidatePartitionProperty(t *testing.T) {
	img := stripImage()
	rng := rand.New(rand.NewSource(3))
	palette := []fingerprint.Hash{0, 0x1, 0x3, ^fingerprint.Hash(0), 0xf0f0f0f0f0f0f0f0}
	for trial := 0; trial < 100; trial++ {
		hashes := make([]fingerprint.Hash, 10)
		for i := range hashes {
			hashes[i] = palette[rng.Intn(len(palette))]
		}
		groups, err := Consolidate(img, slotsWithHashes(hashes...), DefaultPolicy())
		if err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
		if err := Validate(groups, 10); err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
	}
}

func TestConsolidateSpanCap(t *testing.T) {
	img := stripImage()
	groups, err := Consolidate(img, slotsWithHashes(0, 0, 0, 0, 0, 0, 0, 0, 0, 0), DefaultPolicy())
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	spans := []int{}
	for _, g := range groups {
		spans = append(spans, g.Span)
	}
	if len(spans) != 3 || spans[0] != 4 || spans[1] != 4 || spans[2] != 2 {
		t.Fatalf("expected spans [4 4 2], got %v", spans)
	}
}

func TestAdjacentDistances(t *testing.T) {
	got := AdjacentDistances(slotsWithHashes(0, 0x3, 0x3, ^fingerprint.Hash(0)))
	want := []int{2, 0, 62}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("distances = %v, want %v", got, want)
		}
	}
	if AdjacentDistances(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestValidateRejectsBrokenPartitions(t *testing.T) {
	cases := map[string][]Group{
		"gap":     {{Start: 0, Span: 2}, {Start: 3, Span: 2}},
		"overlap": {{Start: 0, Span: 3}, {Start: 2, Span: 3}},
		"short":   {{Start: 0, Span: 4}},
		"wide":    {{Start: 0, Span: 5}},
	}
	for name, groups := range cases {
		t.Run(name, func(t *testing.T) {
			if err := Validate(groups, 5); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}
