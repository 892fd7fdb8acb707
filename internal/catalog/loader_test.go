package catalog

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bazaarscan/internal/fingerprint"
	"bazaarscan/internal/services"
)

func checkerPNG(t *testing.T, cell int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestLoaderFetchesOverHTTPAndCaches(t *testing.T) {
	body := checkerPNG(t, 8)
	var hits atomic.Int32
	var userAgent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		userAgent.Store(r.Header.Get("User-Agent"))
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)

	entries := []Entry{
		{ID: "a", Name: "Alpha", ImageURL: server.URL + "/alpha.png"},
		{ID: "b", Name: "Beta", ImageURL: server.URL + "/missing.png"},
		{ID: "c", Name: "Gamma", ImageURL: server.URL + "/gamma.png"},
	}
	cache := NewMemoryCache(time.Hour)
	loader := NewLoader(NewHTTPFetcher(WithUserAgent("test-agent")), cache, LoaderPolicy{Workers: 2}, nil)

	report := loader.Load(context.Background(), entries)
	if len(report.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(report.Results))
	}
	for i, res := range report.Results {
		if res.Entry.ID != entries[i].ID {
			t.Fatalf("result %d out of order: %s", i, res.Entry.ID)
		}
	}
	failures := report.Failures()
	if len(failures) != 1 || failures[0].Entry.ID != "b" {
		t.Fatalf("expected only b to fail, got %+v", failures)
	}
	if !errors.Is(failures[0].Err, services.ErrCatalogFetchFailed) {
		t.Fatalf("expected ErrCatalogFetchFailed, got %v", failures[0].Err)
	}
	if services.IsFatal(failures[0].Err) {
		t.Fatal("per-entry fetch failures must not be fatal")
	}
	refs := report.References()
	if len(refs) != 2 || refs[0].ID != "a" || refs[1].ID != "c" {
		t.Fatalf("unexpected references %+v", refs)
	}
	if ua, _ := userAgent.Load().(string); ua != "test-agent" {
		t.Fatalf("expected user agent to be sent, got %q", ua)
	}

	before := hits.Load()
	again := loader.Load(context.Background(), entries)
	if again.CacheHits() != 2 {
		t.Fatalf("expected 2 cache hits, got %d", again.CacheHits())
	}
	if delta := hits.Load() - before; delta != 1 {
		t.Fatalf("expected only the failed entry to be refetched, got %d requests", delta)
	}
}

func TestLoaderReadsLocalFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "icon.png")
	if err := os.WriteFile(path, checkerPNG(t, 16), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	loader := NewLoader(NewHTTPFetcher(), nil, LoaderPolicy{}, nil)
	report := loader.Load(context.Background(), []Entry{
		{ID: "bare", ImageURL: path},
		{ID: "url", ImageURL: "file://" + path},
	})
	if len(report.Failures()) != 0 {
		t.Fatalf("unexpected failures: %+v", report.Failures())
	}
	refs := report.References()
	if refs[0].Fingerprint != refs[1].Fingerprint {
		t.Fatal("expected identical fingerprints for the same file")
	}
}

func TestHTTPFetcherRejectsOversizedImages(t *testing.T) {
	body := checkerPNG(t, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	fetcher := NewHTTPFetcher(WithMaxImageBytes(int64(len(body) - 1)))
	if _, err := fetcher.Fetch(context.Background(), server.URL+"/big.png"); err == nil {
		t.Fatal("expected size cap to reject image")
	}
}

type fetcherFunc func(ctx context.Context, location string) (image.Image, error)

func (f fetcherFunc) Fetch(ctx context.Context, location string) (image.Image, error) {
	return f(ctx, location)
}

func TestLoaderBoundsConcurrency(t *testing.T) {
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	fetcher := fetcherFunc(func(ctx context.Context, location string) (image.Image, error) {
		mu.Lock()
		active++
		maxSeen = max(maxSeen, active)
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return image.NewGray(image.Rect(0, 0, 8, 8)), nil
	})
	entries := make([]Entry, 20)
	for i := range entries {
		entries[i] = Entry{ID: string(rune('a' + i)), ImageURL: "mem://" + string(rune('a'+i))}
	}
	report := NewLoader(fetcher, nil, LoaderPolicy{Workers: 3, MaxEntries: 15}, nil).Load(context.Background(), entries)
	if maxSeen > 3 {
		t.Fatalf("expected at most 3 concurrent fetches, saw %d", maxSeen)
	}
	if len(report.Results) != 15 || report.Truncated != 5 {
		t.Fatalf("expected 15 results and 5 truncated, got %d/%d", len(report.Results), report.Truncated)
	}
}

func TestLoaderTimeoutsDropSlowEntries(t *testing.T) {
	fetcher := fetcherFunc(func(ctx context.Context, location string) (image.Image, error) {
		if location == "slow" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return image.NewGray(image.Rect(0, 0, 8, 8)), nil
	})
	loader := NewLoader(fetcher, nil, LoaderPolicy{Workers: 1, FetchTimeout: 20 * time.Millisecond}, nil)
	report := loader.Load(context.Background(), []Entry{
		{ID: "s", ImageURL: "slow"},
		{ID: "f", ImageURL: "fast"},
	})
	failures := report.Failures()
	if len(failures) != 1 || failures[0].Entry.ID != "s" {
		t.Fatalf("expected slow entry to fail alone, got %+v", failures)
	}
	if !errors.Is(failures[0].Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", failures[0].Err)
	}
}

func TestLoaderCancelledContextReportsEveryEntry(t *testing.T) {
	var calls atomic.Int32
	fetcher := fetcherFunc(func(ctx context.Context, location string) (image.Image, error) {
		calls.Add(1)
		return image.NewGray(image.Rect(0, 0, 8, 8)), nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	entries := []Entry{{ID: "a", ImageURL: "a"}, {ID: "b", ImageURL: "b"}, {ID: "c", ImageURL: "c"}}
	report := NewLoader(fetcher, nil, LoaderPolicy{Workers: 2}, nil).Load(ctx, entries)
	if len(report.Results) != 3 {
		t.Fatalf("expected a result per entry, got %d", len(report.Results))
	}
	for _, res := range report.Results {
		if !errors.Is(res.Err, context.Canceled) || !errors.Is(res.Err, services.ErrCatalogFetchFailed) {
			t.Fatalf("expected cancelled fetch failure for %s, got %v", res.Entry.ID, res.Err)
		}
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no fetches after cancellation, got %d", calls.Load())
	}
}

func TestLoaderFingerprintMatchesDirectCompute(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	fetcher := fetcherFunc(func(ctx context.Context, location string) (image.Image, error) {
		return img, nil
	})
	report := NewLoader(fetcher, nil, LoaderPolicy{}, nil).Load(context.Background(), []Entry{{ID: "x", ImageURL: "x"}})
	want, _ := fingerprint.ComputeImage(img)
	if got := report.References()[0].Fingerprint; got != want {
		t.Fatalf("fingerprint %s, want %s", got, want)
	}
}
