package geocode

import (
	"context"
	"path/filepath"
	"testing"
)

// countingGeocoder returns a fixed result and counts lookups.
type countingGeocoder struct {
	result *Result
	err    error
	calls  int
}

func (g *countingGeocoder) Geocode(ctx context.Context, name string) (*Result, error) {
	g.calls++
	return g.result, g.err
}

func openTestCache(t *testing.T, inner Geocoder) *Cache {
	t.Helper()
	c, err := OpenCache(filepath.Join(t.TempDir(), "geocode.db"), inner)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_SecondLookupHitsCache(t *testing.T) {
	inner := &countingGeocoder{result: &Result{Lat: 48.85, Lng: 2.35, DisplayName: "Paris"}}
	c := openTestCache(t, inner)

	ctx := context.Background()
	first, err := c.Geocode(ctx, "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Geocode(ctx, "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", inner.calls)
	}
	if first == nil || second == nil || *first != *second {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}
}

func TestCache_KeysAreCanonical(t *testing.T) {
	inner := &countingGeocoder{result: &Result{Lat: 1, Lng: 2}}
	c := openTestCache(t, inner)

	ctx := context.Background()
	if _, err := c.Geocode(ctx, "London"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Geocode(ctx, "  LONDON "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected canonicalized key to hit cache, got %d calls", inner.calls)
	}
}

func TestCache_NegativeResultCached(t *testing.T) {
	inner := &countingGeocoder{result: nil}
	c := openTestCache(t, inner)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		res, err := c.Geocode(ctx, "Atlantis")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res != nil {
			t.Errorf("expected nil result, got %+v", res)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected miss to be cached, got %d calls", inner.calls)
	}
}
