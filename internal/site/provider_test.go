package site

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func testRecords() []Record {
	return []Record{
		{ID: 1, Attrs: Attributes{Biome: "temperate_forest", Temperature: 12, Latitude: 40, Habitable: true}},
		{ID: 2, Attrs: Attributes{Biome: "desert", Temperature: 30, Latitude: 10, Habitable: true}},
		{ID: 3, Attrs: Attributes{Biome: "sea_ice", Temperature: -30, Latitude: 85, Habitable: false}},
	}
}

func TestProviderEligibleIDs(t *testing.T) {
	p := NewCachedProvider(testRecords(), ComputeExtended)
	ids := p.IDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 eligible sites, got %d", len(ids))
	}
	if ids[0] != 1 || ids[1] != 2 {
		t.Errorf("expected ids [1 2], got %v", ids)
	}
	if _, ok := p.Cheap(3); !ok {
		t.Error("non-habitable site should still resolve cheap attributes")
	}
}

func TestExtendedComputeOnce(t *testing.T) {
	var calls atomic.Int64
	compute := func(ctx context.Context, id ID, attrs *Attributes) (*ExtendedAttributes, error) {
		calls.Add(1)
		return ComputeExtended(ctx, id, attrs)
	}
	p := NewCachedProvider(testRecords(), compute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Extended(context.Background(), 1); err != nil {
				t.Errorf("extended: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected exactly 1 computation, got %d", calls.Load())
	}
}

func TestExtendedUnknownSite(t *testing.T) {
	p := NewCachedProvider(testRecords(), ComputeExtended)
	if _, err := p.Extended(context.Background(), 999); err == nil {
		t.Error("expected error for unknown site")
	}
}

func TestExtendedErrorMemoized(t *testing.T) {
	var calls atomic.Int64
	compute := func(context.Context, ID, *Attributes) (*ExtendedAttributes, error) {
		calls.Add(1)
		return nil, errors.New("external data missing")
	}
	p := NewCachedProvider(testRecords(), compute)

	for i := 0; i < 3; i++ {
		if _, err := p.Extended(context.Background(), 1); err == nil {
			t.Fatal("expected error")
		}
	}
	if calls.Load() != 1 {
		t.Errorf("failure should be memoized, got %d calls", calls.Load())
	}
}

func TestGrowingDays(t *testing.T) {
	tests := []struct {
		name     string
		meanTemp float64
		latitude float64
		want     float64
	}{
		{"equatorial tropics year-round", 25, 0, 60},
		{"polar ice never grows", -30, 85, 0},
		{"warm equatorial desert", 35, 5, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GrowingDays(tt.meanTemp, tt.latitude)
			if got != tt.want {
				t.Errorf("GrowingDays(%v, %v) = %v, want %v", tt.meanTemp, tt.latitude, got, tt.want)
			}
		})
	}

	t.Run("temperate partial season", func(t *testing.T) {
		got := GrowingDays(8, 50)
		if got <= 0 || got >= 60 {
			t.Errorf("expected partial growing season, got %v days", got)
		}
	})

	t.Run("multiple of twelfth length", func(t *testing.T) {
		got := GrowingDays(8, 50)
		if int(got)%daysPerTwelfth != 0 {
			t.Errorf("growing days %v not a multiple of %d", got, daysPerTwelfth)
		}
	})
}
