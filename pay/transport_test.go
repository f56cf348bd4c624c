package pay_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/warp/pay-engine/pay"
)

// =============================================================================
// TEST HELPERS
// =============================================================================
// Note: eventAt, at, hours and approxEqual are defined in surcharge_test.go

// fakeLookup is a deterministic DistanceLookup with a call counter.
type fakeLookup struct {
	mu      sync.Mutex
	entries map[string]*pay.DistanceEntry
	calls   int
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{entries: make(map[string]*pay.DistanceEntry)}
}

func (f *fakeLookup) put(origin, destination string, mode pay.TravelMode, seconds, meters float64) {
	f.entries[origin+"|"+destination+"|"+string(mode)] = &pay.DistanceEntry{
		DurationSeconds: seconds,
		DistanceMeters:  meters,
	}
}

func (f *fakeLookup) Distance(_ context.Context, origin, destination string, mode pay.TravelMode) (*pay.DistanceEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.entries[origin+"|"+destination+"|"+string(mode)], nil
}

func intervention(start, end time.Time, address string) pay.ScheduledEvent {
	e := eventAt(start, end)
	e.Address = address
	return e
}

// =============================================================================
// TRANSPORT CALCULATOR TESTS
// =============================================================================

func TestTransport_NoPreviousEvent_Zero(t *testing.T) {
	calc := &pay.TransportCalculator{Lookup: newFakeLookup()}
	current := intervention(at(2025, time.June, 10, 10, 0), at(2025, time.June, 10, 11, 0), "12 rue A")

	got := calc.Between(context.Background(), nil, current, pay.ModeDriving)
	if got.DurationMinutes != 0 || got.DistanceKm != 0 {
		t.Errorf("expected zero transport, got %+v", got)
	}
}

func TestTransport_FixedServiceOrMissingData_Zero(t *testing.T) {
	lookup := newFakeLookup()
	lookup.put("12 rue A", "34 rue B", pay.ModeDriving, 600, 5000)
	calc := &pay.TransportCalculator{Lookup: lookup}

	prev := intervention(at(2025, time.June, 10, 9, 0), at(2025, time.June, 10, 10, 0), "12 rue A")
	current := intervention(at(2025, time.June, 10, 10, 30), at(2025, time.June, 10, 11, 30), "34 rue B")

	fixed := prev
	fixed.HasFixedService = true
	if got := calc.Between(context.Background(), &fixed, current, pay.ModeDriving); got.DurationMinutes != 0 {
		t.Errorf("fixed-service prev: expected zero, got %+v", got)
	}

	noAddr := current
	noAddr.Address = ""
	if got := calc.Between(context.Background(), &prev, noAddr, pay.ModeDriving); got.DurationMinutes != 0 {
		t.Errorf("missing address: expected zero, got %+v", got)
	}

	if got := calc.Between(context.Background(), &prev, current, ""); got.DurationMinutes != 0 {
		t.Errorf("missing mode: expected zero, got %+v", got)
	}
}

func TestTransport_UnknownRoute_Zero(t *testing.T) {
	calc := &pay.TransportCalculator{Lookup: newFakeLookup()}
	prev := intervention(at(2025, time.June, 10, 9, 0), at(2025, time.June, 10, 10, 0), "12 rue A")
	current := intervention(at(2025, time.June, 10, 10, 30), at(2025, time.June, 10, 11, 30), "34 rue B")

	got := calc.Between(context.Background(), &prev, current, pay.ModeDriving)
	if got.DurationMinutes != 0 || got.DistanceKm != 0 {
		t.Errorf("expected degraded zero transport, got %+v", got)
	}
}

func TestTransport_PickHeuristic(t *testing.T) {
	// GIVEN: A 20-minute looked-up travel time between two addresses
	// WHEN: The scheduling gap between the events varies
	// THEN: The pick follows the production rule: the lookup is paid when
	//       the gap is shorter than it, or longer than it by MORE than
	//       15 minutes. A gap of exactly lookup+15 still pays the gap;
	//       lookup+16 flips back to the lookup. The band is one-sided.

	cases := []struct {
		name        string
		gapMinutes  int
		wantMinutes float64
	}{
		{"gap shorter than lookup", 10, 20},
		{"gap equals lookup", 20, 20},
		{"gap inside tolerance", 30, 30},
		{"gap at tolerance edge", 35, 35},
		{"gap just past tolerance", 36, 20},
		{"gap far past tolerance", 90, 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lookup := newFakeLookup()
			lookup.put("12 rue A", "34 rue B", pay.ModeDriving, 20*60, 8000)
			calc := &pay.TransportCalculator{Lookup: lookup}

			prev := intervention(at(2025, time.June, 10, 9, 0), at(2025, time.June, 10, 10, 0), "12 rue A")
			start := at(2025, time.June, 10, 10, tc.gapMinutes)
			current := intervention(start, start.Add(time.Hour), "34 rue B")

			got := calc.Between(context.Background(), &prev, current, pay.ModeDriving)
			if got.DurationMinutes != tc.wantMinutes {
				t.Errorf("expected %.0f paid minutes, got %.0f", tc.wantMinutes, got.DurationMinutes)
			}
			if got.DistanceKm != 8 {
				t.Errorf("expected 8 km, got %.2f", got.DistanceKm)
			}
		})
	}
}

// =============================================================================
// RUN CACHE TESTS
// =============================================================================

func TestRunCache_SingleLookupPerKey(t *testing.T) {
	// GIVEN: A cache over a counting lookup
	// WHEN: The same route is requested three times
	// THEN: The inner lookup is hit once

	lookup := newFakeLookup()
	lookup.put("12 rue A", "34 rue B", pay.ModeTransit, 900, 3000)
	cache := pay.NewRunCache(lookup)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		entry, err := cache.Distance(ctx, "12 rue A", "34 rue B", pay.ModeTransit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entry == nil || entry.DurationSeconds != 900 {
			t.Fatalf("unexpected entry: %+v", entry)
		}
	}
	if lookup.calls != 1 {
		t.Errorf("expected 1 inner lookup, got %d", lookup.calls)
	}
}

func TestRunCache_DistinctModes_DistinctKeys(t *testing.T) {
	lookup := newFakeLookup()
	lookup.put("12 rue A", "34 rue B", pay.ModeTransit, 900, 3000)
	lookup.put("12 rue A", "34 rue B", pay.ModeDriving, 300, 3200)
	cache := pay.NewRunCache(lookup)

	ctx := context.Background()
	transit, _ := cache.Distance(ctx, "12 rue A", "34 rue B", pay.ModeTransit)
	driving, _ := cache.Distance(ctx, "12 rue A", "34 rue B", pay.ModeDriving)

	if transit.DurationSeconds != 900 || driving.DurationSeconds != 300 {
		t.Errorf("modes must not share cache entries: transit=%+v driving=%+v", transit, driving)
	}
	if lookup.calls != 2 {
		t.Errorf("expected 2 inner lookups, got %d", lookup.calls)
	}
}
