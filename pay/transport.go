/*
transport.go - Paid transport time between consecutive events

PURPOSE:
  Determines how much transport time and distance a worker is paid for
  between two consecutive events of the same day, combining a real
  travel-time lookup with the literal scheduling gap.

THE PICK HEURISTIC:
  The lookup duration is used when it exceeds the break between events,
  or when the break exceeds the lookup by more than 15 minutes;
  otherwise the literal break is paid. The tolerance band is one-sided
  on purpose: it is preserved exactly from the production rule set, and
  a test documents the quirk. Do not "fix" it.

CACHING:
  Lookups are cached per batch run, keyed (origin, destination, mode).
  The cache is write-once per key and never invalidated during a run,
  so concurrent workers can extend it without racing on existing keys.

SEE ALSO:
  - split.go: Chooses the preceding event the gap is measured against
  - store/sqlite: Persisted distance-matrix backing the lookup
*/
package pay

import (
	"context"
	"sync"
)

// =============================================================================
// DISTANCE LOOKUP
// =============================================================================

type TravelMode string

const (
	ModeDriving TravelMode = "driving"
	ModeTransit TravelMode = "transit"
)

// DistanceEntry is a raw lookup result: seconds and metres, the units
// the external matrix service answers in.
type DistanceEntry struct {
	DurationSeconds float64
	DistanceMeters  float64
}

// DistanceLookup resolves travel duration/distance between two
// addresses for a travel mode. A nil entry means the route is unknown;
// the affected transport computation degrades to zero.
type DistanceLookup interface {
	Distance(ctx context.Context, origin, destination string, mode TravelMode) (*DistanceEntry, error)
}

// =============================================================================
// RUN CACHE - Per-batch-run lookup memoization
// =============================================================================

type distanceKey struct {
	Origin      string
	Destination string
	Mode        TravelMode
}

// RunCache memoizes lookups for the duration of one batch run.
// Write-once per key: entries are never invalidated, so readers never
// observe a key changing under them.
type RunCache struct {
	inner DistanceLookup

	mu      sync.Mutex
	entries map[distanceKey]*DistanceEntry
}

// NewRunCache wraps a lookup with a fresh per-run cache. The cache is
// discarded with the run; nothing carries across batches.
func NewRunCache(inner DistanceLookup) *RunCache {
	return &RunCache{inner: inner, entries: make(map[distanceKey]*DistanceEntry)}
}

func (c *RunCache) Distance(ctx context.Context, origin, destination string, mode TravelMode) (*DistanceEntry, error) {
	k := distanceKey{Origin: origin, Destination: destination, Mode: mode}

	c.mu.Lock()
	if entry, ok := c.entries[k]; ok {
		c.mu.Unlock()
		return entry, nil
	}
	c.mu.Unlock()

	entry, err := c.inner.Distance(ctx, origin, destination, mode)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if cached, ok := c.entries[k]; ok {
		// Another worker resolved the same key first; keep its entry.
		entry = cached
	} else {
		c.entries[k] = entry
	}
	c.mu.Unlock()
	return entry, nil
}

// =============================================================================
// TRANSPORT CALCULATOR
// =============================================================================

// PaidTransport is the credited transport between two events.
type PaidTransport struct {
	DurationMinutes float64
	DistanceKm      float64
}

// breakToleranceMinutes is how much longer than the looked-up travel
// time a scheduling gap may be before we stop paying the full gap.
const breakToleranceMinutes = 15

// TransportCalculator computes paid transport between events.
type TransportCalculator struct {
	Lookup DistanceLookup
}

// Between returns the paid transport from prev to current. It returns
// zero transport when there is no preceding event, either event has a
// fixed service, an address is missing, or the mode is unknown --
// degraded computation, never an error surfaced to the caller.
func (t *TransportCalculator) Between(ctx context.Context, prev *ScheduledEvent, current ScheduledEvent, mode TravelMode) PaidTransport {
	if prev == nil || prev.HasFixedService || current.HasFixedService {
		return PaidTransport{}
	}
	if prev.Address == "" || current.Address == "" || mode == "" {
		return PaidTransport{}
	}

	entry, err := t.Lookup.Distance(ctx, prev.Address, current.Address, mode)
	if err != nil || entry == nil {
		return PaidTransport{}
	}

	lookupMinutes := entry.DurationSeconds / 60
	breakMinutes := current.Start.Sub(prev.End).Minutes()

	// Pay the lookup when the gap is too tight for real travel, or
	// suspiciously generous; otherwise pay the literal gap.
	duration := breakMinutes
	if lookupMinutes > breakMinutes || breakMinutes > lookupMinutes+breakToleranceMinutes {
		duration = lookupMinutes
	}

	return PaidTransport{
		DurationMinutes: duration,
		DistanceKm:      entry.DistanceMeters / 1000,
	}
}
