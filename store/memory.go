// Package store provides in-memory implementations of the pay engine's
// source interfaces, used by tests and the dev server.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/warp/pay-engine/pay"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	workers   map[string]pay.Worker
	companies map[string]pay.Company
	services  map[string]pay.Service
	plans     map[pay.PlanID]*pay.SurchargePlan
	events    map[string][]pay.ScheduledEvent // worker id -> events
	records   map[recordKey]*pay.PayRecord
	distances map[routeKey]*pay.DistanceEntry
}

type recordKey struct {
	WorkerID string
	Month    string
}

type routeKey struct {
	Origin      string
	Destination string
	Mode        pay.TravelMode
}

func NewMemory() *Memory {
	return &Memory{
		workers:   make(map[string]pay.Worker),
		companies: make(map[string]pay.Company),
		services:  make(map[string]pay.Service),
		plans:     make(map[pay.PlanID]*pay.SurchargePlan),
		events:    make(map[string][]pay.ScheduledEvent),
		records:   make(map[recordKey]*pay.PayRecord),
		distances: make(map[routeKey]*pay.DistanceEntry),
	}
}

// =============================================================================
// SEEDING
// =============================================================================

func (m *Memory) PutWorker(w pay.Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers[w.ID] = w
}

func (m *Memory) PutCompany(c pay.Company) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[c.ID] = c
}

func (m *Memory) PutService(s pay.Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[s.ID] = s
}

func (m *Memory) PutPlan(p *pay.SurchargePlan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = p
}

func (m *Memory) PutEvents(events ...pay.ScheduledEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range events {
		m.events[e.WorkerID] = append(m.events[e.WorkerID], e)
	}
}

func (m *Memory) PutDistance(origin, destination string, mode pay.TravelMode, entry pay.DistanceEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.distances[routeKey{origin, destination, mode}] = &entry
}

// =============================================================================
// ENGINE SOURCE INTERFACES
// =============================================================================

// EventsToPay returns per-worker day-grouped events and absences in the
// range. Workers without events in the range are omitted.
func (m *Memory) EventsToPay(_ context.Context, query pay.DateRange, workerIDs []string) ([]pay.WorkerEvents, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []pay.WorkerEvents
	for _, id := range workerIDs {
		var work, absences []pay.ScheduledEvent
		for _, e := range m.events[id] {
			if e.End.Before(query.Start) || e.Start.After(query.End) {
				continue
			}
			if e.Type == pay.EventAbsence {
				absences = append(absences, e)
			} else {
				work = append(work, e)
			}
		}
		if len(work) == 0 && len(absences) == 0 {
			continue
		}
		out = append(out, pay.WorkerEvents{
			Worker:      m.workers[id],
			EventsByDay: pay.GroupByDay(work),
			Absences:    absences,
		})
	}
	return out, nil
}

// PreviousPayRecord returns the stored record for the worker and month.
func (m *Memory) PreviousPayRecord(_ context.Context, workerID string, month time.Time) (*pay.PayRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[recordKey{WorkerID: workerID, Month: pay.MonthKey(month)}]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

// Distance implements pay.DistanceLookup. Unknown routes return nil.
func (m *Memory) Distance(_ context.Context, origin, destination string, mode pay.TravelMode) (*pay.DistanceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.distances[routeKey{origin, destination, mode}], nil
}

// =============================================================================
// RECORD PERSISTENCE (used by the API layer and scheduler)
// =============================================================================

func (m *Memory) SavePayRecord(_ context.Context, record *pay.PayRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *record
	m.records[recordKey{WorkerID: record.WorkerID, Month: record.Month}] = &clone
	return nil
}

func (m *Memory) PayRecordsForMonth(_ context.Context, month string) ([]*pay.PayRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*pay.PayRecord
	for k, r := range m.records {
		if k.Month == month {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

// =============================================================================
// CATALOG ACCESS
// =============================================================================

func (m *Memory) ListWorkers(_ context.Context) ([]pay.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]pay.Worker, 0, len(m.workers))
	for _, w := range m.workers {
		out = append(out, w)
	}
	return out, nil
}

func (m *Memory) GetCompany(_ context.Context, id string) (*pay.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) Services(_ context.Context) (map[string]pay.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]pay.Service, len(m.services))
	for id, s := range m.services {
		out[id] = s
	}
	return out, nil
}

func (m *Memory) Plans(_ context.Context) (map[pay.PlanID]*pay.SurchargePlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[pay.PlanID]*pay.SurchargePlan, len(m.plans))
	for id, p := range m.plans {
		clone := *p
		out[id] = &clone
	}
	return out, nil
}
