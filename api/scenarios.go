/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates a company catalog,
	workers with contracts, and a month of scheduled events that
	demonstrate specific engine features.

AVAILABLE SCENARIOS:

	full-month:      Full-time worker, weekday/weekend/evening mix
	part-time:       Part-time worker with daily and hourly absences
	private-driver:  Private-car worker with chained interventions and km

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Seed the catalog (plans, services, company) via factory
 3. Create workers with contract versions
 4. Schedule a previous-month's worth of events
 5. Seed distance-cache entries for transport routes

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "full-month"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: RunDraftPay consumes the seeded data
  - factory/catalog.go: Catalog JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/pay-engine/pay"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "full-month",
		Name:        "Full Month",
		Description: "Full-time home-care worker with weekday, Sunday and evening interventions",
		Category:    "pay",
	},
	{
		ID:          "part-time",
		Name:        "Part-Time with Absences",
		Description: "Part-time worker mixing daily and hourly absences against contract hours",
		Category:    "pay",
	},
	{
		ID:          "private-driver",
		Name:        "Private Driver",
		Description: "Private-car worker with chained interventions, paid transport time and km",
		Category:    "pay",
	},
}

// demoCatalogJSON is shared by all scenarios: one surcharge plan, one
// standard and one exempt service, and a company with transit subsidy.
const demoCatalogJSON = `{
	"surcharge_plans": [
		{
			"id": "plan-weekend",
			"name": "Weekend and holidays",
			"sunday": 25,
			"public_holiday": 50,
			"first_of_may": 100,
			"twenty_fifth_of_december": 100,
			"evening": 20,
			"evening_window": {"start": "21:00", "end": "06:00"}
		}
	],
	"services": [
		{"id": "svc-homecare", "name": "Home care", "surcharge_plan_id": "plan-weekend"},
		{"id": "svc-family", "name": "Family help", "exempt_from_charges": true}
	],
	"company": {
		"id": "c-demo",
		"name": "HomeCare SARL",
		"amount_per_km": 0.35,
		"phone_fee_amount": 20,
		"transport_subsidies": [{"department": "75", "price": 84.10}]
	}
}`

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	// Scenario ID exists but not in list (shouldn't happen)
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "full-month":
		err = h.loadFullMonthScenario(ctx)
	case "part-time":
		err = h.loadPartTimeScenario(ctx)
	case "private-driver":
		err = h.loadPrivateDriverScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seedCatalog parses the demo catalog and persists plans, services and
// the company.
func (h *Handler) seedCatalog(ctx context.Context) error {
	catalog, err := h.CatalogFactory.ParseCatalog(demoCatalogJSON)
	if err != nil {
		return err
	}
	for _, plan := range catalog.Plans {
		if err := h.Store.SavePlan(ctx, plan); err != nil {
			return err
		}
	}
	for _, svc := range catalog.Services {
		if err := h.Store.SaveService(ctx, svc); err != nil {
			return err
		}
	}
	return h.Store.SaveCompany(ctx, *catalog.Company)
}

// demoMonth is the previous calendar month: draft pay is normally run
// for the month that just closed.
func demoMonth() pay.DateRange {
	return pay.PreviousMonthOf(time.Now().UTC())
}

func (h *Handler) loadFullMonthScenario(ctx context.Context) error {
	if err := h.seedCatalog(ctx); err != nil {
		return err
	}

	month := demoMonth()
	contractStart := month.Start.AddDate(-1, 0, 0)

	worker := pay.Worker{
		ID:                   "w-martin",
		FirstName:            "Claire",
		LastName:             "Martin",
		TransportType:        pay.TransportPublic,
		ZipCode:              "75011",
		TransportInvoiceLink: "https://files.example.com/invoices/w-martin-navigo.pdf",
		Contracts: []pay.ContractVersion{
			{StartDate: contractStart, WeeklyHours: 35, Status: pay.ContractCompany},
		},
	}
	if err := h.Store.SaveWorker(ctx, worker); err != nil {
		return err
	}

	// Weekday interventions: morning and afternoon visits, Monday
	// through Friday. Sundays get a morning visit hitting the weekend
	// surcharge; the last Friday runs late into the evening window.
	seq := 0
	for d := month.Start; !d.After(month.End); d = d.AddDate(0, 0, 1) {
		weekday := d.Weekday()
		if weekday == time.Saturday {
			continue
		}

		if weekday == time.Sunday {
			if err := h.saveIntervention(ctx, &seq, worker.ID, "svc-homecare",
				at(d, 9, 0), at(d, 12, 0), "12 Rue Oberkampf, Paris"); err != nil {
				return err
			}
			continue
		}

		if err := h.saveIntervention(ctx, &seq, worker.ID, "svc-homecare",
			at(d, 9, 0), at(d, 12, 0), "12 Rue Oberkampf, Paris"); err != nil {
			return err
		}
		if err := h.saveIntervention(ctx, &seq, worker.ID, "svc-family",
			at(d, 14, 0), at(d, 17, 0), "5 Avenue Parmentier, Paris"); err != nil {
			return err
		}
	}

	lastFriday := lastWeekdayOf(month, time.Friday)
	if err := h.saveIntervention(ctx, &seq, worker.ID, "svc-homecare",
		at(lastFriday, 20, 0), at(lastFriday, 23, 0), "12 Rue Oberkampf, Paris"); err != nil {
		return err
	}

	// Transit route between the two addresses, used for paid transport
	// minutes between the morning and afternoon visits.
	return h.Store.SaveDistance(ctx, "12 Rue Oberkampf, Paris", "5 Avenue Parmentier, Paris",
		pay.ModeTransit, pay.DistanceEntry{DurationSeconds: 900, DistanceMeters: 2100})
}

func (h *Handler) loadPartTimeScenario(ctx context.Context) error {
	if err := h.seedCatalog(ctx); err != nil {
		return err
	}

	month := demoMonth()
	contractStart := month.Start.AddDate(0, -6, 0)

	worker := pay.Worker{
		ID:            "w-dubois",
		FirstName:     "Paul",
		LastName:      "Dubois",
		TransportType: pay.TransportNone,
		ZipCode:       "93100",
		Contracts: []pay.ContractVersion{
			{StartDate: contractStart, WeeklyHours: 24, Status: pay.ContractCompany},
		},
	}
	if err := h.Store.SaveWorker(ctx, worker); err != nil {
		return err
	}

	// Mondays and Thursdays worked, 4 hours each.
	seq := 0
	for d := month.Start; !d.After(month.End); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Monday && d.Weekday() != time.Thursday {
			continue
		}
		if err := h.saveIntervention(ctx, &seq, worker.ID, "svc-homecare",
			at(d, 9, 0), at(d, 13, 0), "3 Rue de la Liberte, Saint-Denis"); err != nil {
			return err
		}
	}

	// A three-day daily absence in the second week, plus one hourly
	// absence later in the month.
	absenceStart := month.Start.AddDate(0, 0, 8)
	if err := h.Store.SaveEvent(ctx, pay.ScheduledEvent{
		ID:            "evt-absence-daily",
		Type:          pay.EventAbsence,
		AbsenceNature: pay.AbsenceDaily,
		Start:         at(absenceStart, 0, 0),
		End:           at(absenceStart.AddDate(0, 0, 2), 23, 59),
		WorkerID:      worker.ID,
	}); err != nil {
		return err
	}

	hourlyDay := month.Start.AddDate(0, 0, 18)
	return h.Store.SaveEvent(ctx, pay.ScheduledEvent{
		ID:            "evt-absence-hourly",
		Type:          pay.EventAbsence,
		AbsenceNature: pay.AbsenceHourly,
		Start:         at(hourlyDay, 9, 0),
		End:           at(hourlyDay, 12, 30),
		WorkerID:      worker.ID,
	})
}

func (h *Handler) loadPrivateDriverScenario(ctx context.Context) error {
	if err := h.seedCatalog(ctx); err != nil {
		return err
	}

	month := demoMonth()
	contractStart := month.Start.AddDate(-2, 0, 0)

	worker := pay.Worker{
		ID:            "w-rousseau",
		FirstName:     "Ines",
		LastName:      "Rousseau",
		TransportType: pay.TransportPrivate,
		ZipCode:       "94200",
		Contracts: []pay.ContractVersion{
			{StartDate: contractStart, WeeklyHours: 30, Status: pay.ContractCompany},
		},
	}
	if err := h.Store.SaveWorker(ctx, worker); err != nil {
		return err
	}

	// Three chained visits per weekday; the gaps between them are what
	// the transport calculator pays.
	addresses := []string{
		"8 Rue Victor Hugo, Ivry-sur-Seine",
		"22 Boulevard de Brandebourg, Ivry-sur-Seine",
		"14 Rue Moliere, Vitry-sur-Seine",
	}
	seq := 0
	for d := month.Start; !d.After(month.End); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		starts := []int{9, 11, 14}
		for i, hour := range starts {
			if err := h.saveIntervention(ctx, &seq, worker.ID, "svc-homecare",
				at(d, hour, 0), at(d, hour+1, 30), addresses[i]); err != nil {
				return err
			}
		}
	}

	// Driving routes between consecutive visit addresses.
	routes := []struct {
		origin, destination string
		seconds, meters     float64
	}{
		{addresses[0], addresses[1], 480, 3200},
		{addresses[1], addresses[2], 720, 5400},
	}
	for _, route := range routes {
		if err := h.Store.SaveDistance(ctx, route.origin, route.destination, pay.ModeDriving,
			pay.DistanceEntry{DurationSeconds: route.seconds, DistanceMeters: route.meters}); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) saveIntervention(ctx context.Context, seq *int, workerID, serviceID string, start, end time.Time, address string) error {
	*seq++
	return h.Store.SaveEvent(ctx, pay.ScheduledEvent{
		ID:        fmt.Sprintf("evt-%s-%03d", workerID, *seq),
		Type:      pay.EventIntervention,
		Start:     start,
		End:       end,
		WorkerID:  workerID,
		ServiceID: serviceID,
		Address:   address,
	})
}

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}

func lastWeekdayOf(month pay.DateRange, weekday time.Weekday) time.Time {
	for d := month.End; !d.Before(month.Start); d = d.AddDate(0, 0, -1) {
		if d.Weekday() == weekday {
			return d
		}
	}
	return month.Start
}
