/*
handlers.go - HTTP API handlers for the draft-pay engine

PURPOSE:
  Exposes the pay engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Workers:
    GET    /api/workers                  List all workers
    POST   /api/workers                  Create or replace a worker
    GET    /api/workers/{id}             Get worker details
    POST   /api/workers/{id}/events      Schedule an event or absence
    GET    /api/workers/{id}/summary     Worked/business days for a range

  Plans:
    GET    /api/plans                    List surcharge plans
    POST   /api/plans                    Create plan from JSON

  Pay:
    POST   /api/pay/draft                Run a draft-pay batch
    GET    /api/pay/records?month=       Stored records for a month

  Scenarios:
    GET    /api/scenarios                List demo scenarios
    POST   /api/scenarios/load           Load a demo scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - CatalogFactory: JSON to plan conversion
  - Calendar: Public-holiday calendar for the engine

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (orchestrator, stores)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/pay-engine/factory"
	"github.com/warp/pay-engine/pay"
	"github.com/warp/pay-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store          *sqlite.Store
	CatalogFactory *factory.CatalogFactory
	Calendar       pay.Calendar

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store and calendar.
func NewHandler(store *sqlite.Store, calendar pay.Calendar) *Handler {
	return &Handler{
		Store:          store,
		CatalogFactory: factory.NewCatalogFactory(),
		Calendar:       calendar,
	}
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

// ListWorkers returns all workers.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Store.ListWorkers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workers", err)
		return
	}

	dtos := make([]WorkerDTO, len(workers))
	for i, worker := range workers {
		dtos[i] = toWorkerDTO(worker)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetWorker returns a single worker.
func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	worker, err := h.Store.GetWorker(r.Context(), id)
	if err != nil {
		if pay.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Worker not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get worker", err)
		return
	}

	writeJSON(w, http.StatusOK, toWorkerDTO(*worker))
}

// CreateWorker creates or replaces a worker with its contract history.
func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Worker id is required", nil)
		return
	}

	worker := pay.Worker{
		ID:                   req.ID,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		TransportType:        pay.TransportType(req.TransportType),
		ZipCode:              req.ZipCode,
		TransportInvoiceLink: req.TransportInvoiceLink,
	}
	for _, c := range req.Contracts {
		version, err := contractFromDTO(c)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid contract date (use YYYY-MM-DD)", err)
			return
		}
		worker.Contracts = append(worker.Contracts, version)
	}

	if err := h.Store.SaveWorker(r.Context(), worker); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save worker", err)
		return
	}

	writeJSON(w, http.StatusCreated, toWorkerDTO(worker))
}

// CreateEvent schedules an event or absence for a worker.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "id")

	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Event id is required", nil)
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start (use RFC3339)", err)
		return
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end (use RFC3339)", err)
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "Event end before start", nil)
		return
	}

	event := pay.ScheduledEvent{
		ID:              req.ID,
		Type:            pay.EventType(req.Type),
		Start:           start,
		End:             end,
		WorkerID:        workerID,
		ServiceID:       req.ServiceID,
		HasFixedService: req.HasFixedService,
		Address:         req.Address,
		AbsenceNature:   pay.AbsenceNature(req.AbsenceNature),
	}
	switch event.Type {
	case pay.EventIntervention, pay.EventInternalHour, pay.EventAbsence:
	default:
		writeError(w, http.StatusBadRequest, "Unknown event type", nil)
		return
	}

	if err := h.Store.SaveEvent(r.Context(), event); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save event", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": event.ID, "status": "scheduled"})
}

// GetPeriodSummary returns worked vs business days for a worker's range.
func (h *Handler) GetPeriodSummary(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "id")

	query, err := rangeFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid range (use start/end as YYYY-MM-DD)", err)
		return
	}

	events, err := h.Store.EventsToPay(r.Context(), query, []string{workerID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load events", err)
		return
	}

	workedDays := 0
	if len(events) > 0 {
		workedDays = pay.WorkedDaysIn(events[0].EventsByDay)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"worker_id":     workerID,
		"start":         query.Start.Format("2006-01-02"),
		"end":           query.End.Format("2006-01-02"),
		"business_days": pay.BusinessDaysIn(h.Calendar, query.Start, query.End),
		"worked_days":   workedDays,
	})
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// ListPlans returns all surcharge plans.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Store.Plans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list plans", err)
		return
	}

	dtos := make([]PlanDTO, 0, len(plans))
	for _, plan := range plans {
		dtos = append(dtos, PlanDTO{Config: h.CatalogFactory.PlanToJSON(plan)})
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].Config.ID < dtos[j].Config.ID })

	writeJSON(w, http.StatusOK, dtos)
}

// CreatePlan creates a surcharge plan from its JSON config.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var pj factory.PlanJSON
	if err := json.NewDecoder(r.Body).Decode(&pj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	plan, err := h.CatalogFactory.PlanFromJSON(pj)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid surcharge plan", err)
		return
	}

	if err := h.Store.SavePlan(r.Context(), plan); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save plan", err)
		return
	}

	writeJSON(w, http.StatusCreated, PlanDTO{Config: h.CatalogFactory.PlanToJSON(plan)})
}

// =============================================================================
// PAY HANDLERS
// =============================================================================

// RunDraftPay runs the draft-pay batch for a range and returns the records.
// POST /api/pay/draft
func (h *Handler) RunDraftPay(w http.ResponseWriter, r *http.Request) {
	var req DraftPayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	query, err := rangeFromStrings(req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid range (use YYYY-MM-DD)", err)
		return
	}

	ctx := r.Context()

	company, err := h.Store.GetCompany(ctx, req.CompanyID)
	if err != nil {
		if pay.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Company not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load company", err)
		return
	}

	var workers []pay.Worker
	if len(req.WorkerIDs) > 0 {
		for _, id := range req.WorkerIDs {
			worker, err := h.Store.GetWorker(ctx, id)
			if err != nil {
				if pay.IsNotFound(err) {
					writeError(w, http.StatusNotFound, "Worker not found: "+id, nil)
					return
				}
				writeError(w, http.StatusInternalServerError, "Failed to load worker", err)
				return
			}
			workers = append(workers, *worker)
		}
	} else {
		workers, err = h.Store.ListWorkers(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list workers", err)
			return
		}
	}

	orchestrator, err := h.newOrchestrator(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load catalog", err)
		return
	}

	records, err := orchestrator.ComputeDraftPay(ctx, query, workers, *company)
	if err != nil {
		if pay.IsClientError(err) {
			writeError(w, http.StatusBadRequest, "Draft pay rejected", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Draft pay failed", err)
		return
	}

	if req.Persist {
		for _, record := range records {
			if err := h.Store.SavePayRecord(ctx, record); err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to save pay record", err)
				return
			}
		}
	}

	dtos := make([]PayRecordDTO, len(records))
	for i, record := range records {
		dtos[i] = toPayRecordDTO(record)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// ListPayRecords returns the stored records for a month ("2006-01").
// GET /api/pay/records?month=2026-07
func (h *Handler) ListPayRecords(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		writeError(w, http.StatusBadRequest, "Query parameter month is required", nil)
		return
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}

	records, err := h.Store.PayRecordsForMonth(r.Context(), month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pay records", err)
		return
	}

	dtos := make([]PayRecordDTO, len(records))
	for i, record := range records {
		dtos[i] = toPayRecordDTO(record)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// newOrchestrator wires the engine against the store's current catalog.
func (h *Handler) newOrchestrator(ctx context.Context) (*pay.Orchestrator, error) {
	services, err := h.Store.Services(ctx)
	if err != nil {
		return nil, err
	}
	plans, err := h.Store.Plans(ctx)
	if err != nil {
		return nil, err
	}
	return &pay.Orchestrator{
		Source:   h.Store,
		Pay:      h.Store,
		Lookup:   h.Store,
		Calendar: h.Calendar,
		Services: services,
		Plans:    plans,
	}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// rangeFromStrings parses a YYYY-MM-DD pair into an inclusive range.
// The end date covers its whole day.
func rangeFromStrings(start, end string) (pay.DateRange, error) {
	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return pay.DateRange{}, err
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return pay.DateRange{}, err
	}
	query := pay.DateRange{Start: from, End: to.Add(24*time.Hour - time.Second)}
	return query, query.Validate()
}

func rangeFromQuery(r *http.Request) (pay.DateRange, error) {
	return rangeFromStrings(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
}

func contractFromDTO(c ContractVersionDTO) (pay.ContractVersion, error) {
	start, err := time.Parse("2006-01-02", c.StartDate)
	if err != nil {
		return pay.ContractVersion{}, err
	}
	version := pay.ContractVersion{
		StartDate:   start,
		WeeklyHours: c.WeeklyHours,
		Status:      pay.ContractStatus(c.Status),
	}
	if c.EndDate != nil {
		end, err := time.Parse("2006-01-02", *c.EndDate)
		if err != nil {
			return pay.ContractVersion{}, err
		}
		version.EndDate = &end
	}
	return version, nil
}

func toWorkerDTO(w pay.Worker) WorkerDTO {
	dto := WorkerDTO{
		ID:                   w.ID,
		FirstName:            w.FirstName,
		LastName:             w.LastName,
		TransportType:        string(w.TransportType),
		ZipCode:              w.ZipCode,
		TransportInvoiceLink: w.TransportInvoiceLink,
		Contracts:            make([]ContractVersionDTO, len(w.Contracts)),
	}
	for i, c := range w.Contracts {
		cdto := ContractVersionDTO{
			StartDate:   c.StartDate.Format("2006-01-02"),
			WeeklyHours: c.WeeklyHours,
			Status:      string(c.Status),
		}
		if c.EndDate != nil {
			cdto.EndDate = strPtr(c.EndDate.Format("2006-01-02"))
		}
		dto.Contracts[i] = cdto
	}
	return dto
}

func toPayRecordDTO(r *pay.PayRecord) PayRecordDTO {
	return PayRecordDTO{
		WorkerID:  r.WorkerID,
		Month:     r.Month,
		StartDate: r.StartDate.Format("2006-01-02"),
		EndDate:   r.EndDate.Format("2006-01-02"),

		ContractHours: toAmountDTO(r.ContractHours),
		WorkedHours:   toAmountDTO(r.WorkedHours),
		InternalHours: toAmountDTO(r.InternalHours),

		NotSurchargedAndNotExempt: toAmountDTO(r.NotSurchargedAndNotExempt),
		SurchargedAndNotExempt:    toAmountDTO(r.SurchargedAndNotExempt),
		NotSurchargedAndExempt:    toAmountDTO(r.NotSurchargedAndExempt),
		SurchargedAndExempt:       toAmountDTO(r.SurchargedAndExempt),

		SurchargedAndNotExemptDetails: toDetailDTOs(r.SurchargedAndNotExemptDetails),
		SurchargedAndExemptDetails:    toDetailDTOs(r.SurchargedAndExemptDetails),

		PaidKm:             toAmountDTO(r.PaidKm),
		PaidTransportHours: toAmountDTO(r.PaidTransportHours),

		HolidaysHours: toAmountDTO(r.HolidaysHours),
		AbsencesHours: toAmountDTO(r.AbsencesHours),
		HoursToWork:   toAmountDTO(r.HoursToWork),
		HoursBalance:  toAmountDTO(r.HoursBalance),

		HoursCounter:              toAmountDTO(r.HoursCounter),
		PreviousMonthHoursCounter: toAmountDTO(r.PreviousMonthHoursCounter),

		Transport: toAmountDTO(r.Transport),
		OtherFees: toAmountDTO(r.OtherFees),

		Diff: toPayDiffDTO(r.Diff),
	}
}

func toPayDiffDTO(d pay.PayDiff) PayDiffDTO {
	return PayDiffDTO{
		WorkedHours:   toAmountDTO(d.WorkedHours),
		InternalHours: toAmountDTO(d.InternalHours),

		NotSurchargedAndNotExempt: toAmountDTO(d.NotSurchargedAndNotExempt),
		SurchargedAndNotExempt:    toAmountDTO(d.SurchargedAndNotExempt),
		NotSurchargedAndExempt:    toAmountDTO(d.NotSurchargedAndExempt),
		SurchargedAndExempt:       toAmountDTO(d.SurchargedAndExempt),

		SurchargedAndNotExemptDetails: toDetailDTOs(d.SurchargedAndNotExemptDetails),
		SurchargedAndExemptDetails:    toDetailDTOs(d.SurchargedAndExemptDetails),

		PaidKm:             toAmountDTO(d.PaidKm),
		PaidTransportHours: toAmountDTO(d.PaidTransportHours),

		AbsencesHours: toAmountDTO(d.AbsencesHours),
		HoursBalance:  toAmountDTO(d.HoursBalance),
	}
}

// toDetailDTOs flattens the plan/kind detail map, ordered by plan id
// then kind for stable responses.
func toDetailDTOs(details pay.SurchargeDetails) []SurchargeDetailDTO {
	dtos := make([]SurchargeDetailDTO, 0, len(details))
	for planID, plan := range details {
		for kind, detail := range plan.Kinds {
			dtos = append(dtos, SurchargeDetailDTO{
				PlanID:     string(planID),
				PlanName:   plan.PlanName,
				Kind:       string(kind),
				Hours:      detail.Hours.Round().Float64(),
				Percentage: detail.Percentage,
			})
		}
	}
	sort.Slice(dtos, func(i, j int) bool {
		if dtos[i].PlanID != dtos[j].PlanID {
			return dtos[i].PlanID < dtos[j].PlanID
		}
		return dtos[i].Kind < dtos[j].Kind
	})
	return dtos
}

func strPtr(s string) *string {
	return &s
}
