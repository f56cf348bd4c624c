/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Worker:
    WorkerDTO, ContractVersionDTO, CreateWorkerRequest

  Events:
    CreateEventRequest

  Pay:
    DraftPayRequest, PayRecordDTO, PayDiffDTO, SurchargeDetailDTO

  Plans:
    PlanDTO (wraps factory.PlanJSON)

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/catalog.go: PlanJSON type
*/
package api

import (
	"github.com/warp/pay-engine/factory"
	"github.com/warp/pay-engine/pay"
)

// =============================================================================
// WORKER TYPES
// =============================================================================

// WorkerDTO represents a worker in API responses.
type WorkerDTO struct {
	ID                   string               `json:"id"`
	FirstName            string               `json:"first_name"`
	LastName             string               `json:"last_name"`
	TransportType        string               `json:"transport_type,omitempty"`
	ZipCode              string               `json:"zip_code,omitempty"`
	TransportInvoiceLink string               `json:"transport_invoice_link,omitempty"`
	Contracts            []ContractVersionDTO `json:"contracts"`
}

// ContractVersionDTO represents one contract slice.
type ContractVersionDTO struct {
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date,omitempty"`
	WeeklyHours float64 `json:"weekly_hours"`
	Status      string  `json:"status"`
}

// CreateWorkerRequest is the request to create or replace a worker.
type CreateWorkerRequest struct {
	ID                   string               `json:"id"`
	FirstName            string               `json:"first_name"`
	LastName             string               `json:"last_name"`
	TransportType        string               `json:"transport_type,omitempty"`
	ZipCode              string               `json:"zip_code,omitempty"`
	TransportInvoiceLink string               `json:"transport_invoice_link,omitempty"`
	Contracts            []ContractVersionDTO `json:"contracts"`
}

// =============================================================================
// EVENT TYPES
// =============================================================================

// CreateEventRequest is the request to schedule an event.
type CreateEventRequest struct {
	ID              string `json:"id"`
	Type            string `json:"type"` // intervention, internal_hour, absence
	Start           string `json:"start"`
	End             string `json:"end"`
	ServiceID       string `json:"service_id,omitempty"`
	HasFixedService bool   `json:"has_fixed_service,omitempty"`
	Address         string `json:"address,omitempty"`
	AbsenceNature   string `json:"absence_nature,omitempty"` // daily, hourly
}

// =============================================================================
// PAY TYPES
// =============================================================================

// DraftPayRequest triggers a draft-pay batch run.
type DraftPayRequest struct {
	CompanyID string   `json:"company_id"`
	Start     string   `json:"start"` // 2006-01-02
	End       string   `json:"end"`
	WorkerIDs []string `json:"worker_ids,omitempty"` // Empty: all workers
	Persist   bool     `json:"persist,omitempty"`
}

// AmountDTO is a quantity with its unit.
type AmountDTO struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

func toAmountDTO(a pay.Amount) AmountDTO {
	return AmountDTO{Value: a.Round().Float64(), Unit: string(a.Unit)}
}

// SurchargeDetailDTO is one plan/kind attribution.
type SurchargeDetailDTO struct {
	PlanID     string  `json:"plan_id"`
	PlanName   string  `json:"plan_name"`
	Kind       string  `json:"kind"`
	Hours      float64 `json:"hours"`
	Percentage float64 `json:"percentage"`
}

// PayRecordDTO represents one worker's draft pay for a period.
type PayRecordDTO struct {
	WorkerID  string `json:"worker_id"`
	Month     string `json:"month"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	ContractHours AmountDTO `json:"contract_hours"`
	WorkedHours   AmountDTO `json:"worked_hours"`
	InternalHours AmountDTO `json:"internal_hours"`

	NotSurchargedAndNotExempt AmountDTO `json:"not_surcharged_and_not_exempt"`
	SurchargedAndNotExempt    AmountDTO `json:"surcharged_and_not_exempt"`
	NotSurchargedAndExempt    AmountDTO `json:"not_surcharged_and_exempt"`
	SurchargedAndExempt       AmountDTO `json:"surcharged_and_exempt"`

	SurchargedAndNotExemptDetails []SurchargeDetailDTO `json:"surcharged_and_not_exempt_details"`
	SurchargedAndExemptDetails    []SurchargeDetailDTO `json:"surcharged_and_exempt_details"`

	PaidKm             AmountDTO `json:"paid_km"`
	PaidTransportHours AmountDTO `json:"paid_transport_hours"`

	HolidaysHours AmountDTO `json:"holidays_hours"`
	AbsencesHours AmountDTO `json:"absences_hours"`
	HoursToWork   AmountDTO `json:"hours_to_work"`
	HoursBalance  AmountDTO `json:"hours_balance"`

	HoursCounter              AmountDTO `json:"hours_counter"`
	PreviousMonthHoursCounter AmountDTO `json:"previous_month_hours_counter"`

	Transport AmountDTO `json:"transport"`
	OtherFees AmountDTO `json:"other_fees"`

	Diff PayDiffDTO `json:"diff"`
}

// PayDiffDTO represents the month-over-month correction.
type PayDiffDTO struct {
	WorkedHours   AmountDTO `json:"worked_hours"`
	InternalHours AmountDTO `json:"internal_hours"`

	NotSurchargedAndNotExempt AmountDTO `json:"not_surcharged_and_not_exempt"`
	SurchargedAndNotExempt    AmountDTO `json:"surcharged_and_not_exempt"`
	NotSurchargedAndExempt    AmountDTO `json:"not_surcharged_and_exempt"`
	SurchargedAndExempt       AmountDTO `json:"surcharged_and_exempt"`

	SurchargedAndNotExemptDetails []SurchargeDetailDTO `json:"surcharged_and_not_exempt_details"`
	SurchargedAndExemptDetails    []SurchargeDetailDTO `json:"surcharged_and_exempt_details"`

	PaidKm             AmountDTO `json:"paid_km"`
	PaidTransportHours AmountDTO `json:"paid_transport_hours"`

	AbsencesHours AmountDTO `json:"absences_hours"`
	HoursBalance  AmountDTO `json:"hours_balance"`
}

// =============================================================================
// PLAN TYPES
// =============================================================================

// PlanDTO represents a surcharge plan in API responses.
type PlanDTO struct {
	Config factory.PlanJSON `json:"config"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// ScenarioDTO describes one demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
