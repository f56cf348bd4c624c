/*
Package factory provides JSON to Go catalog conversion.

PURPOSE:
  Converts JSON catalog definitions (surcharge plans, services,
  companies) into pay package structs. This enables payroll
  configuration without code changes - operations staff can define
  surcharge rules in JSON, and the factory creates the proper Go
  structs after validating them.

WHY JSON?
  - Non-developers can modify surcharge rules
  - Easy integration with admin UI
  - Version control for rule definitions
  - Database storage of catalog configs

JSON SCHEMA:
  {
    "surcharge_plans": [
      {
        "id": "plan-weekend",
        "name": "Weekend and holidays",
        "sunday": 25,
        "public_holiday": 50,
        "twenty_fifth_of_december": 100,
        "evening": 20,
        "evening_window": {"start": "21:00", "end": "06:00"}
      }
    ],
    "services": [
      {
        "id": "svc-homecare",
        "name": "Home care",
        "exempt_from_charges": false,
        "surcharge_plan_id": "plan-weekend"
      }
    ],
    "company": {
      "id": "c-1",
      "name": "HomeCare SARL",
      "amount_per_km": 0.35,
      "phone_fee_amount": 20,
      "transport_subsidies": [{"department": "75", "price": 84.10}]
    }
  }

KEY FEATURES:
  - Validates window configuration before anything reaches a batch run
  - Rejects services pointing at unknown surcharge plans
  - Round-trips plans back to JSON for the admin API

USAGE:
  factory := NewCatalogFactory()
  catalog, err := factory.ParseCatalog(jsonString)

SEE ALSO:
  - pay/surcharge.go: Plan validation rules
  - api/scenarios.go: Seeds a demo catalog through this factory
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/pay-engine/pay"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// CatalogJSON is the top-level configuration document.
type CatalogJSON struct {
	SurchargePlans []PlanJSON    `json:"surcharge_plans,omitempty"`
	Services       []ServiceJSON `json:"services,omitempty"`
	Company        *CompanyJSON  `json:"company,omitempty"`
}

// PlanJSON is the JSON representation of a surcharge plan. Percentages
// at zero (or absent) leave the rule disabled.
type PlanJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Saturday              float64 `json:"saturday,omitempty"`
	Sunday                float64 `json:"sunday,omitempty"`
	PublicHoliday         float64 `json:"public_holiday,omitempty"`
	FirstOfMay            float64 `json:"first_of_may,omitempty"`
	TwentyFifthOfDecember float64 `json:"twenty_fifth_of_december,omitempty"`

	Evening       float64     `json:"evening,omitempty"`
	EveningWindow *WindowJSON `json:"evening_window,omitempty"`

	Custom       float64     `json:"custom,omitempty"`
	CustomWindow *WindowJSON `json:"custom_window,omitempty"`
}

// WindowJSON is an HH:MM clock window. End at or before start wraps
// past midnight.
type WindowJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ServiceJSON is the JSON representation of an intervention service.
type ServiceJSON struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	ExemptFromCharges bool   `json:"exempt_from_charges,omitempty"`
	SurchargePlanID   string `json:"surcharge_plan_id,omitempty"`
}

// CompanyJSON is the JSON representation of payroll company config.
type CompanyJSON struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	AmountPerKm    float64       `json:"amount_per_km,omitempty"`
	PhoneFeeAmount float64       `json:"phone_fee_amount,omitempty"`
	Subsidies      []SubsidyJSON `json:"transport_subsidies,omitempty"`
}

// SubsidyJSON is one per-department transit subsidy price.
type SubsidyJSON struct {
	Department string  `json:"department"`
	Price      float64 `json:"price"`
}

// =============================================================================
// CATALOG FACTORY
// =============================================================================

// Catalog is the parsed, validated configuration ready for the engine.
type Catalog struct {
	Plans    map[pay.PlanID]*pay.SurchargePlan
	Services map[string]pay.Service
	Company  *pay.Company
}

// CatalogFactory converts JSON catalogs to pay structs.
type CatalogFactory struct{}

// NewCatalogFactory creates a new catalog factory.
func NewCatalogFactory() *CatalogFactory {
	return &CatalogFactory{}
}

// ParseCatalog parses a JSON document into a validated Catalog.
func (f *CatalogFactory) ParseCatalog(jsonStr string) (*Catalog, error) {
	var cj CatalogJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// FromJSON converts CatalogJSON into a validated Catalog.
func (f *CatalogFactory) FromJSON(cj CatalogJSON) (*Catalog, error) {
	catalog := &Catalog{
		Plans:    make(map[pay.PlanID]*pay.SurchargePlan, len(cj.SurchargePlans)),
		Services: make(map[string]pay.Service, len(cj.Services)),
	}

	for _, pj := range cj.SurchargePlans {
		plan, err := f.PlanFromJSON(pj)
		if err != nil {
			return nil, err
		}
		if _, dup := catalog.Plans[plan.ID]; dup {
			return nil, fmt.Errorf("duplicate surcharge plan id: %s", plan.ID)
		}
		catalog.Plans[plan.ID] = plan
	}

	for _, sj := range cj.Services {
		if sj.ID == "" {
			return nil, fmt.Errorf("service with empty id")
		}
		if sj.SurchargePlanID != "" {
			if _, ok := catalog.Plans[pay.PlanID(sj.SurchargePlanID)]; !ok {
				return nil, fmt.Errorf("service %s: %w: %s",
					sj.ID, pay.ErrPlanNotFound, sj.SurchargePlanID)
			}
		}
		catalog.Services[sj.ID] = pay.Service{
			ID:                sj.ID,
			Name:              sj.Name,
			ExemptFromCharges: sj.ExemptFromCharges,
			SurchargePlanID:   pay.PlanID(sj.SurchargePlanID),
		}
	}

	if cj.Company != nil {
		company := pay.Company{
			ID:             cj.Company.ID,
			Name:           cj.Company.Name,
			AmountPerKm:    cj.Company.AmountPerKm,
			PhoneFeeAmount: cj.Company.PhoneFeeAmount,
		}
		for _, sub := range cj.Company.Subsidies {
			company.TransportSubs = append(company.TransportSubs, pay.TransportSubsidy{
				Department: sub.Department,
				Price:      sub.Price,
			})
		}
		catalog.Company = &company
	}

	return catalog, nil
}

// PlanFromJSON converts and validates one surcharge plan.
func (f *CatalogFactory) PlanFromJSON(pj PlanJSON) (*pay.SurchargePlan, error) {
	if pj.ID == "" {
		return nil, fmt.Errorf("surcharge plan with empty id")
	}

	plan := &pay.SurchargePlan{
		ID:   pay.PlanID(pj.ID),
		Name: pj.Name,

		Saturday:              pj.Saturday,
		Sunday:                pj.Sunday,
		PublicHoliday:         pj.PublicHoliday,
		FirstOfMay:            pj.FirstOfMay,
		TwentyFifthOfDecember: pj.TwentyFifthOfDecember,

		Evening: pj.Evening,
		Custom:  pj.Custom,
	}
	if pj.EveningWindow != nil {
		plan.EveningStart = pj.EveningWindow.Start
		plan.EveningEnd = pj.EveningWindow.End
	}
	if pj.CustomWindow != nil {
		plan.CustomStart = pj.CustomWindow.Start
		plan.CustomEnd = pj.CustomWindow.End
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// PlanToJSON converts a plan back to its JSON shape.
func (f *CatalogFactory) PlanToJSON(plan *pay.SurchargePlan) PlanJSON {
	pj := PlanJSON{
		ID:   string(plan.ID),
		Name: plan.Name,

		Saturday:              plan.Saturday,
		Sunday:                plan.Sunday,
		PublicHoliday:         plan.PublicHoliday,
		FirstOfMay:            plan.FirstOfMay,
		TwentyFifthOfDecember: plan.TwentyFifthOfDecember,

		Evening: plan.Evening,
		Custom:  plan.Custom,
	}
	if plan.EveningStart != "" || plan.EveningEnd != "" {
		pj.EveningWindow = &WindowJSON{Start: plan.EveningStart, End: plan.EveningEnd}
	}
	if plan.CustomStart != "" || plan.CustomEnd != "" {
		pj.CustomWindow = &WindowJSON{Start: plan.CustomStart, End: plan.CustomEnd}
	}
	return pj
}
