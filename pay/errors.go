/*
errors.go - Centralized error types for the pay engine

PURPOSE:
  All error types in one place for consistency and discoverability.

ERROR POLICY (three tiers):
  1. Exclusion (not an error)  - a worker with no active company
     contract for the period is silently omitted from the batch.
  2. Degraded computation (not an error) - missing surcharge config,
     transport-subsidy config, addresses or travel modes make the
     affected sub-computation contribute zero. Nothing deep in the
     engine produces a user-visible error for these.
  3. Contract violations (errors) - a malformed query range or a
     surcharge rule missing its companion window times indicate bad
     caller-supplied data and surface as a single batch-level failure.

USAGE:
  if errors.Is(err, pay.ErrInvalidRange) { ... }

SEE ALSO:
  - draft.go: Batch-level propagation
  - surcharge.go: Window validation
*/
package pay

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a query range ends before it starts.
	ErrInvalidRange = errors.New("invalid range: end before start")

	// ErrInvalidWindow is returned when a surcharge rule enables an
	// evening or custom surcharge without its start/end clock times.
	ErrInvalidWindow = errors.New("surcharge window missing start or end time")

	// ErrInvalidClockTime is returned when an HH:MM string cannot be parsed.
	ErrInvalidClockTime = errors.New("invalid clock time")

	// ErrWorkerNotFound is returned when a referenced worker doesn't exist.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrCompanyNotFound is returned when a referenced company doesn't exist.
	ErrCompanyNotFound = errors.New("company not found")

	// ErrPlanNotFound is returned when a referenced surcharge plan doesn't exist.
	ErrPlanNotFound = errors.New("surcharge plan not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// WindowError reports which plan and which window is malformed.
type WindowError struct {
	PlanID PlanID
	Kind   SurchargeKind
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("surcharge plan %s: %s window missing start or end time", e.PlanID, e.Kind)
}

func (e *WindowError) Unwrap() error { return ErrInvalidWindow }

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidWindow) ||
		errors.Is(err, ErrInvalidClockTime)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkerNotFound) ||
		errors.Is(err, ErrCompanyNotFound) ||
		errors.Is(err, ErrPlanNotFound)
}
