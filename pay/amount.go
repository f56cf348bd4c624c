/*
Package pay implements the draft-pay computation engine.

PURPOSE:
  This package contains the domain types and algorithms for computing a
  worker's provisional payroll over a period: hours worked, hours
  surcharged (and by which rule), paid transport time and distance, the
  balance against contractual hours, and the month-over-month diff.

KEY CONCEPTS IN THIS FILE (amount.go):
  - Amount: A quantity with a unit (e.g., 2.5 hours, 12 km, 38 euros)
  - Unit: Hours, kilometres, or euros

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Immutability: Amounts are values; arithmetic returns new Amounts
  3. Explicitness: Every quantity carries its unit

USAGE:
  worked := pay.NewAmount(2, pay.UnitHours)
  total := worked.Add(pay.HoursFromMinutes(30)) // 2.5 hours

SEE ALSO:
  - totals.go: The per-period accumulator built from Amounts
  - diff.go: Signed Amount deltas between periods
*/
package pay

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitHours      Unit = "hours"
	UnitKilometers Unit = "km"
	UnitEuros      Unit = "euros"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

// HoursFromMinutes converts a minute count into an hour Amount.
// All of the engine's internal arithmetic happens in minutes; results
// are exposed in hours.
func HoursFromMinutes(minutes float64) Amount {
	return Amount{Value: decimal.NewFromFloat(minutes).Div(decimal.NewFromInt(60)), Unit: UnitHours}
}

func ZeroHours() Amount  { return Amount{Value: decimal.Zero, Unit: UnitHours} }
func ZeroKm() Amount     { return Amount{Value: decimal.Zero, Unit: UnitKilometers} }
func ZeroEuros() Amount  { return Amount{Value: decimal.Zero, Unit: UnitEuros} }

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) MulFloat(f float64) Amount {
	return Amount{Value: a.Value.Mul(decimal.NewFromFloat(f)), Unit: a.Unit}
}
func (a Amount) Neg() Amount               { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) IsPositive() bool          { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool    { return a.Value.LessThan(b.Value) }
func (a Amount) Equal(b Amount) bool       { return a.Value.Equal(b.Value) }
func (a Amount) Float64() float64          { return a.Value.InexactFloat64() }

// Round returns the amount rounded to two decimal places. Pay diffs are
// always reported at this precision.
func (a Amount) Round() Amount {
	return Amount{Value: a.Value.Round(2), Unit: a.Unit}
}

// Max returns the larger of a and b.
func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// ClampAtZero floors the amount at zero. Hours-to-work can never be
// negative even when absences exceed contractual hours.
func (a Amount) ClampAtZero() Amount {
	if a.IsNegative() {
		return a.Zero()
	}
	return a
}
