/*
contract.go - Contract versions and contractual-hours computation

PURPOSE:
  A worker holds an ordered, non-overlapping sequence of contract
  versions. Exactly one version matches any given date: the latest
  version whose start is on or before the date. The draft-pay run keys
  everything off the active company contract as of the range end.

MONTH INFO:
  Contractual hours for a month are prorated by business days: a
  version covering half the month's business days contributes half of
  weeklyHours * 4.33. Holiday hours follow the weeklyHours/6 daily rate
  (six-day working week).

SEE ALSO:
  - aggregate.go: Uses ContractMonthInfo for hoursToWork
  - draft.go: Uses ActiveCompanyContract for worker eligibility
*/
package pay

import "time"

// =============================================================================
// CONTRACT VERSION
// =============================================================================

type ContractStatus string

const (
	// ContractCompany is a contract between the worker and the company.
	// Only company contracts make a worker eligible for a pay run.
	ContractCompany ContractStatus = "contract_with_company"

	// ContractCustomer is a direct-employment contract with a customer.
	ContractCustomer ContractStatus = "contract_with_customer"
)

// ContractVersion is one slice of a worker's contractual history.
// EndDate nil means the version is still open.
type ContractVersion struct {
	StartDate   time.Time
	EndDate     *time.Time
	WeeklyHours float64
	Status      ContractStatus
}

// Covers reports whether the version is in force on the given date:
// started on or before it, and not yet ended (end is exclusive).
func (v ContractVersion) Covers(date time.Time) bool {
	if v.StartDate.After(date) {
		return false
	}
	return v.EndDate == nil || v.EndDate.After(date)
}

// ActiveCompanyContract returns the company-contract version active on
// the reference date, or nil. A nil result excludes the worker from the
// batch; it is not an error.
func ActiveCompanyContract(versions []ContractVersion, date time.Time) *ContractVersion {
	for i := range versions {
		v := &versions[i]
		if v.Status == ContractCompany && v.Covers(date) {
			return v
		}
	}
	return nil
}

// MatchingVersion returns the latest version whose start is on or
// before the date, or nil when the worker had no contract yet.
func MatchingVersion(versions []ContractVersion, date time.Time) *ContractVersion {
	var match *ContractVersion
	for i := range versions {
		v := &versions[i]
		if v.StartDate.After(date) {
			continue
		}
		if match == nil || v.StartDate.After(match.StartDate) {
			match = v
		}
	}
	return match
}

// =============================================================================
// CONTRACT MONTH INFO
// =============================================================================

// MonthInfo carries the contractual figures for one month's query range.
type MonthInfo struct {
	ContractHours Amount
	HolidaysHours Amount
}

// weeksPerMonth is the conventional average used to turn weekly
// contractual hours into a monthly figure.
const weeksPerMonth = 4.33

// ContractMonthInfo computes contractHours and holidaysHours for the
// query range. Each version overlapping the range contributes
// weeklyHours * 4.33 prorated by its share of the month's business
// days; public holidays falling on otherwise-worked days contribute
// weeklyHours / 6 each.
func ContractMonthInfo(versions []ContractVersion, query DateRange, cal Calendar) MonthInfo {
	info := MonthInfo{ContractHours: ZeroHours(), HolidaysHours: ZeroHours()}

	month := MonthOf(query.Start)
	monthBusinessDays := BusinessDaysIn(cal, month.Start, month.End)
	if monthBusinessDays == 0 {
		return info
	}

	for _, v := range versions {
		from, to, ok := versionOverlap(v, query)
		if !ok {
			continue
		}

		ratio := float64(BusinessDaysIn(cal, from, to)) / float64(monthBusinessDays)
		info.ContractHours = info.ContractHours.Add(
			NewAmount(v.WeeklyHours*weeksPerMonth*ratio, UnitHours))

		holidays := HolidaysOnBusinessWeekdaysIn(cal, from, to)
		if holidays > 0 {
			info.HolidaysHours = info.HolidaysHours.Add(
				NewAmount(float64(holidays)*v.WeeklyHours/6, UnitHours))
		}
	}
	return info
}

// versionOverlap intersects a version with the query range.
func versionOverlap(v ContractVersion, query DateRange) (from, to time.Time, ok bool) {
	from = v.StartDate
	if from.Before(query.Start) {
		from = query.Start
	}
	to = query.End
	if v.EndDate != nil && v.EndDate.Before(to) {
		to = *v.EndDate
	}
	if to.Before(from) {
		return from, to, false
	}
	return from, to, true
}

// =============================================================================
// WORKER
// =============================================================================

type TransportType string

const (
	TransportPublic  TransportType = "public"
	TransportPrivate TransportType = "private"
	TransportNone    TransportType = ""
)

// Worker is the subject of one draft-pay computation.
type Worker struct {
	ID        string
	FirstName string
	LastName  string

	TransportType TransportType
	ZipCode       string
	// TransportInvoiceLink points at the uploaded transit invoice.
	// Without it the transit refund degrades to zero.
	TransportInvoiceLink string

	Contracts []ContractVersion
}

// TravelMode maps the worker's declared transport to a lookup mode.
// Workers without a declared transport get no paid transport time.
func (w Worker) TravelMode() (TravelMode, bool) {
	switch w.TransportType {
	case TransportPublic:
		return ModeTransit, true
	case TransportPrivate:
		return ModeDriving, true
	default:
		return "", false
	}
}

// Department extracts the department code from the worker's zip code.
func (w Worker) Department() string {
	if len(w.ZipCode) < 2 {
		return ""
	}
	return w.ZipCode[:2]
}

// =============================================================================
// COMPANY
// =============================================================================

// TransportSubsidy is the company's transit-subsidy price for one
// department.
type TransportSubsidy struct {
	Department string
	Price      float64
}

// Company carries the payroll-relevant company configuration.
type Company struct {
	ID   string
	Name string

	// AmountPerKm prices private-vehicle kilometres.
	AmountPerKm float64

	// PhoneFeeAmount is a flat monthly fee refunded alongside pay.
	PhoneFeeAmount float64

	TransportSubs []TransportSubsidy
}

// SubsidyFor returns the transit subsidy matching a department, or nil.
func (c Company) SubsidyFor(department string) *TransportSubsidy {
	for i := range c.TransportSubs {
		if c.TransportSubs[i].Department == department {
			return &c.TransportSubs[i]
		}
	}
	return nil
}
