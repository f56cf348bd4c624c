/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements persistence for the pay engine's collaborators
  (pay.EventSource, pay.PayStore, pay.DistanceLookup) plus the catalog
  and pay-record storage the API layer needs. In production, the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  workers:             Worker identity and transport declaration
  contract_versions:   A worker's contractual history, ordered slices
  companies:           Payroll configuration (per-km rate, phone fee)
  transport_subsidies: Per-department transit subsidy prices
  services:            Intervention services with surcharge plan links
  surcharge_plans:     Time-based surcharge rule sets
  events:              Scheduled interventions, internal hours, absences
  pay_records:         One row per worker and month; the diff baseline
  distance_cache:      Persisted travel-matrix answers

PAY RECORD ENCODING:
  Scalar amounts are stored as decimal strings in dedicated columns so
  they survive round-trips exactly. The nested surcharge-details maps
  and the diff are stored as JSON blobs; they are read back whole and
  never queried into.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/pay.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - pay/sources.go: Interface definitions
  - store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/pay-engine/pay"
)

// Store implements the pay engine's storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reset clears all data. Development and demo use only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"pay_records", "events", "distance_cache", "contract_versions",
		"workers", "transport_subsidies", "companies", "services", "surcharge_plans",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Workers
	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		transport_type TEXT NOT NULL DEFAULT '',
		zip_code TEXT NOT NULL DEFAULT '',
		transport_invoice_link TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Contract versions (one worker, many ordered slices)
	CREATE TABLE IF NOT EXISTS contract_versions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		worker_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		weekly_hours REAL NOT NULL,
		status TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contract_versions_worker
		ON contract_versions(worker_id, start_date);

	-- Companies
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		amount_per_km REAL NOT NULL DEFAULT 0,
		phone_fee_amount REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transport_subsidies (
		company_id TEXT NOT NULL,
		department TEXT NOT NULL,
		price REAL NOT NULL,
		PRIMARY KEY (company_id, department)
	);

	-- Services
	CREATE TABLE IF NOT EXISTS services (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		exempt_from_charges BOOLEAN NOT NULL DEFAULT FALSE,
		surcharge_plan_id TEXT NOT NULL DEFAULT ''
	);

	-- Surcharge plans
	CREATE TABLE IF NOT EXISTS surcharge_plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		saturday REAL NOT NULL DEFAULT 0,
		sunday REAL NOT NULL DEFAULT 0,
		public_holiday REAL NOT NULL DEFAULT 0,
		first_of_may REAL NOT NULL DEFAULT 0,
		twenty_fifth_of_december REAL NOT NULL DEFAULT 0,
		evening REAL NOT NULL DEFAULT 0,
		evening_start TEXT NOT NULL DEFAULT '',
		evening_end TEXT NOT NULL DEFAULT '',
		custom REAL NOT NULL DEFAULT 0,
		custom_start TEXT NOT NULL DEFAULT '',
		custom_end TEXT NOT NULL DEFAULT ''
	);

	-- Scheduled events (interventions, internal hours, absences)
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		service_id TEXT NOT NULL DEFAULT '',
		has_fixed_service BOOLEAN NOT NULL DEFAULT FALSE,
		address TEXT NOT NULL DEFAULT '',
		absence_nature TEXT NOT NULL DEFAULT ''
	);

	-- Hot path: the batch run scans per worker and range.
	CREATE INDEX IF NOT EXISTS idx_events_worker_range
		ON events(worker_id, start_at, end_at);
	CREATE INDEX IF NOT EXISTS idx_events_type
		ON events(event_type);

	-- Pay records (one per worker and month; the diff baseline)
	CREATE TABLE IF NOT EXISTS pay_records (
		worker_id TEXT NOT NULL,
		month TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		contract_hours TEXT NOT NULL,
		worked_hours TEXT NOT NULL,
		internal_hours TEXT NOT NULL,
		not_surcharged_not_exempt TEXT NOT NULL,
		surcharged_not_exempt TEXT NOT NULL,
		not_surcharged_exempt TEXT NOT NULL,
		surcharged_exempt TEXT NOT NULL,
		paid_km TEXT NOT NULL,
		paid_transport_hours TEXT NOT NULL,
		holidays_hours TEXT NOT NULL,
		absences_hours TEXT NOT NULL,
		hours_to_work TEXT NOT NULL,
		hours_balance TEXT NOT NULL,
		hours_counter TEXT NOT NULL,
		previous_hours_counter TEXT NOT NULL,
		transport TEXT NOT NULL,
		other_fees TEXT NOT NULL,
		details_json TEXT NOT NULL,
		diff_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (worker_id, month)
	);

	CREATE INDEX IF NOT EXISTS idx_pay_records_month
		ON pay_records(month);

	-- Distance cache (persisted travel-matrix answers)
	CREATE TABLE IF NOT EXISTS distance_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		mode TEXT NOT NULL,
		duration_seconds REAL NOT NULL,
		distance_meters REAL NOT NULL,
		resolved_at TEXT NOT NULL,
		PRIMARY KEY (origin, destination, mode)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EVENT SOURCE (pay.EventSource interface)
// =============================================================================

// EventsToPay returns per-worker day-grouped work events and absences
// overlapping the range. Workers without any events are omitted.
func (s *Store) EventsToPay(ctx context.Context, query pay.DateRange, workerIDs []string) ([]pay.WorkerEvents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []pay.WorkerEvents
	for _, id := range workerIDs {
		worker, err := s.getWorker(ctx, id)
		if err != nil {
			return nil, err
		}
		if worker == nil {
			continue
		}

		rows, err := s.db.QueryContext(ctx, `
			SELECT id, worker_id, event_type, start_at, end_at,
			       service_id, has_fixed_service, address, absence_nature
			FROM events
			WHERE worker_id = ? AND end_at >= ? AND start_at <= ?
			ORDER BY start_at ASC`,
			id, query.Start.Format(time.RFC3339), query.End.Format(time.RFC3339))
		if err != nil {
			return nil, fmt.Errorf("failed to query events: %w", err)
		}

		var work, absences []pay.ScheduledEvent
		for rows.Next() {
			event, err := scanEvent(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			if event.Type == pay.EventAbsence {
				absences = append(absences, event)
			} else {
				work = append(work, event)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()

		if len(work) == 0 && len(absences) == 0 {
			continue
		}
		out = append(out, pay.WorkerEvents{
			Worker:      *worker,
			EventsByDay: pay.GroupByDay(work),
			Absences:    absences,
		})
	}
	return out, nil
}

func scanEvent(rows *sql.Rows) (pay.ScheduledEvent, error) {
	var (
		e              pay.ScheduledEvent
		startAt, endAt string
	)
	err := rows.Scan(&e.ID, &e.WorkerID, &e.Type, &startAt, &endAt,
		&e.ServiceID, &e.HasFixedService, &e.Address, &e.AbsenceNature)
	if err != nil {
		return e, fmt.Errorf("failed to scan event: %w", err)
	}
	e.Start, _ = time.Parse(time.RFC3339, startAt)
	e.End, _ = time.Parse(time.RFC3339, endAt)
	return e, nil
}

// SaveEvent inserts or replaces one scheduled event.
func (s *Store) SaveEvent(ctx context.Context, e pay.ScheduledEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO events
		(id, worker_id, event_type, start_at, end_at, service_id, has_fixed_service, address, absence_nature)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.WorkerID, e.Type,
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339),
		e.ServiceID, e.HasFixedService, e.Address, e.AbsenceNature)
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

// =============================================================================
// PAY RECORDS (pay.PayStore interface + persistence)
// =============================================================================

// payRecordColumns is shared by every pay_records SELECT.
const payRecordColumns = `
	worker_id, month, start_date, end_date,
	contract_hours, worked_hours, internal_hours,
	not_surcharged_not_exempt, surcharged_not_exempt,
	not_surcharged_exempt, surcharged_exempt,
	paid_km, paid_transport_hours,
	holidays_hours, absences_hours, hours_to_work, hours_balance,
	hours_counter, previous_hours_counter, transport, other_fees,
	details_json, diff_json`

// recordDetails is the JSON shape of the two detail maps.
type recordDetails struct {
	NotExempt pay.SurchargeDetails `json:"notExempt"`
	Exempt    pay.SurchargeDetails `json:"exempt"`
}

// PreviousPayRecord returns the worker's stored record for the month
// containing the given date, or nil when none was stored.
func (s *Store) PreviousPayRecord(ctx context.Context, workerID string, month time.Time) (*pay.PayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+payRecordColumns+` FROM pay_records WHERE worker_id = ? AND month = ?`,
		workerID, pay.MonthKey(month))

	record, err := scanPayRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return record, err
}

// SavePayRecord upserts a worker's record for its month.
func (s *Store) SavePayRecord(ctx context.Context, r *pay.PayRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	detailsJSON, err := json.Marshal(recordDetails{
		NotExempt: r.SurchargedAndNotExemptDetails,
		Exempt:    r.SurchargedAndExemptDetails,
	})
	if err != nil {
		return fmt.Errorf("failed to encode details: %w", err)
	}
	diffJSON, err := json.Marshal(r.Diff)
	if err != nil {
		return fmt.Errorf("failed to encode diff: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO pay_records
		(worker_id, month, start_date, end_date,
		 contract_hours, worked_hours, internal_hours,
		 not_surcharged_not_exempt, surcharged_not_exempt,
		 not_surcharged_exempt, surcharged_exempt,
		 paid_km, paid_transport_hours,
		 holidays_hours, absences_hours, hours_to_work, hours_balance,
		 hours_counter, previous_hours_counter, transport, other_fees,
		 details_json, diff_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.WorkerID, r.Month,
		r.StartDate.Format(time.RFC3339), r.EndDate.Format(time.RFC3339),
		r.ContractHours.Value.String(), r.WorkedHours.Value.String(), r.InternalHours.Value.String(),
		r.NotSurchargedAndNotExempt.Value.String(), r.SurchargedAndNotExempt.Value.String(),
		r.NotSurchargedAndExempt.Value.String(), r.SurchargedAndExempt.Value.String(),
		r.PaidKm.Value.String(), r.PaidTransportHours.Value.String(),
		r.HolidaysHours.Value.String(), r.AbsencesHours.Value.String(),
		r.HoursToWork.Value.String(), r.HoursBalance.Value.String(),
		r.HoursCounter.Value.String(), r.PreviousMonthHoursCounter.Value.String(),
		r.Transport.Value.String(), r.OtherFees.Value.String(),
		string(detailsJSON), string(diffJSON),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save pay record: %w", err)
	}
	return nil
}

// PayRecordsForMonth returns all records stored for a month key.
func (s *Store) PayRecordsForMonth(ctx context.Context, month string) ([]*pay.PayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+payRecordColumns+` FROM pay_records WHERE month = ? ORDER BY worker_id`, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query pay records: %w", err)
	}
	defer rows.Close()

	var out []*pay.PayRecord
	for rows.Next() {
		record, err := scanPayRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPayRecord(row scanner) (*pay.PayRecord, error) {
	var (
		r                  pay.PayRecord
		startDate, endDate string
		amounts            [17]string
		detailsJSON        string
		diffJSON           string
	)
	err := row.Scan(
		&r.WorkerID, &r.Month, &startDate, &endDate,
		&amounts[0], &amounts[1], &amounts[2], &amounts[3], &amounts[4],
		&amounts[5], &amounts[6], &amounts[7], &amounts[8], &amounts[9],
		&amounts[10], &amounts[11], &amounts[12], &amounts[13], &amounts[14],
		&amounts[15], &amounts[16],
		&detailsJSON, &diffJSON,
	)
	if err != nil {
		return nil, err
	}

	r.StartDate, _ = time.Parse(time.RFC3339, startDate)
	r.EndDate, _ = time.Parse(time.RFC3339, endDate)

	r.ContractHours = parseAmount(amounts[0], pay.UnitHours)
	r.WorkedHours = parseAmount(amounts[1], pay.UnitHours)
	r.InternalHours = parseAmount(amounts[2], pay.UnitHours)
	r.NotSurchargedAndNotExempt = parseAmount(amounts[3], pay.UnitHours)
	r.SurchargedAndNotExempt = parseAmount(amounts[4], pay.UnitHours)
	r.NotSurchargedAndExempt = parseAmount(amounts[5], pay.UnitHours)
	r.SurchargedAndExempt = parseAmount(amounts[6], pay.UnitHours)
	r.PaidKm = parseAmount(amounts[7], pay.UnitKilometers)
	r.PaidTransportHours = parseAmount(amounts[8], pay.UnitHours)
	r.HolidaysHours = parseAmount(amounts[9], pay.UnitHours)
	r.AbsencesHours = parseAmount(amounts[10], pay.UnitHours)
	r.HoursToWork = parseAmount(amounts[11], pay.UnitHours)
	r.HoursBalance = parseAmount(amounts[12], pay.UnitHours)
	r.HoursCounter = parseAmount(amounts[13], pay.UnitHours)
	r.PreviousMonthHoursCounter = parseAmount(amounts[14], pay.UnitHours)
	r.Transport = parseAmount(amounts[15], pay.UnitEuros)
	r.OtherFees = parseAmount(amounts[16], pay.UnitEuros)

	var details recordDetails
	if detailsJSON != "" {
		if err := json.Unmarshal([]byte(detailsJSON), &details); err != nil {
			return nil, fmt.Errorf("failed to decode details: %w", err)
		}
	}
	r.SurchargedAndNotExemptDetails = details.NotExempt
	r.SurchargedAndExemptDetails = details.Exempt
	if r.SurchargedAndNotExemptDetails == nil {
		r.SurchargedAndNotExemptDetails = make(pay.SurchargeDetails)
	}
	if r.SurchargedAndExemptDetails == nil {
		r.SurchargedAndExemptDetails = make(pay.SurchargeDetails)
	}

	if diffJSON != "" {
		if err := json.Unmarshal([]byte(diffJSON), &r.Diff); err != nil {
			return nil, fmt.Errorf("failed to decode diff: %w", err)
		}
	}

	return &r, nil
}

func parseAmount(value string, unit pay.Unit) pay.Amount {
	d, err := decimal.NewFromString(value)
	if err != nil {
		d = decimal.Zero
	}
	return pay.Amount{Value: d, Unit: unit}
}

// =============================================================================
// DISTANCE CACHE (pay.DistanceLookup interface)
// =============================================================================

// Distance returns the persisted travel-matrix answer for a route, or
// nil when the route was never resolved. In production the rows are
// populated by the matrix sync job; the engine itself only reads.
func (s *Store) Distance(ctx context.Context, origin, destination string, mode pay.TravelMode) (*pay.DistanceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entry pay.DistanceEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT duration_seconds, distance_meters FROM distance_cache
		WHERE origin = ? AND destination = ? AND mode = ?`,
		origin, destination, string(mode)).
		Scan(&entry.DurationSeconds, &entry.DistanceMeters)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query distance: %w", err)
	}
	return &entry, nil
}

// SaveDistance upserts one travel-matrix answer.
func (s *Store) SaveDistance(ctx context.Context, origin, destination string, mode pay.TravelMode, entry pay.DistanceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO distance_cache
		(origin, destination, mode, duration_seconds, distance_meters, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		origin, destination, string(mode),
		entry.DurationSeconds, entry.DistanceMeters,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save distance: %w", err)
	}
	return nil
}

// =============================================================================
// WORKERS
// =============================================================================

// SaveWorker upserts a worker and replaces its contract history.
func (s *Store) SaveWorker(ctx context.Context, w pay.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO workers
		(id, first_name, last_name, transport_type, zip_code, transport_invoice_link, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.FirstName, w.LastName, string(w.TransportType),
		w.ZipCode, w.TransportInvoiceLink,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save worker: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM contract_versions WHERE worker_id = ?`, w.ID); err != nil {
		return fmt.Errorf("failed to clear contract versions: %w", err)
	}
	for _, v := range w.Contracts {
		var endDate any
		if v.EndDate != nil {
			endDate = v.EndDate.Format(time.RFC3339)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contract_versions (worker_id, start_date, end_date, weekly_hours, status)
			VALUES (?, ?, ?, ?, ?)`,
			w.ID, v.StartDate.Format(time.RFC3339), endDate, v.WeeklyHours, string(v.Status))
		if err != nil {
			return fmt.Errorf("failed to save contract version: %w", err)
		}
	}

	return tx.Commit()
}

// GetWorker returns one worker with its contract history, or
// ErrWorkerNotFound.
func (s *Store) GetWorker(ctx context.Context, id string) (*pay.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	worker, err := s.getWorker(ctx, id)
	if err != nil {
		return nil, err
	}
	if worker == nil {
		return nil, fmt.Errorf("%w: %s", pay.ErrWorkerNotFound, id)
	}
	return worker, nil
}

func (s *Store) getWorker(ctx context.Context, id string) (*pay.Worker, error) {
	var w pay.Worker
	var transportType string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, transport_type, zip_code, transport_invoice_link
		FROM workers WHERE id = ?`, id).
		Scan(&w.ID, &w.FirstName, &w.LastName, &transportType, &w.ZipCode, &w.TransportInvoiceLink)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query worker: %w", err)
	}
	w.TransportType = pay.TransportType(transportType)

	w.Contracts, err = s.contractVersions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Store) contractVersions(ctx context.Context, workerID string) ([]pay.ContractVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT start_date, end_date, weekly_hours, status
		FROM contract_versions WHERE worker_id = ?
		ORDER BY start_date ASC`, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contract versions: %w", err)
	}
	defer rows.Close()

	var versions []pay.ContractVersion
	for rows.Next() {
		var (
			v         pay.ContractVersion
			startDate string
			endDate   sql.NullString
			status    string
		)
		if err := rows.Scan(&startDate, &endDate, &v.WeeklyHours, &status); err != nil {
			return nil, fmt.Errorf("failed to scan contract version: %w", err)
		}
		v.StartDate, _ = time.Parse(time.RFC3339, startDate)
		if endDate.Valid {
			t, _ := time.Parse(time.RFC3339, endDate.String)
			v.EndDate = &t
		}
		v.Status = pay.ContractStatus(status)
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// ListWorkers returns every stored worker with contract history.
func (s *Store) ListWorkers(ctx context.Context) ([]pay.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM workers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workers: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	workers := make([]pay.Worker, 0, len(ids))
	for _, id := range ids {
		w, err := s.getWorker(ctx, id)
		if err != nil {
			return nil, err
		}
		workers = append(workers, *w)
	}
	return workers, nil
}

// =============================================================================
// COMPANIES
// =============================================================================

// SaveCompany upserts a company and replaces its subsidy table.
func (s *Store) SaveCompany(ctx context.Context, c pay.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO companies (id, name, amount_per_km, phone_fee_amount, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.AmountPerKm, c.PhoneFeeAmount,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save company: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transport_subsidies WHERE company_id = ?`, c.ID); err != nil {
		return fmt.Errorf("failed to clear subsidies: %w", err)
	}
	for _, sub := range c.TransportSubs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transport_subsidies (company_id, department, price) VALUES (?, ?, ?)`,
			c.ID, sub.Department, sub.Price)
		if err != nil {
			return fmt.Errorf("failed to save subsidy: %w", err)
		}
	}

	return tx.Commit()
}

// GetCompany returns a company with its subsidies, or ErrCompanyNotFound.
func (s *Store) GetCompany(ctx context.Context, id string) (*pay.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c pay.Company
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, amount_per_km, phone_fee_amount FROM companies WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.AmountPerKm, &c.PhoneFeeAmount)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", pay.ErrCompanyNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query company: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT department, price FROM transport_subsidies WHERE company_id = ? ORDER BY department`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query subsidies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sub pay.TransportSubsidy
		if err := rows.Scan(&sub.Department, &sub.Price); err != nil {
			return nil, fmt.Errorf("failed to scan subsidy: %w", err)
		}
		c.TransportSubs = append(c.TransportSubs, sub)
	}
	return &c, rows.Err()
}

// =============================================================================
// SERVICES AND SURCHARGE PLANS
// =============================================================================

// SaveService upserts one service.
func (s *Store) SaveService(ctx context.Context, svc pay.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO services (id, name, exempt_from_charges, surcharge_plan_id)
		VALUES (?, ?, ?, ?)`,
		svc.ID, svc.Name, svc.ExemptFromCharges, string(svc.SurchargePlanID))
	if err != nil {
		return fmt.Errorf("failed to save service: %w", err)
	}
	return nil
}

// Services returns the full service catalog keyed by id.
func (s *Store) Services(ctx context.Context) (map[string]pay.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, exempt_from_charges, surcharge_plan_id FROM services`)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	out := make(map[string]pay.Service)
	for rows.Next() {
		var (
			svc    pay.Service
			planID string
		)
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.ExemptFromCharges, &planID); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		svc.SurchargePlanID = pay.PlanID(planID)
		out[svc.ID] = svc
	}
	return out, rows.Err()
}

// SavePlan validates and upserts one surcharge plan. Plans with a
// window percentage but no window times are rejected before they can
// poison a batch run.
func (s *Store) SavePlan(ctx context.Context, p *pay.SurchargePlan) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO surcharge_plans
		(id, name, saturday, sunday, public_holiday, first_of_may, twenty_fifth_of_december,
		 evening, evening_start, evening_end, custom, custom_start, custom_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(p.ID), p.Name, p.Saturday, p.Sunday, p.PublicHoliday,
		p.FirstOfMay, p.TwentyFifthOfDecember,
		p.Evening, p.EveningStart, p.EveningEnd,
		p.Custom, p.CustomStart, p.CustomEnd)
	if err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// Plans returns the full surcharge-plan catalog keyed by id.
func (s *Store) Plans(ctx context.Context) (map[pay.PlanID]*pay.SurchargePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, saturday, sunday, public_holiday, first_of_may, twenty_fifth_of_december,
		       evening, evening_start, evening_end, custom, custom_start, custom_end
		FROM surcharge_plans`)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	out := make(map[pay.PlanID]*pay.SurchargePlan)
	for rows.Next() {
		var (
			p  pay.SurchargePlan
			id string
		)
		err := rows.Scan(&id, &p.Name, &p.Saturday, &p.Sunday, &p.PublicHoliday,
			&p.FirstOfMay, &p.TwentyFifthOfDecember,
			&p.Evening, &p.EveningStart, &p.EveningEnd,
			&p.Custom, &p.CustomStart, &p.CustomEnd)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		p.ID = pay.PlanID(id)
		out[p.ID] = &p
	}
	return out, rows.Err()
}
