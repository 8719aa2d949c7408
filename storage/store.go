package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"apartment-harvester/models"
	"apartment-harvester/utils"
)

// Store persists harvested records with upsert-with-child-replace
// semantics, keyed on the natural property_link. It speaks plain
// database/sql so production runs on PostgreSQL while tests run on
// SQLite.
type Store struct {
	db     *sql.DB
	driver string
	logger *utils.Logger
}

// OpenPostgres connects to PostgreSQL, waits for it to become
// reachable, runs schema migrations, and returns a ready Store.
func OpenPostgres(dsn string, logger *utils.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: ping failed after retries: %w", err)
	}

	return newStore(db, "postgres", logger)
}

// Open wraps an already-opened database. The driver name selects the
// schema dialect ("postgres" or "sqlite").
func Open(db *sql.DB, driver string, logger *utils.Logger) (*Store, error) {
	return newStore(db, driver, logger)
}

func newStore(db *sql.DB, driver string, logger *utils.Logger) (*Store, error) {
	s := &Store{db: db, driver: driver, logger: logger}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return s, nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS property (
		id                   SERIAL PRIMARY KEY,
		property_link        TEXT UNIQUE NOT NULL,
		title                TEXT NOT NULL DEFAULT '',
		address              TEXT NOT NULL DEFAULT '',
		street               TEXT NOT NULL DEFAULT '',
		city                 TEXT NOT NULL DEFAULT '',
		state                TEXT NOT NULL DEFAULT '',
		zip_code             TEXT NOT NULL DEFAULT '',
		property_reviews     DOUBLE PRECISION,
		listing_verification TEXT NOT NULL DEFAULT '',
		lease_options        TEXT,
		year_built           INTEGER,
		property_type        TEXT NOT NULL DEFAULT 'Apartment',
		validation_status    TEXT NOT NULL DEFAULT 'pending'
			CHECK (validation_status IN ('pending', 'success', 'failed')),
		last_seen            TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS pricing_and_floor_plans (
		id               SERIAL PRIMARY KEY,
		property_id      INTEGER NOT NULL REFERENCES property(id) ON DELETE CASCADE,
		apartment_name   TEXT NOT NULL DEFAULT '',
		rent_price_range TEXT NOT NULL DEFAULT '',
		bedrooms         INTEGER,
		bathrooms        DOUBLE PRECISION,
		sqft             DOUBLE PRECISION,
		unit             TEXT NOT NULL DEFAULT '',
		base_rent        DOUBLE PRECISION,
		availability     TEXT NOT NULL DEFAULT '',
		details_link     TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_property_city ON property(city)`,
	`CREATE INDEX IF NOT EXISTS idx_property_year_built ON property(year_built)`,
	`CREATE INDEX IF NOT EXISTS idx_floor_plans_property ON pricing_and_floor_plans(property_id)`,
	`CREATE INDEX IF NOT EXISTS idx_floor_plans_bedrooms ON pricing_and_floor_plans(bedrooms)`,
	`CREATE INDEX IF NOT EXISTS idx_floor_plans_base_rent ON pricing_and_floor_plans(base_rent)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS property (
		id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		property_link        TEXT UNIQUE NOT NULL,
		title                TEXT NOT NULL DEFAULT '',
		address              TEXT NOT NULL DEFAULT '',
		street               TEXT NOT NULL DEFAULT '',
		city                 TEXT NOT NULL DEFAULT '',
		state                TEXT NOT NULL DEFAULT '',
		zip_code             TEXT NOT NULL DEFAULT '',
		property_reviews     REAL,
		listing_verification TEXT NOT NULL DEFAULT '',
		lease_options        TEXT,
		year_built           INTEGER,
		property_type        TEXT NOT NULL DEFAULT 'Apartment',
		validation_status    TEXT NOT NULL DEFAULT 'pending'
			CHECK (validation_status IN ('pending', 'success', 'failed')),
		last_seen            TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS pricing_and_floor_plans (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		property_id      INTEGER NOT NULL REFERENCES property(id) ON DELETE CASCADE,
		apartment_name   TEXT NOT NULL DEFAULT '',
		rent_price_range TEXT NOT NULL DEFAULT '',
		bedrooms         INTEGER,
		bathrooms        REAL,
		sqft             REAL,
		unit             TEXT NOT NULL DEFAULT '',
		base_rent        REAL,
		availability     TEXT NOT NULL DEFAULT '',
		details_link     TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_property_city ON property(city)`,
	`CREATE INDEX IF NOT EXISTS idx_floor_plans_property ON pricing_and_floor_plans(property_id)`,
}

func (s *Store) migrate() error {
	schema := postgresSchema
	if s.driver == "sqlite" {
		schema = sqliteSchema
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// q rewrites ? placeholders to $N for PostgreSQL. Queries are written
// with ? so the same statements run on SQLite in tests.
func (s *Store) q(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// UpsertBatch persists each record in its own transaction. A storage or
// integrity failure rolls back only that record's changes; the batch
// continues with the next one. Returns the saved and failed counts.
func (s *Store) UpsertBatch(records []*models.PropertyRecord) (saved, failed int) {
	for _, rec := range records {
		if rec == nil || rec.PropertyLink == "" {
			s.logger.Warn("[storage] Skipping record with no property_link")
			failed++
			continue
		}
		if err := s.upsertOne(rec); err != nil {
			s.logger.Error("[storage] Upsert failed for %s: %v", rec.PropertyLink, err)
			failed++
			continue
		}
		saved++
	}
	return saved, failed
}

// upsertOne runs the full upsert-with-child-replace for one record in a
// single transaction, so a concurrent reader never observes a property
// without its floor plans.
func (s *Store) upsertOne(rec *models.PropertyRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	leaseOptions := leaseOptionsJSON(rec.LeaseOptions)
	now := time.Now().UTC()

	var id int64
	err = tx.QueryRow(s.q(`SELECT id FROM property WHERE property_link = ?`), rec.PropertyLink).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = tx.QueryRow(s.q(`
			INSERT INTO property (
				property_link, title, address, street, city, state, zip_code,
				property_reviews, listing_verification, lease_options, year_built,
				property_type, validation_status, last_seen
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`),
			rec.PropertyLink, rec.Title, rec.Address, rec.Street, rec.City, rec.State,
			rec.ZipCode, rec.ReviewScore, rec.ListingVerification, leaseOptions,
			rec.YearBuilt, rec.PropertyType, string(rec.ValidationStatus), now,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert property: %w", err)
		}
	case err != nil:
		return fmt.Errorf("lookup property: %w", err)
	default:
		_, err = tx.Exec(s.q(`
			UPDATE property SET
				title = ?, address = ?, street = ?, city = ?, state = ?, zip_code = ?,
				property_reviews = ?, listing_verification = ?, lease_options = ?,
				year_built = ?, property_type = ?, validation_status = ?, last_seen = ?
			WHERE id = ?`),
			rec.Title, rec.Address, rec.Street, rec.City, rec.State, rec.ZipCode,
			rec.ReviewScore, rec.ListingVerification, leaseOptions, rec.YearBuilt,
			rec.PropertyType, string(rec.ValidationStatus), now, id,
		)
		if err != nil {
			return fmt.Errorf("update property: %w", err)
		}

		if _, err := tx.Exec(s.q(`DELETE FROM pricing_and_floor_plans WHERE property_id = ?`), id); err != nil {
			return fmt.Errorf("clear floor plans: %w", err)
		}
	}

	for _, fp := range rec.FloorPlans {
		_, err := tx.Exec(s.q(`
			INSERT INTO pricing_and_floor_plans (
				property_id, apartment_name, rent_price_range, bedrooms, bathrooms,
				sqft, unit, base_rent, availability, details_link
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			id, fp.ApartmentName, fp.RentPriceRange, fp.Bedrooms, fp.Bathrooms,
			fp.Sqft, fp.Unit, fp.BaseRent, fp.Availability, fp.DetailsKey,
		)
		if err != nil {
			return fmt.Errorf("insert floor plan: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	rec.ID = id
	rec.LastSeen = now
	return nil
}

// FetchAll retrieves every stored property with its floor plans,
// ordered by id.
func (s *Store) FetchAll() ([]*models.PropertyRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, property_link, title, address, street, city, state, zip_code,
			property_reviews, listing_verification, lease_options, year_built,
			property_type, validation_status, last_seen
		FROM property
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("storage: fetch properties: %w", err)
	}
	defer rows.Close()

	var records []*models.PropertyRecord
	for rows.Next() {
		rec := &models.PropertyRecord{}
		var leaseOptions sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.PropertyLink, &rec.Title, &rec.Address, &rec.Street,
			&rec.City, &rec.State, &rec.ZipCode, &rec.ReviewScore,
			&rec.ListingVerification, &leaseOptions, &rec.YearBuilt,
			&rec.PropertyType, &rec.ValidationStatus, &rec.LastSeen,
		); err != nil {
			return nil, fmt.Errorf("storage: scan property: %w", err)
		}
		if leaseOptions.Valid {
			options := []string{}
			if err := json.Unmarshal([]byte(leaseOptions.String), &options); err == nil {
				rec.LeaseOptions = options
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rec := range records {
		plans, err := s.fetchFloorPlans(rec.ID)
		if err != nil {
			return nil, err
		}
		rec.FloorPlans = plans
	}
	return records, nil
}

func (s *Store) fetchFloorPlans(propertyID int64) ([]*models.FloorPlanRecord, error) {
	rows, err := s.db.Query(s.q(`
		SELECT apartment_name, rent_price_range, bedrooms, bathrooms, sqft,
			unit, base_rent, availability, details_link
		FROM pricing_and_floor_plans
		WHERE property_id = ?
		ORDER BY id`), propertyID)
	if err != nil {
		return nil, fmt.Errorf("storage: fetch floor plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.FloorPlanRecord
	for rows.Next() {
		fp := &models.FloorPlanRecord{}
		if err := rows.Scan(
			&fp.ApartmentName, &fp.RentPriceRange, &fp.Bedrooms, &fp.Bathrooms,
			&fp.Sqft, &fp.Unit, &fp.BaseRent, &fp.Availability, &fp.DetailsKey,
		); err != nil {
			return nil, fmt.Errorf("storage: scan floor plan: %w", err)
		}
		plans = append(plans, fp)
	}
	return plans, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// leaseOptionsJSON serializes lease options for the lease_options text
// column. nil stays NULL so "card absent" survives a round trip.
func leaseOptionsJSON(options []string) any {
	if options == nil {
		return nil
	}
	b, err := json.Marshal(options)
	if err != nil {
		return nil
	}
	return string(b)
}
