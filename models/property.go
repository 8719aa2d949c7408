package models

import "time"

// ValidationStatus classifies how complete a harvested record is.
// It is derived by the validator, never supplied by callers.
type ValidationStatus string

const (
	StatusPending ValidationStatus = "pending"
	StatusSuccess ValidationStatus = "success"
	StatusFailed  ValidationStatus = "failed"
)

// PropertyRecord is one harvested listing. The property link is the
// natural key — the store keeps at most one row per link. Pointer
// fields are nil when the source page did not yield a parseable value.
type PropertyRecord struct {
	ID                  int64    `json:"-"`
	Title               string   `json:"title"`
	PropertyLink        string   `json:"property_link"`
	Address             string   `json:"address"`
	Street              string   `json:"street"`
	City                string   `json:"city"`
	State               string   `json:"state"`
	ZipCode             string   `json:"zip_code"`
	ReviewScore         *float64 `json:"property_reviews"`
	ListingVerification string   `json:"listing_verification"`
	// LeaseOptions is nil when the lease-options card was absent
	// entirely, and an empty slice when the card existed but listed
	// no options. The distinction survives into the JSON snapshot.
	LeaseOptions     []string           `json:"lease_options"`
	YearBuilt        *int               `json:"year_built"`
	PropertyType     string             `json:"property_type"`
	ValidationStatus ValidationStatus   `json:"validation_status"`
	LastSeen         time.Time          `json:"timestamp"`
	FloorPlans       []*FloorPlanRecord `json:"pricing_and_floor_plans"`
}

// NewPropertyRecord returns a record with every field defaulted to
// "missing" so a partially failed extraction still produces a
// well-formed (if incomplete) record.
func NewPropertyRecord(url string) *PropertyRecord {
	return &PropertyRecord{
		PropertyLink:     url,
		PropertyType:     "Apartment",
		ValidationStatus: StatusPending,
		LastSeen:         time.Now().UTC(),
	}
}

// FloorPlanRecord is one unit card scraped from a detail page. Floor
// plans exist only in the context of their parent property and are
// rebuilt from scratch on every re-scrape.
type FloorPlanRecord struct {
	ApartmentName  string   `json:"apartment_name"`
	RentPriceRange string   `json:"rent_price_range"`
	Bedrooms       *int     `json:"bedrooms"`
	Bathrooms      *float64 `json:"bathrooms"`
	Sqft           *float64 `json:"sqft"`
	Unit           string   `json:"unit"`
	BaseRent       *float64 `json:"base_rent"`
	Availability   string   `json:"availability"`
	DetailsKey     string   `json:"details_link"`
}

// ScrapeOutcome wraps the result of one detail-page scrape: either a
// populated record or the failure that ended it. Outcomes are consumed
// by the validator, the snapshot writer and telemetry — never stored.
type ScrapeOutcome struct {
	URL    string
	Record *PropertyRecord
	Err    error
}

// Failed reports whether the scrape produced no usable record.
func (o ScrapeOutcome) Failed() bool {
	return o.Err != nil || o.Record == nil
}
