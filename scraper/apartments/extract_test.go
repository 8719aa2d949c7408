package apartments

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"

	"apartment-harvester/models"
)

const detailPageHTML = `<html><body>
<h1 class="propertyName"> The Madison Residences </h1>
<div class="propertyAddressContainer">
  <div class="delivery-address"><span>123 W Madison St</span></div>
  <h2>
    <span class="address-city">Chicago</span>
    <span class="stateZipContainer"><span>IL</span> <span>60602</span></span>
  </h2>
</div>
<span class="reviewRating">4.5</span>
<span class="verifedText">Verified Listing</span>
<div class="feesPoliciesCard">
  <h3>Lease Options</h3>
  <div class="component-list">
    <div class="column">12 months</div>
    <div class="column">6 months</div>
  </div>
</div>
<div class="feesPoliciesCard">
  <h3>Property Information</h3>
  <div class="component-list">
    <div class="column">Built in 1998</div>
    <div class="column">240 units / 12 stories</div>
  </div>
</div>
<ul>
  <li class="unitContainer" data-beds="2" data-baths="2.0" data-unitkey="u-101">
    <span class="modelName">B2</span>
    <span class="rentLabel">$2,350 - $2,600</span>
    <div class="sqftColumn"><span class="screenReaderOnly">Square Feet</span><span>1,050</span></div>
    <div class="unitColumn"><span title="Unit 101">101</span></div>
    <div class="pricingColumn"><span class="screenReaderOnly">Price</span><span>$2,350</span></div>
    <div class="availableColumn"><span class="dateAvailable screenReaderOnly">Availability</span><span class="dateAvailable">Now</span></div>
  </li>
  <li class="unitContainer" data-beds="1" data-baths="1.0">
    <span class="modelName">A1</span>
    <span class="rentLabel">Call for Rent</span>
    <div class="detailsTextWrapper"><span>1 Bed</span><span>1 Bath</span><span>650 Sq Ft</span></div>
    <div class="pricingColumn"><span>Call for Rent</span></div>
  </li>
</ul>
</body></html>`

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse test document: %v", err)
	}
	return doc
}

func float(v float64) *float64 { return &v }
func intp(v int) *int          { return &v }

func TestExtractPropertyFullPage(t *testing.T) {
	doc := parseHTML(t, detailPageHTML)

	got := extractProperty(doc, "https://www.apartments.com/madison/", 20)

	want := models.NewPropertyRecord("https://www.apartments.com/madison/")
	want.Title = "The Madison Residences"
	want.Street = "123 W Madison St"
	want.City = "Chicago"
	want.State = "IL"
	want.ZipCode = "60602"
	want.Address = "123 W Madison St, Chicago, IL 60602"
	want.ReviewScore = float(4.5)
	want.ListingVerification = "Verified Listing"
	want.LeaseOptions = []string{"12 months", "6 months"}
	want.YearBuilt = intp(1998)
	want.FloorPlans = []*models.FloorPlanRecord{
		{
			ApartmentName:  "B2",
			RentPriceRange: "$2,350 - $2,600",
			Bedrooms:       intp(2),
			Bathrooms:      float(2.0),
			Sqft:           float(1050),
			Unit:           "101",
			BaseRent:       float(2350),
			Availability:   "Now",
			DetailsKey:     "u-101",
		},
		{
			ApartmentName:  "A1",
			RentPriceRange: "Call for Rent",
			Bedrooms:       intp(1),
			Bathrooms:      float(1.0),
			Sqft:           float(650), // recovered from the details fallback
			BaseRent:       nil,        // "Call for Rent" has no number
		},
	}

	// LastSeen is stamped at construction time, not part of extraction.
	got.LastSeen = want.LastSeen

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("extractProperty mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractPropertyEmptyPage(t *testing.T) {
	doc := parseHTML(t, `<html><body><p>nothing here</p></body></html>`)

	got := extractProperty(doc, "https://www.apartments.com/gone/", 20)

	if got.Title != "" || got.Address != "" {
		t.Errorf("empty page should yield empty fields, got title=%q address=%q", got.Title, got.Address)
	}
	if got.LeaseOptions != nil {
		t.Errorf("absent lease card should yield nil options, got %v", got.LeaseOptions)
	}
	if got.YearBuilt != nil {
		t.Errorf("absent info card should yield nil year, got %d", *got.YearBuilt)
	}
	if len(got.FloorPlans) != 0 {
		t.Errorf("expected no floor plans, got %d", len(got.FloorPlans))
	}
	if got.PropertyType != "Apartment" {
		t.Errorf("property type default: got %q", got.PropertyType)
	}
	if got.ValidationStatus != models.StatusPending {
		t.Errorf("fresh record status: got %q", got.ValidationStatus)
	}
}

func TestExtractLeaseOptionsEmptyCard(t *testing.T) {
	doc := parseHTML(t, `<html><body>
<div class="feesPoliciesCard"><h3>Lease Options</h3><div class="component-list"></div></div>
</body></html>`)

	got := extractLeaseOptions(doc)
	if got == nil {
		t.Fatal("present-but-empty card should yield an empty slice, not nil")
	}
	if len(got) != 0 {
		t.Errorf("expected no options, got %v", got)
	}
}

func TestExtractFloorPlansHonorsLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body><ul>")
	for i := 0; i < 30; i++ {
		b.WriteString(`<li class="unitContainer"><span class="modelName">X</span></li>`)
	}
	b.WriteString("</ul></body></html>")
	doc := parseHTML(t, b.String())

	if got := extractFloorPlans(doc, 20); len(got) != 20 {
		t.Errorf("floor plans with limit 20: got %d", len(got))
	}
	if got := extractFloorPlans(doc, 0); len(got) != 30 {
		t.Errorf("floor plans with no limit: got %d", len(got))
	}
}

func TestExtractYearBuiltMalformed(t *testing.T) {
	doc := parseHTML(t, `<html><body>
<div class="feesPoliciesCard"><h3>Property Information</h3>
<div class="component-list"><div class="column">Built in unknown</div></div></div>
</body></html>`)

	if got := extractYearBuilt(doc); got != nil {
		t.Errorf("malformed year should yield nil, got %d", *got)
	}
}

func TestJoinAddressSkipsMissingParts(t *testing.T) {
	tests := []struct {
		street, city, state, zip string
		want                     string
	}{
		{"123 Main St", "Chicago", "IL", "60602", "123 Main St, Chicago, IL 60602"},
		{"", "Chicago", "IL", "", "Chicago, IL"},
		{"123 Main St", "", "", "", "123 Main St"},
		{"", "", "", "", ""},
	}

	for _, tt := range tests {
		if got := joinAddress(tt.street, tt.city, tt.state, tt.zip); got != tt.want {
			t.Errorf("joinAddress(%q,%q,%q,%q) = %q; want %q",
				tt.street, tt.city, tt.state, tt.zip, got, tt.want)
		}
	}
}
