package apartments

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"apartment-harvester/models"
	"apartment-harvester/services"
)

// Selector table for the catalog's detail pages, kept in one place for
// maintainability when the site markup shifts.
const (
	selTitle         = "h1.propertyName"
	selStreetAddress = ".propertyAddressContainer .delivery-address span"
	selCityStateZip  = ".propertyAddressContainer h2"
	selCity          = "span.address-city"
	selStateZip      = ".stateZipContainer span"
	selReviewRating  = ".reviewRating"
	selVerification  = "span.verifedText" // the site really spells it this way
	selFeesCard      = ".feesPoliciesCard"
	selCardColumns   = ".component-list .column"
	selUnitCards     = "li.unitContainer"
	selModelName     = ".modelName"
	selRentLabel     = ".rentLabel"
	selSqftColumn    = ".sqftColumn span:not(.screenReaderOnly)"
	selDetailsSpans  = ".detailsTextWrapper span"
	selUnitColumn    = ".unitColumn span[title]"
	selBaseRent      = ".pricingColumn > span:not(.screenReaderOnly)"
	selAvailability  = ".availableColumn .dateAvailable:not(.screenReaderOnly)"

	attrBedrooms   = "data-beds"
	attrBathrooms  = "data-baths"
	attrDetailsKey = "data-unitkey"

	yearBuiltMarker = "Built in "
)

// elementText returns the trimmed text of the first matched element.
// The second return is false when nothing matched or the text is empty,
// so callers branch explicitly instead of comparing sentinel strings.
func elementText(s *goquery.Selection) (string, bool) {
	if s.Length() == 0 {
		return "", false
	}
	text := strings.TrimSpace(s.First().Text())
	if text == "" {
		return "", false
	}
	return text, true
}

// attrValue returns the trimmed attribute value of the first matched
// element, false when the element or the attribute is absent.
func attrValue(s *goquery.Selection, name string) (string, bool) {
	if s.Length() == 0 {
		return "", false
	}
	val, ok := s.First().Attr(name)
	val = strings.TrimSpace(val)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

// cardContaining returns the first element matching selector whose text
// mentions marker, or nil. Stands in for the :has-text() pseudo-class
// the source selectors were written against.
func cardContaining(doc *goquery.Document, selector, marker string) *goquery.Selection {
	var found *goquery.Selection
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(s.Text(), marker) {
			found = s
			return false
		}
		return true
	})
	return found
}

// extractProperty builds one PropertyRecord from a rendered detail
// page. Every field read is defensive: an absent element leaves the
// field at its "missing" default and never aborts the extraction.
func extractProperty(doc *goquery.Document, url string, maxFloorPlans int) *models.PropertyRecord {
	rec := models.NewPropertyRecord(url)

	rec.Title, _ = elementText(doc.Find(selTitle))
	rec.Street, _ = elementText(doc.Find(selStreetAddress))
	rec.City, _ = elementText(doc.Find(selCityStateZip).Find(selCity))

	stateZip := doc.Find(selStateZip)
	rec.State, _ = elementText(stateZip.Eq(0))
	rec.ZipCode, _ = elementText(stateZip.Eq(1))

	rec.Address = joinAddress(rec.Street, rec.City, rec.State, rec.ZipCode)

	if text, ok := elementText(doc.Find(selReviewRating)); ok {
		rec.ReviewScore = services.ParseNumeric(text)
	}
	rec.ListingVerification, _ = elementText(doc.Find(selVerification))
	rec.LeaseOptions = extractLeaseOptions(doc)
	rec.YearBuilt = extractYearBuilt(doc)
	rec.FloorPlans = extractFloorPlans(doc, maxFloorPlans)

	return rec
}

// joinAddress reconstructs the full address from whatever components
// were found, skipping missing segments.
func joinAddress(street, city, state, zip string) string {
	var parts []string
	for _, p := range []string{street, city} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if stateZip := strings.TrimSpace(state + " " + zip); stateZip != "" {
		parts = append(parts, stateZip)
	}
	return strings.Join(parts, ", ")
}

// extractLeaseOptions returns nil when the lease-options card is absent
// entirely, and an empty slice when the card exists but lists nothing.
func extractLeaseOptions(doc *goquery.Document) []string {
	card := cardContaining(doc, selFeesCard, "Lease Options")
	if card == nil {
		return nil
	}

	options := []string{}
	card.Find(selCardColumns).Each(func(_ int, s *goquery.Selection) {
		if text, ok := elementText(s); ok {
			options = append(options, text)
		}
	})
	return options
}

// extractYearBuilt parses the token following "Built in " out of the
// property-information card. Any parse failure leaves the year missing.
func extractYearBuilt(doc *goquery.Document) *int {
	card := cardContaining(doc, selFeesCard, "Property Information")
	if card == nil {
		return nil
	}

	var text string
	card.Find(selCardColumns).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := strings.TrimSpace(s.Text())
		if strings.Contains(t, yearBuiltMarker) {
			text = t
			return false
		}
		return true
	})
	if text == "" {
		return nil
	}

	after := text[strings.Index(text, yearBuiltMarker)+len(yearBuiltMarker):]
	fields := strings.Fields(after)
	if len(fields) == 0 {
		return nil
	}
	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil
	}
	return &year
}

// extractFloorPlans reads up to limit unit cards. Each card is
// extracted independently; a card yielding nothing still contributes a
// (mostly empty) record rather than aborting its siblings.
func extractFloorPlans(doc *goquery.Document, limit int) []*models.FloorPlanRecord {
	cards := doc.Find(selUnitCards)
	n := cards.Length()
	if limit > 0 && n > limit {
		n = limit
	}

	plans := make([]*models.FloorPlanRecord, 0, n)
	for i := 0; i < n; i++ {
		plans = append(plans, extractUnitCard(cards.Eq(i)))
	}
	return plans
}

func extractUnitCard(card *goquery.Selection) *models.FloorPlanRecord {
	fp := &models.FloorPlanRecord{}

	fp.ApartmentName, _ = elementText(card.Find(selModelName))
	fp.RentPriceRange, _ = elementText(card.Find(selRentLabel))

	if v, ok := attrValue(card, attrBedrooms); ok {
		fp.Bedrooms = services.ParseInt(v)
	}
	if v, ok := attrValue(card, attrBathrooms); ok {
		fp.Bathrooms = services.ParseNumeric(v)
	}

	fp.Sqft = extractSqft(card)
	fp.Unit, _ = elementText(card.Find(selUnitColumn))
	if v, ok := elementText(card.Find(selBaseRent)); ok {
		fp.BaseRent = services.ParseNumeric(v)
	}
	fp.Availability, _ = elementText(card.Find(selAvailability))
	fp.DetailsKey, _ = attrValue(card, attrDetailsKey)

	return fp
}

// extractSqft tries the dedicated column first, then falls back to
// scanning the details block for a span mentioning "Sq Ft".
func extractSqft(card *goquery.Selection) *float64 {
	if text, ok := elementText(card.Find(selSqftColumn)); ok {
		return services.ParseNumeric(text)
	}

	var raw string
	card.Find(selDetailsSpans).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text, ok := elementText(s); ok && strings.Contains(text, "Sq Ft") {
			raw = strings.TrimSpace(strings.Replace(text, "Sq Ft", "", 1))
			return false
		}
		return true
	})
	if raw == "" {
		return nil
	}
	return services.ParseNumeric(raw)
}
