package services

import (
	"testing"

	"apartment-harvester/models"
	"apartment-harvester/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

func TestClassifyMissingAddressFails(t *testing.T) {
	v := NewValidator(newTestLogger())

	rec := models.NewPropertyRecord("https://www.apartments.com/test/")
	rec.Title = "The Residences"
	rec.FloorPlans = []*models.FloorPlanRecord{{ApartmentName: "A1"}}

	if got := v.Classify(rec); got != models.StatusFailed {
		t.Errorf("Classify with empty address = %q; want failed", got)
	}
	if rec.ValidationStatus != models.StatusFailed {
		t.Errorf("record status = %q; want failed", rec.ValidationStatus)
	}
}

func TestClassifyWhitespaceAddressFails(t *testing.T) {
	v := NewValidator(newTestLogger())

	rec := models.NewPropertyRecord("https://www.apartments.com/test/")
	rec.Address = "   "

	if got := v.Classify(rec); got != models.StatusFailed {
		t.Errorf("Classify with whitespace address = %q; want failed", got)
	}
}

func TestClassifyAddressOnlySucceeds(t *testing.T) {
	v := NewValidator(newTestLogger())

	// No title, no pricing, zero floor plans. The address alone carries it.
	rec := models.NewPropertyRecord("https://www.apartments.com/test/")
	rec.Address = "123 W Madison St, Chicago, IL 60602"

	if got := v.Classify(rec); got != models.StatusSuccess {
		t.Errorf("Classify with address = %q; want success", got)
	}
	if rec.ValidationStatus != models.StatusSuccess {
		t.Errorf("record status = %q; want success", rec.ValidationStatus)
	}
}

func TestClassifyNilRecord(t *testing.T) {
	v := NewValidator(newTestLogger())
	if got := v.Classify(nil); got != models.StatusFailed {
		t.Errorf("Classify(nil) = %q; want failed", got)
	}
}
