package services

import (
	"strings"

	"apartment-harvester/models"
	"apartment-harvester/utils"
)

// Validator classifies extracted records. The address is the only field
// present on virtually every variant of the source pages; title and
// pricing are legitimately absent on contact-only listings, so missing
// values there never fail a record.
type Validator struct {
	logger *utils.Logger
}

// NewValidator creates a Validator with the given logger.
func NewValidator(logger *utils.Logger) *Validator {
	return &Validator{logger: logger}
}

// Classify stamps the record's validation status and returns it. The
// status gates persistence downstream; failed records still appear in
// the run snapshot.
func (v *Validator) Classify(rec *models.PropertyRecord) models.ValidationStatus {
	if rec == nil {
		return models.StatusFailed
	}

	if strings.TrimSpace(rec.Address) == "" {
		rec.ValidationStatus = models.StatusFailed
		v.logger.Warn("[validate] Critical data missing for %s", rec.PropertyLink)
		return models.StatusFailed
	}

	rec.ValidationStatus = models.StatusSuccess
	return models.StatusSuccess
}
