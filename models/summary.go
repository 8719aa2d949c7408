package models

import "time"

// RunSummary aggregates one finished harvest run. Attempted always
// equals Succeeded + Failed.
type RunSummary struct {
	Attempted int
	Succeeded int
	Failed    int

	FloorPlans int

	MinRent float64
	AvgRent float64
	MaxRent float64

	PropertiesByCity map[string]int
	Duration         time.Duration
}
