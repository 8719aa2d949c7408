package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"apartment-harvester/models"
	"apartment-harvester/utils"
)

type SummaryService struct {
	logger *utils.Logger
}

func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger}
}

// Generate aggregates the run's outcomes into a RunSummary. Rent stats
// cover only floor plans with a normalized base rent.
func (s *SummaryService) Generate(outcomes []models.ScrapeOutcome, duration time.Duration) *models.RunSummary {
	summary := &models.RunSummary{
		PropertiesByCity: make(map[string]int),
		Duration:         duration,
	}

	var rentTotal float64
	var rentCount int

	for _, o := range outcomes {
		summary.Attempted++

		if o.Failed() || o.Record.ValidationStatus != models.StatusSuccess {
			summary.Failed++
			continue
		}
		summary.Succeeded++

		rec := o.Record
		if rec.City != "" {
			summary.PropertiesByCity[rec.City]++
		}

		for _, fp := range rec.FloorPlans {
			summary.FloorPlans++
			if fp.BaseRent == nil {
				continue
			}
			rent := *fp.BaseRent
			rentTotal += rent
			rentCount++
			if summary.MinRent == 0 || rent < summary.MinRent {
				summary.MinRent = rent
			}
			if rent > summary.MaxRent {
				summary.MaxRent = rent
			}
		}
	}

	if rentCount > 0 {
		summary.AvgRent = round2(rentTotal / float64(rentCount))
		summary.MinRent = round2(summary.MinRent)
		summary.MaxRent = round2(summary.MaxRent)
	}

	return summary
}

// Print renders the run summary to stdout.
func (s *SummaryService) Print(r *models.RunSummary) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  HARVEST RUN SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Outcomes\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Pages attempted  : \033[1m%d\033[0m\n", r.Attempted)
	fmt.Printf("  Collected        : \033[1;32m%d\033[0m\n", r.Succeeded)
	fmt.Printf("  Failed           : \033[1;31m%d\033[0m\n", r.Failed)
	fmt.Printf("  Floor plans      : \033[1m%d\033[0m\n", r.FloorPlans)
	fmt.Printf("  Duration         : \033[1m%s\033[0m\n", r.Duration.Round(time.Second))
	fmt.Println()

	fmt.Printf("\033[1;33m  Base Rent\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AvgRent > 0 {
		fmt.Printf("  Average : \033[1;32m$%.2f\033[0m\n", r.AvgRent)
		fmt.Printf("  Minimum : \033[1;32m$%.2f\033[0m\n", r.MinRent)
		fmt.Printf("  Maximum : \033[1;32m$%.2f\033[0m\n", r.MaxRent)
	} else {
		fmt.Printf("  No rent data available\n")
	}
	fmt.Println()

	if len(r.PropertiesByCity) > 0 {
		fmt.Printf("\033[1;33m  Properties by City\033[0m\n")
		fmt.Printf("  %s\n", thin)

		cities := make([]string, 0, len(r.PropertiesByCity))
		for city := range r.PropertiesByCity {
			cities = append(cities, city)
		}
		sort.Slice(cities, func(i, j int) bool {
			return r.PropertiesByCity[cities[i]] > r.PropertiesByCity[cities[j]]
		})

		for _, city := range cities {
			fmt.Printf("  %-30s %d\n", truncate(city, 30), r.PropertiesByCity[city])
		}
		fmt.Println()
	}
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
