package apartments

import (
	"context"
	"sync"

	"apartment-harvester/browser"
	"apartment-harvester/models"
	"apartment-harvester/utils"
)

// scrapeAll fans the discovered URLs out over the bounded worker pool.
// Every URL yields exactly one outcome; failures are captured in the
// outcome, never propagated, so the batch always completes.
func (h *Harvester) scrapeAll(ctx context.Context, urls []string) []models.ScrapeOutcome {
	minPace, maxPace := h.cfg.PacingBounds()
	pool := utils.NewWorkerPool(h.cfg.MaxConcurrency, minPace, maxPace)

	var mu sync.Mutex
	outcomes := make([]models.ScrapeOutcome, 0, len(urls))

	for _, u := range urls {
		u := u
		pool.Submit(func() {
			outcome := h.scrapeOne(ctx, u)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
		})
	}
	pool.Wait()

	return outcomes
}

// scrapeOne opens a fresh exclusive page for the URL, extracts it with
// the retry policy applied, and converts an exhausted retry budget into
// a Failure outcome. Navigation-class errors are the only ones retried;
// extraction-logic errors will not change on replay.
func (h *Harvester) scrapeOne(ctx context.Context, pageURL string) models.ScrapeOutcome {
	retry := &utils.RetryConfig{
		MaxAttempts: h.cfg.RetryAttempts,
		Delay:       h.cfg.RetryDelay(),
		Retryable:   browser.IsNavigationError,
		OnRetry: func(string, int, error) {
			h.metrics.RetryAttempted(ctx, pageURL)
		},
		Logger: h.logger,
	}

	var rec *models.PropertyRecord
	err := retry.Do("scrape "+pageURL, func() error {
		page, err := h.browser.NewPage(ctx)
		if err != nil {
			// engine hiccup, worth a replay
			return &browser.NavigationError{URL: pageURL, Err: err}
		}
		defer page.Close()

		if err := page.Navigate(ctx, pageURL); err != nil {
			return err
		}

		extracted, err := h.extractPage(ctx, page, pageURL)
		if err != nil {
			return err
		}
		rec = extracted
		return nil
	})

	if err != nil {
		h.logger.Error("[scheduler] %s failed: %v", pageURL, err)
		h.metrics.ScrapeFailed(ctx, pageURL)
		return models.ScrapeOutcome{URL: pageURL, Err: err}
	}

	h.metrics.ScrapeSucceeded(ctx, pageURL)
	h.metrics.ListingScraped(ctx, pageURL)
	return models.ScrapeOutcome{URL: pageURL, Record: rec}
}
