package apartments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"apartment-harvester/browser"
	"apartment-harvester/config"
	"apartment-harvester/models"
	"apartment-harvester/services"
	"apartment-harvester/telemetry"
	"apartment-harvester/utils"
)

// Harvester drives the full pipeline: pagination-driven link discovery,
// bounded-concurrency detail extraction, validation and telemetry. One
// Harvester serves one run; records are not shared across tasks.
type Harvester struct {
	cfg       *config.Config
	logger    *utils.Logger
	metrics   telemetry.Metrics
	browser   browser.Browser
	validator *services.Validator
}

// New creates a ready-to-use Harvester. A nil metrics sink falls back
// to the noop collector.
func New(cfg *config.Config, logger *utils.Logger, metrics telemetry.Metrics, b browser.Browser) *Harvester {
	if metrics == nil {
		metrics = telemetry.Noop{}
	}
	return &Harvester{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		browser:   b,
		validator: services.NewValidator(logger),
	}
}

// Run executes one full harvest. The returned outcomes cover every URL
// attempted, each carrying a validated record or its failure cause. A
// non-nil error means a fatal orchestration failure; even then the
// outcomes collected so far are returned so the caller can snapshot
// them.
func (h *Harvester) Run(ctx context.Context) ([]models.ScrapeOutcome, error) {
	h.logger.Info("[harvest] Starting — entry: %s | concurrency: %d | page limit: %d",
		h.cfg.EntryURL, h.cfg.MaxConcurrency, h.cfg.PageLimit)

	indexPage, err := h.browser.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open index page: %w", err)
	}
	urls := h.discoverLinks(ctx, indexPage, h.cfg.EntryURL)
	indexPage.Close()

	if len(urls) == 0 {
		return nil, errors.New("no property links discovered")
	}
	if h.cfg.PageLimit > 0 && len(urls) > h.cfg.PageLimit {
		h.logger.Info("[harvest] Capping %d discovered links to page limit %d", len(urls), h.cfg.PageLimit)
		urls = urls[:h.cfg.PageLimit]
	}

	h.logger.Info("[harvest] Scraping %d detail pages", len(urls))
	outcomes := h.scrapeAll(ctx, urls)

	collected := 0
	for i := range outcomes {
		if outcomes[i].Failed() {
			h.metrics.ValidationFailed(ctx)
			continue
		}
		if h.validator.Classify(outcomes[i].Record) == models.StatusSuccess {
			h.metrics.ValidationSucceeded(ctx)
			collected++
		} else {
			h.metrics.ValidationFailed(ctx)
		}
	}

	h.logger.Info("[harvest] Done — %d attempted, %d collected successfully, %d failed",
		len(outcomes), collected, len(outcomes)-collected)
	return outcomes, nil
}

// extractPage reads the rendered detail page and builds its record. The
// title selector doubles as a structure probe: its absence means a
// non-standard page, which still goes through the defensive extractors.
func (h *Harvester) extractPage(ctx context.Context, page browser.Page, pageURL string) (*models.PropertyRecord, error) {
	doc, err := h.document(ctx, page)
	if err != nil {
		return nil, err
	}

	if doc.Find(selTitle).Length() == 0 {
		h.logger.Warn("[extract] Non-standard page structure at %s", pageURL)
	}
	return extractProperty(doc, pageURL, h.cfg.MaxFloorPlans), nil
}

// document snapshots the page's rendered HTML into a goquery document.
func (h *Harvester) document(ctx context.Context, page browser.Page) (*goquery.Document, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// Records extracts every record embedded in outcomes, failed ones
// included, for the snapshot artifact.
func Records(outcomes []models.ScrapeOutcome) []*models.PropertyRecord {
	records := make([]*models.PropertyRecord, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Record != nil {
			records = append(records, o.Record)
		}
	}
	return records
}

// Successes filters the records eligible for persistence: validation
// status is the sole gate.
func Successes(outcomes []models.ScrapeOutcome) []*models.PropertyRecord {
	records := make([]*models.PropertyRecord, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Record != nil && o.Record.ValidationStatus == models.StatusSuccess {
			records = append(records, o.Record)
		}
	}
	return records
}
