package apartments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"apartment-harvester/browser"
	"apartment-harvester/telemetry"
)

// fakeBrowser hands out detail pages backed by an in-memory URL → HTML
// map. URLs listed in failing always fail navigation with a retryable
// error.
type fakeBrowser struct {
	mu      sync.Mutex
	pages   map[string]string
	failing map[string]bool
	navs    map[string]int
}

func newFakeBrowser(pages map[string]string, failing ...string) *fakeBrowser {
	fb := &fakeBrowser{
		pages:   pages,
		failing: make(map[string]bool),
		navs:    make(map[string]int),
	}
	for _, u := range failing {
		fb.failing[u] = true
	}
	return fb
}

func (b *fakeBrowser) NewPage(_ context.Context) (browser.Page, error) {
	return &fakeDetailPage{browser: b}, nil
}

func (b *fakeBrowser) Close() error { return nil }

func (b *fakeBrowser) navCount(url string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.navs[url]
}

type fakeDetailPage struct {
	browser *fakeBrowser
	html    string
	url     string
}

func (p *fakeDetailPage) Navigate(_ context.Context, url string) error {
	p.browser.mu.Lock()
	p.browser.navs[url]++
	failing := p.browser.failing[url]
	html := p.browser.pages[url]
	p.browser.mu.Unlock()

	if failing {
		return &browser.NavigationError{URL: url, Err: errors.New("net::ERR_TIMED_OUT")}
	}
	p.html = html
	p.url = url
	return nil
}

func (p *fakeDetailPage) WaitVisible(_ context.Context, _ string, _ time.Duration) error {
	return nil
}
func (p *fakeDetailPage) Click(_ context.Context, _ string) error { return nil }
func (p *fakeDetailPage) HTML(_ context.Context) (string, error)  { return p.html, nil }
func (p *fakeDetailPage) URL() string                             { return p.url }
func (p *fakeDetailPage) Close() error                            { return nil }

// countingMetrics records telemetry calls for assertions.
type countingMetrics struct {
	telemetry.Noop
	succeeded int64
	failed    int64
	retries   int64
	validOK   int64
	validBad  int64
}

func (m *countingMetrics) ScrapeSucceeded(context.Context, string) { atomic.AddInt64(&m.succeeded, 1) }
func (m *countingMetrics) ScrapeFailed(context.Context, string)    { atomic.AddInt64(&m.failed, 1) }
func (m *countingMetrics) RetryAttempted(context.Context, string)  { atomic.AddInt64(&m.retries, 1) }
func (m *countingMetrics) ValidationSucceeded(context.Context)     { atomic.AddInt64(&m.validOK, 1) }
func (m *countingMetrics) ValidationFailed(context.Context)        { atomic.AddInt64(&m.validBad, 1) }

func detailHTML(title, street string) string {
	return fmt.Sprintf(`<html><body>
		<h1 class="propertyName">%s</h1>
		<div class="propertyAddressContainer">
			<div class="delivery-address"><span>%s</span></div>
			<h2><span class="address-city">Chicago</span></h2>
		</div>
	</body></html>`, title, street)
}

func TestScrapeAllEveryURLYieldsOneOutcome(t *testing.T) {
	pages := map[string]string{}
	urls := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		u := fmt.Sprintf("https://www.apartments.com/p%d/", i)
		urls = append(urls, u)
		pages[u] = detailHTML(fmt.Sprintf("Property %d", i), fmt.Sprintf("%d Main St", i))
	}
	badURL := "https://www.apartments.com/broken/"
	urls = append(urls, badURL)

	fb := newFakeBrowser(pages, badURL)
	h := testHarvester(fb)

	outcomes := h.scrapeAll(context.Background(), urls)

	if len(outcomes) != len(urls) {
		t.Fatalf("outcomes: got %d, want %d", len(outcomes), len(urls))
	}

	var ok, bad int
	for _, o := range outcomes {
		if o.Failed() {
			bad++
			if o.URL != badURL {
				t.Errorf("unexpected failure for %s: %v", o.URL, o.Err)
			}
		} else {
			ok++
		}
	}
	if ok != 6 || bad != 1 {
		t.Errorf("ok=%d bad=%d; want 6/1", ok, bad)
	}
}

func TestScrapeOneRetriesNavigationFailures(t *testing.T) {
	badURL := "https://www.apartments.com/broken/"
	fb := newFakeBrowser(map[string]string{}, badURL)

	metrics := &countingMetrics{}
	h := New(testConfig(), newTestLogger(), metrics, fb)

	outcome := h.scrapeOne(context.Background(), badURL)

	if !outcome.Failed() {
		t.Fatal("expected a failed outcome")
	}
	if !browser.IsNavigationError(outcome.Err) {
		t.Errorf("cause should still unwrap to a navigation error, got %v", outcome.Err)
	}
	if got := fb.navCount(badURL); got != 3 {
		t.Errorf("navigation attempts: got %d, want 3", got)
	}
	if metrics.retries != 2 {
		t.Errorf("retry metric: got %d, want 2", metrics.retries)
	}
	if metrics.failed != 1 {
		t.Errorf("failed metric: got %d, want 1", metrics.failed)
	}
}

func TestRunEndToEnd(t *testing.T) {
	index := `<html><body>
		<a class="property-link" href="/good/">Good</a>
		<a class="property-link" href="/empty/">Empty</a>
		<a class="property-link" href="/broken/">Broken</a>
	</body></html>`

	pages := map[string]string{
		"https://www.apartments.com/chicago-il/": index,
		"https://www.apartments.com/good/":       detailHTML("Good Property", "1 Main St"),
		"https://www.apartments.com/empty/":      `<html><body><p>relisted soon</p></body></html>`,
	}

	fb := newFakeBrowser(pages, "https://www.apartments.com/broken/")
	metrics := &countingMetrics{}
	h := New(testConfig(), newTestLogger(), metrics, fb)

	outcomes, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("outcomes: got %d, want 3", len(outcomes))
	}

	// good: scraped and validated; empty: scraped but fails validation
	// on the missing address; broken: navigation failure.
	if got := len(Successes(outcomes)); got != 1 {
		t.Errorf("successes: got %d, want 1", got)
	}
	if got := len(Records(outcomes)); got != 2 {
		t.Errorf("snapshot records: got %d, want 2", got)
	}
	if metrics.validOK != 1 || metrics.validBad != 2 {
		t.Errorf("validation metrics: ok=%d bad=%d; want 1/2", metrics.validOK, metrics.validBad)
	}
}

func TestRunFailsWithNoLinks(t *testing.T) {
	pages := map[string]string{
		"https://www.apartments.com/chicago-il/": `<html><body><p>no results</p></body></html>`,
	}

	fb := newFakeBrowser(pages)
	h := testHarvester(fb)

	if _, err := h.Run(context.Background()); err == nil {
		t.Fatal("expected an error when discovery finds nothing")
	}
}

func TestRunCapsDiscoveredLinks(t *testing.T) {
	var links string
	pages := map[string]string{}
	for i := 0; i < 10; i++ {
		u := fmt.Sprintf("https://www.apartments.com/p%d/", i)
		links += fmt.Sprintf(`<a class="property-link" href="/p%d/">P</a>`, i)
		pages[u] = detailHTML("P", "1 Main St")
	}
	pages["https://www.apartments.com/chicago-il/"] = "<html><body>" + links + "</body></html>"

	fb := newFakeBrowser(pages)
	cfg := testConfig()
	cfg.PageLimit = 4
	h := New(cfg, newTestLogger(), nil, fb)

	outcomes, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcomes) != 4 {
		t.Errorf("outcomes: got %d, want page limit 4", len(outcomes))
	}
}
