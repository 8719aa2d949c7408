package apartments

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"apartment-harvester/browser"
	"apartment-harvester/utils"
)

const (
	selPropertyLink = "a.property-link"
	selNextPage     = "a.next"
)

// discoverLinks paginates the catalog index and accumulates absolute
// detail-page URLs, deduplicated, in first-seen order. Any unexpected
// failure ends discovery but keeps what was already found — partial
// progress is never discarded.
func (h *Harvester) discoverLinks(ctx context.Context, page browser.Page, entryURL string) []string {
	links := utils.NewURLSet()

	if err := page.Navigate(ctx, entryURL); err != nil {
		h.logger.Error("[discover] Could not open entry page %s: %v", entryURL, err)
		return links.Values()
	}

	for pageNum := 1; ; pageNum++ {
		if err := page.WaitVisible(ctx, selPropertyLink, h.cfg.WaitTimeout()); err != nil {
			if errors.Is(err, browser.ErrWaitTimeout) {
				h.logger.Warn("[discover] No property links on page %d, ending pagination", pageNum)
			} else {
				h.logger.Error("[discover] Wait failed on page %d: %v", pageNum, err)
			}
			break
		}

		doc, err := h.document(ctx, page)
		if err != nil {
			h.logger.Error("[discover] Could not read page %d: %v", pageNum, err)
			break
		}

		base, _ := url.Parse(page.URL())
		found := 0
		doc.Find(selPropertyLink).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok {
				return
			}
			abs := resolveHref(base, strings.TrimSpace(href))
			if abs == "" {
				return
			}
			if links.Add(abs) {
				found++
			}
		})
		h.logger.Info("[discover] Page %d: %d new links (%d total)", pageNum, found, links.Size())

		if !hasNextPage(doc) {
			h.logger.Info("[discover] No more pages after page %d", pageNum)
			break
		}
		minPace, maxPace := h.cfg.PacingBounds()
		utils.RandomPause(minPace, maxPace)

		if err := page.Click(ctx, selNextPage); err != nil {
			h.logger.Error("[discover] Next-page click failed on page %d: %v", pageNum, err)
			break
		}
	}

	return links.Values()
}

// hasNextPage treats an absent, hidden or disabled next control as the
// end of the catalog.
func hasNextPage(doc *goquery.Document) bool {
	next := doc.Find(selNextPage).First()
	if next.Length() == 0 {
		return false
	}
	if _, disabled := next.Attr("disabled"); disabled {
		return false
	}
	if v, ok := next.Attr("aria-disabled"); ok && v == "true" {
		return false
	}
	if next.HasClass("disabled") {
		return false
	}
	if style, ok := next.Attr("style"); ok {
		if strings.Contains(strings.ReplaceAll(style, " ", ""), "display:none") {
			return false
		}
	}
	return true
}

// resolveHref turns a possibly-relative href into an absolute URL.
func resolveHref(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
