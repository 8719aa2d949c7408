package browser

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// StaticBrowser fetches server-rendered pages over plain HTTP. It
// honors the same Page contract as the Chrome engine: Click follows the
// selected element's resolved href and WaitVisible degrades to a
// presence check against the parsed document.
type StaticBrowser struct {
	client *resty.Client
}

// NewStatic creates a static engine with sane timeouts and a randomized
// session user agent.
func NewStatic() *StaticBrowser {
	client := resty.New().
		SetHeader("User-Agent", randomUserAgent()).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetTimeout(30 * time.Second).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	return &StaticBrowser{client: client}
}

// NewStaticWithClient lets tests point the engine at a local server.
func NewStaticWithClient(client *resty.Client) *StaticBrowser {
	return &StaticBrowser{client: client}
}

func (b *StaticBrowser) NewPage(_ context.Context) (Page, error) {
	return &staticPage{client: b.client}, nil
}

func (b *StaticBrowser) Close() error {
	return nil
}

type staticPage struct {
	client *resty.Client
	base   *url.URL
	doc    *goquery.Document
	html   string
}

func (p *staticPage) Navigate(ctx context.Context, rawURL string) error {
	resp, err := p.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return &NavigationError{URL: rawURL, Err: err}
	}
	if resp.StatusCode() >= 400 {
		return &NavigationError{URL: rawURL, Err: fmt.Errorf("http status %d", resp.StatusCode())}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return fmt.Errorf("parse %s: %w", rawURL, err)
	}

	base, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url %s: %w", rawURL, err)
	}
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		// keep the post-redirect URL as the base for relative hrefs
		base = resp.RawResponse.Request.URL
	}

	p.base = base
	p.doc = doc
	p.html = string(resp.Body())
	return nil
}

func (p *staticPage) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	if p.doc == nil || p.doc.Find(selector).Length() == 0 {
		return ErrWaitTimeout
	}
	return nil
}

func (p *staticPage) Click(ctx context.Context, selector string) error {
	if p.doc == nil {
		return fmt.Errorf("click %q: no document loaded", selector)
	}

	href, ok := p.doc.Find(selector).First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return fmt.Errorf("click %q: no href to follow", selector)
	}

	ref, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return p.Navigate(ctx, p.base.ResolveReference(ref).String())
}

func (p *staticPage) HTML(_ context.Context) (string, error) {
	if p.doc == nil {
		return "", fmt.Errorf("no document loaded")
	}
	return p.html, nil
}

func (p *staticPage) URL() string {
	if p.base == nil {
		return ""
	}
	return p.base.String()
}

func (p *staticPage) Close() error {
	return nil
}
