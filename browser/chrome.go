package browser

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
)

const navTimeout = 90 * time.Second

// ChromeBrowser drives a shared headless Chrome process. The allocator
// lives for the whole run; each Page is its own tab context.
type ChromeBrowser struct {
	root        context.Context
	cancelRoot  context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewChrome launches (or attaches to) a Chrome binary with the usual
// headless hardening flags and a randomized user agent for the session.
func NewChrome(ctx context.Context, chromeBin string) (*ChromeBrowser, error) {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(randomUserAgent()),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)

	// Suppress chromedp log noise
	root, cancelRoot := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	return &ChromeBrowser{
		root:        root,
		cancelRoot:  cancelRoot,
		cancelAlloc: cancelAlloc,
	}, nil
}

// NewPage opens a fresh tab. The caller owns it exclusively and must
// Close it.
func (b *ChromeBrowser) NewPage(_ context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.root)
	return &chromePage{ctx: tabCtx, cancel: cancel}, nil
}

// Close tears down the whole browser process.
func (b *ChromeBrowser) Close() error {
	b.cancelRoot()
	b.cancelAlloc()
	return nil
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
	url    string
}

func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	// propagate caller cancellation into the tab context
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(opCtx, actions...)
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, navTimeout, chromedp.Navigate(url)); err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	p.url = url
	return nil
}

func (p *chromePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	err := p.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrWaitTimeout
	}
	return &NavigationError{URL: p.url, Err: err}
}

func (p *chromePage) Click(ctx context.Context, selector string) error {
	return p.run(ctx, navTimeout,
		chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.Location(&p.url),
	)
}

func (p *chromePage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, navTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", &NavigationError{URL: p.url, Err: err}
	}
	return html, nil
}

func (p *chromePage) URL() string {
	return p.url
}

func (p *chromePage) Close() error {
	p.cancel()
	return nil
}

// findChromeBinary locates a Chrome/Chromium binary on the host.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
