package browser

import (
	"context"
	"errors"
	"time"

	random "github.com/mazen160/go-random"
)

// Page is the narrow document-handle contract the harvester depends on.
// A Page is exclusive to the task that opened it and must be closed by
// that task regardless of outcome. DOM reads go through HTML so field
// extraction stays engine-independent.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	HTML(ctx context.Context) (string, error)
	URL() string
	Close() error
}

// Browser is a browsing session shared across one run. It hands out
// exclusive Pages; closing it releases the underlying engine.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// ErrWaitTimeout is returned by WaitVisible when the selector did not
// appear within the allotted time. Pagination treats it as "no more
// content" rather than a failure.
var ErrWaitTimeout = errors.New("browser: wait for selector timed out")

// NavigationError marks transient navigation/timeout failures — the
// only class of failure worth retrying.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return "navigate " + e.URL + ": " + e.Err.Error()
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// IsNavigationError reports whether err is (or wraps) a transient
// navigation failure.
func IsNavigationError(err error) bool {
	var ne *NavigationError
	return errors.As(err, &ne)
}

// Common browser User-Agent strings, one picked at random per session.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/120.0",
	"Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/119.0",
}

func randomUserAgent() string {
	i, err := random.IntRange(0, len(userAgents))
	if err != nil {
		return userAgents[0]
	}
	return userAgents[i]
}
