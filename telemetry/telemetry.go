package telemetry

import (
	"context"
	"time"
)

// Metrics is the write-only telemetry collaborator the harvester
// reports into. Implementations must be safe for concurrent use and
// must never influence control flow — a dead collector changes nothing
// about a run's correctness.
type Metrics interface {
	ScrapeSucceeded(ctx context.Context, source string)
	ScrapeFailed(ctx context.Context, source string)
	ListingScraped(ctx context.Context, source string)
	ValidationSucceeded(ctx context.Context)
	ValidationFailed(ctx context.Context)
	RetryAttempted(ctx context.Context, source string)
	DBInsertFailed(ctx context.Context, table string)
	RunDuration(ctx context.Context, d time.Duration)
	SampleResourceUsage(ctx context.Context)
}

// Noop satisfies Metrics without recording anything. Used when no
// collector endpoint is configured and throughout the tests.
type Noop struct{}

func (Noop) ScrapeSucceeded(context.Context, string)    {}
func (Noop) ScrapeFailed(context.Context, string)       {}
func (Noop) ListingScraped(context.Context, string)     {}
func (Noop) ValidationSucceeded(context.Context)        {}
func (Noop) ValidationFailed(context.Context)           {}
func (Noop) RetryAttempted(context.Context, string)     {}
func (Noop) DBInsertFailed(context.Context, string)     {}
func (Noop) RunDuration(context.Context, time.Duration) {}
func (Noop) SampleResourceUsage(context.Context)        {}
