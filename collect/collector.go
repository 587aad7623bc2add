package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/robinklaassen/artistic-intelligence-data/track"
)

// RunResult is the per-tick observability contract every collector honors
// regardless of storage backend.
type RunResult struct {
	Records  int
	Duration time.Duration
	Err      error
}

// Collector is one periodically polled upstream feed.
type Collector interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) RunResult
}

// Publisher receives successfully persisted batches, for live fan-out.
// Implementations must not block the collecting tick.
type Publisher interface {
	Publish(samples []track.Sample)
}

// UpstreamError indicates the feed request failed or returned a non-success
// status. It is recovered locally: the tick yields zero records.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d: %s", e.Status, e.Body)
}

// ParseError indicates the entire payload was unparsable.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string { return "payload unparsable: " + e.Cause.Error() }
func (e *ParseError) Unwrap() error { return e.Cause }
