package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrGraceExpired is returned by Stop when in-flight ticks did not finish
// within the grace period.
var ErrGraceExpired = errors.New("scheduler stop: grace period expired with ticks in flight")

// Scheduler runs a set of collectors, each on its own fixed-interval
// cadence aligned to the wall clock.
type Scheduler struct {
	collectors []Collector
	log        *slog.Logger

	cancel   context.CancelFunc
	group    *errgroup.Group
	stopOnce sync.Once
}

func NewScheduler(log *slog.Logger, collectors ...Collector) *Scheduler {
	return &Scheduler{collectors: collectors, log: log}
}

// Start launches one scheduling loop per collector. It returns immediately;
// the loops run until Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.group, ctx = errgroup.WithContext(ctx)
	for _, c := range s.collectors {
		c := c
		s.group.Go(func() error {
			s.loop(ctx, c)
			return nil
		})
	}
}

// Stop ends scheduling of new ticks and waits for in-flight ticks to finish,
// bounded by the grace period. It is safe to call from multiple goroutines
// and from repeated shutdown signals; the stop sequence runs once. Stopping a
// scheduler that was never started is a no-op.
func (s *Scheduler) Stop(grace time.Duration) error {
	if s.cancel == nil {
		return nil
	}
	s.stopOnce.Do(func() { s.cancel() })

	done := make(chan struct{})
	go func() {
		_ = s.group.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(grace):
		return ErrGraceExpired
	}
}

// loop schedules ticks for one collector. Ticks run sequentially within the
// loop, so a slow tick delays the next trigger instead of overlapping it.
func (s *Scheduler) loop(ctx context.Context, c Collector) {
	for {
		timer := time.NewTimer(time.Until(nextAligned(time.Now(), c.Interval())))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		// A stop request must not hard-abort an in-flight fetch or persist;
		// the collector's own timeouts bound the tick.
		res := c.Run(context.WithoutCancel(ctx))
		if res.Err != nil {
			s.log.Error("collector tick failed",
				"collector", c.Name(),
				"err_type", fmt.Sprintf("%T", res.Err),
				"msg", res.Err.Error(),
				"duration", res.Duration,
			)
			continue
		}
		s.log.Info("collector tick complete",
			"collector", c.Name(),
			"record_count", res.Records,
			"duration", res.Duration,
		)
	}
}

// nextAligned returns the first instant strictly after now that lies on the
// interval grid. For intervals dividing one minute this is the cron-style
// "every wall-clock second divisible by N" trigger.
func nextAligned(now time.Time, interval time.Duration) time.Time {
	return now.Truncate(interval).Add(interval)
}
