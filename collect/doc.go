// Package collect polls upstream vehicle feeds and persists the resulting
// position samples.
//
// A Collector fetches one feed, validates and parses the payload into
// samples, rounds timestamps onto the shared bucket grid, projects
// coordinates, and writes the batch to the store. One malformed entry drops
// only that entry; only an unparsable payload yields an empty tick.
//
// Every tick returns a RunResult instead of panicking or logging from deep
// inside: errors are data the scheduler inspects. A failing tick is logged
// and forgotten; retry happens implicitly on the next scheduled tick.
//
// The Scheduler runs each collector on its own wall-clock-aligned cadence.
// Ticks of the same collector never overlap (a slow tick delays the next
// one); different collectors run concurrently and share nothing but the
// store.
package collect
