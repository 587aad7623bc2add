package store

import (
	"context"
	"time"

	"github.com/robinklaassen/artistic-intelligence-data/track"
)

// DefaultMeasurement is the logical table/measurement name for position
// samples.
const DefaultMeasurement = "entity_locations"

// Store is the persistence contract consumed by collectors and the query
// engine.
//
// WriteBatch persists all samples in one logical operation. Duplicate
// (EntityID, Timestamp) pairs follow last-write-wins.
//
// ReadWindow returns all samples with timestamp in [start, end), ordered by
// (timestamp, entity id) ascending. The query path never writes; read
// implementations must not mutate stored data.
type Store interface {
	WriteBatch(ctx context.Context, samples []track.Sample) error
	ReadWindow(ctx context.Context, start, end time.Time) ([]track.Sample, error)
}
