package track

import "time"

// Sample is one position observation of one tracked entity.
//
// EntityID and Timestamp together identify a stored row; the timestamp is
// always bucket-rounded before a sample is persisted, so two upstream reports
// for the same entity inside one bucket collide on purpose (the store
// resolves that with last-write-wins).
type Sample struct {
	EntityID   string
	Timestamp  time.Time
	Lon        float64
	Lat        float64
	ProjX      float64
	ProjY      float64
	Speed      float64
	Heading    float64
	Accuracy   float64
	EntityType string
	Source     string
}
