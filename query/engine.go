package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/robinklaassen/artistic-intelligence-data/geo"
	"github.com/robinklaassen/artistic-intelligence-data/store"
	"github.com/robinklaassen/artistic-intelligence-data/track"
)

// ErrInvalidRange is returned when the requested window is empty or
// inverted. It maps to a client error in the serving layer.
var ErrInvalidRange = errors.New("query start must be before end")

// ErrNoContent signals a legitimately empty result set for layouts that
// cannot express emptiness themselves (CSV exports). It maps to an HTTP 204,
// never to an error response.
var ErrNoContent = errors.New("no records in the requested window")

// Engine answers windowed queries over the sample store.
type Engine struct {
	store       store.Store
	scaler      geo.Scaler
	granularity time.Duration
	loc         *time.Location
	log         *slog.Logger
}

func NewEngine(st store.Store, scaler geo.Scaler, granularity time.Duration, loc *time.Location, log *slog.Logger) *Engine {
	return &Engine{store: st, scaler: scaler, granularity: granularity, loc: loc, log: log}
}

// Record is one transformed sample in the flat records layout. X and Y are
// projection meters rounded to whole units; NX and NY are display
// coordinates in [-1, 1].
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	ID        string    `json:"id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	NX        float64   `json:"nx"`
	NY        float64   `json:"ny"`
	Speed     float64   `json:"speed"`
	Heading   float64   `json:"heading"`
	Accuracy  float64   `json:"accuracy"`
	Type      string    `json:"type"`
}

// EntityState is one entity's state at one bucket in the keyed layout.
type EntityState struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	NX       float64 `json:"nx"`
	NY       float64 `json:"ny"`
	Speed    float64 `json:"speed"`
	Heading  float64 `json:"heading"`
	Accuracy float64 `json:"accuracy"`
}

// Records returns all samples in [start, end) as a flat list ordered by
// (timestamp, entity id).
func (e *Engine) Records(ctx context.Context, start, end time.Time) ([]Record, error) {
	records, err := e.read(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Keyed returns the window grouped by bucket timestamp. Entities within one
// bucket keep arrival order.
func (e *Engine) Keyed(ctx context.Context, start, end time.Time) (map[string][]EntityState, error) {
	records, err := e.read(ctx, start, end)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]EntityState, len(records))
	for _, r := range records {
		key := r.Timestamp.Format(time.RFC3339)
		out[key] = append(out[key], EntityState{
			ID:       r.ID,
			X:        r.X,
			Y:        r.Y,
			NX:       r.NX,
			NY:       r.NY,
			Speed:    r.Speed,
			Heading:  r.Heading,
			Accuracy: r.Accuracy,
		})
	}
	return out, nil
}

// read runs the shared pipeline: validate, fetch, then stream each row
// through bucket rounding and coordinate transformation.
func (e *Engine) read(ctx context.Context, start, end time.Time) ([]Record, error) {
	if !start.Before(end) {
		return nil, ErrInvalidRange
	}
	samples, err := e.store.ReadWindow(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("read window: %w", err)
	}

	records := make([]Record, 0, len(samples))
	for _, s := range samples {
		r, err := e.transform(s)
		if err != nil {
			return nil, err
		}
		// Re-rounding an off-grid stored timestamp can push it across a
		// window edge; the half-open bounds stay authoritative.
		if r.Timestamp.Before(start) || !r.Timestamp.Before(end) {
			continue
		}
		records = append(records, r)
	}

	// Store contract orders by (timestamp, entity id) already, but bucket
	// rounding can reorder rows near bucket edges.
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.Before(records[j].Timestamp)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// transform rounds one sample onto the bucket grid and converts its
// coordinates. Must match the collectors' granularity or buckets of
// different feeds drift apart.
func (e *Engine) transform(s track.Sample) (Record, error) {
	x, y, err := geo.Project(s.Lon, s.Lat)
	if err != nil {
		return Record{}, fmt.Errorf("sample %s at %s: %w", s.EntityID, s.Timestamp, err)
	}
	nx, ny := e.scaler.Normalize(x, y)
	return Record{
		Timestamp: track.RoundTimestamp(s.Timestamp, e.granularity).In(e.loc),
		ID:        s.EntityID,
		X:         math.Round(x),
		Y:         math.Round(y),
		NX:        nx,
		NY:        ny,
		Speed:     s.Speed,
		Heading:   s.Heading,
		Accuracy:  s.Accuracy,
		Type:      s.EntityType,
	}, nil
}
