package collect

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/robinklaassen/artistic-intelligence-data/config"
	"github.com/robinklaassen/artistic-intelligence-data/geo"
	"github.com/robinklaassen/artistic-intelligence-data/store"
	"github.com/robinklaassen/artistic-intelligence-data/track"
)

// BusCollector polls a GTFS-Realtime VehiclePositions feed and maps it into
// the same generalized sample model the train collector uses.
type BusCollector struct {
	url         string
	source      string
	interval    time.Duration
	granularity time.Duration
	store       store.Store
	hub         Publisher
	client      *http.Client
	log         *slog.Logger
}

// NewBusCollector builds a bus collector from its feed configuration.
// hub may be nil.
func NewBusCollector(cfg config.FeedConfig, granularity time.Duration, st store.Store, hub Publisher, log *slog.Logger) *BusCollector {
	return &BusCollector{
		url:         cfg.URL,
		source:      cfg.Source,
		interval:    cfg.Interval(),
		granularity: granularity,
		store:       st,
		hub:         hub,
		client:      &http.Client{Timeout: cfg.Timeout()},
		log:         log,
	}
}

func (c *BusCollector) Name() string            { return "buses" }
func (c *BusCollector) Interval() time.Duration { return c.interval }

func (c *BusCollector) Run(ctx context.Context) RunResult {
	start := time.Now()
	finish := func(n int, err error) RunResult {
		return RunResult{Records: n, Duration: time.Since(start), Err: err}
	}

	body, err := c.fetch(ctx)
	if err != nil {
		return finish(0, err)
	}

	var feed gtfs.FeedMessage
	if err := proto.Unmarshal(body, &feed); err != nil {
		return finish(0, &ParseError{Cause: err})
	}

	samples, dropped := c.mapFeed(&feed, start)
	if dropped > 0 {
		c.log.Warn("dropped incomplete vehicle entities", "collector", c.Name(), "dropped", dropped)
	}

	if err := c.store.WriteBatch(ctx, samples); err != nil {
		return finish(0, fmt.Errorf("persist: %w", err))
	}
	if c.hub != nil {
		c.hub.Publish(samples)
	}
	return finish(len(samples), nil)
}

func (c *BusCollector) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", c.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Status: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

// mapFeed converts feed entities into samples, skipping entities without an
// id or position. Partial-batch tolerance matches the train collector.
func (c *BusCollector) mapFeed(feed *gtfs.FeedMessage, tickTime time.Time) (samples []track.Sample, dropped int) {
	bucket := track.RoundTimestamp(tickTime, c.granularity)
	samples = make([]track.Sample, 0, len(feed.Entity))
	for _, ent := range feed.Entity {
		if ent == nil || ent.Vehicle == nil {
			continue
		}
		vp := ent.Vehicle
		if vp.Vehicle == nil || vp.Vehicle.Id == nil || *vp.Vehicle.Id == "" || vp.Position == nil {
			dropped++
			continue
		}
		pos := vp.Position
		if pos.Latitude == nil || pos.Longitude == nil {
			dropped++
			continue
		}

		lon := float64(*pos.Longitude)
		lat := float64(*pos.Latitude)
		x, y, err := geo.Project(lon, lat)
		if err != nil {
			c.log.Error("vehicle outside projection domain", "collector", c.Name(), "vehicle_id", *vp.Vehicle.Id, "err", err)
			dropped++
			continue
		}

		s := track.Sample{
			EntityID:   *vp.Vehicle.Id,
			Timestamp:  bucket,
			Lon:        lon,
			Lat:        lat,
			ProjX:      x,
			ProjY:      y,
			EntityType: "bus",
			Source:     c.source,
		}
		if pos.Speed != nil {
			s.Speed = float64(*pos.Speed)
		}
		if pos.Bearing != nil {
			s.Heading = float64(*pos.Bearing)
		}
		samples = append(samples, s)
	}
	return samples, dropped
}
