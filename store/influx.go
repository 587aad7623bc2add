package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/robinklaassen/artistic-intelligence-data/track"
)

// InfluxOptions configures the InfluxDB backend.
type InfluxOptions struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
}

// Influx stores samples in an InfluxDB 2.x bucket, one point per sample with
// identity carried in tags and everything else in fields.
type Influx struct {
	client      influxdb2.Client
	write       api.WriteAPIBlocking
	query       api.QueryAPI
	bucket      string
	measurement string
}

// OpenInflux connects to InfluxDB and verifies it responds to a ping.
func OpenInflux(ctx context.Context, opts InfluxOptions) (*Influx, error) {
	if opts.Measurement == "" {
		opts.Measurement = DefaultMeasurement
	}
	client := influxdb2.NewClient(opts.URL, opts.Token)
	ok, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb ping %s: %w", opts.URL, err)
	}
	if !ok {
		client.Close()
		return nil, fmt.Errorf("influxdb ping %s: no response", opts.URL)
	}
	return &Influx{
		client:      client,
		write:       client.WriteAPIBlocking(opts.Org, opts.Bucket),
		query:       client.QueryAPI(opts.Org),
		bucket:      opts.Bucket,
		measurement: opts.Measurement,
	}, nil
}

// Close releases the underlying HTTP client.
func (s *Influx) Close() { s.client.Close() }

func (s *Influx) WriteBatch(ctx context.Context, samples []track.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	points := make([]*write.Point, 0, len(samples))
	for _, sm := range samples {
		points = append(points, influxdb2.NewPoint(
			s.measurement,
			map[string]string{
				"entity_id":   sm.EntityID,
				"entity_type": sm.EntityType,
				"source":      sm.Source,
			},
			map[string]interface{}{
				"lon":      sm.Lon,
				"lat":      sm.Lat,
				"proj_x":   sm.ProjX,
				"proj_y":   sm.ProjY,
				"speed":    sm.Speed,
				"heading":  sm.Heading,
				"accuracy": sm.Accuracy,
			},
			sm.Timestamp,
		))
	}
	if err := s.write.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	return nil
}

func (s *Influx) ReadWindow(ctx context.Context, start, end time.Time) ([]track.Sample, error) {
	// Pivot fields into columns so each record row is one full sample.
	flux := fmt.Sprintf(`
from(bucket: %q)
|> range(start: %s, stop: %s)
|> filter(fn: (r) => r._measurement == %q)
|> pivot(rowKey: ["_time", "entity_id"], columnKey: ["_field"], valueColumn: "_value")
`, s.bucket, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), s.measurement)

	res, err := s.query.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("read window: %w", err)
	}

	var out []track.Sample
	for res.Next() {
		rec := res.Record()
		out = append(out, track.Sample{
			EntityID:   stringValue(rec.ValueByKey("entity_id")),
			EntityType: stringValue(rec.ValueByKey("entity_type")),
			Source:     stringValue(rec.ValueByKey("source")),
			Timestamp:  rec.Time(),
			Lon:        floatValue(rec.ValueByKey("lon")),
			Lat:        floatValue(rec.ValueByKey("lat")),
			ProjX:      floatValue(rec.ValueByKey("proj_x")),
			ProjY:      floatValue(rec.ValueByKey("proj_y")),
			Speed:      floatValue(rec.ValueByKey("speed")),
			Heading:    floatValue(rec.ValueByKey("heading")),
			Accuracy:   floatValue(rec.ValueByKey("accuracy")),
		})
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("read window: %w", err)
	}

	// Flux returns one table per series; merge into a single global order.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out, nil
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func floatValue(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}
