package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/robinklaassen/artistic-intelligence-data/config"
	"github.com/robinklaassen/artistic-intelligence-data/geo"
	"github.com/robinklaassen/artistic-intelligence-data/store"
	"github.com/robinklaassen/artistic-intelligence-data/track"
)

// trainEntry mirrors one vehicle in the NS virtual-train payload.
type trainEntry struct {
	TrainNumber int     `json:"treinNummer" validate:"required"`
	RideID      string  `json:"ritId" validate:"required"`
	Lat         float64 `json:"lat" validate:"required"`
	Lng         float64 `json:"lng" validate:"required"`
	Speed       float64 `json:"snelheid"`
	Heading     float64 `json:"richting"`
	Accuracy    float64 `json:"horizontaleNauwkeurigheid"`
	Type        string  `json:"type" validate:"required"`
	Source      string  `json:"bron"`
}

// trainEnvelope keeps entries raw so one malformed train cannot fail the
// whole batch.
type trainEnvelope struct {
	Payload struct {
		Trains []json.RawMessage `json:"treinen"`
	} `json:"payload"`
}

// TrainCollector polls the NS virtual-train API for live train positions.
type TrainCollector struct {
	url         string
	apiKey      string
	source      string
	interval    time.Duration
	granularity time.Duration
	store       store.Store
	hub         Publisher
	validate    *validator.Validate
	client      *http.Client
	log         *slog.Logger
}

// NewTrainCollector builds a train collector from its feed configuration.
// hub may be nil.
func NewTrainCollector(cfg config.FeedConfig, granularity time.Duration, st store.Store, hub Publisher, log *slog.Logger) *TrainCollector {
	return &TrainCollector{
		url:         cfg.URL,
		apiKey:      cfg.APIKey(),
		source:      cfg.Source,
		interval:    cfg.Interval(),
		granularity: granularity,
		store:       st,
		hub:         hub,
		validate:    validator.New(),
		client:      &http.Client{Timeout: cfg.Timeout()},
		log:         log,
	}
}

func (c *TrainCollector) Name() string            { return "trains" }
func (c *TrainCollector) Interval() time.Duration { return c.interval }

// Run executes one tick: fetch, validate, round, project, persist.
func (c *TrainCollector) Run(ctx context.Context) RunResult {
	start := time.Now()
	finish := func(n int, err error) RunResult {
		return RunResult{Records: n, Duration: time.Since(start), Err: err}
	}

	body, err := c.fetch(ctx)
	if err != nil {
		return finish(0, err)
	}

	samples, dropped, err := c.parse(body, start)
	if err != nil {
		return finish(0, err)
	}
	if dropped > 0 {
		c.log.Warn("dropped malformed train entries", "collector", c.Name(), "dropped", dropped)
	}

	if err := c.store.WriteBatch(ctx, samples); err != nil {
		return finish(0, fmt.Errorf("persist: %w", err))
	}
	if c.hub != nil {
		c.hub.Publish(samples)
	}
	return finish(len(samples), nil)
}

func (c *TrainCollector) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", c.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", c.url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	return body, nil
}

// parse decodes the payload with partial-batch tolerance: each entry is
// parsed and validated independently, and failures drop only that entry.
func (c *TrainCollector) parse(body []byte, tickTime time.Time) (samples []track.Sample, dropped int, err error) {
	var envelope trainEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, 0, &ParseError{Cause: err}
	}

	bucket := track.RoundTimestamp(tickTime, c.granularity)
	samples = make([]track.Sample, 0, len(envelope.Payload.Trains))
	for _, raw := range envelope.Payload.Trains {
		var entry trainEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			dropped++
			continue
		}
		if err := c.validate.Struct(entry); err != nil {
			dropped++
			continue
		}
		x, y, err := geo.Project(entry.Lng, entry.Lat)
		if err != nil {
			// Data quality issue, not a parse failure: log loudly, drop the
			// entry, keep the batch.
			c.log.Error("train outside projection domain", "collector", c.Name(), "ride_id", entry.RideID, "err", err)
			dropped++
			continue
		}
		source := entry.Source
		if source == "" {
			source = c.source
		}
		samples = append(samples, track.Sample{
			EntityID:   entry.RideID,
			Timestamp:  bucket,
			Lon:        entry.Lng,
			Lat:        entry.Lat,
			ProjX:      x,
			ProjY:      y,
			Speed:      entry.Speed,
			Heading:    entry.Heading,
			Accuracy:   entry.Accuracy,
			EntityType: entry.Type,
			Source:     source,
		})
	}
	return samples, dropped, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
