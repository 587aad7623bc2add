package collect

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinklaassen/artistic-intelligence-data/config"
	"github.com/robinklaassen/artistic-intelligence-data/store"
	"github.com/robinklaassen/artistic-intelligence-data/track"
)

const twoTrainsPayload = `{
	"payload": {
		"treinen": [
			{
				"treinNummer": 8746,
				"ritId": "8746",
				"lat": 52.3791,
				"lng": 4.9003,
				"snelheid": 120.5,
				"richting": 183.2,
				"horizontaleNauwkeurigheid": 7.5,
				"type": "IC",
				"bron": "GPS"
			},
			{
				"treinNummer": 3155,
				"ritId": "3155",
				"lat": 53.2194,
				"lng": 6.5665,
				"snelheid": 0,
				"richting": 90,
				"horizontaleNauwkeurigheid": 12,
				"type": "SPR",
				"bron": "GPS"
			}
		]
	}
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTrainCollector(t *testing.T, upstream *httptest.Server, st store.Store) *TrainCollector {
	t.Helper()
	cfg := config.FeedConfig{
		URL:             upstream.URL,
		IntervalSeconds: 10,
		TimeoutSeconds:  4,
		Source:          "NS",
	}
	return NewTrainCollector(cfg, 10*time.Second, st, nil, testLogger())
}

func TestTrainCollectorPersistsBatch(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotNil(t, r.Header["Ocp-Apim-Subscription-Key"])
		_, _ = w.Write([]byte(twoTrainsPayload))
	}))
	defer upstream.Close()

	mem := store.NewMemory()
	c := newTestTrainCollector(t, upstream, mem)

	res := c.Run(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, 2, res.Records)
	assert.Equal(t, 2, mem.Len())
	assert.Greater(t, res.Duration, time.Duration(0))

	got, err := mem.ReadWindow(context.Background(), time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3155", got[0].EntityID)
	assert.Equal(t, "SPR", got[0].EntityType)
	// Timestamps land on the 10s bucket grid.
	assert.Zero(t, got[0].Timestamp.UnixNano()%int64(10*time.Second))
	assert.NotZero(t, got[0].ProjX)
}

func TestTrainCollectorUpstreamErrorYieldsZeroRecords(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	mem := store.NewMemory()
	c := newTestTrainCollector(t, upstream, mem)

	res := c.Run(context.Background())
	require.Error(t, res.Err)
	var uerr *UpstreamError
	require.ErrorAs(t, res.Err, &uerr)
	assert.Equal(t, http.StatusInternalServerError, uerr.Status)
	assert.Zero(t, res.Records)
	assert.Zero(t, mem.Len())
}

func TestTrainCollectorPartialBatchTolerance(t *testing.T) {
	// Middle entry has lat as a string; only that entry is dropped.
	payload := `{
		"payload": {
			"treinen": [
				{"treinNummer": 1, "ritId": "1", "lat": 52.1, "lng": 5.1, "type": "IC"},
				{"treinNummer": 2, "ritId": "2", "lat": "oops", "lng": 5.2, "type": "IC"},
				{"treinNummer": 3, "ritId": "3", "lat": 52.3, "lng": 5.3, "type": "IC"}
			]
		}
	}`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer upstream.Close()

	mem := store.NewMemory()
	c := newTestTrainCollector(t, upstream, mem)

	res := c.Run(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, 2, res.Records)
	assert.Equal(t, 2, mem.Len())
}

func TestTrainCollectorTotalParseErrorYieldsZeroRecords(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer upstream.Close()

	mem := store.NewMemory()
	c := newTestTrainCollector(t, upstream, mem)

	res := c.Run(context.Background())
	var perr *ParseError
	require.ErrorAs(t, res.Err, &perr)
	assert.Zero(t, res.Records)
	assert.Zero(t, mem.Len())
}

func TestTrainCollectorPersistenceFailureEndsTick(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(twoTrainsPayload))
	}))
	defer upstream.Close()

	c := newTestTrainCollector(t, upstream, failingStore{})

	res := c.Run(context.Background())
	require.Error(t, res.Err)
	assert.Zero(t, res.Records)
}

type failingStore struct{}

func (failingStore) WriteBatch(context.Context, []track.Sample) error { return assert.AnError }

func (failingStore) ReadWindow(context.Context, time.Time, time.Time) ([]track.Sample, error) {
	return nil, assert.AnError
}
