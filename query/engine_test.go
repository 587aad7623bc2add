package query

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinklaassen/artistic-intelligence-data/geo"
	"github.com/robinklaassen/artistic-intelligence-data/store"
	"github.com/robinklaassen/artistic-intelligence-data/track"
)

func testEngine(t *testing.T, st store.Store) *Engine {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)
	return NewEngine(st, geo.DefaultScaler(), 10*time.Second, loc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seedStore(t *testing.T, base time.Time) *store.Memory {
	t.Helper()
	mem := store.NewMemory()
	samples := []track.Sample{
		{EntityID: "8746", Timestamp: base, Lon: 4.9003, Lat: 52.3791, Speed: 120, Heading: 183, Accuracy: 7.5, EntityType: "IC", Source: "NS"},
		{EntityID: "3155", Timestamp: base, Lon: 6.5665, Lat: 53.2194, Speed: 0, Heading: 90, Accuracy: 12, EntityType: "SPR", Source: "NS"},
		{EntityID: "8746", Timestamp: base.Add(10 * time.Second), Lon: 4.9050, Lat: 52.3800, Speed: 118, Heading: 184, Accuracy: 7.5, EntityType: "IC", Source: "NS"},
	}
	require.NoError(t, mem.WriteBatch(context.Background(), samples))
	return mem
}

func TestRecordsOrderedAndBounded(t *testing.T) {
	base := time.Date(2024, 10, 30, 8, 30, 10, 0, time.UTC)
	mem := seedStore(t, base)
	e := testEngine(t, mem)

	start := base.Add(-time.Minute)
	end := base.Add(time.Minute)
	records, err := e.Records(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, records, 3)

	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1], records[i]
		less := prev.Timestamp.Before(cur.Timestamp) ||
			(prev.Timestamp.Equal(cur.Timestamp) && prev.ID < cur.ID)
		assert.True(t, less, "records must be ordered by (timestamp, id)")
	}
	for _, r := range records {
		assert.False(t, r.Timestamp.Before(start))
		assert.True(t, r.Timestamp.Before(end))
	}
	// Coordinates are projected and normalized.
	assert.InDelta(t, 121846, records[1].X, 1)
	assert.InDelta(t, -0.20402, records[1].NX, 1e-5)
	assert.InDelta(t, 0.15401, records[1].NY, 1e-5)
}

func TestRecordsBoundsHoldAfterRounding(t *testing.T) {
	// An off-grid stored timestamp just inside the window can round up onto
	// the exclusive end; such rows must not leak out of the bounds.
	end := time.Date(2024, 10, 30, 8, 30, 20, 0, time.UTC)
	start := end.Add(-20 * time.Second)
	mem := store.NewMemory()
	require.NoError(t, mem.WriteBatch(context.Background(), []track.Sample{
		{EntityID: "late", Timestamp: end.Add(-time.Nanosecond), Lon: 4.9003, Lat: 52.3791},
		{EntityID: "kept", Timestamp: start.Add(4 * time.Second), Lon: 4.9003, Lat: 52.3791},
	}))
	e := testEngine(t, mem)

	records, err := e.Records(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0].ID)
	assert.True(t, records[0].Timestamp.Before(end))
}

func TestRecordsInvalidRange(t *testing.T) {
	e := testEngine(t, store.NewMemory())
	now := time.Now()

	_, err := e.Records(context.Background(), now.Add(time.Second), now)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = e.Records(context.Background(), now, now)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestRecordsEmptyWindowIsEmptyNotError(t *testing.T) {
	e := testEngine(t, store.NewMemory())
	records, err := e.Records(context.Background(), time.Now().Add(-time.Minute), time.Now())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecordsPropagatesReadFailure(t *testing.T) {
	e := testEngine(t, failingStore{})
	_, err := e.Records(context.Background(), time.Now().Add(-time.Minute), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read window")
}

func TestKeyedGroupsByBucket(t *testing.T) {
	base := time.Date(2024, 10, 30, 8, 30, 10, 0, time.UTC)
	mem := seedStore(t, base)
	e := testEngine(t, mem)

	keyed, err := e.Keyed(context.Background(), base.Add(-time.Minute), base.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, keyed, 2)

	loc, _ := time.LoadLocation("Europe/Amsterdam")
	firstKey := base.In(loc).Format(time.RFC3339)
	require.Contains(t, keyed, firstKey)
	assert.Len(t, keyed[firstKey], 2)
	assert.Equal(t, "3155", keyed[firstKey][0].ID)
}

func TestPivotedCSVShape(t *testing.T) {
	base := time.Date(2024, 10, 30, 8, 30, 10, 0, time.UTC)
	mem := seedStore(t, base)
	e := testEngine(t, mem)

	out, err := e.PivotedCSV(context.Background(), base.Add(-time.Minute), base.Add(time.Minute))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// Header plus 5 variables per bucket, 2 buckets.
	require.Len(t, lines, 1+2*5)
	assert.Equal(t, "timestamp,var,3155,8746", lines[0])

	// First bucket has both entities; the second one only 8746, its 3155
	// cell stays empty.
	first := strings.Split(lines[1], ",")
	require.Len(t, first, 4)
	assert.Equal(t, "x", first[1])
	assert.Equal(t, "0.48474", first[2])
	assert.Equal(t, "-0.20402", first[3])

	lastTypeRow := strings.Split(lines[10], ",")
	assert.Equal(t, "type", lastTypeRow[1])
	assert.Equal(t, "", lastTypeRow[2])
	assert.Equal(t, "IC", lastTypeRow[3])

	// Timestamps are clock times in the configured zone.
	assert.Regexp(t, `^\d{2}:\d{2}:\d{2}$`, first[0])
}

func TestPivotedCSVEmptyWindowIsNoContent(t *testing.T) {
	e := testEngine(t, store.NewMemory())
	out, err := e.PivotedCSV(context.Background(), time.Now().Add(-time.Minute), time.Now())
	assert.ErrorIs(t, err, ErrNoContent)
	assert.Empty(t, out)
}

func TestTypesCSV(t *testing.T) {
	base := time.Date(2024, 10, 30, 8, 30, 10, 0, time.UTC)
	mem := seedStore(t, base)
	e := testEngine(t, mem)

	out, err := e.TypesCSV(context.Background(), base.Add(-time.Minute), base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "id,type\n3155,SPR\n8746,IC\n", out)
}

type failingStore struct{}

func (failingStore) WriteBatch(context.Context, []track.Sample) error { return assert.AnError }

func (failingStore) ReadWindow(context.Context, time.Time, time.Time) ([]track.Sample, error) {
	return nil, assert.AnError
}
