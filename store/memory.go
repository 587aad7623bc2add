package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robinklaassen/artistic-intelligence-data/track"
)

// Memory is an in-process Store used by tests and local development runs.
type Memory struct {
	mu      sync.RWMutex
	samples map[memoryKey]track.Sample
}

type memoryKey struct {
	entityID string
	unixNano int64
}

func NewMemory() *Memory {
	return &Memory{samples: make(map[memoryKey]track.Sample)}
}

func (m *Memory) WriteBatch(_ context.Context, samples []track.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range samples {
		m.samples[memoryKey{entityID: s.EntityID, unixNano: s.Timestamp.UnixNano()}] = s
	}
	return nil
}

func (m *Memory) ReadWindow(_ context.Context, start, end time.Time) ([]track.Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []track.Sample
	for _, s := range m.samples {
		if !s.Timestamp.Before(start) && s.Timestamp.Before(end) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out, nil
}

// Len reports the number of stored samples.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.samples)
}
