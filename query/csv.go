package query

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"sort"
	"strconv"
	"time"
)

// pivotVars is the fixed set of variables exported per entity, in row order.
var pivotVars = []string{"x", "y", "speed", "heading", "type"}

// PivotedCSV returns the window as a wide CSV table: one column per entity,
// one row per (timestamp, variable) pair. Position variables are normalized
// display coordinates with at most 5 decimals. An empty window returns
// ErrNoContent, never a header-only or null row.
func (e *Engine) PivotedCSV(ctx context.Context, start, end time.Time) (string, error) {
	records, err := e.read(ctx, start, end)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", ErrNoContent
	}

	ids := make([]string, 0)
	seen := make(map[string]bool)
	type cellKey struct {
		bucket int64
		id     string
	}
	cells := make(map[cellKey]Record, len(records))
	buckets := make([]time.Time, 0)
	seenBucket := make(map[int64]bool)

	for _, r := range records {
		if !seen[r.ID] {
			seen[r.ID] = true
			ids = append(ids, r.ID)
		}
		bk := r.Timestamp.UnixNano()
		if !seenBucket[bk] {
			seenBucket[bk] = true
			buckets = append(buckets, r.Timestamp)
		}
		cells[cellKey{bucket: bk, id: r.ID}] = r
	}
	sort.Strings(ids)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append([]string{"timestamp", "var"}, ids...)
	if err := w.Write(header); err != nil {
		return "", err
	}

	row := make([]string, len(header))
	for _, bucket := range buckets {
		bk := bucket.UnixNano()
		for _, v := range pivotVars {
			row[0] = bucket.In(e.loc).Format("15:04:05")
			row[1] = v
			for i, id := range ids {
				r, ok := cells[cellKey{bucket: bk, id: id}]
				if !ok {
					// Missing combination stays empty, never synthesized.
					row[2+i] = ""
					continue
				}
				row[2+i] = pivotValue(r, v)
			}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func pivotValue(r Record, v string) string {
	switch v {
	case "x":
		return formatRound5(r.NX)
	case "y":
		return formatRound5(r.NY)
	case "speed":
		return strconv.FormatFloat(r.Speed, 'f', -1, 64)
	case "heading":
		return strconv.FormatFloat(r.Heading, 'f', -1, 64)
	case "type":
		return r.Type
	}
	return ""
}

func formatRound5(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e5)/1e5, 'f', -1, 64)
}

// TypesCSV returns the distinct (entity, type) pairs seen in the window.
func (e *Engine) TypesCSV(ctx context.Context, start, end time.Time) (string, error) {
	records, err := e.read(ctx, start, end)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", ErrNoContent
	}

	type pair struct{ id, typ string }
	seen := make(map[pair]bool)
	pairs := make([]pair, 0)
	for _, r := range records {
		p := pair{id: r.ID, typ: r.Type}
		if !seen[p] {
			seen[p] = true
			pairs = append(pairs, p)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].id != pairs[j].id {
			return pairs[i].id < pairs[j].id
		}
		return pairs[i].typ < pairs[j].typ
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "type"}); err != nil {
		return "", err
	}
	for _, p := range pairs {
		if err := w.Write([]string{p.id, p.typ}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
