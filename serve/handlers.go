package serve

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/robinklaassen/artistic-intelligence-data/query"
)

// defaultWindow is the lookback applied when no start parameter is given.
const defaultWindow = 10 * time.Second

type handlers struct {
	engine *query.Engine
	loc    *time.Location
	log    *slog.Logger
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) records(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.window(w, r)
	if !ok {
		return
	}
	records, err := h.engine.Records(r.Context(), start, end)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if records == nil {
		records = []query.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handlers) keyed(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.window(w, r)
	if !ok {
		return
	}
	keyed, err := h.engine.Keyed(r.Context(), start, end)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, keyed)
}

func (h *handlers) pivoted(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.window(w, r)
	if !ok {
		return
	}
	out, err := h.engine.PivotedCSV(r.Context(), start, end)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeCSV(w, out)
}

func (h *handlers) types(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.window(w, r)
	if !ok {
		return
	}
	out, err := h.engine.TypesCSV(r.Context(), start, end)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeCSV(w, out)
}

// window parses the optional start and end parameters. end defaults to now,
// start to end minus the default lookback.
func (h *handlers) window(w http.ResponseWriter, r *http.Request) (start, end time.Time, ok bool) {
	end, err := h.timeParam(r, "end")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return start, end, false
	}
	if end.IsZero() {
		end = time.Now().In(h.loc)
	}

	start, err = h.timeParam(r, "start")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return start, end, false
	}
	if start.IsZero() {
		start = end.Add(-defaultWindow)
	}
	return start, end, true
}

func (h *handlers) timeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, naive, err := parseTime(raw, h.loc)
	if err != nil {
		return time.Time{}, err
	}
	if naive {
		h.log.Warn("timestamp without zone coerced to default zone",
			"param", name, "value", raw, "zone", h.loc.String())
	}
	return t, nil
}

func (h *handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, query.ErrInvalidRange):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, query.ErrNoContent):
		w.WriteHeader(http.StatusNoContent)
	default:
		h.log.Error("query failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeCSV(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
