package serve

import (
	"fmt"
	"net/http"
	"time"
)

// naiveLayout accepts timestamps without a zone offset. They are read in the
// configured default zone, not UTC.
const naiveLayout = "2006-01-02T15:04:05"

func parseTime(raw string, loc *time.Location) (t time.Time, naive bool, err error) {
	if t, err = time.Parse(time.RFC3339, raw); err == nil {
		return t, false, nil
	}
	if t, err = time.ParseInLocation(naiveLayout, raw, loc); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid timestamp %q", raw)
}

// requireAPIKey rejects requests whose X-API-Key header does not match key.
// An empty key disables the check.
func requireAPIKey(key string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key != "" && r.Header.Get("X-API-Key") != key {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid API key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
