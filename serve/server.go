package serve

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/robinklaassen/artistic-intelligence-data/query"
)

// Options configures the HTTP serving layer.
type Options struct {
	Port       int
	APIKey     string // empty disables authentication
	DefaultLoc *time.Location
}

// New builds the HTTP server for the query endpoints and the live hub.
// hub may be nil, in which case the websocket endpoint is not registered.
func New(opts Options, engine *query.Engine, hub *Hub, log *slog.Logger) *http.Server {
	h := &handlers{engine: engine, loc: opts.DefaultLoc, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", h.health)
	mux.Handle("/trains/records", requireAPIKey(opts.APIKey, http.HandlerFunc(h.records)))
	mux.Handle("/trains/keyed", requireAPIKey(opts.APIKey, http.HandlerFunc(h.keyed)))
	mux.Handle("/trains/pivoted", requireAPIKey(opts.APIKey, http.HandlerFunc(h.pivoted)))
	mux.Handle("/trains/types", requireAPIKey(opts.APIKey, http.HandlerFunc(h.types)))
	if hub != nil {
		mux.HandleFunc("/live", hub.handleWebSocket)
	}

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
