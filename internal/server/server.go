package server

import (
	"context"
	"net/http"

	"github.com/desertthunder/ytmusicd/internal/models"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows its own route patterns.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the "METHOD /path" patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Backend is the part of tasks.Backend the HTTP surface reads from.
type Backend interface {
	Running() bool
	Endpoint() string
	Catalog() *models.Catalog
	OnTrackStart(videoID string)
}

// History lists recorded runs and reports. Implemented by repositories.HistoryAdapter.
type History interface {
	Runs(ctx context.Context, kind models.RefreshKind, limit int) ([]*models.RefreshRun, error)
	Scrobbles(ctx context.Context, videoID string, limit int) ([]*models.Scrobble, error)
}
