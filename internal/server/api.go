package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmusicd/internal/models"
	"github.com/desertthunder/ytmusicd/internal/shared"
)

const defaultHistoryLimit = 20

// API serves the backend's state and the playback hook.
type API struct {
	backend Backend
	history History
	logger  *log.Logger
}

// NewAPI creates the API handler. history may be nil when no database is configured.
func NewAPI(backend Backend, history History, logger *log.Logger) *API {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &API{backend: backend, history: history, logger: logger}
}

// Register adds the API routes to r.
func (a *API) Register(r *BasicRouter) {
	r.HandleFunc(http.MethodGet, "/health", a.Health)
	r.HandleFunc(http.MethodGet, "/catalog", a.Catalog)
	r.HandleFunc(http.MethodGet, "/catalog/{key}", a.Section)
	r.HandleFunc(http.MethodPost, "/scrobble/{videoId}", a.Scrobble)
	r.HandleFunc(http.MethodGet, "/history", a.History)
	r.HandleFunc(http.MethodGet, "/history/scrobbles", a.ScrobbleHistory)
}

// NewHandler builds the full HTTP handler: request logging, panic recovery and the API routes.
func NewHandler(backend Backend, history History, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "component", "http")

	r := NewBasicRouter()
	r.Use(RequestLogger(logger), Recoverer(logger))
	NewAPI(backend, history, logger).Register(r)
	return r
}

// NewHTTPServer wraps handler in an [http.Server] with conservative timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

type healthResponse struct {
	Status         string    `json:"status"`
	Running        bool      `json:"running"`
	PlayerEndpoint string    `json:"player_endpoint"`
	Sections       int       `json:"sections"`
	Entries        int       `json:"entries"`
	RefreshedAt    time.Time `json:"refreshed_at"`
}

// Health reports whether the backend is running and a summary of its state.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	catalog := a.backend.Catalog()
	resp := healthResponse{
		Status:         "ok",
		Running:        a.backend.Running(),
		PlayerEndpoint: a.backend.Endpoint(),
		Sections:       catalog.Len(),
		Entries:        catalog.EntryCount(),
		RefreshedAt:    catalog.RefreshedAt(),
	}
	if !resp.Running {
		resp.Status = "stopped"
	}
	writeJSON(w, http.StatusOK, resp)
}

// Catalog returns the published catalog snapshot.
func (a *API) Catalog(w http.ResponseWriter, r *http.Request) {
	catalog := a.backend.Catalog()
	if catalog == nil {
		catalog = models.NewCatalog(nil, time.Time{})
	}
	writeJSON(w, http.StatusOK, catalog)
}

// Section returns one catalog section by key.
func (a *API) Section(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	section, ok := a.backend.Catalog().Section(key)
	if !ok {
		writeError(w, http.StatusNotFound, "section not found: "+key)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

// Scrobble hands videoId to the backend and returns 202 without waiting for the report.
func (a *API) Scrobble(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("videoId")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "video id is required")
		return
	}

	a.backend.OnTrackStart(videoID)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "video_id": videoID})
}

// History lists recent refresh runs, optionally filtered by ?kind=player|catalog.
func (a *API) History(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history is not enabled")
		return
	}

	var kind models.RefreshKind
	if q := r.URL.Query().Get("kind"); q != "" {
		k, err := models.ParseRefreshKind(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		kind = k
	}

	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runs, err := a.history.Runs(r.Context(), kind, limit)
	if err != nil {
		a.logger.Error("failed to list refresh runs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list refresh runs")
		return
	}
	if runs == nil {
		runs = []*models.RefreshRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// ScrobbleHistory lists recent playback reports, optionally filtered by ?video_id=.
func (a *API) ScrobbleHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history is not enabled")
		return
	}

	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	scrobbles, err := a.history.Scrobbles(r.Context(), r.URL.Query().Get("video_id"), limit)
	if err != nil {
		a.logger.Error("failed to list scrobbles", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list scrobbles")
		return
	}
	if scrobbles == nil {
		scrobbles = []*models.Scrobble{}
	}
	writeJSON(w, http.StatusOK, scrobbles)
}

func queryLimit(r *http.Request) (int, error) {
	q := r.URL.Query().Get("limit")
	if q == "" {
		return defaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(q)
	if err != nil || n <= 0 {
		return 0, shared.ErrInvalidInput
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
