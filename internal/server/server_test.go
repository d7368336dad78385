package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytmusicd/internal/models"
	"github.com/desertthunder/ytmusicd/internal/shared"
)

type mockBackend struct {
	mu       sync.Mutex
	running  bool
	endpoint string
	catalog  *models.Catalog
	started  []string
}

func (m *mockBackend) Running() bool { return m.running }
func (m *mockBackend) Endpoint() string { return m.endpoint }
func (m *mockBackend) Catalog() *models.Catalog { return m.catalog }

func (m *mockBackend) OnTrackStart(videoID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, videoID)
}

type mockHistory struct {
	runs      []*models.RefreshRun
	scrobbles []*models.Scrobble
	err       error
	gotKind   models.RefreshKind
	gotLimit  int
	gotVideo  string
}

func (m *mockHistory) Runs(_ context.Context, kind models.RefreshKind, limit int) ([]*models.RefreshRun, error) {
	m.gotKind, m.gotLimit = kind, limit
	return m.runs, m.err
}

func (m *mockHistory) Scrobbles(_ context.Context, videoID string, limit int) ([]*models.Scrobble, error) {
	m.gotVideo, m.gotLimit = videoID, limit
	return m.scrobbles, m.err
}

func testCatalog() *models.Catalog {
	mixes := models.NewCatalogSection("Mixed for you")
	mixes.Add(models.NewPlaylistEntry("RDTMAK5uy_1", "Supermix"))
	artists := models.NewCatalogSection("Artists")
	artists.Add(models.NewArtistEntry("UC123", "Someone"))
	return models.NewCatalog([]*models.CatalogSection{mixes, artists}, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
}

func newTestHandler(b *mockBackend, h History) (http.Handler, *bytes.Buffer) {
	var logs bytes.Buffer
	return NewHandler(b, h, shared.NewLogger(&logs)), &logs
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	b := &mockBackend{running: true, endpoint: "/s/player/abc/base.js", catalog: testCatalog()}
	h, _ := newTestHandler(b, nil)

	rec := do(t, h, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Status != "ok" || !resp.Running || resp.PlayerEndpoint != b.endpoint {
		t.Errorf("unexpected health %+v", resp)
	}
	if resp.Sections != 2 || resp.Entries != 2 {
		t.Errorf("expected 2 sections and 2 entries, got %d/%d", resp.Sections, resp.Entries)
	}

	t.Run("stopped backend", func(t *testing.T) {
		h, _ := newTestHandler(&mockBackend{}, nil)
		rec := do(t, h, http.MethodGet, "/health")

		var resp healthResponse
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Status != "stopped" || resp.Sections != 0 {
			t.Errorf("unexpected health %+v", resp)
		}
	})
}

func TestCatalog(t *testing.T) {
	b := &mockBackend{catalog: testCatalog()}
	h, _ := newTestHandler(b, nil)

	t.Run("snapshot", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/catalog")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var got models.Catalog
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		keys := got.Keys()
		if len(keys) != 2 || keys[0] != "ytmusic:auto:mixed-for-you" || keys[1] != "ytmusic:auto:artists" {
			t.Errorf("unexpected keys %v", keys)
		}
	})

	t.Run("empty snapshot", func(t *testing.T) {
		h, _ := newTestHandler(&mockBackend{}, nil)
		rec := do(t, h, http.MethodGet, "/catalog")
		if !strings.Contains(rec.Body.String(), `"sections":[]`) {
			t.Errorf("expected empty section list, got %s", rec.Body.String())
		}
	})

	t.Run("section", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/catalog/ytmusic:auto:artists")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var section models.CatalogSection
		json.Unmarshal(rec.Body.Bytes(), &section)
		if section.Title != "Artists" || len(section.Entries) != 1 {
			t.Errorf("unexpected section %+v", section)
		}
	})

	t.Run("unknown section", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/catalog/ytmusic:auto:nope")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestScrobble(t *testing.T) {
	b := &mockBackend{running: true}
	h, _ := newTestHandler(b, nil)

	rec := do(t, h, http.MethodPost, "/scrobble/dQw4w9WgXcQ")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(b.started) != 1 || b.started[0] != "dQw4w9WgXcQ" {
		t.Errorf("expected OnTrackStart call, got %v", b.started)
	}

	t.Run("wrong method", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/scrobble/abc")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func TestHistory(t *testing.T) {
	run := models.NewRefreshRun(models.RefreshPlayer, time.Now(), time.Second, models.OutcomeUpdated, "", nil)

	tests := []struct {
		name      string
		target    string
		history   *mockHistory
		wantCode  int
		wantKind  models.RefreshKind
		wantLimit int
	}{
		{name: "default", target: "/history", history: &mockHistory{runs: []*models.RefreshRun{run}}, wantCode: http.StatusOK, wantLimit: defaultHistoryLimit},
		{name: "kind and limit", target: "/history?kind=catalog&limit=5", history: &mockHistory{}, wantCode: http.StatusOK, wantKind: models.RefreshCatalog, wantLimit: 5},
		{name: "bad kind", target: "/history?kind=nope", history: &mockHistory{}, wantCode: http.StatusBadRequest},
		{name: "bad limit", target: "/history?limit=-1", history: &mockHistory{}, wantCode: http.StatusBadRequest},
		{name: "store error", target: "/history", history: &mockHistory{err: errors.New("db closed")}, wantCode: http.StatusInternalServerError, wantLimit: defaultHistoryLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(&mockBackend{}, tt.history)
			rec := do(t, h, http.MethodGet, tt.target)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK && tt.wantCode != http.StatusInternalServerError {
				return
			}
			if tt.history.gotKind != tt.wantKind || tt.history.gotLimit != tt.wantLimit {
				t.Errorf("expected kind %q limit %d, got %q %d", tt.wantKind, tt.wantLimit, tt.history.gotKind, tt.history.gotLimit)
			}
		})
	}

	t.Run("empty list is an array", func(t *testing.T) {
		h, _ := newTestHandler(&mockBackend{}, &mockHistory{})
		rec := do(t, h, http.MethodGet, "/history")
		if strings.TrimSpace(rec.Body.String()) != "[]" {
			t.Errorf("expected [], got %s", rec.Body.String())
		}
	})

	t.Run("disabled", func(t *testing.T) {
		h, _ := newTestHandler(&mockBackend{}, nil)
		if rec := do(t, h, http.MethodGet, "/history"); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("scrobbles", func(t *testing.T) {
		hist := &mockHistory{scrobbles: []*models.Scrobble{models.NewScrobble("vid", "cpn", 204, "", nil)}}
		h, _ := newTestHandler(&mockBackend{}, hist)
		rec := do(t, h, http.MethodGet, "/history/scrobbles?video_id=vid")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if hist.gotVideo != "vid" || !strings.Contains(rec.Body.String(), `"cpn":"cpn"`) {
			t.Errorf("unexpected response %s (video %q)", rec.Body.String(), hist.gotVideo)
		}
	})
}

type routesHandler struct{}

func (routesHandler) Routes() []string { return []string{"GET /a", "GET /b"} }

func (routesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(r.URL.Path))
}

func TestBasicRouter(t *testing.T) {
	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mw("first"), mw("second"))
		r.HandleFunc(http.MethodGet, "/x", func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		})

		do(t, r, http.MethodGet, "/x")
		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("custom handler routes", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handler(routesHandler{})
		for _, path := range []string{"/a", "/b"} {
			if rec := do(t, r, http.MethodGet, path); rec.Body.String() != path {
				t.Errorf("expected %s, got %q", path, rec.Body.String())
			}
		}
	})

	t.Run("recoverer", func(t *testing.T) {
		var logs bytes.Buffer
		r := NewBasicRouter()
		r.Use(Recoverer(shared.NewLogger(&logs)))
		r.HandleFunc(http.MethodGet, "/panic", func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})

		rec := do(t, r, http.MethodGet, "/panic")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(logs.String(), "handler panicked") {
			t.Errorf("expected panic to be logged, got %q", logs.String())
		}
	})

	t.Run("request logger", func(t *testing.T) {
		h, logs := newTestHandler(&mockBackend{}, nil)
		do(t, h, http.MethodGet, "/catalog/missing")
		out := logs.String()
		if !strings.Contains(out, "path=/catalog/missing") || !strings.Contains(out, "status=404") {
			t.Errorf("expected request log line, got %q", out)
		}
	})
}
