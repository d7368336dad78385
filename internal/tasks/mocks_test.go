package tasks

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desertthunder/ytmusicd/internal/models"
)

type mockClient struct {
	mu         sync.Mutex
	home       []byte
	homeErr    error
	homeLimits []int
	player     []byte
	playerErr  error
	requests   []map[string]any
	endpoints  []string
	headers    http.Header
	httpClient *http.Client
}

func (m *mockClient) GetHome(ctx context.Context, limit int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.homeLimits = append(m.homeLimits, limit)
	return m.home, m.homeErr
}

func (m *mockClient) SendRequest(ctx context.Context, endpoint string, payload map[string]any) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints = append(m.endpoints, endpoint)
	m.requests = append(m.requests, payload)
	return m.player, m.playerErr
}

func (m *mockClient) Headers() http.Header {
	if m.headers == nil {
		return http.Header{}
	}
	return m.headers.Clone()
}

func (m *mockClient) HTTPClient() *http.Client {
	if m.httpClient == nil {
		return http.DefaultClient
	}
	return m.httpClient
}

func (m *mockClient) setHome(data []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.home, m.homeErr = data, err
}

type mockDecoder struct {
	mu        sync.Mutex
	endpoint  string
	sts       int
	updateErr error
	updates   []string
}

func (m *mockDecoder) CurrentEndpoint() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endpoint
}

func (m *mockDecoder) UpdateCipher(ctx context.Context, playerURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, playerURL)
	if m.updateErr != nil {
		return m.updateErr
	}
	m.endpoint = playerURL
	return nil
}

func (m *mockDecoder) SignatureTimestamp() int { return m.sts }

func (m *mockDecoder) updateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.updates)
}

type mockRecorder struct {
	mu        sync.Mutex
	runs      []*models.RefreshRun
	scrobbles []*models.Scrobble
	err       error
}

func (m *mockRecorder) RecordRefresh(ctx context.Context, run *models.RefreshRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return m.err
}

func (m *mockRecorder) RecordScrobble(ctx context.Context, s *models.Scrobble) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scrobbles = append(m.scrobbles, s)
	return m.err
}

func (m *mockRecorder) scrobbleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scrobbles)
}

// counter is a thread-safe hit counter for httptest handlers.
type counter struct{ n atomic.Int64 }

func (c *counter) inc() { c.n.Add(1) }
func (c *counter) load() int64 { return c.n.Load() }

var errBoom = errors.New("boom")

const wait = time.Second
