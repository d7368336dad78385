// package tasks implements the refresh-and-report orchestration for YouTube Music.
//
// Two refresh cycles (player URL and home-feed catalog) run on [RepeatingTask] schedules owned by a
// [Backend]; playback starts are reported through a bounded [Dispatcher].
package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmusicd/internal/models"
	"github.com/desertthunder/ytmusicd/internal/shared"
)

// Client is the remote API transport used by the refreshers and the reporter.
type Client interface {
	// GetHome returns the raw home feed: a JSON array of sections with "title" and "contents".
	GetHome(ctx context.Context, limit int) ([]byte, error)

	// SendRequest posts payload to an InnerTube endpoint and returns the raw JSON response.
	SendRequest(ctx context.Context, endpoint string, payload map[string]any) ([]byte, error)

	// Headers returns the ambient request headers (cookies, auth, user agent).
	Headers() http.Header

	// HTTPClient returns the client carrying the proxy and auth transport.
	HTTPClient() *http.Client
}

// Decoder owns the player cipher used to decode stream signatures.
type Decoder interface {
	CurrentEndpoint() string
	UpdateCipher(ctx context.Context, playerURL string) error
	SignatureTimestamp() int
}

// Recorder persists run history. Errors are logged and ignored by callers.
type Recorder interface {
	RecordRefresh(ctx context.Context, run *models.RefreshRun) error
	RecordScrobble(ctx context.Context, s *models.Scrobble) error
}

// Hooks carries the optional observers shared by the refreshers and the reporter.
type Hooks struct {
	Events   chan<- RefreshEvent // Non-blocking event sink, may be nil
	Recorder Recorder            // History persistence, may be nil
	Now      func() time.Time    // Clock, defaults to time.Now
}

func (h Hooks) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h Hooks) recordRefresh(ctx context.Context, res RefreshResult, logger *log.Logger) {
	if h.Recorder == nil {
		return
	}
	run := models.NewRefreshRun(res.Kind, res.StartedAt, res.Duration, res.Outcome, res.Detail, res.Err)
	if err := h.Recorder.RecordRefresh(ctx, run); err != nil {
		logger.Warn("failed to record refresh run", "kind", res.Kind, "error", err)
	}
}

// RefreshResult describes one refresh run.
type RefreshResult struct {
	Kind      models.RefreshKind
	Outcome   models.RefreshOutcome
	Detail    string
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

// rawGet performs a GET with the client's ambient headers and transport, returning the response.
// The caller closes the body.
func rawGet(ctx context.Context, client Client, rawURL string) (*http.Response, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return nil, fmt.Errorf("%w: invalid URL %q: %v", shared.ErrInvalidInput, rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrAPIRequest, err)
	}
	for key, values := range client.Headers() {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	httpClient := client.HTTPClient()
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return resp, nil
}

// drain discards the remaining body so the connection can be reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
