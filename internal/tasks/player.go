package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmusicd/internal/models"
	"github.com/desertthunder/ytmusicd/internal/shared"
)

// MusicHomeURL is the page whose HTML embeds the current player script URL.
const MusicHomeURL = "https://music.youtube.com"

var jsURLPattern = regexp.MustCompile(`jsUrl"\s*:\s*"([^"]+)"`)

// ExtractPlayerURL finds the player script URL in a music.youtube.com page.
func ExtractPlayerURL(html []byte) (string, error) {
	m := jsURLPattern.FindSubmatch(html)
	if m == nil {
		return "", fmt.Errorf("%w: jsUrl marker not found in page", shared.ErrExtractionFailed)
	}
	return string(m[1]), nil
}

// PlayerRefresher keeps the decoder's player endpoint current.
//
// The cached endpoint is published atomically; readers see either the old or the new value.
type PlayerRefresher struct {
	client   Client
	decoder  Decoder
	logger   *log.Logger
	hooks    Hooks
	pageURL  string
	endpoint atomic.Pointer[string]
}

// NewPlayerRefresher creates a refresher seeded with the decoder's current endpoint.
func NewPlayerRefresher(client Client, decoder Decoder, logger *log.Logger, hooks Hooks) *PlayerRefresher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	r := &PlayerRefresher{
		client:  client,
		decoder: decoder,
		logger:  shared.WithLogger(logger, "component", "player"),
		hooks:   hooks,
		pageURL: MusicHomeURL,
	}
	current := decoder.CurrentEndpoint()
	r.endpoint.Store(&current)
	return r
}

// SetPageURL overrides the page fetched for the player URL. Call before the first refresh.
func (r *PlayerRefresher) SetPageURL(u string) { r.pageURL = u }

// Endpoint returns the cached player endpoint.
func (r *PlayerRefresher) Endpoint() string {
	return *r.endpoint.Load()
}

// Fetch downloads the music home page and extracts the player URL.
func (r *PlayerRefresher) Fetch(ctx context.Context) (string, error) {
	resp, err := rawGet(ctx, r.client, r.pageURL)
	if err != nil {
		return "", err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned %d", shared.ErrUnexpectedStatus, r.pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read page: %v", shared.ErrAPIRequest, err)
	}
	return ExtractPlayerURL(body)
}

// Refresh fetches the player URL and updates the decoder cipher when it changed.
//
// The cached endpoint only moves forward after the decoder accepted the new URL, so an unchanged URL
// triggers no further cipher updates.
func (r *PlayerRefresher) Refresh(ctx context.Context) RefreshResult {
	res := RefreshResult{Kind: models.RefreshPlayer, Outcome: models.OutcomeUnchanged, StartedAt: r.hooks.now()}

	url, err := r.Fetch(ctx)
	if err != nil {
		res.Outcome, res.Err = models.OutcomeFailed, err
		res.Duration = r.hooks.now().Sub(res.StartedAt)
		return res
	}

	if url == r.Endpoint() {
		res.Detail = url
		res.Duration = r.hooks.now().Sub(res.StartedAt)
		return res
	}

	if err := r.decoder.UpdateCipher(ctx, url); err != nil {
		res.Outcome, res.Err = models.OutcomeFailed, fmt.Errorf("cipher update for %s: %w", url, err)
		res.Duration = r.hooks.now().Sub(res.StartedAt)
		return res
	}

	r.endpoint.Store(&url)
	r.logger.Debug("updated player URL", "url", url)
	res.Outcome, res.Detail = models.OutcomeUpdated, url
	res.Duration = r.hooks.now().Sub(res.StartedAt)
	return res
}

// Tick runs one refresh, logging the outcome instead of returning it. It is the scheduled action.
func (r *PlayerRefresher) Tick(ctx context.Context) {
	r.RunOnce(ctx)
}

// RunOnce is [PlayerRefresher.Tick] returning the result, for one-shot callers.
func (r *PlayerRefresher) RunOnce(ctx context.Context) RefreshResult {
	res := r.Refresh(ctx)
	if res.Err != nil {
		r.logger.Error("failed to refresh player URL", "error", res.Err)
	} else {
		r.logger.Debugf("Player URL refreshed in %.2fs", res.Duration.Seconds())
	}

	sendEvent(r.hooks.Events, playerEvent(res, r.Endpoint()))
	r.hooks.recordRefresh(ctx, res, r.logger)
	return res
}
