package tasks

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmusicd/internal/models"
	"github.com/desertthunder/ytmusicd/internal/shared"
	"github.com/tidwall/gjson"
)

// CPNAlphabet holds the 64 symbols a client playback nonce is drawn from.
const CPNAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"

// CPNLength is the number of symbols in a client playback nonce.
const CPNLength = 16

const trackingPath = "playbackTracking.videostatsPlaybackUrl.baseUrl"

// NewCPN generates a client playback nonce, each symbol drawn uniformly from [CPNAlphabet].
func NewCPN() string {
	return newCPN(rand.IntN)
}

func newCPN(intn func(n int) int) string {
	var b strings.Builder
	b.Grow(CPNLength)
	for range CPNLength {
		b.WriteByte(CPNAlphabet[intn(len(CPNAlphabet))])
	}
	return b.String()
}

// ScrobbleResult describes one playback report.
type ScrobbleResult struct {
	VideoID     string `json:"video_id"`
	CPN         string `json:"cpn"`
	StatusCode  int    `json:"status_code"`
	TrackingURL string `json:"tracking_url,omitempty"`
}

// ScrobbleReporter tells YouTube Music a track started playing so it lands in the account's history.
type ScrobbleReporter struct {
	client  Client
	decoder Decoder
	logger  *log.Logger
	hooks   Hooks
	cpn     func() string
}

// NewScrobbleReporter creates a reporter using decoder for the current signature timestamp.
func NewScrobbleReporter(client Client, decoder Decoder, logger *log.Logger, hooks Hooks) *ScrobbleReporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ScrobbleReporter{
		client:  client,
		decoder: decoder,
		logger:  shared.WithLogger(logger, "component", "scrobble"),
		hooks:   hooks,
		cpn:     NewCPN,
	}
}

// PlayerPayload builds the body of the "player" request for a playback report.
func PlayerPayload(videoID, cpn string, signatureTimestamp int) map[string]any {
	return map[string]any{
		"playbackContext": map[string]any{
			"contentPlaybackContext": map[string]any{
				"signatureTimestamp": signatureTimestamp,
			},
		},
		"videoId": videoID,
		"cpn":     cpn,
	}
}

// TrackingURL extracts the videostats base URL from a player response and appends the report parameters.
func TrackingURL(playerResponse []byte, cpn string) (string, error) {
	base := gjson.GetBytes(playerResponse, trackingPath)
	if !base.Exists() || base.String() == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingField, trackingPath)
	}

	u, err := url.Parse(base.String())
	if err != nil {
		return "", fmt.Errorf("%w: tracking URL %q: %v", shared.ErrMalformedBody, base.String(), err)
	}

	q := u.Query()
	q.Set("cpn", cpn)
	q.Set("ver", "2")
	q.Set("c", "WEB_REMIX")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Report sends one playback report for videoID and waits for the tracking response.
//
// A player response without playbackTracking abandons the report with [shared.ErrMissingField]; no
// tracking request is made.
func (r *ScrobbleReporter) Report(ctx context.Context, videoID string) (*ScrobbleResult, error) {
	if videoID == "" {
		return nil, fmt.Errorf("%w: video id is required", shared.ErrMissingArgument)
	}

	res := &ScrobbleResult{VideoID: videoID, CPN: r.cpn()}

	body, err := r.client.SendRequest(ctx, "player", PlayerPayload(videoID, res.CPN, r.decoder.SignatureTimestamp()))
	if err != nil {
		return res, fmt.Errorf("player request for %s: %w", videoID, err)
	}

	trackingURL, err := TrackingURL(body, res.CPN)
	if err != nil {
		return res, err
	}

	resp, err := rawGet(ctx, r.client, trackingURL)
	if err != nil {
		return res, err
	}
	defer drain(resp)

	res.StatusCode = resp.StatusCode
	res.TrackingURL = resp.Request.URL.String()
	r.logger.Debugf("%d code from '%s'", res.StatusCode, res.TrackingURL)

	if resp.StatusCode >= http.StatusBadRequest {
		r.logger.Warn("tracking request rejected", "video_id", videoID, "status", resp.StatusCode)
	}
	return res, nil
}

// Handle reports videoID and absorbs every failure. It is the dispatcher's job handler.
func (r *ScrobbleReporter) Handle(ctx context.Context, videoID string) {
	r.RunOnce(ctx, videoID)
}

// RunOnce is [ScrobbleReporter.Handle] returning the outcome, for one-shot callers.
func (r *ScrobbleReporter) RunOnce(ctx context.Context, videoID string) (*ScrobbleResult, error) {
	res, err := r.Report(ctx, videoID)
	if err != nil {
		r.logger.Error("failed to scrobble track", "video_id", videoID, "error", err)
	}

	sendEvent(r.hooks.Events, scrobbleEvent(res, err))

	if r.hooks.Recorder == nil || res == nil {
		return res, err
	}
	s := models.NewScrobble(res.VideoID, res.CPN, res.StatusCode, res.TrackingURL, err)
	if recErr := r.hooks.Recorder.RecordScrobble(ctx, s); recErr != nil {
		r.logger.Warn("failed to record scrobble", "video_id", videoID, "error", recErr)
	}
	return res, err
}
