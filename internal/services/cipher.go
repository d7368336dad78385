package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmusicd/internal/shared"
)

var stsPattern = regexp.MustCompile(`(?:signatureTimestamp|sts)\s*:\s*(\d+)`)

// ExtractSignatureTimestamp finds the signature timestamp embedded in the player script.
func ExtractSignatureTimestamp(js []byte) (int, error) {
	m := stsPattern.FindSubmatch(js)
	if m == nil {
		return 0, fmt.Errorf("%w: signature timestamp not found in player script", shared.ErrExtractionFailed)
	}
	sts, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, fmt.Errorf("%w: signature timestamp %q: %v", shared.ErrExtractionFailed, m[1], err)
	}
	return sts, nil
}

type cipherState struct {
	playerURL string
	sts       int
}

// PlayerCipher holds the player script URL and the signature timestamp derived from it.
//
// Both values are swapped together, so readers never see a timestamp from a different player.
type PlayerCipher struct {
	httpClient *http.Client
	origin     string
	logger     *log.Logger
	state      atomic.Pointer[cipherState]
}

// NewPlayerCipher creates an empty cipher. A nil client uses [http.DefaultClient].
func NewPlayerCipher(httpClient *http.Client, logger *log.Logger) *PlayerCipher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	c := &PlayerCipher{
		httpClient: httpClient,
		origin:     MusicOrigin,
		logger:     shared.WithLogger(logger, "component", "cipher"),
	}
	c.state.Store(&cipherState{})
	return c
}

// SetOrigin changes the host relative player URLs resolve against.
func (c *PlayerCipher) SetOrigin(origin string) { c.origin = origin }

// CurrentEndpoint returns the player URL the cipher was built from, or "" before the first update.
func (c *PlayerCipher) CurrentEndpoint() string {
	return c.state.Load().playerURL
}

// SignatureTimestamp returns the timestamp sent with player requests, or 0 before the first update.
func (c *PlayerCipher) SignatureTimestamp() int {
	return c.state.Load().sts
}

// UpdateCipher downloads the player script at playerURL and swaps in its signature timestamp.
// On failure the previous state is kept.
func (c *PlayerCipher) UpdateCipher(ctx context.Context, playerURL string) error {
	scriptURL, err := c.resolve(playerURL)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scriptURL, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", shared.ErrAPIRequest, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: player script returned %d", shared.ErrUnexpectedStatus, resp.StatusCode)
	}

	js, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read player script: %v", shared.ErrAPIRequest, err)
	}

	sts, err := ExtractSignatureTimestamp(js)
	if err != nil {
		return err
	}

	c.state.Store(&cipherState{playerURL: playerURL, sts: sts})
	c.logger.Debug("updated cipher", "player", playerURL, "sts", sts)
	return nil
}

func (c *PlayerCipher) resolve(playerURL string) (string, error) {
	ref, err := url.Parse(playerURL)
	if err != nil || playerURL == "" {
		return "", fmt.Errorf("%w: player URL %q", shared.ErrInvalidInput, playerURL)
	}
	base, err := url.Parse(c.origin)
	if err != nil {
		return "", fmt.Errorf("%w: origin %q: %v", shared.ErrInvalidConfig, c.origin, err)
	}
	return base.ResolveReference(ref).String(), nil
}
