package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/ytmusicd/internal/shared"
	"golang.org/x/oauth2"
)

// YouTubeScope grants access to the account's YouTube data, including YouTube Music.
const YouTubeScope = "https://www.googleapis.com/auth/youtube"

// GoogleEndpoint is Google's OAuth 2.0 endpoint including device authorization.
var GoogleEndpoint = oauth2.Endpoint{
	AuthURL:       "https://accounts.google.com/o/oauth2/auth",
	TokenURL:      "https://oauth2.googleapis.com/token",
	DeviceAuthURL: "https://oauth2.googleapis.com/device/code",
	AuthStyle:     oauth2.AuthStyleInParams,
}

// DeviceAuth runs the OAuth device flow ("TVs and Limited Input devices" client) and persists the token.
type DeviceAuth struct {
	config      *oauth2.Config
	tokenPath   string
	out         io.Writer
	openBrowser func(string) error
}

// NewDeviceAuth creates a device flow for the given OAuth client, storing tokens at tokenPath.
func NewDeviceAuth(clientID, clientSecret, tokenPath string) *DeviceAuth {
	return &DeviceAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     GoogleEndpoint,
			Scopes:       []string{YouTubeScope},
		},
		tokenPath:   tokenPath,
		out:         os.Stdout,
		openBrowser: shared.OpenBrowser,
	}
}

// SetOutput redirects the sign-in instructions.
func (d *DeviceAuth) SetOutput(w io.Writer) { d.out = w }

// SetEndpoint overrides the OAuth endpoint.
func (d *DeviceAuth) SetEndpoint(e oauth2.Endpoint) { d.config.Endpoint = e }

// SetBrowserOpener overrides how the verification URL is opened. nil disables opening.
func (d *DeviceAuth) SetBrowserOpener(open func(string) error) { d.openBrowser = open }

// Login prints the verification URL and user code, polls until the user approves, then saves the token.
func (d *DeviceAuth) Login(ctx context.Context) (*oauth2.Token, error) {
	if d.config.ClientID == "" {
		return nil, fmt.Errorf("%w: client_id is required for device sign-in", shared.ErrMissingConfig)
	}

	resp, err := d.config.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: device authorization: %v", shared.ErrAuthFailed, err)
	}

	verifyURL := resp.VerificationURIComplete
	if verifyURL == "" {
		verifyURL = resp.VerificationURI
	}
	fmt.Fprintf(d.out, "Visit %s and enter code %s\n", resp.VerificationURI, resp.UserCode)
	if d.openBrowser != nil {
		if err := d.openBrowser(verifyURL); err != nil {
			fmt.Fprintf(d.out, "Could not open browser: %v\n", err)
		}
	}

	tok, err := d.config.DeviceAccessToken(ctx, resp)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: device sign-in not completed", shared.ErrTimeout)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if err := SaveToken(d.tokenPath, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// TokenSource returns a source that refreshes tok as needed and writes refreshed tokens back to disk.
func (d *DeviceAuth) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return &savingTokenSource{
		base: d.config.TokenSource(ctx, tok),
		path: d.tokenPath,
		last: tok,
	}
}

type savingTokenSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		s.last = tok
		if s.path != "" {
			_ = SaveToken(s.path, tok)
		}
	}
	return tok, nil
}

// SaveToken writes tok as JSON with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	if path == "" {
		return fmt.Errorf("%w: no token path configured", shared.ErrMissingConfig)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// LoadToken reads a token written by [SaveToken]. A missing file returns [shared.ErrNotAuthenticated].
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no token at %s", shared.ErrNotAuthenticated, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: token file %s: %v", shared.ErrInvalidConfig, path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token file %s is empty", shared.ErrNotAuthenticated, path)
	}
	return &tok, nil
}
