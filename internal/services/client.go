package services

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmusicd/internal/shared"
	"golang.org/x/oauth2"
)

// ClientConfig configures a [Client].
type ClientConfig struct {
	ProxyURL     string             // ytmusicapi proxy serving /api/home
	InnerTubeURL string             // defaults to [InnerTubeURL]
	HeadersPath  string             // browser headers JSON, forwarded to the proxy as X-Auth-File
	Headers      http.Header        // ambient headers sent with every request
	HTTPProxy    string             // outbound HTTP proxy URL
	RateLimit    float64            // requests per second, 0 for unlimited
	TokenSource  oauth2.TokenSource // optional OAuth credentials
	Timeout      time.Duration      // per-request timeout, defaults to 30s
	Logger       *log.Logger
}

// Client talks to YouTube Music directly (InnerTube) and through the ytmusicapi proxy.
//
// All requests share one [http.Client] carrying the outbound proxy, OAuth transport and rate limiter, so
// raw calls made with [Client.HTTPClient] are throttled and authenticated the same way.
type Client struct {
	proxyURL     string
	innerTubeURL string
	headersPath  string
	headers      http.Header
	httpClient   *http.Client
	oauth        bool
	logger       *log.Logger
	now          func() time.Time
}

// NewClient builds a client from cfg.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.HTTPProxy != "" {
		proxy, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			return nil, fmt.Errorf("%w: http_proxy %q: %v", shared.ErrInvalidConfig, cfg.HTTPProxy, err)
		}
		base.Proxy = http.ProxyURL(proxy)
	}

	var transport http.RoundTripper = base
	if cfg.TokenSource != nil {
		transport = &oauth2.Transport{Source: cfg.TokenSource, Base: transport}
	}
	transport = &rateLimitedTransport{base: transport, limiter: newLimiter(cfg.RateLimit)}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	proxyURL := cfg.ProxyURL
	if proxyURL == "" {
		proxyURL = DefaultProxyURL
	}
	innerTube := cfg.InnerTubeURL
	if innerTube == "" {
		innerTube = InnerTubeURL
	}

	headers := cfg.Headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	if headers.Get("User-Agent") == "" {
		headers.Set("User-Agent", userAgent)
	}
	if headers.Get("Origin") == "" {
		headers.Set("Origin", MusicOrigin)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Client{
		proxyURL:     strings.TrimRight(proxyURL, "/"),
		innerTubeURL: strings.TrimRight(innerTube, "/"),
		headersPath:  cfg.HeadersPath,
		headers:      headers,
		httpClient:   &http.Client{Transport: transport, Timeout: timeout},
		oauth:        cfg.TokenSource != nil,
		logger:       shared.WithLogger(logger, "component", "client"),
		now:          time.Now,
	}, nil
}

// NewClientFromConfig builds a client from the [credentials.youtube] section, loading the headers file
// and the OAuth token when they exist.
func NewClientFromConfig(ctx context.Context, cfg shared.YouTubeConfig, logger *log.Logger) (*Client, error) {
	headers, err := LoadHeaders(cfg.HeadersPath)
	if err != nil && !errors.Is(err, shared.ErrMissingCredentials) {
		return nil, err
	}

	var ts oauth2.TokenSource
	if cfg.OAuthPath != "" {
		tok, err := LoadToken(cfg.OAuthPath)
		switch {
		case err == nil:
			ts = NewDeviceAuth(cfg.ClientID, cfg.ClientSecret, cfg.OAuthPath).TokenSource(ctx, tok)
		case !errors.Is(err, shared.ErrNotAuthenticated):
			return nil, err
		}
	}

	return NewClient(ClientConfig{
		ProxyURL:    cfg.ProxyURL,
		HeadersPath: cfg.HeadersPath,
		Headers:     headers,
		HTTPProxy:   cfg.HTTPProxy,
		RateLimit:   cfg.RateLimit,
		TokenSource: ts,
		Logger:      logger,
	})
}

// LoadHeaders reads a browser headers JSON file (header name to value).
//
// A missing file returns [shared.ErrMissingCredentials].
func LoadHeaders(path string) (http.Header, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no headers file configured", shared.ErrMissingCredentials)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: headers file %s not found", shared.ErrMissingCredentials, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read headers file: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: headers file %s: %v", shared.ErrInvalidConfig, path, err)
	}

	headers := http.Header{}
	for k, v := range raw {
		// ytmusicapi stores its own bookkeeping next to the headers.
		if strings.EqualFold(k, "filepath") {
			continue
		}
		headers.Set(k, v)
	}
	return headers, nil
}

// Headers returns a copy of the ambient request headers.
func (c *Client) Headers() http.Header {
	h := c.headers.Clone()
	if auth := c.sapisidHash(); auth != "" && h.Get("Authorization") == "" {
		h.Set("Authorization", auth)
	}
	return h
}

// HTTPClient returns the shared client carrying the proxy, OAuth and rate limiting transport.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Authenticated reports whether requests carry cookies or an OAuth token.
func (c *Client) Authenticated() bool {
	return c.oauth || c.headers.Get("Cookie") != ""
}

// sapisidHash derives the SAPISIDHASH authorization YouTube expects alongside browser cookies.
func (c *Client) sapisidHash() string {
	if c.oauth {
		return ""
	}
	sapisid := cookieValue(c.headers.Get("Cookie"), "__Secure-3PAPISID")
	if sapisid == "" {
		sapisid = cookieValue(c.headers.Get("Cookie"), "SAPISID")
	}
	if sapisid == "" {
		return ""
	}

	ts := strconv.FormatInt(c.now().Unix(), 10)
	sum := sha1.Sum([]byte(ts + " " + sapisid + " " + MusicOrigin))
	return "SAPISIDHASH " + ts + "_" + hex.EncodeToString(sum[:])
}

func cookieValue(cookie, name string) string {
	for _, part := range strings.Split(cookie, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && k == name {
			return v
		}
	}
	return ""
}

// GetHome fetches the home feed from the proxy's GET /api/home.
func (c *Client) GetHome(ctx context.Context, limit int) ([]byte, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	endpoint := c.proxyURL + "/api/home?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrAPIRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.headersPath != "" {
		req.Header.Set("X-Auth-File", c.headersPath)
	}

	return c.do(req)
}

// SendRequest posts payload to the InnerTube endpoint with the WEB_REMIX client context.
func (c *Client) SendRequest(ctx context.Context, endpoint string, payload map[string]any) ([]byte, error) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["context"] = map[string]any{
		"client": map[string]any{
			"clientName":    clientName,
			"clientVersion": clientVersion,
			"hl":            "en",
		},
		"user": map[string]any{},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode payload: %v", shared.ErrInvalidInput, err)
	}

	u := c.innerTubeURL + "/" + strings.TrimLeft(endpoint, "/") + "?alt=json&prettyPrint=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrAPIRequest, err)
	}
	for k, values := range c.Headers() {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Origin", MusicOrigin)

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
			Error  struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &errResp) == nil {
			if msg := errResp.Detail + errResp.Error.Message; msg != "" {
				return nil, fmt.Errorf("%w: %s returned %d: %s", shared.ErrUnexpectedStatus, req.URL.Path, resp.StatusCode, msg)
			}
		}
		return nil, fmt.Errorf("%w: %s returned %d", shared.ErrUnexpectedStatus, req.URL.Path, resp.StatusCode)
	}

	c.logger.Debug("request completed", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "bytes", len(body))
	return body, nil
}
