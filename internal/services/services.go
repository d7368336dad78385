// package services implements the YouTube Music collaborators used by the refresh tasks:
// the API transport [Client], the player [PlayerCipher] and the OAuth [DeviceAuth] flow.
package services

import (
	"net/http"

	"golang.org/x/time/rate"
)

const (
	// MusicOrigin is the YouTube Music web origin.
	MusicOrigin = "https://music.youtube.com"

	// InnerTubeURL is the base URL of the YouTube Music internal API.
	InnerTubeURL = MusicOrigin + "/youtubei/v1"

	// DefaultProxyURL is where the ytmusicapi FastAPI proxy listens by default.
	DefaultProxyURL = "http://localhost:8080"

	clientName    = "WEB_REMIX"
	clientVersion = "1.20251015.03.00"
	userAgent     = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
)

// rateLimitedTransport throttles every outbound request, including raw calls made through
// [Client.HTTPClient].
type rateLimitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// newLimiter returns a limiter allowing rps requests per second with a burst of one.
// A non-positive rps disables limiting.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}
