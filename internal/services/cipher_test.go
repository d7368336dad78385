package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/ytmusicd/internal/shared"
)

func TestExtractSignatureTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		js      string
		want    int
		wantErr bool
	}{
		{name: "signatureTimestamp", js: `var x={signatureTimestamp:20180,foo:1}`, want: 20180},
		{name: "sts shorthand", js: `a.b={sts:19950};`, want: 19950},
		{name: "spaces", js: `signatureTimestamp : 20001`, want: 20001},
		{name: "missing", js: `function(){return 1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractSignatureTimestamp([]byte(tt.js))
			if tt.wantErr {
				if !errors.Is(err, shared.ErrExtractionFailed) {
					t.Errorf("expected ErrExtractionFailed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPlayerCipher(t *testing.T) {
	ctx := context.Background()
	scripts := map[string]string{
		"/s/player/aaa/base.js": `x={signatureTimestamp:20100}`,
		"/s/player/bbb/base.js": `x={sts:20200}`,
		"/s/player/bad/base.js": `no timestamp`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		js, ok := scripts[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(js))
	}))
	defer srv.Close()

	newCipher := func() *PlayerCipher {
		c := NewPlayerCipher(srv.Client(), nil)
		c.SetOrigin(srv.URL)
		return c
	}

	t.Run("empty before first update", func(t *testing.T) {
		c := newCipher()
		if c.CurrentEndpoint() != "" || c.SignatureTimestamp() != 0 {
			t.Error("expected empty cipher")
		}
	})

	t.Run("relative player URL", func(t *testing.T) {
		c := newCipher()
		if err := c.UpdateCipher(ctx, "/s/player/aaa/base.js"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.CurrentEndpoint() != "/s/player/aaa/base.js" || c.SignatureTimestamp() != 20100 {
			t.Errorf("unexpected state %q %d", c.CurrentEndpoint(), c.SignatureTimestamp())
		}
	})

	t.Run("absolute player URL", func(t *testing.T) {
		c := NewPlayerCipher(srv.Client(), nil)
		if err := c.UpdateCipher(ctx, srv.URL+"/s/player/bbb/base.js"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.SignatureTimestamp() != 20200 {
			t.Errorf("unexpected sts %d", c.SignatureTimestamp())
		}
	})

	t.Run("failures keep previous state", func(t *testing.T) {
		c := newCipher()
		c.UpdateCipher(ctx, "/s/player/aaa/base.js")

		if err := c.UpdateCipher(ctx, "/s/player/bad/base.js"); !errors.Is(err, shared.ErrExtractionFailed) {
			t.Errorf("expected ErrExtractionFailed, got %v", err)
		}
		if err := c.UpdateCipher(ctx, "/s/player/missing/base.js"); !errors.Is(err, shared.ErrUnexpectedStatus) {
			t.Errorf("expected ErrUnexpectedStatus, got %v", err)
		}
		if err := c.UpdateCipher(ctx, ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if c.CurrentEndpoint() != "/s/player/aaa/base.js" || c.SignatureTimestamp() != 20100 {
			t.Errorf("state changed after failures: %q %d", c.CurrentEndpoint(), c.SignatureTimestamp())
		}
	})
}
