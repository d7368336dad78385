package shared

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantHeaders map[string]string
		wantCookie  string
		wantErr     bool
	}{
		{
			name:        "single header with single quotes",
			curlCmd:     `curl -H 'Authorization: SAPISIDHASH token123' https://music.youtube.com`,
			wantHeaders: map[string]string{"Authorization": "SAPISIDHASH token123"},
		},
		{
			name:        "single header with double quotes",
			curlCmd:     `curl -H "Authorization: SAPISIDHASH token123" https://music.youtube.com`,
			wantHeaders: map[string]string{"Authorization": "SAPISIDHASH token123"},
		},
		{
			name:        "cookie in -b flag",
			curlCmd:     `curl -b 'SID=abc123' https://music.youtube.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "SID=abc123",
		},
		{
			name:        "cookie header is excluded from regular headers",
			curlCmd:     `curl -H 'Cookie: SID=abc123' -H 'X-Goog-AuthUser: 0' https://music.youtube.com`,
			wantHeaders: map[string]string{"X-Goog-AuthUser": "0"},
			wantCookie:  "SID=abc123",
		},
		{
			name:        "-b cookie takes precedence over -H cookie",
			curlCmd:     `curl -H 'Cookie: old=value' -b 'new=value' https://music.youtube.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "new=value",
		},
		{
			name: "multiline curl with backslashes",
			curlCmd: `curl 'https://music.youtube.com/youtubei/v1/browse' \
  -H 'accept: */*' \
  -H 'x-origin: https://music.youtube.com' \
  -H 'cookie: VISITOR_INFO=xyz; CONSENT=YES' \
  --data-raw '{"context":{}}'`,
			wantHeaders: map[string]string{
				"accept":   "*/*",
				"x-origin": "https://music.youtube.com",
			},
			wantCookie: "VISITOR_INFO=xyz; CONSENT=YES",
		},
		{
			name:    "no headers or cookies",
			curlCmd: `curl https://music.youtube.com`,
			wantErr: true,
		},
		{
			name:    "empty command",
			curlCmd: "",
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCurlCommand(tc.curlCmd)

			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseCurlCommand() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}

			if len(result.Headers) != len(tc.wantHeaders) {
				t.Errorf("ParseCurlCommand() headers count = %v, want %v", len(result.Headers), len(tc.wantHeaders))
			}

			for key, want := range tc.wantHeaders {
				if got := result.Headers[key]; got != want {
					t.Errorf("ParseCurlCommand() header[%s] = %v, want %v", key, got, want)
				}
			}

			if result.Cookie != tc.wantCookie {
				t.Errorf("ParseCurlCommand() cookie = %v, want %v", result.Cookie, tc.wantCookie)
			}
		})
	}
}

func TestParseCurlFile(t *testing.T) {
	t.Run("successful file parse", func(t *testing.T) {
		curlFile := filepath.Join(t.TempDir(), "curl.sh")

		curlCmd := `curl -H 'Authorization: SAPISIDHASH token123' -H 'Content-Type: application/json' https://music.youtube.com`
		if err := os.WriteFile(curlFile, []byte(curlCmd), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		result, err := ParseCurlFile(curlFile)
		if err != nil {
			t.Fatalf("ParseCurlFile() error = %v", err)
		}

		if len(result.Headers) != 2 {
			t.Errorf("ParseCurlFile() headers count = %v, want 2", len(result.Headers))
		}
	})

	t.Run("file does not exist", func(t *testing.T) {
		if _, err := ParseCurlFile("/nonexistent/file.sh"); err == nil {
			t.Error("ParseCurlFile() expected error for nonexistent file")
		}
	})
}

func TestCurlHeaders_WriteHeadersFile(t *testing.T) {
	headers := &CurlHeaders{
		Headers: map[string]string{"Authorization": "SAPISIDHASH abc", "X-Goog-AuthUser": "0"},
		Cookie:  "SAPISID=xyz",
	}

	path := filepath.Join(t.TempDir(), "nested", "browser.json")
	if err := headers.WriteHeadersFile(path); err != nil {
		t.Fatalf("WriteHeadersFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read headers file: %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("headers file is not JSON: %v", err)
	}

	if got["authorization"] != "SAPISIDHASH abc" {
		t.Errorf("expected lowercased authorization header, got %v", got)
	}
	if got["cookie"] != "SAPISID=xyz" {
		t.Errorf("expected cookie entry, got %v", got["cookie"])
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}
}
