package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/ytmusicd/internal/shared"
	tu "github.com/desertthunder/ytmusicd/internal/testing"
	"github.com/urfave/cli/v3"
)

const homeFeed = `[
	{
		"title": "Mixed for you",
		"contents": [
			{"title": "My Supermix", "playlistId": "RDTMAK5uy_supermix"},
			{"title": "Discover Mix", "playlistId": "RDTMAK5uy_discover"}
		]
	}
]`

// newYouTubeServer serves the home page, the player script and the proxy home feed.
func newYouTubeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><script>ytcfg.set({"jsUrl":"/s/player/abc123/base.js"});</script></html>`)
	})
	mux.HandleFunc("GET /s/player/abc123/base.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `var cfg={signatureTimestamp:19834,other:1};`)
	})
	mux.HandleFunc("GET /api/home", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, homeFeed)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// writeTestConfig writes a config pointing at proxyURL with a database in a temp directory.
func writeTestConfig(t *testing.T, proxyURL string) (configPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "history.db")
	configPath = filepath.Join(dir, "config.toml")

	content := fmt.Sprintf(`[credentials.youtube]
proxy_url = %q
headers_path = ""
rate_limit = 0.0

[database]
path = %q
`, proxyURL, dbPath)
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath, dbPath
}

// run executes args against a fresh command tree bound to runner.
func run(ctx context.Context, runner *Runner, args ...string) error {
	app := &cli.Command{
		Name:     "ytmusicd",
		Flags:    globalFlags(),
		Before:   runner.Before,
		Commands: runner.register(),
	}
	return app.Run(ctx, append([]string{"ytmusicd"}, args...))
}

func newTestRunner(srv *httptest.Server, output *bytes.Buffer) *Runner {
	return NewRunner(RunnerOpts{
		Logger:  shared.NewLogger(&bytes.Buffer{}),
		Output:  output,
		PageURL: srv.URL + "/",
		Origin:  srv.URL,
	})
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "custom.toml",
				Logger:     logger,
				Output:     output,
				PageURL:    "http://localhost/page",
				Origin:     "http://localhost",
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.configPath != "custom.toml" {
				t.Errorf("expected config path to be set, got %q", runner.configPath)
			}
			if runner.pageURL != "http://localhost/page" || runner.origin != "http://localhost" {
				t.Errorf("expected overrides, got %q and %q", runner.pageURL, runner.origin)
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if runner.pageURL == "" || runner.origin == "" {
				t.Error("expected default page URL and origin")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"serve", "refresh", "scrobble", "catalog", "history", "setup", "auth", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, name := range want {
			if commands[i].Name != name {
				t.Errorf("command %d: expected %q, got %q", i, name, commands[i].Name)
			}
		}
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("missing file keeps defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{})})
			before := runner.config

			if err := runner.loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.config != before {
				t.Error("expected default config to be kept")
			}
		})

		t.Run("file overrides defaults", func(t *testing.T) {
			path, dbPath := writeTestConfig(t, "http://proxy.test")
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{})})

			if err := runner.loadConfig(path); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.config.Credentials.YouTube.ProxyURL != "http://proxy.test" {
				t.Errorf("expected proxy URL from file, got %q", runner.config.Credentials.YouTube.ProxyURL)
			}
			if runner.config.Database.Path != dbPath {
				t.Errorf("expected database path %q, got %q", dbPath, runner.config.Database.Path)
			}
			if runner.config.Refresh.YouTubePlayerRefresh != 15 {
				t.Errorf("expected default player interval to be kept, got %d", runner.config.Refresh.YouTubePlayerRefresh)
			}
		})

		t.Run("invalid config", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("[refresh]\nhome_limit = 3\n"), 0644); err != nil {
				t.Fatal(err)
			}
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{})})

			if err := runner.loadConfig(path); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("pretty", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := output.String(); got != "{\n  \"key\": \"value\"\n}\n" {
				t.Errorf("unexpected output %q", got)
			}
		})

		t.Run("compact", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON([]int{1, 2}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := output.String(); got != "[1,2]\n" {
				t.Errorf("unexpected output %q", got)
			}
		})

		t.Run("unmarshalable value", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Error("expected marshal error")
			}
		})

		t.Run("write error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON("x", false); err == nil {
				t.Error("expected write error")
			}
		})

		t.Run("newline write error", func(t *testing.T) {
			w := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &w})
			if err := runner.writeJSON("x", false); err == nil || !strings.Contains(err.Error(), "newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("%d sections", 3); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := runner.writePlainln("done"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := output.String(); got != "3 sections\ndone\n" {
			t.Errorf("unexpected output %q", got)
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("x"); err == nil {
			t.Error("expected write error")
		}
	})
}

func TestRefreshCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("refresh player", func(t *testing.T) {
		srv := newYouTubeServer(t)
		configPath, _ := writeTestConfig(t, srv.URL)
		output := &bytes.Buffer{}

		if err := run(ctx, newTestRunner(srv, output), "-c", configPath, "refresh", "player"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got := output.String()
		if !strings.Contains(got, "player updated") {
			t.Errorf("expected updated outcome, got %q", got)
		}
		if !strings.Contains(got, "Signature timestamp: 19834") {
			t.Errorf("expected signature timestamp, got %q", got)
		}
	})

	t.Run("refresh catalog as JSON", func(t *testing.T) {
		srv := newYouTubeServer(t)
		configPath, _ := writeTestConfig(t, srv.URL)
		output := &bytes.Buffer{}

		if err := run(ctx, newTestRunner(srv, output), "-c", configPath, "refresh", "catalog", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "RDTMAK5uy_supermix") {
			t.Errorf("expected catalog JSON, got %q", output.String())
		}
	})

	t.Run("refresh all records history", func(t *testing.T) {
		srv := newYouTubeServer(t)
		configPath, _ := writeTestConfig(t, srv.URL)
		output := &bytes.Buffer{}
		runner := newTestRunner(srv, output)

		if err := run(ctx, runner, "-c", configPath, "refresh", "all"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got := output.String()
		if !strings.Contains(got, "player updated") || !strings.Contains(got, "catalog updated") {
			t.Errorf("expected both refreshers to report, got %q", got)
		}

		output.Reset()
		if err := run(ctx, runner, "-c", configPath, "history", "list", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got = output.String()
		if !strings.Contains(got, `"kind": "player"`) || !strings.Contains(got, `"kind": "catalog"`) {
			t.Errorf("expected both runs recorded, got %q", got)
		}

		output.Reset()
		if err := run(ctx, runner, "-c", configPath, "history", "list", "--kind", "catalog"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.Contains(output.String(), "player") {
			t.Errorf("expected only catalog runs, got %q", output.String())
		}
	})

	t.Run("refresh catalog fails when the proxy is down", func(t *testing.T) {
		srv := newYouTubeServer(t)
		configPath, _ := writeTestConfig(t, "http://127.0.0.1:1")
		output := &bytes.Buffer{}

		if err := run(ctx, newTestRunner(srv, output), "-c", configPath, "refresh", "catalog"); err == nil {
			t.Error("expected error")
		}
		if !strings.Contains(output.String(), "catalog refresh failed") {
			t.Errorf("expected failure line, got %q", output.String())
		}
	})

	t.Run("scrobble requires a video id", func(t *testing.T) {
		srv := newYouTubeServer(t)
		configPath, _ := writeTestConfig(t, srv.URL)

		err := run(ctx, newTestRunner(srv, &bytes.Buffer{}), "-c", configPath, "scrobble")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestCatalogCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("show", func(t *testing.T) {
		srv := newYouTubeServer(t)
		configPath, _ := writeTestConfig(t, srv.URL)
		output := &bytes.Buffer{}

		if err := run(ctx, newTestRunner(srv, output), "-c", configPath, "catalog", "show"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got := output.String()
		for _, want := range []string{"1 sections, 2 entries", "Mixed for you", "My Supermix", "Discover Mix"} {
			if !strings.Contains(got, want) {
				t.Errorf("expected %q in output, got %q", want, got)
			}
		}
	})

	t.Run("export", func(t *testing.T) {
		srv := newYouTubeServer(t)
		configPath, _ := writeTestConfig(t, srv.URL)
		outPath := filepath.Join(t.TempDir(), "exports", "catalog.csv")
		output := &bytes.Buffer{}

		err := run(ctx, newTestRunner(srv, output), "-c", configPath, "catalog", "export", "-f", "csv", "-o", outPath)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, outPath)
		if content := tu.MustReadFile(t, outPath); !strings.Contains(content, "RDTMAK5uy_discover") {
			t.Errorf("expected playlist in export, got %q", content)
		}
		if !strings.Contains(output.String(), outPath) {
			t.Errorf("expected export path in output, got %q", output.String())
		}
	})

	t.Run("export rejects unknown format", func(t *testing.T) {
		srv := newYouTubeServer(t)
		configPath, _ := writeTestConfig(t, srv.URL)

		err := run(ctx, newTestRunner(srv, &bytes.Buffer{}), "-c", configPath, "catalog", "export", "-f", "xml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestHistoryCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("empty history", func(t *testing.T) {
		srv := newYouTubeServer(t)
		configPath, _ := writeTestConfig(t, srv.URL)
		output := &bytes.Buffer{}
		runner := newTestRunner(srv, output)

		if err := run(ctx, runner, "-c", configPath, "history", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := run(ctx, runner, "-c", configPath, "history", "scrobbles"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got := output.String()
		if !strings.Contains(got, "No refresh runs recorded.") || !strings.Contains(got, "No playback reports recorded.") {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("invalid kind", func(t *testing.T) {
		srv := newYouTubeServer(t)
		configPath, _ := writeTestConfig(t, srv.URL)

		err := run(ctx, newTestRunner(srv, &bytes.Buffer{}), "-c", configPath, "history", "list", "--kind", "weekly")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("no database configured", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		runner.config.Database.Path = ""

		if _, _, err := runner.openHistory(); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("youtube writes the headers file", func(t *testing.T) {
		srv := newYouTubeServer(t)
		configPath, _ := writeTestConfig(t, srv.URL)
		outPath := filepath.Join(t.TempDir(), "browser.json")
		output := &bytes.Buffer{}
		curl := `curl 'https://music.youtube.com/youtubei/v1/browse' -H 'X-Goog-AuthUser: 0' -H 'Cookie: SAPISID=abc; SID=def'`

		err := run(ctx, newTestRunner(srv, output), "-c", configPath, "setup", "youtube", "--curl", curl, "--output", outPath)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		content := tu.MustReadFile(t, outPath)
		if !strings.Contains(content, `"cookie": "SAPISID=abc; SID=def"`) {
			t.Errorf("expected cookie in headers file, got %q", content)
		}
		if !strings.Contains(output.String(), outPath) {
			t.Errorf("expected path in output, got %q", output.String())
		}
	})

	t.Run("youtube requires a curl source", func(t *testing.T) {
		srv := newYouTubeServer(t)
		configPath, _ := writeTestConfig(t, srv.URL)

		err := run(ctx, newTestRunner(srv, &bytes.Buffer{}), "-c", configPath, "setup", "youtube")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("database runs migrations", func(t *testing.T) {
		srv := newYouTubeServer(t)
		configPath, dbPath := writeTestConfig(t, srv.URL)

		if err := run(ctx, newTestRunner(srv, &bytes.Buffer{}), "-c", configPath, "setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, dbPath)
	})
}

func TestAuthCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("youtube without client id", func(t *testing.T) {
		srv := newYouTubeServer(t)
		configPath, _ := writeTestConfig(t, srv.URL)

		err := run(ctx, newTestRunner(srv, &bytes.Buffer{}), "-c", configPath,
			"auth", "youtube", "--no-browser", "--output", filepath.Join(t.TempDir(), "oauth.json"))
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("status without credentials", func(t *testing.T) {
		srv := newYouTubeServer(t)
		configPath, _ := writeTestConfig(t, srv.URL)
		output := &bytes.Buffer{}

		if err := run(ctx, newTestRunner(srv, output), "-c", configPath, "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got := output.String()
		for _, want := range []string{"Headers: ✗ not configured", "OAuth:   ✗ not configured", "Not authenticated"} {
			if !strings.Contains(got, want) {
				t.Errorf("expected %q in output, got %q", want, got)
			}
		}
	})
}
