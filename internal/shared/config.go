package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// minHomeLimit is the smallest home-feed size that still includes the "Mixed for you" shelf.
const minHomeLimit = 7

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Refresh     RefreshConfig     `toml:"refresh"`
	Scrobble    ScrobbleConfig    `toml:"scrobble"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// RefreshConfig holds the refresh cycle intervals, in minutes.
type RefreshConfig struct {
	AutoPlaylistRefresh  int  `toml:"auto_playlist_refresh"`
	YouTubePlayerRefresh int  `toml:"youtube_player_refresh"`
	HomeLimit            int  `toml:"home_limit"`
	OnStart              bool `toml:"on_start"`
}

// ScrobbleConfig controls the playback report dispatcher.
type ScrobbleConfig struct {
	Enabled   bool `toml:"enabled"`
	Workers   int  `toml:"workers"`
	QueueSize int  `toml:"queue_size"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	YouTube YouTubeConfig `toml:"youtube"`
}

// YouTubeConfig contains YouTube Music transport and credential settings.
type YouTubeConfig struct {
	ProxyURL     string  `toml:"proxy_url"`
	HeadersPath  string  `toml:"headers_path"`
	OAuthPath    string  `toml:"oauth_path"`
	ClientID     string  `toml:"client_id"`
	ClientSecret string  `toml:"client_secret"`
	HTTPProxy    string  `toml:"http_proxy"`
	RateLimit    float64 `toml:"rate_limit"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CatalogInterval returns the auto playlist refresh interval. Zero means disabled.
func (r RefreshConfig) CatalogInterval() time.Duration {
	return time.Duration(r.AutoPlaylistRefresh) * time.Minute
}

// PlayerInterval returns the player URL refresh interval.
func (r RefreshConfig) PlayerInterval() time.Duration {
	return time.Duration(r.YouTubePlayerRefresh) * time.Minute
}

// Validate reports malformed settings. Errors wrap [ErrInvalidConfig] and are fatal at startup.
func (c *Config) Validate() error {
	if c.Refresh.AutoPlaylistRefresh < 0 {
		return fmt.Errorf("%w: auto_playlist_refresh must not be negative, got %d", ErrInvalidConfig, c.Refresh.AutoPlaylistRefresh)
	}
	if c.Refresh.YouTubePlayerRefresh <= 0 {
		return fmt.Errorf("%w: youtube_player_refresh must be greater than zero, got %d", ErrInvalidConfig, c.Refresh.YouTubePlayerRefresh)
	}
	if c.Refresh.HomeLimit < minHomeLimit {
		return fmt.Errorf("%w: home_limit must be at least %d, got %d", ErrInvalidConfig, minHomeLimit, c.Refresh.HomeLimit)
	}
	if c.Scrobble.Enabled && (c.Scrobble.Workers <= 0 || c.Scrobble.QueueSize <= 0) {
		return fmt.Errorf("%w: scrobble workers and queue_size must be positive", ErrInvalidConfig)
	}
	if c.Credentials.YouTube.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.Credentials.YouTube.HeadersPath = ExpandHome(config.Credentials.YouTube.HeadersPath)
	config.Credentials.YouTube.OAuthPath = ExpandHome(config.Credentials.YouTube.OAuthPath)
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.Credentials.YouTube.HeadersPath = ExpandHome(config.Credentials.YouTube.HeadersPath)
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
