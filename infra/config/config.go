package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	appDirName   = "twiddle"
	maxPageSize  = 40
	minPollEvery = 30 * time.Second
)

// Config holds application-level configuration.
type Config struct {
	InstanceURL       string        `toml:"instance"`            // e.g. "https://mastodon.social"
	AuthDir           string        `toml:"auth_dir"`            // Holds the OAuth token and client credentials
	OAuthCallbackPort int           `toml:"oauth_callback_port"` // Loopback port for the OAuth redirect
	Source            string        `toml:"source"`              // "home", "tag:<name>" or "account:<id>"
	PageSize          int           `toml:"page_size"`
	MaxRefreshPages   int           `toml:"max_refresh_pages"`
	RefreshInterval   time.Duration `toml:"refresh_interval"` // 0 disables background refresh
	LogLevel          string        `toml:"log_level"`
	LogFile           string        `toml:"log_file"` // Used while the TUI owns the terminal
	MetricsAddr       string        `toml:"metrics_addr"`
	OTLPEndpoint      string        `toml:"otlp_endpoint"` // Trace exporter target; empty disables tracing
}

// Default returns a Config with sensible defaults.
func Default() Config {
	dir := ""
	if base, err := os.UserConfigDir(); err == nil {
		dir = filepath.Join(base, appDirName)
	}
	return Config{
		InstanceURL:       "https://mastodon.social",
		AuthDir:           dir,
		OAuthCallbackPort: 45145,
		Source:            "home",
		PageSize:          20,
		MaxRefreshPages:   5,
		RefreshInterval:   0,
		LogLevel:          "info",
		LogFile:           filepath.Join(dir, "twiddle.log"),
	}
}

// OAuthTokenPath is where the access token is persisted.
func (c Config) OAuthTokenPath() string {
	return filepath.Join(c.AuthDir, "token.json")
}

// OAuthClientPath is where the registered app credentials are cached.
func (c Config) OAuthClientPath() string {
	return filepath.Join(c.AuthDir, "oauth_client.json")
}

// Path returns the config file location: $TWIDDLE_CONFIG or
// <UserConfigDir>/twiddle/config.toml.
func Path() (string, error) {
	if p := strings.TrimSpace(os.Getenv("TWIDDLE_CONFIG")); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(dir, appDirName, "config.toml"), nil
}

// Load reads the optional config file, then applies environment overrides.
//
//	TWIDDLE_INSTANCE             Mastodon instance URL (https only)
//	TWIDDLE_AUTH_DIR             Directory for token and client credentials
//	TWIDDLE_OAUTH_CALLBACK_PORT  Loopback port for the OAuth redirect
//	TWIDDLE_SOURCE               home | tag:<name> | account:<id>
//	TWIDDLE_PAGE_SIZE            Posts per request (1..40)
//	TWIDDLE_REFRESH_INTERVAL     Background refresh period, e.g. "2m" (0 disables)
//	TWIDDLE_LOG_LEVEL            debug | info | warn | error
//	TWIDDLE_METRICS_ADDR         Serve Prometheus metrics on this address
//	TWIDDLE_OTLP_ENDPOINT        Export traces over OTLP/HTTP to this endpoint
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit config file path. A missing file is
// not an error.
func LoadFrom(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("TWIDDLE_INSTANCE"); v != "" {
		cfg.InstanceURL = v
	}
	if v := os.Getenv("TWIDDLE_AUTH_DIR"); v != "" {
		cfg.AuthDir = v
	}
	if v := os.Getenv("TWIDDLE_OAUTH_CALLBACK_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TWIDDLE_OAUTH_CALLBACK_PORT: %w", err)
		}
		cfg.OAuthCallbackPort = port
	}
	if v := os.Getenv("TWIDDLE_SOURCE"); v != "" {
		cfg.Source = v
	}
	if v := os.Getenv("TWIDDLE_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TWIDDLE_PAGE_SIZE: %w", err)
		}
		cfg.PageSize = n
	}
	if v := os.Getenv("TWIDDLE_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TWIDDLE_REFRESH_INTERVAL: %w", err)
		}
		cfg.RefreshInterval = d
	}
	if v := os.Getenv("TWIDDLE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TWIDDLE_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("TWIDDLE_OTLP_ENDPOINT"); v != "" {
		cfg.OTLPEndpoint = v
	}
	return nil
}

func (c *Config) normalize() error {
	parsed, err := url.Parse(strings.TrimSpace(c.InstanceURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid instance %q: must be an absolute URL", c.InstanceURL)
	}
	if parsed.Scheme != "https" {
		return fmt.Errorf("invalid instance %q: only https is allowed", c.InstanceURL)
	}
	c.InstanceURL = strings.TrimRight(parsed.String(), "/")

	if strings.TrimSpace(c.AuthDir) == "" {
		return errors.New("auth directory is not set and no user config directory is available")
	}
	if c.OAuthCallbackPort < 1 || c.OAuthCallbackPort > 65535 {
		return fmt.Errorf("invalid oauth callback port %d", c.OAuthCallbackPort)
	}
	if c.PageSize < 1 || c.PageSize > maxPageSize {
		return fmt.Errorf("invalid page size %d: must be between 1 and %d", c.PageSize, maxPageSize)
	}
	if c.MaxRefreshPages < 1 {
		return fmt.Errorf("invalid max refresh pages %d", c.MaxRefreshPages)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("invalid refresh interval %s", c.RefreshInterval)
	}
	if c.RefreshInterval > 0 && c.RefreshInterval < minPollEvery {
		c.RefreshInterval = minPollEvery
	}
	c.Source = strings.TrimSpace(c.Source)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	return nil
}

// Write encodes the configuration as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
