// Package config loads the dashboard's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full configuration file.
type Config struct {
	DashboardURL  string           `toml:"dashboard_url"`
	SessionCookie string           `toml:"session_cookie" masq:"secret"`
	BootstrapFile string           `toml:"bootstrap_file"`
	DownloadDir   string           `toml:"download_dir"`
	Theme         string           `toml:"theme"`
	Timezone      string           `toml:"timezone"`
	Refresh       RefreshConfig    `toml:"refresh"`
	Connection    ConnectionConfig `toml:"connection"`
	Log           LogConfig        `toml:"log"`
}

// RefreshConfig holds the polling intervals.
type RefreshConfig struct {
	FallbackSeconds int `toml:"fallback_seconds"`
	PeriodicSeconds int `toml:"periodic_seconds"`
}

// ConnectionConfig tunes the live channel.
type ConnectionConfig struct {
	ReconnectSeconds        int `toml:"reconnect_seconds"`
	BannerSeconds           int `toml:"banner_seconds"`
	HandshakeTimeoutSeconds int `toml:"handshake_timeout_seconds"`
}

// LogConfig selects where and how the dashboard logs.
type LogConfig struct {
	File   string `toml:"file"`
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ErrNoDashboardURL is returned by Validate when no tracker is configured.
var ErrNoDashboardURL = errors.New("dashboard_url is not set")

// DefaultPath returns the default config file path
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tdash", "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tdash", "config.toml")
}

// DefaultLogPath returns the log file used while the dashboard owns the terminal.
func DefaultLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "tdash", "tdash.log")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "tdash", "tdash.log")
}

// DefaultDownloadDir returns ~/Downloads when it exists, else the working directory.
func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err == nil {
		dl := filepath.Join(home, "Downloads")
		if fi, err := os.Stat(dl); err == nil && fi.IsDir() {
			return dl
		}
	}
	return "."
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DashboardURL: "http://localhost:8080/dashboard",
		DownloadDir:  DefaultDownloadDir(),
		Theme:        "auto",
		Refresh: RefreshConfig{
			FallbackSeconds: 30,
			PeriodicSeconds: 120,
		},
		Connection: ConnectionConfig{
			ReconnectSeconds:        5,
			BannerSeconds:           3,
			HandshakeTimeoutSeconds: 10,
		},
		Log: LogConfig{
			File:   DefaultLogPath(),
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path (DefaultPath when empty), fills unset values from Default
// and applies environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	ApplyEnv(&cfg)
	return &cfg, nil
}

// LoadOrDefault is Load, falling back to Default plus environment
// overrides when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		ApplyEnv(cfg)
		return cfg, nil
	}
	return cfg, err
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.DashboardURL == "" {
		c.DashboardURL = d.DashboardURL
	}
	if c.DownloadDir == "" {
		c.DownloadDir = d.DownloadDir
	}
	if c.Theme == "" {
		c.Theme = d.Theme
	}
	if c.Refresh.FallbackSeconds <= 0 {
		c.Refresh.FallbackSeconds = d.Refresh.FallbackSeconds
	}
	if c.Refresh.PeriodicSeconds <= 0 {
		c.Refresh.PeriodicSeconds = d.Refresh.PeriodicSeconds
	}
	if c.Connection.ReconnectSeconds <= 0 {
		c.Connection.ReconnectSeconds = d.Connection.ReconnectSeconds
	}
	if c.Connection.BannerSeconds <= 0 {
		c.Connection.BannerSeconds = d.Connection.BannerSeconds
	}
	if c.Connection.HandshakeTimeoutSeconds <= 0 {
		c.Connection.HandshakeTimeoutSeconds = d.Connection.HandshakeTimeoutSeconds
	}
	if c.Log.File == "" {
		c.Log.File = d.Log.File
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	c.DownloadDir = expandHome(c.DownloadDir)
	c.BootstrapFile = expandHome(c.BootstrapFile)
	c.Log.File = expandHome(c.Log.File)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Validate checks the values the dashboard cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DashboardURL) == "" {
		return ErrNoDashboardURL
	}
	u, err := url.Parse(c.DashboardURL)
	if err != nil {
		return fmt.Errorf("dashboard_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("dashboard_url: scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("dashboard_url: missing host")
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}
	return nil
}

// Location returns the configured timezone, or the local zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// FallbackInterval is the poll period while the channel is down.
func (c *Config) FallbackInterval() time.Duration {
	return time.Duration(c.Refresh.FallbackSeconds) * time.Second
}

// PeriodicInterval is the unconditional poll period.
func (c *Config) PeriodicInterval() time.Duration {
	return time.Duration(c.Refresh.PeriodicSeconds) * time.Second
}

// ReconnectDelay is the wait before the reconnect that follows a close.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Connection.ReconnectSeconds) * time.Second
}

// BannerDuration is how long transient indicators stay visible.
func (c *Config) BannerDuration() time.Duration {
	return time.Duration(c.Connection.BannerSeconds) * time.Second
}

// HandshakeTimeout bounds the websocket handshake.
func (c *Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.Connection.HandshakeTimeoutSeconds) * time.Second
}

// CreateDefault writes the default config to path (DefaultPath when empty).
func CreateDefault(path string) (string, error) {
	if path == "" {
		path = DefaultPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := Print(Default(), f, false); err != nil {
		return "", err
	}
	return path, nil
}

// Print writes cfg as TOML. With redact set the session cookie is masked.
func Print(cfg *Config, w io.Writer, redact bool) error {
	out := *cfg
	if redact && out.SessionCookie != "" {
		out.SessionCookie = "[REDACTED]"
	}
	fmt.Fprintln(w, "# tdash configuration")
	fmt.Fprintln(w, "# dashboard_url is the tracker page; the live channel is derived from it.")
	fmt.Fprintln(w)
	return toml.NewEncoder(w).Encode(out)
}
