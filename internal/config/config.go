// Package config loads and persists wrtstat configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all wrtstat configuration.
type Config struct {
	General GeneralConfig  `toml:"general"`
	Routers []RouterConfig `toml:"routers"`
	Daemon  DaemonConfig   `toml:"daemon"`
}

// GeneralConfig holds store and polling preferences.
type GeneralConfig struct {
	// DBPath is the SQLite database location. Empty means the default
	// path under the XDG data directory.
	DBPath string `toml:"db_path,omitempty"`
	// FetchTimeout bounds each router endpoint request.
	FetchTimeout duration `toml:"fetch_timeout"`
}

// RouterConfig describes one polled router and its stat endpoints. Any
// endpoint may be empty; an AP that serves only per-client wifi counters
// leaves WANURL and DHCPURL blank.
type RouterConfig struct {
	Name    string `toml:"name"`
	WANURL  string `toml:"wan_url,omitempty"`
	WifiURL string `toml:"wifi_url,omitempty"`
	DHCPURL string `toml:"dhcp_url,omitempty"`
}

// DaemonConfig holds daemon runtime settings.
type DaemonConfig struct {
	Addr     string   `toml:"addr"`
	Interval duration `toml:"interval"`
}

// SetInterval sets the poll interval. The wrapper type is unexported so
// callers outside the package go through this.
func (d *DaemonConfig) SetInterval(v time.Duration) {
	d.Interval = duration{v}
}

// duration wraps time.Duration for TOML round-tripping ("1h", "10s").
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the default configuration: one router at the
// conventional OpenWrt address, polled hourly.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			FetchTimeout: duration{10 * time.Second},
		},
		Routers: []RouterConfig{
			{
				Name:    "192.168.1.1",
				WANURL:  "http://192.168.1.1/cgi-bin/wan.cgi",
				WifiURL: "http://192.168.1.1/cgi-bin/totalwifi.cgi",
				DHCPURL: "http://192.168.1.1/cgi-bin/dhcp.cgi",
			},
		},
		Daemon: DaemonConfig{
			Addr:     "127.0.0.1:8687",
			Interval: duration{time.Hour},
		},
	}
}

// FetchTimeout returns the configured fetch timeout with a sane floor.
func (c Config) FetchTimeout() time.Duration {
	if c.General.FetchTimeout.Duration < time.Second {
		return 10 * time.Second
	}
	return c.General.FetchTimeout.Duration
}

// Interval returns the daemon poll interval with a sane floor.
func (c Config) Interval() time.Duration {
	if c.Daemon.Interval.Duration < time.Minute {
		return time.Hour
	}
	return c.Daemon.Interval.Duration
}

// DBPath returns the configured database path or the default location.
func (c Config) DBPath() string {
	if c.General.DBPath != "" {
		return c.General.DBPath
	}
	return filepath.Join(DataDir(), "traffic.db")
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wrtstat")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "wrtstat")
}

// DataDir returns the XDG-compliant data directory for the database.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "wrtstat")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "wrtstat")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	// A config file on disk fully defines the router set.
	cfg.Routers = nil
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
