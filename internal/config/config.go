// Package config provides TOML configuration file loading for the host.
// The configuration file lives at ~/.telecoder/config.toml by default, but
// can be overridden with the --config flag. CLI flags always take
// precedence over file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the host configuration file structure.
// Field names map to snake_case in TOML files via struct tags.
type Config struct {
	// Host is the interface the server binds to.
	// Default: 127.0.0.1
	Host string `toml:"host"`

	// Port is the TCP port for the WebSocket server.
	// Default: 9001
	Port int `toml:"port"`

	// AuthTimeoutMs is how long a new connection may take to present its
	// credential before being closed, in milliseconds.
	// Default: 5000
	AuthTimeoutMs int `toml:"auth_timeout_ms"`

	// RemoteURL is an optional externally-reachable URL shown to the user
	// instead of the bind address (e.g., a tunnel hostname).
	RemoteURL string `toml:"remote_url"`

	// RepoRoots are the filesystem roots scanned for repositories at
	// startup. Each root's immediate subdirectories are candidates.
	RepoRoots []string `toml:"repo_roots"`

	// Database is the path to the SQLite database for the client registry
	// and auth audit log. Default: ~/.telecoder/telecoder.db
	Database string `toml:"database"`

	// LogFile redirects log output to a file when set.
	LogFile string `toml:"log_file"`

	// MdnsEnabled advertises the host on the local network so the
	// companion app can discover it without manual IP entry.
	// Discovery only reveals presence; the secret is still required.
	// Default: false
	MdnsEnabled bool `toml:"mdns_enabled"`

	// QR renders the initial secret as a terminal QR code at startup.
	// Default: true
	QR bool `toml:"qr"`
}

// AuthTimeout returns the auth window as a duration, falling back to the
// default when unset.
func (c *Config) AuthTimeout() time.Duration {
	if c.AuthTimeoutMs <= 0 {
		return DefaultAuthTimeout
	}
	return time.Duration(c.AuthTimeoutMs) * time.Millisecond
}

// Addr returns the host:port bind address.
func (c *Config) Addr() string {
	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// DisplayURL returns the websocket URL to show the user: the configured
// remote URL when present, otherwise ws://<addr>/ws.
func (c *Config) DisplayURL() string {
	if c.RemoteURL != "" {
		return c.RemoteURL
	}
	return fmt.Sprintf("ws://%s/ws", c.Addr())
}

// DefaultConfigPath returns the default config file location:
// ~/.telecoder/config.toml. Returns an error only if the user's home
// directory cannot be determined.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".telecoder", "config.toml"), nil
}

// DefaultDatabasePath returns the default SQLite database location:
// ~/.telecoder/telecoder.db.
func DefaultDatabasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".telecoder", "telecoder.db"), nil
}

// Load reads a TOML config file from the given path and returns a Config.
//
// Behavior:
//   - If path is empty, attempts to load from the default location.
//     Returns a zero Config without error if the default file doesn't exist.
//   - If path is specified, returns an error if the file doesn't exist.
//   - Returns an error if the file exists but cannot be parsed.
func Load(path string) (*Config, error) {
	cfg := &Config{QR: true}

	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return cfg, nil
		}
		if _, err := os.Stat(defaultPath); os.IsNotExist(err) {
			return cfg, nil
		}
		path = defaultPath
	} else {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
