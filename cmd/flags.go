package main

import (
	"flag"
	"strings"

	"github.com/telecoder/host/internal/config"
)

// serveFlags holds the CLI flag values for the serve command.
// Flags override config file values; only flags the user actually set are
// applied.
type serveFlags struct {
	configPath string
	host       string
	port       int
	authMs     int
	roots      string
	remoteURL  string
	database   string
	logFile    string
	mdns       bool
	qr         bool
}

// newServeFlagSet builds the flag set for the serve command.
func newServeFlagSet(sf *serveFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVar(&sf.configPath, "config", "", "Path to config file (default: ~/.telecoder/config.toml)")
	fs.StringVar(&sf.host, "host", "", "Interface to bind to (default: 127.0.0.1)")
	fs.IntVar(&sf.port, "port", 0, "Port to listen on (default: 9001)")
	fs.IntVar(&sf.authMs, "auth-timeout-ms", 0, "Authentication window in milliseconds (default: 5000)")
	fs.StringVar(&sf.roots, "roots", "", "Comma-separated list of directories to scan for repositories")
	fs.StringVar(&sf.remoteURL, "url", "", "Externally reachable URL to display instead of the bind address")
	fs.StringVar(&sf.database, "db", "", "Path to the SQLite database (default: ~/.telecoder/telecoder.db)")
	fs.StringVar(&sf.logFile, "log-file", "", "Redirect log output to a file")
	fs.BoolVar(&sf.mdns, "mdns", false, "Advertise the host on the local network via mDNS")
	fs.BoolVar(&sf.qr, "qr", true, "Display the auth secret as a QR code")
	return fs
}

// apply overlays set flags onto the loaded config.
// fs.Visit only walks flags that were explicitly provided, which gives
// flags precedence without clobbering file values with zero defaults.
func (sf *serveFlags) apply(fs *flag.FlagSet, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = sf.host
		case "port":
			cfg.Port = sf.port
		case "auth-timeout-ms":
			cfg.AuthTimeoutMs = sf.authMs
		case "roots":
			cfg.RepoRoots = splitRoots(sf.roots)
		case "url":
			cfg.RemoteURL = sf.remoteURL
		case "db":
			cfg.Database = sf.database
		case "log-file":
			cfg.LogFile = sf.logFile
		case "mdns":
			cfg.MdnsEnabled = sf.mdns
		case "qr":
			cfg.QR = sf.qr
		}
	})
}

// splitRoots parses a comma-separated roots list, trimming whitespace and
// dropping empty entries.
func splitRoots(s string) []string {
	var roots []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			roots = append(roots, trimmed)
		}
	}
	return roots
}
