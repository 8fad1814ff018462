package main

import (
	"testing"

	"github.com/telecoder/host/internal/config"
)

func TestServeFlagsOverrideConfig(t *testing.T) {
	var sf serveFlags
	fs := newServeFlagSet(&sf)
	if err := fs.Parse([]string{"-port", "9200", "-roots", "/srv/a,/srv/b", "-qr=false"}); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		Host:      "0.0.0.0",
		Port:      9100,
		RemoteURL: "wss://tunnel.example.com/ws",
		QR:        true,
	}
	sf.apply(fs, cfg)

	// Explicitly set flags win.
	if cfg.Port != 9200 {
		t.Errorf("port = %d, want flag value 9200", cfg.Port)
	}
	if len(cfg.RepoRoots) != 2 || cfg.RepoRoots[1] != "/srv/b" {
		t.Errorf("repo roots = %v", cfg.RepoRoots)
	}
	if cfg.QR {
		t.Error("qr flag did not override file value")
	}

	// Unset flags leave file values alone, including zero-default flags.
	if cfg.Host != "0.0.0.0" {
		t.Errorf("host = %q, file value clobbered", cfg.Host)
	}
	if cfg.RemoteURL != "wss://tunnel.example.com/ws" {
		t.Errorf("remote url = %q, file value clobbered", cfg.RemoteURL)
	}
}

func TestServeFlagsUntouchedConfig(t *testing.T) {
	var sf serveFlags
	fs := newServeFlagSet(&sf)
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{Port: 9100, MdnsEnabled: true}
	sf.apply(fs, cfg)

	if cfg.Port != 9100 || !cfg.MdnsEnabled {
		t.Errorf("config changed with no flags set: %+v", cfg)
	}
}
