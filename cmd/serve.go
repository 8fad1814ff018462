package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/telecoder/host/internal/agent"
	"github.com/telecoder/host/internal/auth"
	"github.com/telecoder/host/internal/config"
	"github.com/telecoder/host/internal/mdns"
	"github.com/telecoder/host/internal/repository"
	"github.com/telecoder/host/internal/server"
	"github.com/telecoder/host/internal/state"
	"github.com/telecoder/host/internal/storage"
)

// runServe starts the host: discover repositories, mint the run's secret,
// open the registry, and serve until interrupted.
func runServe(args []string, stdout, stderr io.Writer) int {
	var sf serveFlags
	fs := newServeFlagSet(&sf)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.Load(sf.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	sf.apply(fs, cfg)

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			fmt.Fprintf(stderr, "Error: open log file: %v\n", err)
			return 1
		}
		defer f.Close()
		log.SetOutput(f)
	}

	catalog := repository.Discover(cfg.RepoRoots)
	log.Printf("serve: discovered %d repositories under %d roots", len(catalog), len(cfg.RepoRoots))

	secret := auth.NewSecretIssuer()
	tokens := auth.NewTokenTable(0)
	store := state.NewStore(catalog, tokens)

	srv := server.NewServer(cfg.Addr(), cfg.AuthTimeout(), secret, store, agent.EchoRunner{})

	dbPath := cfg.Database
	if dbPath == "" {
		if dbPath, err = config.DefaultDatabasePath(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
			fmt.Fprintf(stderr, "Error: create data directory: %v\n", err)
			return 1
		}
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer db.Close()
	wireRegistry(srv, db)

	if err := <-srv.StartAsync(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer srv.Stop()

	var advertiser *mdns.Advertiser
	if cfg.MdnsEnabled {
		port := cfg.Port
		if port == 0 {
			port = config.DefaultPort
		}
		advertiser = mdns.NewAdvertiser(mdns.Config{Port: port})
		if err := advertiser.Start(); err != nil {
			log.Printf("serve: mdns advertisement failed: %v", err)
		} else {
			defer advertiser.Stop()
		}
	}

	secret.DisplayAuthInfo(stdout, cfg.DisplayURL(), cfg.QR)
	fmt.Fprintln(stdout, "Waiting for client connection. Press Ctrl+C to stop.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	fmt.Fprintln(stdout, "Shutting down.")
	return 0
}

// wireRegistry connects the server's observer hooks to the persistent
// registry. All writes are best-effort: a storage failure is logged and
// never disturbs the session.
func wireRegistry(srv *server.Server, db *storage.Store) {
	srv.SetClientRecorder(func(clientID, tokenHash, remoteAddr string) {
		now := time.Now()
		err := db.SaveClient(&storage.Client{
			ID:         clientID,
			TokenHash:  tokenHash,
			RemoteAddr: remoteAddr,
			CreatedAt:  now,
			LastSeen:   now,
		})
		if err != nil {
			log.Printf("serve: record client failed: %v", err)
		}
	})
	srv.SetActivityTracker(func(clientID, remoteAddr string) {
		if err := db.TouchClient(clientID, remoteAddr, time.Now()); err != nil {
			log.Printf("serve: touch client failed: %v", err)
		}
	})
	srv.SetAuthEventRecorder(func(event, clientID, remoteAddr, detail string) {
		if err := db.RecordAuthEvent(event, clientID, remoteAddr, detail, time.Now()); err != nil {
			log.Printf("serve: record auth event failed: %v", err)
		}
	})
}
