package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/telecoder/host/internal/config"
	"github.com/telecoder/host/internal/storage"
)

// openRegistry opens the storage database for a CLI query.
func openRegistry(dbPath string, stderr io.Writer) (*storage.Store, int) {
	if dbPath == "" {
		var err error
		if dbPath, err = config.DefaultDatabasePath(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return nil, 1
		}
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(stderr, "No registry database at %s (has the host ever run?)\n", dbPath)
		return nil, 1
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, 1
	}
	return db, 0
}

// runClientsList prints every client identity issued by past runs.
func runClientsList(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("clients list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", "", "Path to the SQLite database")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	db, code := openRegistry(*dbPath, stderr)
	if db == nil {
		return code
	}
	defer db.Close()

	clients, err := db.ListClients()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if len(clients) == 0 {
		fmt.Fprintln(stdout, "No clients have been issued.")
		return 0
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLIENT ID\tREMOTE ADDR\tISSUED\tLAST SEEN")
	for _, c := range clients {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			c.ID,
			c.RemoteAddr,
			c.CreatedAt.Local().Format(time.DateTime),
			c.LastSeen.Local().Format(time.DateTime),
		)
	}
	tw.Flush()
	return 0
}

// runClientsEvents prints the most recent authentication audit events.
func runClientsEvents(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("clients events", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", "", "Path to the SQLite database")
	limit := fs.Int("limit", 50, "Maximum number of events to show")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	db, code := openRegistry(*dbPath, stderr)
	if db == nil {
		return code
	}
	defer db.Close()

	events, err := db.ListAuthEvents(*limit)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if len(events) == 0 {
		fmt.Fprintln(stdout, "No auth events recorded.")
		return 0
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tEVENT\tCLIENT ID\tREMOTE ADDR\tDETAIL")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime),
			e.Event,
			e.ClientID,
			e.RemoteAddr,
			e.Detail,
		)
	}
	tw.Flush()
	return 0
}
