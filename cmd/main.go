package main

import (
	"fmt"
	"io"
	"os"
)

// Version is set at build time via -ldflags.
// Example: go build -ldflags="-X main.Version=v0.1.0" ./cmd
var Version = "dev"

const usage = `telecoder - remote-control host for a companion client

Usage:
  telecoder <command> [options]

Commands:
  serve           Start the host and wait for the companion client
  clients list    List client identities issued by past runs
  clients events  Show recent authentication audit events
  version         Print the version

Run 'telecoder <command> --help' for more information on a command.
`

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		fmt.Fprint(stdout, usage)
		return 0
	}

	switch args[1] {
	case "serve":
		return runServe(args[2:], stdout, stderr)
	case "clients":
		if len(args) < 3 {
			fmt.Fprintln(stdout, "Usage: telecoder clients <list|events>")
			return 1
		}
		switch args[2] {
		case "list":
			return runClientsList(args[3:], stdout, stderr)
		case "events":
			return runClientsEvents(args[3:], stdout, stderr)
		default:
			fmt.Fprintf(stdout, "Unknown clients command: %s\n", args[2])
			return 1
		}
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "telecoder %s\n", Version)
		return 0
	case "help", "--help", "-h":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[1])
		fmt.Fprint(stdout, usage)
		return 1
	}
}
