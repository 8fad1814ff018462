// Command wsclient is a WebSocket test client for telecoder.
// It authenticates with the initial secret, then accepts simple commands
// on stdin and prints every server message. When the connection drops it
// reconnects with its reconnection token, backing off between attempts.
//
// Usage:
//
//	go run ./cmd/wsclient -url ws://127.0.0.1:9001/ws -secret <secret>
//
// Stdin commands:
//
//	/repos           list repositories
//	/select <path>   select a repository
//	anything else    forwarded as a prompt
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"
)

func main() {
	url := flag.String("url", "ws://127.0.0.1:9001/ws", "WebSocket URL of the host")
	secret := flag.String("secret", "", "Initial auth secret (first connection)")
	token := flag.String("token", "", "Reconnection token (resume a previous identity)")
	flag.Parse()

	if *secret == "" && *token == "" {
		fmt.Fprintln(os.Stderr, "Either -secret or -token is required")
		os.Exit(1)
	}

	// Read stdin on its own goroutine; outgoing lines survive reconnects.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	reconnectToken := *token
	useSecret := *secret != "" && reconnectToken == ""

	for {
		var conn *websocket.Conn

		// Exponential backoff between connection attempts; resets once a
		// connection is established.
		bo := backoff.NewExponentialBackOff()
		bo.MaxElapsedTime = 2 * time.Minute
		err := backoff.Retry(func() error {
			var err error
			conn, _, err = websocket.DefaultDialer.Dial(*url, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "connect: %v (retrying)\n", err)
			}
			return err
		}, bo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
			os.Exit(1)
		}

		newToken, ok := authenticate(conn, useSecret, *secret, reconnectToken)
		if !ok {
			conn.Close()
			os.Exit(1)
		}
		if newToken != "" {
			reconnectToken = newToken
			useSecret = false
			fmt.Printf("Reconnection token: %s\n", reconnectToken)
		}

		if done := session(conn, lines); done {
			conn.Close()
			return
		}
		conn.Close()
		fmt.Println("Connection lost, reconnecting...")
	}
}

// authenticate sends the credential frame and reads the auth reply.
// Returns the newly issued reconnection token, if the server minted one.
func authenticate(conn *websocket.Conn, useSecret bool, secret, token string) (newToken string, ok bool) {
	var frame []byte
	if useSecret {
		frame = []byte(secret)
	} else {
		frame, _ = json.Marshal(map[string]string{"token": token})
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		fmt.Fprintf(os.Stderr, "auth write: %v\n", err)
		return "", false
	}

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		fmt.Fprintf(os.Stderr, "auth read: %v\n", err)
		return "", false
	}
	conn.SetReadDeadline(time.Time{})

	var reply struct {
		Status            string `json:"status"`
		ClientID          string `json:"client_id"`
		ReconnectionToken string `json:"reconnection_token"`
	}
	if err := json.Unmarshal(data, &reply); err != nil || reply.Status != "AUTH_SUCCESS" {
		fmt.Fprintf(os.Stderr, "Authentication failed: %s\n", string(data))
		return "", false
	}

	fmt.Printf("Authenticated as %s\n", reply.ClientID)
	return reply.ReconnectionToken, true
}

// session pumps server messages to stdout and stdin lines to the server.
// Returns true when stdin is exhausted (clean exit), false on a connection
// error (caller reconnects).
func session(conn *websocket.Conn, lines <-chan string) (done bool) {
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			printMessage(data)
		}
	}()

	for {
		select {
		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				fmt.Fprintf(os.Stderr, "read: %v\n", err)
			}
			return false
		case line, open := <-lines:
			if !open {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return true
			}
			if err := conn.WriteMessage(websocket.TextMessage, encodeLine(line)); err != nil {
				fmt.Fprintf(os.Stderr, "write: %v\n", err)
				return false
			}
		}
	}
}

// encodeLine turns a stdin line into an application message.
func encodeLine(line string) []byte {
	switch {
	case line == "/repos":
		data, _ := json.Marshal(map[string]string{"type": "list_repos"})
		return data
	case strings.HasPrefix(line, "/select "):
		data, _ := json.Marshal(map[string]string{
			"type": "select_repo",
			"path": strings.TrimPrefix(line, "/select "),
		})
		return data
	default:
		data, _ := json.Marshal(map[string]string{"type": "prompt", "text": line})
		return data
	}
}

// printMessage renders one server message, falling back to raw output for
// anything that is not JSON (the server echoes unparsable frames).
func printMessage(data []byte) {
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		fmt.Printf("<< %s\n", string(data))
		return
	}

	switch msg["type"] {
	case "repo_list":
		repos, _ := msg["repositories"].([]any)
		fmt.Printf("<< %d repositories:\n", len(repos))
		for _, r := range repos {
			repo, _ := r.(map[string]any)
			fmt.Printf("   %v  %v\n", repo["name"], repo["path"])
		}
	case "repo_selected":
		repo, _ := msg["repository"].(map[string]any)
		fmt.Printf("<< selected %v\n", repo["path"])
	case "commands_list":
		predefined, _ := msg["predefined_commands"].([]any)
		custom, _ := msg["custom_commands"].([]any)
		fmt.Printf("<< %d built-in commands, %d custom\n", len(predefined), len(custom))
	case "response":
		fmt.Printf("<< %v\n", msg["text"])
	case "error":
		fmt.Printf("<< error: %v\n", msg["message"])
	default:
		fmt.Printf("<< %s\n", string(data))
	}
}
