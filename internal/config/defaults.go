package config

import "time"

// DefaultHost is the default bind interface.
const DefaultHost = "127.0.0.1"

// DefaultPort is the default WebSocket server port.
const DefaultPort = 9001

// DefaultAuthTimeout bounds the wait for the authentication frame.
const DefaultAuthTimeout = 5 * time.Second
