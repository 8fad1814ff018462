package server

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	// gorilla/websocket provides a complete implementation of the
	// WebSocket protocol with message reading/writing and close handling.
	"github.com/gorilla/websocket"

	"github.com/telecoder/host/internal/agent"
	"github.com/telecoder/host/internal/auth"
	apperrors "github.com/telecoder/host/internal/errors"
	"github.com/telecoder/host/internal/state"
)

// writeTimeout bounds every outbound frame write. A slow client can stall
// its own session's writer but never another session's.
const writeTimeout = 10 * time.Second

// ClientRecorder is called when a new client identity is issued, so the
// persistent registry can mirror it. Best-effort: failures are logged by
// the hook, not by the session.
type ClientRecorder func(clientID, tokenHash, remoteAddr string)

// ActivityTracker is called when a message is received from the
// authenticated client. This allows updating last-seen timestamps.
type ActivityTracker func(clientID, remoteAddr string)

// AuthEventRecorder is called for every authentication outcome and
// disconnect, feeding the audit log.
type AuthEventRecorder func(event, clientID, remoteAddr, detail string)

// Server accepts WebSocket connections and runs one Session per
// connection. The listener never blocks on a session: each accepted
// connection runs on its own goroutine until it reaches Closed.
type Server struct {
	addr        string
	authTimeout time.Duration

	secret *auth.SecretIssuer
	store  *state.Store
	router *Router

	upgrader   websocket.Upgrader
	httpServer *http.Server
	startedAt  time.Time

	// mu protects sessions, stopped, and the observer hooks.
	mu       sync.RWMutex
	sessions map[*Session]bool
	stopped  bool

	clientRecorder    ClientRecorder
	activityTracker   ActivityTracker
	authEventRecorder AuthEventRecorder
}

// NewServer creates a server bound to addr. authTimeout bounds the wait
// for the authentication frame.
func NewServer(addr string, authTimeout time.Duration, secret *auth.SecretIssuer, store *state.Store, runner agent.Runner) *Server {
	return &Server{
		addr:        addr,
		authTimeout: authTimeout,
		secret:      secret,
		store:       store,
		router:      NewRouter(store, runner),
		sessions:    make(map[*Session]bool),
		upgrader: websocket.Upgrader{
			// The companion app connects from a non-browser context, so
			// origin checks add nothing here.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// SetClientRecorder installs the new-client hook.
func (s *Server) SetClientRecorder(fn ClientRecorder) {
	s.mu.Lock()
	s.clientRecorder = fn
	s.mu.Unlock()
}

// SetActivityTracker installs the activity hook.
func (s *Server) SetActivityTracker(fn ActivityTracker) {
	s.mu.Lock()
	s.activityTracker = fn
	s.mu.Unlock()
}

// SetAuthEventRecorder installs the audit hook.
func (s *Server) SetAuthEventRecorder(fn AuthEventRecorder) {
	s.mu.Lock()
	s.authEventRecorder = fn
	s.mu.Unlock()
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Router exposes the router, mainly for tests.
func (s *Server) Router() *Router {
	return s.router
}

// createMux creates the HTTP mux with all endpoints.
func (s *Server) createMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)

	// Health check endpoint for monitoring
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Status endpoint for CLI queries; local-only.
	mux.HandleFunc("/status", s.handleStatus)

	return mux
}

// Start begins listening for WebSocket connections.
// This method blocks; for non-blocking startup with error handling, use
// StartAsync instead.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.createMux(),
	}
	s.startedAt = time.Now()

	log.Printf("server: listening on %s", s.addr)
	return s.httpServer.ListenAndServe()
}

// StartAsync starts the server in a goroutine and reports startup errors.
// The returned channel receives nil if startup succeeded, or an error if
// the listener could not be created (e.g., port already in use).
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)

	// Create the listener first to detect port conflicts immediately.
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		errCh <- fmt.Errorf("failed to listen on %s: %w", s.addr, err)
		close(errCh)
		return errCh
	}

	s.httpServer = &http.Server{Handler: s.createMux()}
	s.startedAt = time.Now()

	go func() {
		log.Printf("server: listening on %s", s.addr)
		errCh <- nil
		close(errCh)

		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("server: serve error: %v", err)
		}
	}()

	return errCh
}

// Stop shuts the server down: it stops accepting connections and closes
// every live session. Safe to call more than once.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true

	// Hijacked WebSocket connections are not closed by http.Server.Close,
	// so close each session explicitly.
	for sess := range s.sessions {
		sess.Close()
	}
	s.sessions = make(map[*Session]bool)
	s.mu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// handleWebSocket upgrades an HTTP connection and runs the session on the
// handler goroutine, which is the per-connection unit of concurrency.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Handshake failure is fatal to this connection only; no reply is
		// possible and no state was touched.
		log.Printf("server: %v", apperrors.Wrap(apperrors.CodeServerUpgradeFailed, "websocket upgrade for "+r.RemoteAddr, err))
		return
	}

	sess := newSession(s, conn)
	log.Printf("server: new connection attempt from %s", sess.remoteAddr)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		sess.Close()
		return
	}
	s.sessions[sess] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
	}()

	sess.run()
}

// recordNewClient invokes the client-recorder hook, if installed.
func (s *Server) recordNewClient(clientID, tokenHash, remoteAddr string) {
	s.mu.RLock()
	fn := s.clientRecorder
	s.mu.RUnlock()

	if fn != nil {
		fn(clientID, tokenHash, remoteAddr)
	}
}

// trackActivity invokes the activity hook, if installed.
func (s *Server) trackActivity(clientID, remoteAddr string) {
	s.mu.RLock()
	fn := s.activityTracker
	s.mu.RUnlock()

	if fn != nil {
		fn(clientID, remoteAddr)
	}
}

// recordAuthEvent invokes the audit hook, if installed.
func (s *Server) recordAuthEvent(event, clientID, remoteAddr, detail string) {
	s.mu.RLock()
	fn := s.authEventRecorder
	s.mu.RUnlock()

	if fn != nil {
		fn(event, clientID, remoteAddr, detail)
	}
}
