package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/telecoder/host/internal/auth"
	apperrors "github.com/telecoder/host/internal/errors"
	"github.com/telecoder/host/internal/state"
	"github.com/telecoder/host/internal/storage"
)

// sessionState tracks a connection's progress through the lifecycle:
// AwaitingHandshake -> AwaitingAuth -> Authenticated -> Closed.
// The handshake state is implicit (the HTTP upgrade happens before a
// Session exists); the remaining transitions are recorded for logging.
type sessionState int

const (
	stateAwaitingAuth sessionState = iota
	stateAuthenticated
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateAwaitingAuth:
		return "awaiting_auth"
	case stateAuthenticated:
		return "authenticated"
	default:
		return "closed"
	}
}

// Session owns one client connection from handshake through the
// authenticated message loop to closure. All reads and routing happen on a
// single goroutine, so frames are processed strictly in arrival order.
type Session struct {
	// id is unique per connection. The singleton slot stores it so a
	// lingering disconnect can only clear its own occupancy.
	id string

	conn       *websocket.Conn
	srv        *Server
	remoteAddr string

	state         sessionState
	authenticated bool
	client        state.ClientInfo

	// promptLimiter bounds forwarded prompts to protect the agent from
	// message flooding.
	promptLimiter *rate.Limiter

	// writeMu serializes writes: the session goroutine and a displacing
	// session's Close may touch the connection concurrently.
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newSession(srv *Server, conn *websocket.Conn) *Session {
	return &Session{
		id:            uuid.New().String(),
		conn:          conn,
		srv:           srv,
		remoteAddr:    conn.RemoteAddr().String(),
		state:         stateAwaitingAuth,
		promptLimiter: rate.NewLimiter(rate.Limit(100), 20),
	}
}

// Close shuts the connection down. Safe to call from any goroutine and
// more than once; the session's read loop exits on the closed connection.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.conn.Close()
	})
	return nil
}

// run drives the session to completion. A panic in session handling is
// contained here: it terminates this connection only and never reaches the
// listener or another session.
func (s *Session) run() {
	defer s.Close()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("server: session %s panic: %v", s.id, r)
		}
		s.state = stateClosed

		if s.authenticated {
			// Clear the singleton only if it still refers to this session;
			// a faster reconnect may already have repopulated it.
			if s.srv.store.Slot.Release(s.id) {
				log.Printf("server: client %s disconnected from %s", s.client.ClientID, s.remoteAddr)
			} else {
				log.Printf("server: displaced session for client %s closed", s.client.ClientID)
			}
			s.srv.recordAuthEvent(storage.EventDisconnect, s.client.ClientID, s.remoteAddr, "")
		}
	}()

	if !s.authenticate() {
		return
	}

	s.state = stateAuthenticated
	log.Printf("server: client %s is now connected and authenticated", s.remoteAddr)
	s.loop()
}

// authenticate waits for exactly one credential frame and decides
// admission. There is no retry within a connection: a bad credential
// closes it and the client must reconnect to try again.
func (s *Session) authenticate() bool {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.srv.authTimeout)); err != nil {
		log.Printf("server: set auth deadline for %s: %v", s.remoteAddr, err)
		return false
	}

	mt, data, err := s.conn.ReadMessage()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			coded := apperrors.Wrap(apperrors.CodeAuthTimeout, "no credential within the window", err)
			log.Printf("server: %s: %v", s.remoteAddr, coded)
			s.writeText(statusAuthTimeout)
			s.srv.recordAuthEvent(storage.EventAuthTimeout, "", s.remoteAddr, coded.Error())
			return false
		}
		// Connection failed or closed before authenticating; nothing to send.
		return false
	}

	if mt != websocket.TextMessage {
		return s.failAuth(apperrors.New(apperrors.CodeAuthMalformed, "authentication frame must be text"))
	}

	var req authRequest
	if err := json.Unmarshal(data, &req); err == nil && req.Token != "" {
		return s.authenticateToken(req.Token)
	}
	return s.authenticateSecret(string(data))
}

// authenticateSecret handles a literal initial-secret attempt: mint a
// fresh identity and reconnection token, admit into the slot, and reply
// with both credentials followed by the catalog.
func (s *Session) authenticateSecret(presented string) bool {
	if !s.srv.secret.Validate(presented) {
		return s.failAuth(apperrors.New(apperrors.CodeAuthInvalidSecret, "presented secret does not match"))
	}

	info := state.ClientInfo{
		SessionID:  s.id,
		RemoteAddr: s.remoteAddr,
		ClientID:   auth.NewClientID(),
		Token:      auth.NewToken(),
	}

	// Check-and-set under one lock: two concurrent handshakes can never
	// both observe an empty slot and both be admitted.
	if _, err := s.srv.store.Slot.Acquire(info, s); err != nil {
		return s.failAuth(apperrors.Wrap(apperrors.CodeAuthBusy, "another client is already connected", err))
	}
	s.client = info
	s.authenticated = true

	hash, err := s.srv.store.Tokens.Insert(info.Token, info.ClientID)
	if err != nil {
		log.Printf("server: token issue failed for %s: %v", s.remoteAddr, err)
		s.writeText(statusAuthFailed)
		return false
	}

	log.Printf("server: client %s authenticated successfully", s.remoteAddr)
	s.srv.recordNewClient(info.ClientID, hash, s.remoteAddr)
	s.srv.recordAuthEvent(storage.EventAuthSuccess, info.ClientID, s.remoteAddr, "")

	if err := s.writeJSON(authSuccessReply{
		Status:            statusAuthSuccess,
		ClientID:          info.ClientID,
		ReconnectionToken: info.Token,
	}); err != nil {
		return false
	}
	return s.sendCatalog()
}

// authenticateToken handles a reconnection attempt. A token bound to the
// identity currently in the slot takes the slot over (idempotent re-entry)
// and the displaced connection is closed; a token bound to a different
// identity than the occupant is rejected.
func (s *Session) authenticateToken(token string) bool {
	clientID, ok := s.srv.store.Tokens.Resolve(token)
	if !ok {
		return s.failAuth(apperrors.New(apperrors.CodeAuthInvalidToken, "token not recognized"))
	}

	info := state.ClientInfo{
		SessionID:  s.id,
		RemoteAddr: s.remoteAddr,
		ClientID:   clientID,
		Token:      token,
	}

	displaced, err := s.srv.store.Slot.Acquire(info, s)
	if err != nil {
		return s.failAuth(apperrors.Wrap(apperrors.CodeAuthBusy, "another client is already connected", err))
	}
	s.client = info
	s.authenticated = true

	if displaced != nil {
		log.Printf("server: client %s reconnected, closing previous session", clientID)
		displaced.Close()
	} else {
		log.Printf("server: client %s reconnected from %s", clientID, s.remoteAddr)
	}
	s.srv.trackActivity(clientID, s.remoteAddr)
	s.srv.recordAuthEvent(storage.EventAuthReconnect, clientID, s.remoteAddr, "")

	if err := s.writeJSON(authSuccessReply{
		Status:   statusAuthSuccess,
		ClientID: clientID,
	}); err != nil {
		return false
	}
	return s.sendCatalog()
}

// failAuth reports an authentication failure to the client and terminates
// the session. The coded cause goes to the log and the audit detail; the
// client only ever sees the bare status frame. No shared state has been
// touched on this path.
func (s *Session) failAuth(cause *apperrors.CodedError) bool {
	log.Printf("server: client %s authentication failed - %v", s.remoteAddr, cause)
	s.writeText(statusAuthFailed)
	s.srv.recordAuthEvent(storage.EventAuthFailed, "", s.remoteAddr, cause.Error())
	return false
}

// sendCatalog sends the unsolicited repo_list that follows every
// successful authentication.
func (s *Session) sendCatalog() bool {
	if err := s.writeOutbound(NewRepoListMessage(s.srv.store.Catalog)); err != nil {
		log.Printf("server: failed to send catalog to %s: %v", s.remoteAddr, err)
		return false
	}
	return true
}

// loop is the authenticated message loop: read a frame, route it, write
// the replies. A close frame or transport error breaks the loop; a send
// failure is treated as immediate session termination.
func (s *Session) loop() {
	// Authenticated reads wait indefinitely.
	if err := s.conn.SetReadDeadline(time.Time{}); err != nil {
		log.Printf("server: clear read deadline for %s: %v", s.remoteAddr, err)
		return
	}

	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				coded := apperrors.Wrap(apperrors.CodeServerConnectionLost, "read from "+s.remoteAddr+" failed", err)
				log.Printf("server: %v", coded)
			}
			return
		}

		// Only text frames carry application messages.
		if mt != websocket.TextMessage {
			continue
		}

		s.srv.trackActivity(s.client.ClientID, s.remoteAddr)

		msg, err := DecodeInbound(data)
		if err != nil {
			// Compatibility fallback: echo unparsable frames back verbatim.
			if werr := s.writeText(string(data)); werr != nil {
				log.Printf("server: %v", apperrors.Wrap(apperrors.CodeServerSendFailed, "echo to "+s.remoteAddr+" failed", werr))
				return
			}
			continue
		}

		if msg.Type == InboundPrompt && !s.promptLimiter.Allow() {
			coded := apperrors.New(apperrors.CodeRouteRateLimited, "prompt rate limit exceeded")
			log.Printf("server: %s: %v", s.remoteAddr, coded)
			if werr := s.writeOutbound(NewErrorMessage(coded.Message)); werr != nil {
				return
			}
			continue
		}

		for _, reply := range s.srv.router.Route(context.Background(), msg) {
			if err := s.writeOutbound(reply); err != nil {
				log.Printf("server: %v", apperrors.Wrap(apperrors.CodeServerSendFailed, "send to "+s.remoteAddr+" failed", err))
				return
			}
		}
	}
}

// writeText writes a plain text frame with a write deadline.
func (s *Session) writeText(text string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// writeJSON marshals v and writes it as a text frame.
func (s *Session) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.writeText(string(data))
}

// writeOutbound sends one application message.
func (s *Session) writeOutbound(msg Outbound) error {
	return s.writeJSON(msg)
}
