package server

import (
	"encoding/json"
	"net"
	"net/http"
	"time"
)

// StatusResponse contains host status information returned by the /status
// endpoint. Consumed by the CLI to display host state to the user.
type StatusResponse struct {
	// ListeningAddress is the address the host is listening on.
	ListeningAddress string `json:"listening_address"`

	// Connected reports whether a client currently holds the session slot.
	Connected bool `json:"connected"`

	// ClientID is the identity of the connected client, if any.
	ClientID string `json:"client_id,omitempty"`

	// Repositories is the size of the repository catalog.
	Repositories int `json:"repositories"`

	// SelectedRepository is the path of the current selection, if any.
	SelectedRepository string `json:"selected_repository,omitempty"`

	// UptimeSeconds is how long the host has been running.
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// handleStatus serves the /status endpoint.
// Only local machine requests are answered: status details do not belong
// on the network.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !isLoopbackRequest(r) {
		http.Error(w, "Forbidden: status endpoint is local-only", http.StatusForbidden)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := StatusResponse{
		ListeningAddress: s.addr,
		Repositories:     len(s.store.Catalog),
		UptimeSeconds:    int64(time.Since(s.startedAt).Seconds()),
	}
	if info, ok := s.store.Slot.Current(); ok {
		resp.Connected = true
		resp.ClientID = info.ClientID
	}
	if sel, ok := s.store.Selection.Get(); ok {
		resp.SelectedRepository = sel.Path
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// isLoopbackRequest reports whether the request came from a loopback
// address.
func isLoopbackRequest(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
