// Package server provides the WebSocket server for the companion client:
// the connection listener, the per-session authentication state machine,
// and the routing of authenticated application messages.
package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/telecoder/host/internal/command"
	"github.com/telecoder/host/internal/repository"
)

// Authentication status strings sent during the handshake.
// Success is a JSON object (authSuccessReply); failure and timeout are
// sent as these literal text frames.
const (
	statusAuthSuccess = "AUTH_SUCCESS"
	statusAuthFailed  = "AUTH_FAILED"
	statusAuthTimeout = "AUTH_TIMEOUT"
)

// authRequest is the structured form of the authentication frame.
// A frame that parses as JSON with a non-empty token is a reconnection
// attempt; anything else is treated as a literal initial-secret attempt.
type authRequest struct {
	Token string `json:"token"`
}

// authSuccessReply is the reply for a successful authentication.
// ReconnectionToken is present only on first-time authentication; token
// reconnects reuse the token they presented.
type authSuccessReply struct {
	Status            string `json:"status"`
	ClientID          string `json:"client_id"`
	ReconnectionToken string `json:"reconnection_token,omitempty"`
}

// InboundType tags client application messages.
type InboundType string

// The closed set of inbound message types.
const (
	InboundListRepos  InboundType = "list_repos"
	InboundSelectRepo InboundType = "select_repo"
	InboundPrompt     InboundType = "prompt"
)

// Inbound is a parsed client application message. The populated fields
// depend on Type: Path for select_repo, Text for prompt.
type Inbound struct {
	Type InboundType
	Path string
	Text string
}

// ErrUnparsable marks a frame that is not a member of the inbound union,
// either because it is not valid JSON or because its type tag is unknown.
// The session echoes such frames back verbatim (compatibility fallback),
// so this outcome is explicit rather than a swallowed parse error.
var ErrUnparsable = errors.New("unparsable application frame")

// DecodeInbound parses a text frame into the inbound union.
func DecodeInbound(data []byte) (Inbound, error) {
	var raw struct {
		Type string `json:"type"`
		Path string `json:"path"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	switch InboundType(raw.Type) {
	case InboundListRepos:
		return Inbound{Type: InboundListRepos}, nil
	case InboundSelectRepo:
		return Inbound{Type: InboundSelectRepo, Path: raw.Path}, nil
	case InboundPrompt:
		return Inbound{Type: InboundPrompt, Text: raw.Text}, nil
	default:
		return Inbound{}, fmt.Errorf("%w: unknown type %q", ErrUnparsable, raw.Type)
	}
}

// OutboundType tags server application messages.
type OutboundType string

// The closed set of outbound message types.
const (
	OutboundRepoList     OutboundType = "repo_list"
	OutboundRepoSelected OutboundType = "repo_selected"
	OutboundCommandsList OutboundType = "commands_list"
	OutboundError        OutboundType = "error"
	OutboundResponse     OutboundType = "response"
)

// Outbound is implemented by every server-to-client application message.
type Outbound interface {
	outboundType() OutboundType
}

// RepoListMessage carries the repository catalog.
type RepoListMessage struct {
	Type         OutboundType            `json:"type"`
	Repositories []repository.Repository `json:"repositories"`
}

func (RepoListMessage) outboundType() OutboundType { return OutboundRepoList }

// NewRepoListMessage builds a repo_list reply from the catalog.
// Custom commands are deliberately stripped from the list serialization;
// clients receive them via commands_list after selecting a repository.
func NewRepoListMessage(catalog []repository.Repository) RepoListMessage {
	repos := make([]repository.Repository, len(catalog))
	for i, r := range catalog {
		repos[i] = repository.Repository{Name: r.Name, Path: r.Path}
	}
	return RepoListMessage{Type: OutboundRepoList, Repositories: repos}
}

// RepoSelectedMessage confirms a repository selection.
type RepoSelectedMessage struct {
	Type       OutboundType          `json:"type"`
	Repository repository.Repository `json:"repository"`
}

func (RepoSelectedMessage) outboundType() OutboundType { return OutboundRepoSelected }

// NewRepoSelectedMessage builds a repo_selected reply.
func NewRepoSelectedMessage(repo repository.Repository) RepoSelectedMessage {
	return RepoSelectedMessage{
		Type:       OutboundRepoSelected,
		Repository: repository.Repository{Name: repo.Name, Path: repo.Path},
	}
}

// CommandsListMessage carries the merged command set for the selected
// repository: the fixed built-in catalog plus the repository's custom
// commands.
type CommandsListMessage struct {
	Type               OutboundType      `json:"type"`
	PredefinedCommands []command.Command `json:"predefined_commands"`
	CustomCommands     []command.Command `json:"custom_commands"`
}

func (CommandsListMessage) outboundType() OutboundType { return OutboundCommandsList }

// NewCommandsListMessage builds a commands_list reply.
// Nil slices are normalized so both lists serialize as JSON arrays.
func NewCommandsListMessage(predefined, custom []command.Command) CommandsListMessage {
	if predefined == nil {
		predefined = []command.Command{}
	}
	if custom == nil {
		custom = []command.Command{}
	}
	return CommandsListMessage{
		Type:               OutboundCommandsList,
		PredefinedCommands: predefined,
		CustomCommands:     custom,
	}
}

// ErrorMessage reports an in-band routing error; the session stays open.
type ErrorMessage struct {
	Type    OutboundType `json:"type"`
	Message string       `json:"message"`
}

func (ErrorMessage) outboundType() OutboundType { return OutboundError }

// NewErrorMessage builds an error reply.
func NewErrorMessage(message string) ErrorMessage {
	return ErrorMessage{Type: OutboundError, Message: message}
}

// ResponseMessage carries the agent's response to a forwarded prompt.
type ResponseMessage struct {
	Type OutboundType `json:"type"`
	Text string       `json:"text"`
}

func (ResponseMessage) outboundType() OutboundType { return OutboundResponse }

// NewResponseMessage builds a response reply.
func NewResponseMessage(text string) ResponseMessage {
	return ResponseMessage{Type: OutboundResponse, Text: text}
}
