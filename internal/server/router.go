package server

import (
	"context"
	"fmt"
	"log"

	"github.com/telecoder/host/internal/agent"
	"github.com/telecoder/host/internal/command"
	apperrors "github.com/telecoder/host/internal/errors"
	"github.com/telecoder/host/internal/state"
)

// Router dispatches authenticated application messages to domain actions
// and produces the outbound replies. Routing does not care which client is
// asking (only one client ever exists) but is stateful with respect to the
// repository selection, which persists across messages and sessions.
type Router struct {
	store  *state.Store
	runner agent.Runner
}

// NewRouter creates a router over the shared store. runner executes
// forwarded prompts; pass agent.EchoRunner{} for the default stub.
func NewRouter(store *state.Store, runner agent.Runner) *Router {
	return &Router{store: store, runner: runner}
}

// Route handles one inbound message and returns the replies to send, in
// order. A nil result means no reply.
func (r *Router) Route(ctx context.Context, msg Inbound) []Outbound {
	switch msg.Type {
	case InboundListRepos:
		return []Outbound{NewRepoListMessage(r.store.Catalog)}

	case InboundSelectRepo:
		repo, ok := r.store.FindRepository(msg.Path)
		if !ok {
			coded := apperrors.New(apperrors.CodeRouteRepoNotFound, fmt.Sprintf("repository not found: %s", msg.Path))
			log.Printf("route: %v", coded)
			return []Outbound{NewErrorMessage(coded.Message)}
		}
		r.store.Selection.Set(repo)
		log.Printf("route: selected repository %s (%s)", repo.Name, repo.Path)
		return []Outbound{
			NewRepoSelectedMessage(repo),
			NewCommandsListMessage(command.Predefined(), repo.CustomCommands),
		}

	case InboundPrompt:
		var repoPath string
		if sel, ok := r.store.Selection.Get(); ok {
			repoPath = sel.Path
		}
		text, err := r.runner.Prompt(ctx, repoPath, msg.Text)
		if err != nil {
			coded := apperrors.Wrap(apperrors.CodeRoutePromptFailed, "prompt failed", err)
			log.Printf("route: %v", coded)
			return []Outbound{NewErrorMessage(coded.Message)}
		}
		return []Outbound{NewResponseMessage(text)}
	}

	return nil
}
