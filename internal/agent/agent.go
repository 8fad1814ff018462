// Package agent defines the contract for executing forwarded prompts
// against an external coding agent. The server only specifies the routing
// contract; the default runner echoes until a real agent integration
// replaces it.
package agent

import "context"

// Runner executes a prompt on behalf of the connected client.
// repoPath is the currently selected repository, or empty when the client
// has not selected one. Implementations must honor ctx cancellation.
type Runner interface {
	Prompt(ctx context.Context, repoPath, text string) (string, error)
}

// EchoRunner is the placeholder runner: it returns the prompt text
// unchanged.
type EchoRunner struct{}

// Prompt implements Runner.
func (EchoRunner) Prompt(_ context.Context, _ string, text string) (string, error) {
	return text, nil
}
