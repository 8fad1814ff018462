// Package command defines the slash commands the client can run against a
// repository: a fixed built-in catalog plus custom commands loaded from
// per-repository definition files.
package command

// Command describes one slash command available to the client.
type Command struct {
	// Name is the command name including the leading slash (e.g., "/review").
	Name string `json:"name"`

	// Description is a short human-readable summary.
	Description string `json:"description"`

	// Usage shows the invocation syntax, if the command takes arguments.
	Usage string `json:"usage,omitempty"`

	// Example is a sample invocation, if one helps.
	Example string `json:"example,omitempty"`

	// Content is the full text of the defining file for custom commands.
	// Empty for built-in commands.
	Content string `json:"content,omitempty"`
}

// Predefined returns the fixed catalog of built-in commands.
// This set is always available regardless of the selected repository.
func Predefined() []Command {
	return []Command{
		{Name: "/bug", Description: "Report bugs (sends conversation to Anthropic)"},
		{Name: "/clear", Description: "Clear conversation history"},
		{
			Name:        "/compact",
			Description: "Compact conversation with optional focus instructions",
			Usage:       "/compact [instructions]",
			Example:     "/compact focus on the authentication logic",
		},
		{Name: "/config", Description: "View/modify configuration"},
		{Name: "/cost", Description: "Show token usage statistics"},
		{Name: "/doctor", Description: "Checks the health of your Claude Code installation"},
		{
			Name:        "/help",
			Description: "Get usage help",
			Usage:       "/help [command]",
			Example:     "/help model",
		},
		{Name: "/init", Description: "Initialize project with CLAUDE.md guide"},
		{Name: "/login", Description: "Switch Anthropic accounts"},
		{Name: "/logout", Description: "Sign out from your Anthropic account"},
		{Name: "/memory", Description: "Edit CLAUDE.md memory files"},
		{
			Name:        "/model",
			Description: "Select or change the AI model",
			Usage:       "/model [model-name]",
			Example:     "/model claude-3-opus",
		},
		{Name: "/permissions", Description: "View or update permissions"},
		{Name: "/pr_comments", Description: "View pull request comments"},
		{Name: "/review", Description: "Request code review"},
		{Name: "/status", Description: "View account and system statuses"},
	}
}
