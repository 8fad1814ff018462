package command

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// customCommandsDir is the per-repository directory scanned for command
// definition files, relative to the repository root.
var customCommandsDir = filepath.Join(".claude", "commands")

// ScanCustom loads the custom commands defined in a repository.
// It reads every .md file under .claude/commands and parses each into a
// Command. A missing directory yields an empty list, not an error.
// Commands are returned sorted by name.
func ScanCustom(repoPath string) []Command {
	dir := filepath.Join(repoPath, customCommandsDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var commands []Command
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		cmd, err := parseMarkdownCommand(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		commands = append(commands, cmd)
	}

	sort.Slice(commands, func(i, j int) bool {
		return commands[i].Name < commands[j].Name
	})
	return commands
}

// parseMarkdownCommand parses a markdown file as a slash command.
// The command name is "/" plus the file stem with underscores replaced by
// dashes. The description is the first line when shorter than 100
// characters, even if that line is empty; only a long first line falls
// back to the generic form. The whole file body is carried as the command
// content.
func parseMarkdownCommand(path string) (Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Command{}, err
	}
	content := string(data)

	stem := strings.TrimSuffix(filepath.Base(path), ".md")
	name := "/" + strings.ReplaceAll(stem, "_", "-")

	description := fmt.Sprintf("Custom command: %s", strings.ReplaceAll(stem, "_", " "))
	if first, _, _ := strings.Cut(content, "\n"); len(first) < 100 {
		description = first
	}

	return Command{
		Name:        name,
		Description: description,
		Content:     content,
	}, nil
}
