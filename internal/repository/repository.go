// Package repository discovers the repositories a client can drive and
// describes them as catalog entries. Discovery runs once at server startup;
// the resulting catalog is read-only afterward.
package repository

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/telecoder/host/internal/command"
)

// Repository describes one discoverable repository.
type Repository struct {
	// Name is the directory name of the repository.
	Name string `json:"name"`

	// Path is the absolute filesystem location.
	Path string `json:"path"`

	// CustomCommands are the commands defined inside the repository.
	// Deliberately omitted from repo_list serialization; clients receive
	// them in commands_list after selecting the repository.
	CustomCommands []command.Command `json:"custom_commands,omitempty"`
}

// Discover scans the immediate subdirectories of each root for git
// repositories and returns the catalog sorted by name. Roots that do not
// exist are skipped. The roots themselves are not treated as repositories.
func Discover(roots []string) []Repository {
	var repos []Repository

	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			path := filepath.Join(root, entry.Name())
			if !isGitRepository(path) {
				continue
			}
			repos = append(repos, Repository{
				Name:           entry.Name(),
				Path:           path,
				CustomCommands: command.ScanCustom(path),
			})
		}
	}

	sort.Slice(repos, func(i, j int) bool {
		return repos[i].Name < repos[j].Name
	})
	return repos
}

// isGitRepository reports whether the directory contains a .git entry.
// Both .git directories and .git files (worktrees, submodules) count.
func isGitRepository(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}
