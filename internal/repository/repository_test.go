package repository

import (
	"os"
	"path/filepath"
	"testing"
)

// makeRepo creates a directory under root with a .git entry. When gitFile
// is true, .git is a plain file (worktree layout) instead of a directory.
func makeRepo(t *testing.T, root, name string, gitFile bool) string {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	git := filepath.Join(path, ".git")
	if gitFile {
		if err := os.WriteFile(git, []byte("gitdir: ../elsewhere\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	} else {
		if err := os.Mkdir(git, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	makeRepo(t, root, "zebra", false)
	makeRepo(t, root, "apple", false)
	makeRepo(t, root, "mango", true)

	// Not repositories: no .git, and a plain file at the root level.
	if err := os.Mkdir(filepath.Join(root, "notes"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "README"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	repos := Discover([]string{root})
	if len(repos) != 3 {
		t.Fatalf("discovered %d repositories, want 3: %+v", len(repos), repos)
	}

	// Sorted by name; .git files count the same as .git directories.
	wantNames := []string{"apple", "mango", "zebra"}
	for i, want := range wantNames {
		if repos[i].Name != want {
			t.Errorf("repos[%d].Name = %q, want %q", i, repos[i].Name, want)
		}
		if repos[i].Path != filepath.Join(root, want) {
			t.Errorf("repos[%d].Path = %q", i, repos[i].Path)
		}
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	root := t.TempDir()
	makeRepo(t, root, "only", false)

	repos := Discover([]string{filepath.Join(root, "does-not-exist"), root})
	if len(repos) != 1 || repos[0].Name != "only" {
		t.Fatalf("repos = %+v, want just %q", repos, "only")
	}
}

func TestDiscoverMultipleRoots(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	makeRepo(t, rootA, "bbb", false)
	makeRepo(t, rootB, "aaa", false)

	repos := Discover([]string{rootA, rootB})
	if len(repos) != 2 {
		t.Fatalf("discovered %d repositories, want 2", len(repos))
	}
	// Sorted across roots, not per root.
	if repos[0].Name != "aaa" || repos[1].Name != "bbb" {
		t.Errorf("order = %q, %q", repos[0].Name, repos[1].Name)
	}
}

func TestDiscoverAttachesCustomCommands(t *testing.T) {
	root := t.TempDir()
	path := makeRepo(t, root, "proj", false)

	cmdDir := filepath.Join(path, ".claude", "commands")
	if err := os.MkdirAll(cmdDir, 0o755); err != nil {
		t.Fatal(err)
	}
	body := "Deploy to staging\n\nRun the deploy pipeline.\n"
	if err := os.WriteFile(filepath.Join(cmdDir, "deploy.md"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	repos := Discover([]string{root})
	if len(repos) != 1 {
		t.Fatalf("discovered %d repositories, want 1", len(repos))
	}
	cmds := repos[0].CustomCommands
	if len(cmds) != 1 || cmds[0].Name != "/deploy" {
		t.Fatalf("custom commands = %+v", cmds)
	}
	if cmds[0].Description != "Deploy to staging" {
		t.Errorf("description = %q", cmds[0].Description)
	}
}
