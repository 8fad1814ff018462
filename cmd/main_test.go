package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunDispatch(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"no args prints usage", []string{"telecoder"}, 0, "Usage:"},
		{"help", []string{"telecoder", "help"}, 0, "Usage:"},
		{"version", []string{"telecoder", "version"}, 0, "telecoder dev"},
		{"unknown command", []string{"telecoder", "bogus"}, 1, "Unknown command"},
		{"bare clients", []string{"telecoder", "clients"}, 1, "list|events"},
		{"unknown clients subcommand", []string{"telecoder", "clients", "purge"}, 1, "Unknown clients command"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tc.args, &stdout, &stderr)
			if code != tc.wantCode {
				t.Errorf("run(%v) = %d, want %d", tc.args[1:], code, tc.wantCode)
			}
			combined := stdout.String() + stderr.String()
			if !strings.Contains(combined, tc.wantOut) {
				t.Errorf("output %q does not contain %q", combined, tc.wantOut)
			}
		})
	}
}

func TestSplitRoots(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"/srv/repos", []string{"/srv/repos"}},
		{"/a, /b ,/c", []string{"/a", "/b", "/c"}},
		{" , ", nil},
	}

	for _, tc := range tests {
		got := splitRoots(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("splitRoots(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitRoots(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}
