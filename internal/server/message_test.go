package server

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/telecoder/host/internal/command"
	"github.com/telecoder/host/internal/repository"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Inbound
	}{
		{"list repos", `{"type":"list_repos"}`, Inbound{Type: InboundListRepos}},
		{"select repo", `{"type":"select_repo","path":"/r/alpha"}`, Inbound{Type: InboundSelectRepo, Path: "/r/alpha"}},
		{"prompt", `{"type":"prompt","text":"fix the tests"}`, Inbound{Type: InboundPrompt, Text: "fix the tests"}},
		{"ignores extra fields", `{"type":"list_repos","path":"/junk"}`, Inbound{Type: InboundListRepos}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tc.data))
			if err != nil {
				t.Fatalf("DecodeInbound(%s) error: %v", tc.data, err)
			}
			if got != tc.want {
				t.Errorf("DecodeInbound(%s) = %+v, want %+v", tc.data, got, tc.want)
			}
		})
	}
}

func TestDecodeInboundUnparsable(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "hello there"},
		{"json without type", `{"path":"/r/alpha"}`},
		{"unknown type", `{"type":"reboot"}`},
		{"json array", `[1,2,3]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeInbound([]byte(tc.data))
			if !errors.Is(err, ErrUnparsable) {
				t.Errorf("DecodeInbound(%s) error = %v, want ErrUnparsable", tc.data, err)
			}
		})
	}
}

func TestRepoListStripsCustomCommands(t *testing.T) {
	catalog := []repository.Repository{
		{
			Name:           "alpha",
			Path:           "/r/alpha",
			CustomCommands: []command.Command{{Name: "/deploy", Description: "Deploy"}},
		},
	}

	data, err := json.Marshal(NewRepoListMessage(catalog))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "custom_commands") {
		t.Errorf("repo_list leaked custom commands: %s", data)
	}
	if !strings.Contains(string(data), `"type":"repo_list"`) {
		t.Errorf("missing type tag: %s", data)
	}
}

func TestRepoListEmptyCatalog(t *testing.T) {
	data, err := json.Marshal(NewRepoListMessage(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"repositories":[]`) {
		t.Errorf("empty catalog did not serialize as an array: %s", data)
	}
}

func TestRepoSelectedStripsCustomCommands(t *testing.T) {
	repo := repository.Repository{
		Name:           "alpha",
		Path:           "/r/alpha",
		CustomCommands: []command.Command{{Name: "/deploy", Description: "Deploy"}},
	}

	data, err := json.Marshal(NewRepoSelectedMessage(repo))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "custom_commands") {
		t.Errorf("repo_selected leaked custom commands: %s", data)
	}
}

func TestCommandsListNormalizesNilSlices(t *testing.T) {
	data, err := json.Marshal(NewCommandsListMessage(nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"predefined_commands":[]`, `"custom_commands":[]`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("missing %s in %s", field, data)
		}
	}
}
