package users

import (
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, a Action)
	}{
		{
			name:  "traverse",
			input: `{"type":"user.traverse","data":{"page":3}}`,
			check: func(t *testing.T, a Action) {
				got, ok := a.(TraverseAction)
				if !ok || got.Page != 3 {
					t.Errorf("got %#v, want TraverseAction{Page: 3}", a)
				}
			},
		},
		{
			name:  "filter",
			input: `{"type":"user.filter","data":{"filter":{"username":"active"}}}`,
			check: func(t *testing.T, a Action) {
				got, ok := a.(FilterAction)
				if !ok || got.Filter == nil || got.Filter.Username != "active" {
					t.Errorf("got %#v, want filter username active", a)
				}
			},
		},
		{
			name:  "filter null",
			input: `{"type":"user.filter","data":{"filter":null}}`,
			check: func(t *testing.T, a Action) {
				got, ok := a.(FilterAction)
				if !ok || got.Filter != nil {
					t.Errorf("got %#v, want FilterAction with nil filter", a)
				}
			},
		},
		{
			name:  "sync",
			input: `{"type":"user.sync","data":{"users":[{"id":"1","username":"alice"},{"id":"2"}],"count":2}}`,
			check: func(t *testing.T, a Action) {
				got, ok := a.(SyncAction)
				if !ok || got.Count != 2 || len(got.Users) != 2 || got.Users[0].Username != "alice" {
					t.Errorf("got %#v", a)
				}
			},
		},
		{
			name:  "missing data uses zero values",
			input: `{"type":"user.traverse"}`,
			check: func(t *testing.T, a Action) {
				got, ok := a.(TraverseAction)
				if !ok || got.Page != 0 {
					t.Errorf("got %#v, want TraverseAction{}", a)
				}
			},
		},
		{
			name:  "unknown type",
			input: `{"type":"user.delete","data":{"id":"1"}}`,
			check: func(t *testing.T, a Action) {
				got, ok := a.(UnknownAction)
				if !ok || got.Type != "user.delete" {
					t.Errorf("got %#v, want UnknownAction", a)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := DecodeJSON([]byte(tt.input))
			if err != nil {
				t.Fatalf("DecodeJSON() error = %v", err)
			}
			tt.check(t, a)
		})
	}
}

func TestDecodeJSON_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"missing type", `{"data":{"page":1}}`, "action type is required"},
		{"bad json", `{"type":`, "unexpected end"},
		{"wrong payload type", `{"type":"user.traverse","data":{"page":"three"}}`, "user.traverse: invalid data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(tt.input))
			if err == nil {
				t.Fatal("DecodeJSON() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeJSON_MissingTypeIsSentinel(t *testing.T) {
	_, err := DecodeJSON([]byte(`{}`))
	if !errors.Is(err, ErrMissingType) {
		t.Errorf("error = %v, want ErrMissingType", err)
	}
}

func TestEncodeJSON(t *testing.T) {
	data, err := EncodeJSON(TraverseAction{Page: 7})
	if err != nil {
		t.Fatalf("EncodeJSON() error = %v", err)
	}
	want := `{"type":"user.traverse","data":{"page":7}}`
	if string(data) != want {
		t.Errorf("EncodeJSON() = %s, want %s", data, want)
	}

	data, err = EncodeJSON(UnknownAction{Type: "user.delete"})
	if err != nil {
		t.Fatalf("EncodeJSON() error = %v", err)
	}
	if string(data) != `{"type":"user.delete"}` {
		t.Errorf("EncodeJSON(unknown) = %s", data)
	}
}

func TestEnvelope_YAMLList(t *testing.T) {
	input := `
- type: user.sync
  data:
    users:
      - id: "1"
        username: alice
        roles: [admin]
    count: 1
- type: user.filter
  data:
    filter:
      role: admin
- type: user.traverse
  data:
    page: 2
- type: user.filter
  data:
    filter: null
- type: audit.log
`
	var envs []Envelope
	if err := yaml.Unmarshal([]byte(input), &envs); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if len(envs) != 5 {
		t.Fatalf("len(envs) = %d, want 5", len(envs))
	}

	sync, ok := envs[0].Action.(SyncAction)
	if !ok || sync.Count != 1 || len(sync.Users) != 1 || sync.Users[0].Roles[0] != "admin" {
		t.Errorf("envs[0] = %#v", envs[0].Action)
	}
	if f, ok := envs[1].Action.(FilterAction); !ok || f.Filter == nil || f.Filter.Role != "admin" {
		t.Errorf("envs[1] = %#v", envs[1].Action)
	}
	if tr, ok := envs[2].Action.(TraverseAction); !ok || tr.Page != 2 {
		t.Errorf("envs[2] = %#v", envs[2].Action)
	}
	if f, ok := envs[3].Action.(FilterAction); !ok || f.Filter != nil {
		t.Errorf("envs[3] = %#v", envs[3].Action)
	}
	if u, ok := envs[4].Action.(UnknownAction); !ok || u.Type != "audit.log" {
		t.Errorf("envs[4] = %#v", envs[4].Action)
	}
}

func TestEnvelope_YAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"scalar", `- user.sync`, "action must be a mapping"},
		{"missing type", "- data:\n    page: 1", "action type is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var envs []Envelope
			err := yaml.Unmarshal([]byte(tt.input), &envs)
			if err == nil {
				t.Fatal("yaml.Unmarshal() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvelope_MarshalYAML(t *testing.T) {
	out, err := yaml.Marshal([]Envelope{{Action: TraverseAction{Page: 1}}})
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	if !strings.Contains(string(out), "type: user.traverse") || !strings.Contains(string(out), "page: 1") {
		t.Errorf("yaml.Marshal() = %s", out)
	}
}
