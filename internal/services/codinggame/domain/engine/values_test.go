package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestResolveSettingValue(t *testing.T) {
	e := &Engine{filesDir: "/srv/files"}
	tests := []struct {
		name    string
		raw     string
		current string
		want    string
	}{
		{"literal string", `"dark"`, `"light"`, `"dark"`},
		{"literal object without type", `{"a":1}`, `null`, `{"a":1}`},
		{"internal file", `{"type":"internal-file-uri","value":"img/bg.png"}`, `null`, `"file:///srv/files/img/bg.png"`},
		{"append to empty", `{"type":"append-to-list-unique","value":["x"]}`, `null`, `["x"]`},
		{"append keeps order", `{"type":"append-to-list-unique","value":["c","a"]}`, `["a","b"]`, `["a","b","c"]`},
		{"append dedupes objects", `{"type":"append-to-list-unique","value":[{"b":2, "a":1}]}`, `[{"a":1,"b":2}]`, `[{"a":1,"b":2}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.resolveSettingValue(json.RawMessage(tt.raw), json.RawMessage(tt.current))
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestResolveSettingValueUnknownType(t *testing.T) {
	e := &Engine{}
	_, err := e.resolveSettingValue(json.RawMessage(`{"type":"mystery","value":1}`), nil)
	if !errors.Is(err, ErrUnknownSettingType) {
		t.Fatalf("expected ErrUnknownSettingType, got %v", err)
	}
}

func TestResolvePath(t *testing.T) {
	files := &fakeFiles{}
	e := &Engine{homeDir: "/home/p", configDir: "/home/p/.config/game", files: files}
	ctx := context.Background()

	tests := []struct{ in, want string }{
		{"~/notes.txt", "/home/p/notes.txt"},
		{"/etc/../etc/hosts", "/etc/hosts"},
		{"intro/readme.md", "/home/p/.config/game/intro/readme.md"},
	}
	for _, tt := range tests {
		got, err := e.resolvePath(ctx, tt.in)
		if err != nil {
			t.Fatalf("resolve %q: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("resolve %q: expected %q, got %q", tt.in, tt.want, got)
		}
	}
	if len(files.copies) != 1 || files.copies[0][0] != "intro/readme.md" {
		t.Fatalf("expected only the relative path copied, got %v", files.copies)
	}
	if _, err := e.resolvePath(ctx, ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestResolvePathKeepsGoingWhenCopyFails(t *testing.T) {
	files := &fakeFiles{copyErr: errors.New("disk full")}
	e := &Engine{configDir: "/cfg", files: files}
	got, err := e.resolvePath(context.Background(), "a.txt")
	if err != nil || got != "/cfg/a.txt" {
		t.Fatalf("expected target despite copy failure, got %q %v", got, err)
	}
}
