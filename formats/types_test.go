package formats

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanoprefs/prefs"
)

func TestRegister(t *testing.T) {
	// Save original registry
	originalRegistry := registry
	defer func() { registry = originalRegistry }()

	// Clear registry for testing
	registry = make(map[string]*Format)

	marshal := func(*prefs.Store, WriteOptions) ([]byte, error) { return nil, nil }
	unmarshal := func([]byte, *prefs.Store, ReadOptions) error { return nil }

	tests := []struct {
		name      string
		format    *Format
		wantError bool
		errorMsg  string
	}{
		{
			name:   "valid format",
			format: &Format{Name: "test-format", Extension: ".test", Marshal: marshal, Unmarshal: unmarshal},
		},
		{
			name:      "invalid name with uppercase",
			format:    &Format{Name: "TestFormat", Extension: ".test", Marshal: marshal, Unmarshal: unmarshal},
			wantError: true,
			errorMsg:  "invalid format name",
		},
		{
			name:      "invalid name with special chars",
			format:    &Format{Name: "test@format", Extension: ".test", Marshal: marshal, Unmarshal: unmarshal},
			wantError: true,
			errorMsg:  "invalid format name",
		},
		{
			name:      "empty name",
			format:    &Format{Name: "", Extension: ".test", Marshal: marshal, Unmarshal: unmarshal},
			wantError: true,
			errorMsg:  "invalid format name",
		},
		{
			name:      "missing functions",
			format:    &Format{Name: "bare", Extension: ".bare"},
			wantError: true,
			errorMsg:  "must define Marshal and Unmarshal",
		},
		{
			name:      "duplicate",
			format:    &Format{Name: "test-format", Extension: ".other", Marshal: marshal, Unmarshal: unmarshal},
			wantError: true,
			errorMsg:  "already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Register(tt.format)
			if tt.wantError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	extless := &Format{Name: "noext", Extension: "NOEXT", Marshal: marshal, Unmarshal: unmarshal}
	if err := Register(extless); err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	if extless.Extension != ".noext" {
		t.Errorf("expected normalized extension .noext, got %q", extless.Extension)
	}
}

func TestBuiltinFormats(t *testing.T) {
	if diff := cmp.Diff([]string{"json", "jsonc", "toml", "yaml"}, List()); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		path string
		want string
	}{
		{path: "settings.jsonc", want: "jsonc"},
		{path: "settings.json", want: "json"},
		{path: "/etc/app/settings.YAML", want: "yaml"},
		{path: "settings.yml", want: "yaml"},
		{path: "settings.toml", want: "toml"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f, err := ForPath(tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Name != tt.want {
				t.Errorf("expected %s, got %s", tt.want, f.Name)
			}
		})
	}

	if _, err := ForPath("settings"); err == nil {
		t.Error("expected error for path without extension")
	}
	if _, err := ForPath("settings.ini"); err == nil {
		t.Error("expected error for unknown extension")
	}
	if _, err := Get("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if f, err := Get("JSONC"); err != nil || f != JSONC {
		t.Errorf("expected case-insensitive lookup of jsonc, got %v", err)
	}
}

func TestLineCol(t *testing.T) {
	src := []byte("ab\ncd\nef")
	tests := []struct {
		offset    int
		line, col int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{3, 2, 1},
		{7, 3, 2},
		{-1, 0, 0},
	}
	for _, tt := range tests {
		line, col := lineCol(src, tt.offset)
		if line != tt.line || col != tt.col {
			t.Errorf("offset %d: expected %d:%d, got %d:%d", tt.offset, tt.line, tt.col, line, col)
		}
	}
}
