package validation_test

import (
	"errors"
	"testing"

	"github.com/arthur-debert/nanoprefs/internal/validation"
	"github.com/google/go-cmp/cmp"
)

func TestProcessName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: "theme", want: "theme"},
		{name: "surrounding spaces", input: "  theme\t", want: "theme"},
		{name: "inner spaces kept", input: "tab size", want: "tab size"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: " \t\n ", wantErr: true},
		{name: "control character", input: "a\x00b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validation.ProcessName(tt.input)
			if tt.wantErr {
				if !errors.Is(err, validation.ErrInvalidName) {
					t.Fatalf("expected ErrInvalidName, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestProcessNameIdempotent(t *testing.T) {
	for _, input := range []string{"a", " b ", "tab size", "  x.y  ", "ünïcode "} {
		once, err := validation.ProcessName(input)
		if err != nil {
			t.Fatalf("ProcessName(%q): %v", input, err)
		}
		twice, err := validation.ProcessName(once)
		if err != nil {
			t.Fatalf("ProcessName(%q): %v", once, err)
		}
		if once != twice {
			t.Errorf("not idempotent: %q -> %q -> %q", input, once, twice)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := validation.SplitList(" a, b ,,c ")
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if validation.SplitList("  ") != nil {
		t.Error("expected nil for blank tag")
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"TabSize":      "tab_size",
		"Theme":        "theme",
		"HTTPPort":     "http_port",
		"MaxRetries2":  "max_retries2",
		"Value2Format": "value2_format",
		"already_done": "already_done",
	}
	for in, want := range tests {
		if got := validation.ToSnakeCase(in); got != want {
			t.Errorf("ToSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
