package formats_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanoprefs/formats"
	"github.com/arthur-debert/nanoprefs/prefs"
	"github.com/arthur-debert/nanoprefs/testutil"
)

func smallStore(t *testing.T) *prefs.Store {
	t.Helper()

	s := prefs.NewStore("Demo")
	theme := prefs.String("theme").
		WithDescription("Color theme").
		WithAllowedValues("dark", "light").
		AllowOnlyDefinedValues().
		WithDefaultValue("light").
		WithValue("dark").
		MustBuild()
	if err := s.AddPreference(theme); err != nil {
		t.Fatalf("failed to add theme: %v", err)
	}

	editor := prefs.NewGroup("Editor")
	if err := editor.Add(prefs.Int32("tab_size").WithDefaultValue(4).WithValue(2).MustBuild()); err != nil {
		t.Fatalf("failed to add tab_size: %v", err)
	}
	if err := s.Add("editor", prefs.GroupItem(editor)); err != nil {
		t.Fatalf("failed to add editor: %v", err)
	}

	server := prefs.NewGroup("")
	if err := server.Add(prefs.String("host").WithValue("a").MustBuild()); err != nil {
		t.Fatalf("failed to add host: %v", err)
	}
	if err := s.Add("servers", prefs.GroupsItem("", server)); err != nil {
		t.Fatalf("failed to add servers: %v", err)
	}

	if err := s.Add("extra", prefs.NestedStoreItem(prefs.NewStore(""))); err != nil {
		t.Fatalf("failed to add extra: %v", err)
	}
	return s
}

func TestJSONCMarshal(t *testing.T) {
	s := smallStore(t)

	got, err := formats.JSONC.Marshal(s, formats.WriteOptions{Comments: true})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	want := `// Demo
{
  // Color theme
  // Default: "light"
  // Allowed values (strict): "dark", "light"
  "theme": "dark",
  // Editor
  "editor": {
    // Default: 4
    "tab_size": 2
  },
  "servers": [
    {
      "host": "a"
    }
  ],
  "extra": {}
}
`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}

	plain, err := formats.JSONC.Marshal(s, formats.WriteOptions{Indent: "\t"})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if strings.Contains(string(plain), "//") {
		t.Errorf("expected no comments, got:\n%s", plain)
	}
	if !strings.Contains(string(plain), "\n\t\"theme\": \"dark\"") {
		t.Errorf("expected tab indentation, got:\n%s", plain)
	}
}

func TestJSONCEffectiveValues(t *testing.T) {
	store, _ := testutil.LoadSettings(t)

	raw, err := formats.JSONC.Marshal(store, formats.WriteOptions{})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"language": null`) {
		t.Errorf("expected null language in raw output, got:\n%s", raw)
	}

	effective, err := formats.JSONC.Marshal(store, formats.WriteOptions{Effective: true})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if !strings.Contains(string(effective), `"language": "en"`) {
		t.Errorf("expected default language in effective output, got:\n%s", effective)
	}
}

func TestJSONCUnmarshalTolerance(t *testing.T) {
	store, data := testutil.LoadSettings(t)

	doc := `
// leading comment
{
  /* block
     comment */
  "theme": "solarized", // trailing comment
  "editor": {
    "tab_size": "0x8",
    "word_wrap": false,
  },
  "servers": [
    {"host": "c.example.com", "port": 8443},
  ],
  "profiles": [{}, {"name": "travel"}],
}
`
	if err := formats.JSONC.Unmarshal([]byte(doc), store, formats.ReadOptions{}); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if v, _ := data.Theme.Value(); v != "solarized" {
		t.Errorf("expected solarized, got %q", v)
	}
	if v, _ := data.TabSize.Value(); v != 8 {
		t.Errorf("expected tab_size 8, got %d", v)
	}
	if v, ok := data.WordWrap.Value(); !ok || v {
		t.Errorf("expected word_wrap false, got %v (%v)", v, ok)
	}
	if v, _ := data.Hosts[0].Value(); v != "c.example.com" {
		t.Errorf("expected new host, got %q", v)
	}
	if v, _ := data.Ports[0].Value(); v != 8443 {
		t.Errorf("expected port 8443, got %d", v)
	}
	if v, _ := data.Hosts[1].Value(); v != "b.example.com" {
		t.Errorf("expected untouched second host, got %q", v)
	}
	if v, _ := data.ProfileNames[0].Value(); v != "work" {
		t.Errorf("expected untouched first profile, got %q", v)
	}
	if v, _ := data.ProfileNames[1].Value(); v != "travel" {
		t.Errorf("expected travel, got %q", v)
	}
}

func TestJSONCUnmarshalErrors(t *testing.T) {
	t.Run("syntax", func(t *testing.T) {
		store, _ := testutil.LoadSettings(t)
		doc := "{\n  \"theme\": \"dark\"\n  \"language\": \"fr\"\n}"
		err := formats.JSONC.Unmarshal([]byte(doc), store, formats.ReadOptions{})
		var perr *formats.ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("expected ParseError, got %v", err)
		}
		if perr.Line != 3 {
			t.Errorf("expected error on line 3, got %d (%v)", perr.Line, err)
		}
	})

	t.Run("shape", func(t *testing.T) {
		store, _ := testutil.LoadSettings(t)
		doc := `{"editor": 5, "servers": {"host": "x"}, "theme": {"a": 1}}`
		err := formats.JSONC.Unmarshal([]byte(doc), store, formats.ReadOptions{})
		if err == nil {
			t.Fatal("expected shape errors")
		}
		for _, want := range []string{"editor: expected object", "servers: expected array", "theme: expected value"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("expected %q in %q", want, err.Error())
			}
		}
	})

	t.Run("values", func(t *testing.T) {
		store, data := testutil.LoadSettings(t)
		doc := `{"theme": "neon", "language": "fr", "editor": {"tab_size": 99}}`
		err := formats.JSONC.Unmarshal([]byte(doc), store, formats.ReadOptions{})
		if !errors.Is(err, prefs.ErrValueNotAllowed) {
			t.Errorf("expected ErrValueNotAllowed in chain, got %v", err)
		}
		if !errors.Is(err, prefs.ErrValueInvalid) {
			t.Errorf("expected ErrValueInvalid in chain, got %v", err)
		}
		if !strings.Contains(err.Error(), "editor.tab_size") {
			t.Errorf("expected path in message, got %q", err.Error())
		}
		// Valid entries are still applied.
		if v, _ := data.Language.Value(); v != "fr" {
			t.Errorf("expected language fr, got %q", v)
		}
	})

	t.Run("unknown keys", func(t *testing.T) {
		store, _ := testutil.LoadSettings(t)
		doc := `{"nope": 1, "editor": {"ghost": true}, "servers": [{}, {}, {}]}`
		if err := formats.JSONC.Unmarshal([]byte(doc), store, formats.ReadOptions{}); err != nil {
			t.Errorf("expected unknown keys to be skipped, got %v", err)
		}
		err := formats.JSONC.Unmarshal([]byte(doc), store, formats.ReadOptions{DisallowUnknownKeys: true})
		if err == nil {
			t.Fatal("expected unknown keys to be reported")
		}
		for _, want := range []string{"nope: unknown key", "editor.ghost: unknown key", "servers.2: unknown key"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("expected %q in %q", want, err.Error())
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		store, _ := testutil.LoadSettings(t)
		if err := formats.JSONC.Unmarshal([]byte("  // nothing\n"), store, formats.ReadOptions{}); err != nil {
			t.Errorf("expected empty document to be accepted, got %v", err)
		}
	})
}
