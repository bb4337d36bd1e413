package prefs_test

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanoprefs/prefs"
)

type editorSettings struct {
	TabSize    int32          `desc:"Spaces per tab" default:"4"`
	Theme      string         `pref:"color_theme,strict,sort" values:"light,dark,solarized"`
	WordWrap   *bool          `desc:"Wrap long lines"`
	AutoSave   time.Duration  `default:"30s"`
	Listen     *netip.Addr
	FontScale  float64
	Ignored    string         `pref:"-"`
	Tags       map[string]int // skipped: no preference type
	unexported int
}

func TestBindCreatesPreferences(t *testing.T) {
	obj := editorSettings{Theme: "dark", FontScale: 1.25}

	g, err := prefs.GroupFrom(obj, prefs.BindOptions{})
	if err != nil {
		t.Fatalf("failed to bind: %v", err)
	}

	want := []string{"tab_size", "color_theme", "word_wrap", "auto_save", "listen", "font_scale"}
	if diff := cmp.Diff(want, g.Names()); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}

	tab, _ := g.Get("tab_size")
	if tab.Kind() != prefs.KindInt32 {
		t.Errorf("expected int32 kind, got %s", tab.Kind())
	}
	if tab.Description() != "Spaces per tab" {
		t.Errorf("expected description, got %q", tab.Description())
	}
	if d, _ := tab.DefaultValueAny(); d != int32(4) {
		t.Errorf("expected default 4, got %v", d)
	}

	theme, _ := g.Get("color_theme")
	if theme.AllowUndefinedValues() {
		t.Error("expected strict theme")
	}
	if diff := cmp.Diff([]any{"dark", "light", "solarized"}, theme.AllowedValuesAny()); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}

	wrap, _ := g.Get("word_wrap")
	if wrap.HasValue() {
		t.Error("expected nil pointer field to bind as null")
	}

	if field, ok := g.FieldName("color_theme"); !ok || field != "Theme" {
		t.Errorf("expected field Theme, got %q (%v)", field, ok)
	}
}

func TestBindOptions(t *testing.T) {
	obj := &editorSettings{Theme: "light", FontScale: 2}

	g, err := prefs.GroupFrom(obj, prefs.BindOptions{UseValuesAsDefault: true})
	if err != nil {
		t.Fatalf("failed to bind: %v", err)
	}
	scale, _ := g.Get("font_scale")
	if d, _ := scale.DefaultValueAny(); d != 2.0 {
		t.Errorf("expected current value as default, got %v", d)
	}
	tab, _ := g.Get("tab_size")
	if d, _ := tab.DefaultValueAny(); d != int32(4) {
		t.Errorf("expected tag default to win, got %v", d)
	}

	g, err = prefs.GroupFrom(obj, prefs.BindOptions{PointerFieldsOnly: true})
	if err != nil {
		t.Fatalf("failed to bind: %v", err)
	}
	if diff := cmp.Diff([]string{"word_wrap", "listen"}, g.Names()); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}

	g, err = prefs.GroupFrom(obj, prefs.BindOptions{RequireTags: true})
	if err != nil {
		t.Fatalf("failed to bind: %v", err)
	}
	if diff := cmp.Diff([]string{"color_theme"}, g.Names()); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}
}

func TestBindRejectsBadInput(t *testing.T) {
	if _, err := prefs.GroupFrom(42, prefs.BindOptions{}); !errors.Is(err, prefs.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := prefs.GroupFrom((*editorSettings)(nil), prefs.BindOptions{}); !errors.Is(err, prefs.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}

	// The zero value of a strict field is outside its allow-list.
	_, err := prefs.GroupFrom(editorSettings{}, prefs.BindOptions{})
	if !errors.Is(err, prefs.ErrValueNotAllowed) {
		t.Errorf("expected ErrValueNotAllowed, got %v", err)
	}

	type badDefault struct {
		Port uint16 `default:"lots"`
	}
	_, err = prefs.GroupFrom(badDefault{}, prefs.BindOptions{})
	if prefs.StepOf(err) != prefs.StepConverting {
		t.Errorf("expected converting failure, got %v", err)
	}

	type dup struct {
		A int32 `pref:"x"`
		B int32 `pref:"x"`
	}
	if _, err := prefs.GroupFrom(dup{}, prefs.BindOptions{}); !errors.Is(err, prefs.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestUpdateValuesRoundTrip(t *testing.T) {
	obj := editorSettings{Theme: "dark", FontScale: 1}
	g, err := prefs.GroupFrom(&obj, prefs.BindOptions{})
	if err != nil {
		t.Fatalf("failed to bind: %v", err)
	}

	// Change the struct, then pull the values in.
	wrap := true
	addr := netip.MustParseAddr("127.0.0.1")
	obj.TabSize = 2
	obj.WordWrap = &wrap
	obj.Listen = &addr
	if err := g.UpdateValuesFrom(obj); err != nil {
		t.Fatalf("failed to update from struct: %v", err)
	}
	tab, _ := g.Get("tab_size")
	if v, _ := tab.ValueAny(); v != int32(2) {
		t.Errorf("expected 2, got %v", v)
	}

	// Change the preferences, then push them out.
	if err := tab.SetValueAny(6); err != nil {
		t.Fatalf("failed to set tab_size: %v", err)
	}
	wrapPref, _ := g.Get("word_wrap")
	wrapPref.ClearValue()
	autoSave, _ := g.Get("auto_save")
	autoSave.ClearValue()

	var out editorSettings
	if err := g.UpdateValuesTo(&out); err != nil {
		t.Fatalf("failed to update struct: %v", err)
	}
	if out.TabSize != 6 {
		t.Errorf("expected TabSize 6, got %d", out.TabSize)
	}
	if out.WordWrap != nil {
		t.Errorf("expected WordWrap nil, got %v", *out.WordWrap)
	}
	if out.Listen == nil || *out.Listen != addr {
		t.Errorf("expected Listen %s, got %v", addr, out.Listen)
	}
	if out.AutoSave != 30*time.Second {
		t.Errorf("expected default AutoSave 30s, got %s", out.AutoSave)
	}
	if out.Theme != "dark" {
		t.Errorf("expected Theme dark, got %q", out.Theme)
	}

	// Values still go through the pipeline.
	obj.Theme = "neon"
	err = g.UpdateValuesFrom(&obj)
	if !errors.Is(err, prefs.ErrValueNotAllowed) {
		t.Errorf("expected ErrValueNotAllowed, got %v", err)
	}

	if err := g.UpdateValuesTo(out); !errors.Is(err, prefs.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for non-pointer, got %v", err)
	}
	type other struct{ TabSize int32 }
	if err := g.UpdateValuesFrom(other{}); !errors.Is(err, prefs.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for wrong type, got %v", err)
	}
}

type level int

const (
	levelLow level = iota
	levelHigh
)

func (l level) String() string {
	if l == levelHigh {
		return "high"
	}
	return "low"
}

func TestBinderExtension(t *testing.T) {
	type job struct {
		Level   level
		Retries int `validator:"positive"`
	}

	b := prefs.NewBinder()
	_, err := b.Bind(job{Retries: 1}, prefs.BindOptions{})
	if !errors.Is(err, prefs.ErrInvalidArgument) {
		t.Fatalf("expected unknown validator to fail, got %v", err)
	}

	if err := b.RegisterValidator("positive", func(v any) (bool, error) { return v.(int) > 0, nil }); err != nil {
		t.Fatalf("failed to register validator: %v", err)
	}
	g, err := b.Bind(job{Retries: 1}, prefs.BindOptions{})
	if err != nil {
		t.Fatalf("failed to bind: %v", err)
	}
	if g.Contains("level") {
		t.Error("enum field should be skipped before registration")
	}

	prefs.RegisterEnum(b, levelLow, levelHigh)
	g, err = b.Bind(job{Level: levelHigh, Retries: 3}, prefs.BindOptions{})
	if err != nil {
		t.Fatalf("failed to bind: %v", err)
	}
	if diff := cmp.Diff([]string{"level", "retries"}, g.Names()); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}

	lvl, _ := g.Get("level")
	if lvl.Kind() != prefs.KindEnum {
		t.Errorf("expected enum kind, got %s", lvl.Kind())
	}
	if tok := lvl.EncodeValue(); tok.Text != "high" {
		t.Errorf("expected high, got %s", tok.Text)
	}

	retries, _ := g.Get("retries")
	if err := retries.SetValueAny(0); prefs.StepOf(err) != prefs.StepValidityCheck {
		t.Errorf("expected validity failure, got %v", err)
	}
}
