package formats_test

import (
	"errors"
	"math"
	"testing"

	"github.com/arthur-debert/nanoprefs/formats"
	"github.com/arthur-debert/nanoprefs/prefs"
)

func TestValueRoundTrip(t *testing.T) {
	p := prefs.Int32("count").WithValue(5).MustBuild()

	data := formats.MarshalValue(p)
	if string(data) != "5" {
		t.Errorf("expected 5, got %s", data)
	}

	q := prefs.Int32("count").MustBuild()
	if err := formats.UnmarshalValue(q, data); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if v, _ := q.Value(); v != 5 {
		t.Errorf("expected 5, got %d", v)
	}
}

func TestUnmarshalValue(t *testing.T) {
	t.Run("hex string", func(t *testing.T) {
		p := prefs.Int32("mask").MustBuild()
		if err := formats.UnmarshalValue(p, []byte(`"0x1F"`)); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if v, _ := p.Value(); v != 31 {
			t.Errorf("expected 31, got %d", v)
		}
	})

	t.Run("infinity", func(t *testing.T) {
		p := prefs.Float64("limit").MustBuild()
		if err := formats.UnmarshalValue(p, []byte(`"-∞"`)); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if v, _ := p.Value(); !math.IsInf(v, -1) {
			t.Errorf("expected -Inf, got %v", v)
		}
		if got := string(formats.MarshalValue(p)); got != `"-∞"` {
			t.Errorf("expected \"-∞\", got %s", got)
		}
	})

	t.Run("null", func(t *testing.T) {
		p := prefs.String("s").WithValue("x").MustBuild()
		if err := formats.UnmarshalValue(p, []byte("null")); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if p.HasValue() {
			t.Error("expected value to be cleared")
		}
		if got := string(formats.MarshalValue(p)); got != "null" {
			t.Errorf("expected null, got %s", got)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		p := prefs.Int32("n").MustBuild()
		var perr *formats.ParseError
		if err := formats.UnmarshalValue(p, []byte("{")); !errors.As(err, &perr) {
			t.Errorf("expected ParseError, got %v", err)
		}
		if err := formats.UnmarshalValue(p, []byte("[1]")); !errors.As(err, &perr) {
			t.Errorf("expected ParseError for array, got %v", err)
		}
		if err := formats.UnmarshalValue(p, []byte(`"many"`)); prefs.StepOf(err) != prefs.StepParsing {
			t.Errorf("expected parsing failure, got %v", err)
		}
	})
}

func TestSetFromText(t *testing.T) {
	s := prefs.String("theme").MustBuild()
	if err := formats.SetFromText(s, "dark"); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if v, _ := s.Value(); v != "dark" {
		t.Errorf("expected dark, got %q", v)
	}

	n := prefs.Uint16("port").MustBuild()
	if err := formats.SetFromText(n, "8080"); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if v, _ := n.Value(); v != 8080 {
		t.Errorf("expected 8080, got %d", v)
	}

	if err := formats.SetFromText(n, "null"); err != nil {
		t.Fatalf("failed to clear: %v", err)
	}
	if n.HasValue() {
		t.Error("expected null to clear the value")
	}
}
