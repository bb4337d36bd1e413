package prefs_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanoprefs/prefs"
)

func TestBuilderRejectsInvalidName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := prefs.Int32(name).WithValue(1).Build()
		if !errors.Is(err, prefs.ErrInvalidName) {
			t.Errorf("name %q: expected ErrInvalidName, got %v", name, err)
		}
	}

	p, err := prefs.Int32("  padded  ").Build()
	if err != nil {
		t.Fatalf("failed to build preference: %v", err)
	}
	if p.Name() != "padded" {
		t.Errorf("expected trimmed name, got %q", p.Name())
	}
}

func TestBuilderStickyError(t *testing.T) {
	b := prefs.Int32("count").
		WithValidator(nil).
		WithPostProcessor(nil)

	err := b.Err()
	if err == nil {
		t.Fatal("expected recorded error")
	}
	if !strings.HasPrefix(err.Error(), "WithValidator:") {
		t.Errorf("expected first failing call to be named, got %q", err.Error())
	}
	if !errors.Is(err, prefs.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if _, buildErr := b.Build(); buildErr != err {
		t.Errorf("expected Build to return the recorded error, got %v", buildErr)
	}
}

func TestBuilderIsImmutable(t *testing.T) {
	base := prefs.Int32("level").WithAllowedValues(1, 2, 3)

	strict := base.AllowOnlyDefinedValues().WithValue(2)
	loose := base.WithValue(7)

	sp, err := strict.Build()
	if err != nil {
		t.Fatalf("failed to build strict preference: %v", err)
	}
	lp, err := loose.Build()
	if err != nil {
		t.Fatalf("failed to build loose preference: %v", err)
	}

	if !lp.AllowUndefinedValues() || sp.AllowUndefinedValues() {
		t.Error("builder copies must not share the undefined-values flag")
	}
	if v, _ := lp.Value(); v != 7 {
		t.Errorf("expected 7, got %d", v)
	}

	values := []int32{5, 6}
	b := prefs.Int32("x").WithAllowedValues(values...)
	values[0] = 99
	p := b.MustBuild()
	if diff := cmp.Diff([]int32{5, 6}, p.AllowedValues()); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilderDefaults(t *testing.T) {
	p, err := prefs.String("editor").WithValue("vim").WithValueAsDefault().Build()
	if err != nil {
		t.Fatalf("failed to build preference: %v", err)
	}
	if d, ok := p.DefaultValue(); !ok || d != "vim" {
		t.Errorf("expected default vim, got %q (%v)", d, ok)
	}

	p, err = prefs.String("editor").
		WithValue("vim").
		WithDefaultValue("nano").
		WithValueAsDefault().
		Build()
	if err != nil {
		t.Fatalf("failed to build preference: %v", err)
	}
	if d, _ := p.DefaultValue(); d != "nano" {
		t.Errorf("expected explicit default to win, got %q", d)
	}

	// Defaults go through the same pipeline as values.
	_, err = prefs.Int32("n").
		WithAllowedValues(1, 2).
		AllowOnlyDefinedValues().
		WithDefaultValue(3).
		Build()
	if prefs.StepOf(err) != prefs.StepValidityCheck {
		t.Errorf("expected validity check failure for default, got %v", err)
	}
}

func TestBuilderAllowedObjects(t *testing.T) {
	p, err := prefs.Int32("level").
		WithAllowedObjectsAndSort("3", 1, "nope", nil, 2.0, "0x2").
		Build()
	if err != nil {
		t.Fatalf("failed to build preference: %v", err)
	}
	if diff := cmp.Diff([]int32{1, 2, 3}, p.AllowedValues()); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilderNullableAllowedValues(t *testing.T) {
	a, b := "a", "b"
	p, err := prefs.String("letter").
		WithNullableAllowedValues(false, &b, nil, &a, &b).
		AllowOnlyDefinedValues().
		Build()
	if err != nil {
		t.Fatalf("failed to build preference: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "a"}, p.AllowedValues()); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}
	if p.AllowedValuesSorted() {
		t.Error("expected unsorted allow-list")
	}
}

type color int

const (
	red color = iota
	green
	blue
)

func (c color) String() string {
	return [...]string{"red", "green", "blue"}[c]
}

func TestEnumBuilder(t *testing.T) {
	p, err := prefs.Enum("color", red, green, blue).WithDefaultValue(green).Build()
	if err != nil {
		t.Fatalf("failed to build preference: %v", err)
	}
	if p.Kind() != prefs.KindEnum {
		t.Errorf("expected enum kind, got %s", p.Kind())
	}
	if p.TypeName() != "prefs_test.color" {
		t.Errorf("expected type name prefs_test.color, got %q", p.TypeName())
	}

	if err := p.DecodeValue(prefs.StringToken("BLUE")); err != nil {
		t.Fatalf("failed to decode enum: %v", err)
	}
	if v, _ := p.Value(); v != blue {
		t.Errorf("expected blue, got %v", v)
	}
	if diff := cmp.Diff(prefs.StringToken("blue"), p.EncodeValue()); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}

	err = p.SetValueAny("purple")
	if prefs.StepOf(err) != prefs.StepCasting {
		t.Errorf("expected casting failure, got %v", err)
	}
}
