package prefs_test

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanoprefs/prefs"
)

func TestBuildByKind(t *testing.T) {
	tests := []struct {
		kind  prefs.ValueKind
		spec  prefs.Spec
		want  any
		wantT string
	}{
		{kind: prefs.KindBool, spec: prefs.Spec{Value: "true"}, want: true, wantT: "bool"},
		{kind: prefs.KindInt8, spec: prefs.Spec{Value: -8}, want: int8(-8), wantT: "int8"},
		{kind: prefs.KindUint16, spec: prefs.Spec{Value: "0xFF"}, want: uint16(255), wantT: "uint16"},
		{kind: prefs.KindFloat64, spec: prefs.Spec{Value: "2.5"}, want: 2.5, wantT: "float64"},
		{kind: prefs.KindString, spec: prefs.Spec{Value: "hi"}, want: "hi", wantT: "string"},
		{kind: prefs.KindDuration, spec: prefs.Spec{Value: "1h30m"}, want: 90 * time.Minute, wantT: "duration"},
		{kind: prefs.KindIPAddr, spec: prefs.Spec{Value: "10.0.0.1"}, want: netip.MustParseAddr("10.0.0.1"), wantT: "ipaddr"},
		{kind: prefs.KindEnum, spec: prefs.Spec{Value: "Medium", Members: []string{"low", "medium", "high"}}, want: "medium", wantT: "enum"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			p, err := prefs.Build(tt.kind, "setting", tt.spec)
			if err != nil {
				t.Fatalf("failed to build: %v", err)
			}
			if p.Kind() != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, p.Kind())
			}
			if p.TypeName() != tt.wantT {
				t.Errorf("expected type name %s, got %s", tt.wantT, p.TypeName())
			}
			got, ok := p.ValueAny()
			if !ok {
				t.Fatal("expected a value")
			}
			if diff := cmp.Diff(tt.want, got, cmp.Comparer(func(a, b netip.Addr) bool { return a == b })); diff != "" {
				t.Errorf("Mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildConversionFailure(t *testing.T) {
	_, err := prefs.Build(prefs.KindInt32, "port", prefs.Spec{DefaultValue: "many"})
	if prefs.StepOf(err) != prefs.StepConverting {
		t.Errorf("expected converting failure, got %v", err)
	}

	_, err = prefs.Build(prefs.KindEnum, "level", prefs.Spec{})
	if !errors.Is(err, prefs.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for memberless enum, got %v", err)
	}

	_, err = prefs.Build(prefs.KindInvalid, "x", prefs.Spec{})
	if !errors.Is(err, prefs.ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestBuildAppliesSpec(t *testing.T) {
	p, err := prefs.Build(prefs.KindInt32, "level", prefs.Spec{
		Description:      " Verbosity ",
		Allowed:          []any{3, "1", 2, "bogus"},
		Sort:             true,
		AllowOnlyDefined: true,
		DefaultValue:     2,
	})
	if err != nil {
		t.Fatalf("failed to build: %v", err)
	}
	if p.Description() != "Verbosity" {
		t.Errorf("expected trimmed description, got %q", p.Description())
	}
	if diff := cmp.Diff([]any{int32(1), int32(2), int32(3)}, p.AllowedValuesAny()); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}
	if err := p.SetValueAny(5); !errors.Is(err, prefs.ErrValueNotAllowed) {
		t.Errorf("expected ErrValueNotAllowed, got %v", err)
	}

	called := false
	p, err = prefs.Build(prefs.KindString, "name", prefs.Spec{
		Validator: func(v any) (bool, error) {
			called = true
			return v.(string) != "root", nil
		},
	})
	if err != nil {
		t.Fatalf("failed to build: %v", err)
	}
	if err := p.SetValueAny("root"); prefs.StepOf(err) != prefs.StepValidityCheck {
		t.Errorf("expected validity failure, got %v", err)
	}
	if !called {
		t.Error("expected validator to run")
	}
}
