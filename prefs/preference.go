package prefs

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/nanoprefs/internal/validation"
)

// Preference is the type-erased view of a TypedPreference. Groups, stores
// and formats work through this interface; callers that know the type use
// *TypedPreference[T] directly.
type Preference interface {
	// Name returns the canonical name.
	Name() string
	// Description returns the trimmed description, possibly empty.
	Description() string
	// Kind returns the value kind.
	Kind() ValueKind
	// TypeName returns the value type name ("int32", "main.Color").
	TypeName() string
	// AllowUndefinedValues reports whether values outside AllowedValues are
	// accepted (after the validity check).
	AllowUndefinedValues() bool

	HasValue() bool
	HasDefaultValue() bool
	ValueAny() (any, bool)
	DefaultValueAny() (any, bool)
	EffectiveValueAny() (any, bool)
	AllowedValuesAny() []any

	// SetValueAny coerces v to the preference type and assigns it. A nil v
	// clears the value.
	SetValueAny(v any) error
	// SetDefaultValueAny is SetValueAny for the default value.
	SetDefaultValueAny(v any) error
	// ClearValue sets the value to null; no pipeline stage runs.
	ClearValue()
	// ClearDefaultValue sets the default value to null.
	ClearDefaultValue()

	EncodeValue() Token
	EncodeDefaultValue() Token
	EncodeEffectiveValue() Token
	EncodeAllowedValues() []Token

	// DecodeValue parses tok and assigns it; a null token clears the value.
	DecodeValue(tok Token) error
	// DecodeDefaultValue is DecodeValue for the default value.
	DecodeDefaultValue(tok Token) error
}

// TypedPreference is a named, validated setting of type T.
//
// Value and DefaultValue are both nullable. A null Value means "unset" only
// when DefaultValue is non-null, in which case EffectiveValue falls back to
// the default; when both are null there is simply no value in effect.
// Every assignment of a non-null value runs the pipeline: Pre, then the
// allow-list check (members skip IsValid), then IsValid, then Post. Null
// assignments never run any stage.
//
// A TypedPreference is not safe for concurrent mutation.
type TypedPreference[T any] struct {
	name           string
	description    string
	vt             ValueType[T]
	value          *T
	defaultValue   *T
	allowed        *AllowedSet[T]
	allowUndefined bool
	processor      ValidityProcessor[T]
	attached       bool
}

var _ Preference = (*TypedPreference[int32])(nil)

// ownedPreference is implemented by preferences that track their container.
// Other Preference implementations are not tracked.
type ownedPreference interface {
	isAttached() bool
	setAttached(attached bool)
}

func (p *TypedPreference[T]) isAttached() bool          { return p.attached }
func (p *TypedPreference[T]) setAttached(attached bool) { p.attached = attached }

func preferenceAttached(p Preference) bool {
	o, ok := p.(ownedPreference)
	return ok && o.isAttached()
}

func markPreference(p Preference, attached bool) {
	if o, ok := p.(ownedPreference); ok {
		o.setAttached(attached)
	}
}

func newTypedPreference[T any](name, description string, vt ValueType[T], allowed *AllowedSet[T], allowUndefined bool, processor ValidityProcessor[T]) (*TypedPreference[T], error) {
	processed, err := ProcessName(name)
	if err != nil {
		return nil, err
	}
	if vt.kind == KindInvalid {
		return nil, fmt.Errorf("%w: preference %q has no value type", ErrInvalidArgument, processed)
	}
	if allowed.Len() == 0 && !allowUndefined {
		return nil, fmt.Errorf("%w: preference %q has no allowed values but disallows undefined values", ErrInvalidArgument, processed)
	}

	return &TypedPreference[T]{
		name:           processed,
		description:    validation.ProcessDescription(description),
		vt:             vt,
		allowed:        allowed,
		allowUndefined: allowUndefined,
		processor:      processor,
	}, nil
}

// Name returns the canonical name.
func (p *TypedPreference[T]) Name() string { return p.name }

// Description returns the description.
func (p *TypedPreference[T]) Description() string { return p.description }

// Kind returns the value kind.
func (p *TypedPreference[T]) Kind() ValueKind { return p.vt.kind }

// TypeName returns the value type name.
func (p *TypedPreference[T]) TypeName() string { return p.vt.name }

// ValueType returns the value type descriptor.
func (p *TypedPreference[T]) ValueType() ValueType[T] { return p.vt }

// Processor returns the validity processor.
func (p *TypedPreference[T]) Processor() ValidityProcessor[T] { return p.processor }

// AllowUndefinedValues reports whether values outside the allow-list pass.
func (p *TypedPreference[T]) AllowUndefinedValues() bool { return p.allowUndefined }

// AllowedValues returns a copy of the allowed values, nil when there is no
// allow-list.
func (p *TypedPreference[T]) AllowedValues() []T { return p.allowed.Values() }

// AllowedValuesSorted reports whether the allowed values are kept sorted.
func (p *TypedPreference[T]) AllowedValuesSorted() bool { return p.allowed.Sorted() }

// IsAllowed reports whether v is an allow-list member.
func (p *TypedPreference[T]) IsAllowed(v T) bool { return p.allowed.Contains(v) }

// Value returns the current value and whether it is set.
func (p *TypedPreference[T]) Value() (T, bool) { return p.get(p.value) }

// DefaultValue returns the default value and whether it is set.
func (p *TypedPreference[T]) DefaultValue() (T, bool) { return p.get(p.defaultValue) }

// EffectiveValue returns Value when set, otherwise DefaultValue.
func (p *TypedPreference[T]) EffectiveValue() (T, bool) {
	if p.value != nil {
		return p.get(p.value)
	}
	return p.get(p.defaultValue)
}

func (p *TypedPreference[T]) get(ptr *T) (T, bool) {
	if ptr == nil {
		var zero T
		return zero, false
	}
	return p.vt.Clone(*ptr), true
}

// HasValue reports whether Value is non-null.
func (p *TypedPreference[T]) HasValue() bool { return p.value != nil }

// HasDefaultValue reports whether DefaultValue is non-null.
func (p *TypedPreference[T]) HasDefaultValue() bool { return p.defaultValue != nil }

// SetValue runs v through the pipeline and stores the result.
func (p *TypedPreference[T]) SetValue(v T) error { return p.assign(&p.value, &v) }

// SetValuePtr assigns a nullable value; nil clears it.
func (p *TypedPreference[T]) SetValuePtr(v *T) error { return p.assign(&p.value, v) }

// SetDefaultValue runs v through the pipeline and stores it as the default.
func (p *TypedPreference[T]) SetDefaultValue(v T) error { return p.assign(&p.defaultValue, &v) }

// SetDefaultValuePtr assigns a nullable default; nil clears it.
func (p *TypedPreference[T]) SetDefaultValuePtr(v *T) error { return p.assign(&p.defaultValue, v) }

// ClearValue sets Value to null.
func (p *TypedPreference[T]) ClearValue() { p.value = nil }

// ClearDefaultValue sets DefaultValue to null.
func (p *TypedPreference[T]) ClearDefaultValue() { p.defaultValue = nil }

// Check runs v through the pipeline without storing it and returns the value
// that would be stored.
func (p *TypedPreference[T]) Check(v T) (T, error) {
	if _, err := ProcessName(p.name); err != nil {
		return v, newSetValueError(p.name, StepProcessingName, v, err)
	}
	return p.process(v)
}

func (p *TypedPreference[T]) assign(target **T, v *T) error {
	if _, err := ProcessName(p.name); err != nil {
		return newSetValueError(p.name, StepProcessingName, nil, err)
	}

	if v == nil {
		*target = nil
		return nil
	}

	out, err := p.process(*v)
	if err != nil {
		return err
	}

	stored := p.vt.Clone(out)
	*target = &stored
	return nil
}

// process is the fixed-order pipeline. Allow-list members skip IsValid;
// non-members fail only when undefined values are disallowed.
func (p *TypedPreference[T]) process(v T) (T, error) {
	res := p.processor.PreProcess(v)
	if !res.Valid {
		return v, newSetValueError(p.name, StepPreProcessing, v, res.Err)
	}
	candidate := res.Value

	hasAllowList := p.allowed.Len() > 0
	if !hasAllowList || !p.allowed.Contains(candidate) {
		if hasAllowList && !p.allowUndefined {
			return v, newSetValueError(p.name, StepValidityCheck, candidate,
				fmt.Errorf("%w: %s is not one of %s", ErrValueNotAllowed, p.vt.Format(candidate), p.formatAllowed()))
		}
		res = p.processor.Validate(candidate)
		if !res.Valid {
			return v, newSetValueError(p.name, StepValidityCheck, candidate, res.Err)
		}
	}

	res = p.processor.PostProcess(candidate)
	if !res.Valid {
		return v, newSetValueError(p.name, StepPostProcessing, candidate, res.Err)
	}
	return res.Value, nil
}

func (p *TypedPreference[T]) formatAllowed() string {
	values := p.allowed.Values()
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = p.vt.Format(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ValueAny returns the value as any.
func (p *TypedPreference[T]) ValueAny() (any, bool) { return anyOf(p.Value()) }

// DefaultValueAny returns the default value as any.
func (p *TypedPreference[T]) DefaultValueAny() (any, bool) { return anyOf(p.DefaultValue()) }

// EffectiveValueAny returns the effective value as any.
func (p *TypedPreference[T]) EffectiveValueAny() (any, bool) { return anyOf(p.EffectiveValue()) }

func anyOf[T any](v T, ok bool) (any, bool) {
	if !ok {
		return nil, false
	}
	return v, true
}

// AllowedValuesAny returns the allowed values as []any.
func (p *TypedPreference[T]) AllowedValuesAny() []any {
	values := p.allowed.Values()
	if values == nil {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// SetValueAny coerces v and assigns it. Coercion failures are casting failures.
func (p *TypedPreference[T]) SetValueAny(v any) error {
	return p.assignAny(&p.value, v)
}

// SetDefaultValueAny coerces v and assigns it as the default.
func (p *TypedPreference[T]) SetDefaultValueAny(v any) error {
	return p.assignAny(&p.defaultValue, v)
}

func (p *TypedPreference[T]) assignAny(target **T, v any) error {
	if v == nil {
		return p.assign(target, nil)
	}
	if ptr, ok := v.(*T); ok && ptr == nil {
		return p.assign(target, nil)
	}
	typed, err := p.vt.Coerce(v)
	if err != nil {
		return newSetValueError(p.name, StepCasting, v, err)
	}
	return p.assign(target, &typed)
}

// EncodeValue returns the value as a token, null when unset.
func (p *TypedPreference[T]) EncodeValue() Token { return p.encode(p.value) }

// EncodeDefaultValue returns the default value as a token.
func (p *TypedPreference[T]) EncodeDefaultValue() Token { return p.encode(p.defaultValue) }

// EncodeEffectiveValue returns the effective value as a token.
func (p *TypedPreference[T]) EncodeEffectiveValue() Token {
	if p.value != nil {
		return p.encode(p.value)
	}
	return p.encode(p.defaultValue)
}

func (p *TypedPreference[T]) encode(ptr *T) Token {
	if ptr == nil {
		return NullToken
	}
	return p.vt.Encode(*ptr)
}

// EncodeAllowedValues returns the allowed values as tokens.
func (p *TypedPreference[T]) EncodeAllowedValues() []Token {
	values := p.allowed.Values()
	if values == nil {
		return nil
	}
	out := make([]Token, len(values))
	for i, v := range values {
		out[i] = p.vt.Encode(v)
	}
	return out
}

// DecodeValue parses tok and assigns it. Parse failures are parsing failures.
func (p *TypedPreference[T]) DecodeValue(tok Token) error {
	return p.decodeInto(&p.value, tok)
}

// DecodeDefaultValue parses tok and assigns it as the default.
func (p *TypedPreference[T]) DecodeDefaultValue(tok Token) error {
	return p.decodeInto(&p.defaultValue, tok)
}

func (p *TypedPreference[T]) decodeInto(target **T, tok Token) error {
	v, err := p.vt.Decode(tok)
	if err != nil {
		return newSetValueError(p.name, StepParsing, tok.String(), err)
	}
	return p.assign(target, v)
}

// String renders "name=value" using the effective value.
func (p *TypedPreference[T]) String() string {
	v, ok := p.EffectiveValue()
	if !ok {
		return p.name + "=<null>"
	}
	return p.name + "=" + p.vt.Format(v)
}
