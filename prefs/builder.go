package prefs

import (
	"fmt"
	"net/netip"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Builder assembles a TypedPreference. Builders are values: every With*
// method returns a new builder and leaves the receiver untouched, so a
// partially configured builder can be reused as a template.
//
// An invalid argument is recorded by the call that received it; later calls
// keep the first error and Build returns it.
type Builder[T any] struct {
	name           string
	description    string
	vt             ValueType[T]
	value          *T
	defaultValue   *T
	valueAsDefault bool
	allowed        []T
	sortAllowed    bool
	allowUndefined bool
	processor      ValidityProcessor[T]
	err            error
}

// NewBuilder starts a builder for a preference named name.
func NewBuilder[T any](vt ValueType[T], name string) Builder[T] {
	b := Builder[T]{vt: vt, allowUndefined: true}
	processed, err := ProcessName(name)
	if err != nil {
		b.err = fmt.Errorf("create: %w", err)
		return b
	}
	b.name = processed
	return b
}

// Convenience constructors for the built-in kinds.

func Bool(name string) Builder[bool] { return NewBuilder(BoolType, name) }
func Int8(name string) Builder[int8] { return NewBuilder(Int8Type, name) }
func Int16(name string) Builder[int16] { return NewBuilder(Int16Type, name) }
func Int32(name string) Builder[int32] { return NewBuilder(Int32Type, name) }
func Int64(name string) Builder[int64] { return NewBuilder(Int64Type, name) }
func Uint8(name string) Builder[uint8] { return NewBuilder(Uint8Type, name) }
func Uint16(name string) Builder[uint16] { return NewBuilder(Uint16Type, name) }
func Uint32(name string) Builder[uint32] { return NewBuilder(Uint32Type, name) }
func Uint64(name string) Builder[uint64] { return NewBuilder(Uint64Type, name) }
func Float32(name string) Builder[float32] { return NewBuilder(Float32Type, name) }
func Float64(name string) Builder[float64] { return NewBuilder(Float64Type, name) }
func Decimal(name string) Builder[decimal.Decimal] { return NewBuilder(DecimalType, name) }
func String(name string) Builder[string] { return NewBuilder(StringType, name) }
func Bytes(name string) Builder[[]byte] { return NewBuilder(BytesType, name) }
func Duration(name string) Builder[time.Duration] { return NewBuilder(DurationType, name) }
func IPAddr(name string) Builder[netip.Addr] { return NewBuilder(IPAddrType, name) }
func Enum[E comparable](name string, members ...E) Builder[E] {
	return NewBuilder(EnumType(members...), name)
}

func (b Builder[T]) fail(call string, err error) Builder[T] {
	if b.err == nil {
		b.err = fmt.Errorf("%s: %w", call, err)
	}
	return b
}

// Err returns the first recorded error.
func (b Builder[T]) Err() error { return b.err }

// WithDescription sets the description.
func (b Builder[T]) WithDescription(description string) Builder[T] {
	b.description = description
	return b
}

// WithValue sets the initial value.
func (b Builder[T]) WithValue(v T) Builder[T] {
	v = b.vt.Clone(v)
	b.value = &v
	return b
}

// WithValuePtr sets a nullable initial value.
func (b Builder[T]) WithValuePtr(v *T) Builder[T] {
	if v == nil {
		b.value = nil
		return b
	}
	return b.WithValue(*v)
}

// WithDefaultValue sets the default value.
func (b Builder[T]) WithDefaultValue(v T) Builder[T] {
	v = b.vt.Clone(v)
	b.defaultValue = &v
	return b
}

// WithDefaultValuePtr sets a nullable default value.
func (b Builder[T]) WithDefaultValuePtr(v *T) Builder[T] {
	if v == nil {
		b.defaultValue = nil
		return b
	}
	return b.WithDefaultValue(*v)
}

// WithValueAsDefault uses the initial value as the default when no explicit
// default is set.
func (b Builder[T]) WithValueAsDefault() Builder[T] {
	b.valueAsDefault = true
	return b
}

// WithAllowedValues sets the allow-list, keeping first-seen order.
func (b Builder[T]) WithAllowedValues(values ...T) Builder[T] {
	b.allowed = slices.Clone(values)
	b.sortAllowed = false
	return b
}

// WithAllowedValuesAndSort sets the allow-list, sorted by value.
func (b Builder[T]) WithAllowedValuesAndSort(values ...T) Builder[T] {
	b = b.WithAllowedValues(values...)
	b.sortAllowed = true
	return b
}

// WithNullableAllowedValues sets the allow-list from nullable values; nil
// entries are dropped.
func (b Builder[T]) WithNullableAllowedValues(sort bool, values ...*T) Builder[T] {
	b.allowed = nil
	for _, v := range values {
		if v != nil {
			b.allowed = append(b.allowed, *v)
		}
	}
	b.sortAllowed = sort
	return b
}

// WithAllowedObjects sets the allow-list from untyped values. Elements that
// can't be converted to T are skipped without error.
func (b Builder[T]) WithAllowedObjects(values ...any) Builder[T] {
	b.allowed = coerceAll(b.vt, values)
	b.sortAllowed = false
	return b
}

// WithAllowedObjectsAndSort is WithAllowedObjects with a sorted allow-list.
func (b Builder[T]) WithAllowedObjectsAndSort(values ...any) Builder[T] {
	b = b.WithAllowedObjects(values...)
	b.sortAllowed = true
	return b
}

func coerceAll[T any](vt ValueType[T], values []any) []T {
	var out []T
	for _, v := range values {
		if typed, err := vt.Coerce(v); err == nil {
			out = append(out, typed)
		}
	}
	return out
}

// AllowUndefinedValues accepts values outside the allow-list once they pass
// the validity check. This is the default.
func (b Builder[T]) AllowUndefinedValues() Builder[T] {
	b.allowUndefined = true
	return b
}

// AllowOnlyDefinedValues rejects values outside the allow-list.
func (b Builder[T]) AllowOnlyDefinedValues() Builder[T] {
	b.allowUndefined = false
	return b
}

// WithAllowUndefinedValues sets the flag explicitly.
func (b Builder[T]) WithAllowUndefinedValues(allow bool) Builder[T] {
	b.allowUndefined = allow
	return b
}

// WithValidityProcessor replaces all three stages.
func (b Builder[T]) WithValidityProcessor(p ValidityProcessor[T]) Builder[T] {
	b.processor = p
	return b
}

// WithPreProcessor sets the Pre stage.
func (b Builder[T]) WithPreProcessor(fn func(T) (T, error)) Builder[T] {
	if fn == nil {
		return b.fail("WithPreProcessor", fmt.Errorf("%w: nil function", ErrInvalidArgument))
	}
	b.processor.Pre = fn
	return b
}

// WithValidator sets the IsValid stage.
func (b Builder[T]) WithValidator(fn func(T) (bool, error)) Builder[T] {
	if fn == nil {
		return b.fail("WithValidator", fmt.Errorf("%w: nil function", ErrInvalidArgument))
	}
	b.processor.IsValid = fn
	return b
}

// WithPostProcessor sets the Post stage.
func (b Builder[T]) WithPostProcessor(fn func(T) (T, error)) Builder[T] {
	if fn == nil {
		return b.fail("WithPostProcessor", fmt.Errorf("%w: nil function", ErrInvalidArgument))
	}
	b.processor.Post = fn
	return b
}

// Build creates the preference. The default value is assigned before the
// value, both through the pipeline.
func (b Builder[T]) Build() (*TypedPreference[T], error) {
	if b.err != nil {
		return nil, b.err
	}

	allowed := NewAllowedSet(b.vt, b.sortAllowed, b.allowed...)
	p, err := newTypedPreference(b.name, b.description, b.vt, allowed, b.allowUndefined, b.processor)
	if err != nil {
		return nil, err
	}

	defaultValue := b.defaultValue
	if defaultValue == nil && b.valueAsDefault {
		defaultValue = b.value
	}
	if err := p.SetDefaultValuePtr(defaultValue); err != nil {
		return nil, err
	}
	if err := p.SetValuePtr(b.value); err != nil {
		return nil, err
	}
	return p, nil
}

// MustBuild is Build for package-level declarations; it panics on error.
func (b Builder[T]) MustBuild() *TypedPreference[T] {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}
