package prefs

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/arthur-debert/nanoprefs/internal/validation"
)

// BindOptions control how a struct is turned into a Group.
type BindOptions struct {
	// UseValuesAsDefault makes each field's current value its default when
	// no default tag is present.
	UseValuesAsDefault bool
	// PointerFieldsOnly binds only fields that can hold null (pointers and
	// byte slices). Plain value fields are skipped.
	PointerFieldsOnly bool
	// RequireTags binds only fields carrying a pref tag.
	RequireTags bool
}

// Binder derives Groups from structs. Each supported field type has a codec
// registered under its reflect.Type; fields of other types are skipped.
//
// Struct tags:
//
//	pref:"name,strict,sort"   name override ("-" skips the field); strict
//	                          rejects values outside values; sort sorts them
//	desc:"..."                description
//	default:"..."             default value, parsed like a text token
//	values:"a,b,c"            allowed values; unparsable entries are dropped
//	validator:"name"          validator registered with RegisterValidator
//
// Untagged exported fields are bound under their snake_case name.
type Binder struct {
	codecs     map[reflect.Type]fieldCodec
	validators map[string]func(v any) (bool, error)
}

// NewBinder creates a binder with every built-in kind registered.
func NewBinder() *Binder {
	b := &Binder{
		codecs:     make(map[reflect.Type]fieldCodec),
		validators: make(map[string]func(v any) (bool, error)),
	}
	Register(b, BoolType)
	Register(b, Int8Type)
	Register(b, Int16Type)
	Register(b, Int32Type)
	Register(b, Int64Type)
	Register(b, IntType)
	Register(b, Uint8Type)
	Register(b, Uint16Type)
	Register(b, Uint32Type)
	Register(b, Uint64Type)
	Register(b, UintType)
	Register(b, Float32Type)
	Register(b, Float64Type)
	Register(b, DecimalType)
	Register(b, StringType)
	Register(b, BytesType)
	Register(b, DurationType)
	Register(b, IPAddrType)
	return b
}

// DefaultBinder is used by GroupFrom.
var DefaultBinder = NewBinder()

// GroupFrom binds obj with DefaultBinder.
func GroupFrom(obj any, opts BindOptions) (*Group, error) {
	return DefaultBinder.Bind(obj, opts)
}

// Register makes fields of type T (and *T) bindable using vt.
func Register[T any](b *Binder, vt ValueType[T]) {
	b.codecs[reflect.TypeFor[T]()] = typedCodec[T]{vt: vt}
}

// RegisterEnum makes a named enum type bindable.
func RegisterEnum[E comparable](b *Binder, members ...E) {
	Register(b, EnumType(members...))
}

// RegisterValidator names a validator for use in validator tags.
func (b *Binder) RegisterValidator(name string, fn func(v any) (bool, error)) error {
	processed, err := ProcessName(name)
	if err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("%w: nil validator %q", ErrInvalidArgument, processed)
	}
	b.validators[processed] = fn
	return nil
}

// Supports reports whether fields of type t can be bound.
func (b *Binder) Supports(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	_, ok := b.codecs[t]
	return ok
}

// fieldMeta holds the parsed tags of one struct field.
type fieldMeta struct {
	fieldName   string
	prefName    string
	description string
	values      []string
	strict      bool
	sort        bool
	defaultTag  string
	hasDefault  bool
	validator   string
	tagged      bool
	skip        bool
}

func parseFieldMeta(field reflect.StructField) fieldMeta {
	meta := fieldMeta{fieldName: field.Name}

	if tag, ok := field.Tag.Lookup("pref"); ok {
		meta.tagged = true
		if strings.TrimSpace(tag) == "-" {
			meta.skip = true
			return meta
		}
		parts := strings.Split(tag, ",")
		meta.prefName = strings.TrimSpace(parts[0])
		for _, opt := range parts[1:] {
			switch strings.TrimSpace(opt) {
			case "strict":
				meta.strict = true
			case "sort":
				meta.sort = true
			}
		}
	}
	if meta.prefName == "" {
		meta.prefName = validation.ToSnakeCase(field.Name)
	}

	meta.description = field.Tag.Get("desc")
	meta.values = validation.SplitList(field.Tag.Get("values"))
	meta.defaultTag, meta.hasDefault = field.Tag.Lookup("default")
	meta.validator = strings.TrimSpace(field.Tag.Get("validator"))
	return meta
}

// Bind creates a Group with one preference per eligible field of obj, which
// must be a struct or a pointer to one. The group stays bound to the struct
// type for UpdateValuesFrom and UpdateValuesTo.
func (b *Binder) Bind(obj any, opts BindOptions) (*Group, error) {
	val, err := structValue(obj)
	if err != nil {
		return nil, err
	}
	typ := val.Type()

	g := NewGroup("")
	bind := &binding{typ: typ}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		meta := parseFieldMeta(field)
		if meta.skip || (opts.RequireTags && !meta.tagged) {
			continue
		}

		fieldType := field.Type
		pointer := fieldType.Kind() == reflect.Pointer
		if pointer {
			fieldType = fieldType.Elem()
		}
		codec, ok := b.codecs[fieldType]
		if !ok {
			continue
		}
		if opts.PointerFieldsOnly && !pointer && fieldType.Kind() != reflect.Slice {
			continue
		}

		var validator func(any) (bool, error)
		if meta.validator != "" {
			validator, ok = b.validators[meta.validator]
			if !ok {
				return nil, fmt.Errorf("%w: field %s references unknown validator %q", ErrInvalidArgument, field.Name, meta.validator)
			}
		}

		p, err := codec.build(meta, val.Field(i), pointer, opts, validator)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		if err := g.Add(p); err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}

		bind.fields = append(bind.fields, boundField{
			index:     i,
			fieldName: field.Name,
			prefName:  p.Name(),
			pointer:   pointer,
			codec:     codec,
		})
	}

	g.binding = bind
	return g, nil
}

func structValue(obj any) (reflect.Value, error) {
	val := reflect.ValueOf(obj)
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: nil struct pointer", ErrInvalidArgument)
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w: expected struct, got %s", ErrInvalidArgument, val.Kind())
	}
	return val, nil
}

type binding struct {
	typ    reflect.Type
	fields []boundField
}

type boundField struct {
	index     int
	fieldName string
	prefName  string
	pointer   bool
	codec     fieldCodec
}

func (b *binding) checkType(val reflect.Value) error {
	if val.Type() != b.typ {
		return fmt.Errorf("%w: group is bound to %s, got %s", ErrInvalidArgument, b.typ, val.Type())
	}
	return nil
}

func (b *binding) readFrom(g *Group, obj any) error {
	val, err := structValue(obj)
	if err != nil {
		return err
	}
	if err := b.checkType(val); err != nil {
		return err
	}

	var errs []error
	for _, f := range b.fields {
		p, ok := g.TryGet(f.prefName)
		if !ok {
			errs = append(errs, newSetValueError(f.prefName, StepRetrievingPreference, nil, ErrNotFound))
			continue
		}
		if err := f.codec.read(p, val.Field(f.index), f.pointer); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *binding) writeTo(g *Group, obj any) error {
	ptr := reflect.ValueOf(obj)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return fmt.Errorf("%w: UpdateValuesTo needs a non-nil struct pointer", ErrInvalidArgument)
	}
	val := ptr.Elem()
	if err := b.checkType(val); err != nil {
		return err
	}

	var errs []error
	for _, f := range b.fields {
		p, ok := g.TryGet(f.prefName)
		if !ok {
			errs = append(errs, newSetValueError(f.prefName, StepRetrievingPreference, nil, ErrNotFound))
			continue
		}
		if err := f.codec.write(p, val.Field(f.index), f.pointer); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fieldCodec moves values between a struct field and a preference of the
// matching type.
type fieldCodec interface {
	build(meta fieldMeta, fv reflect.Value, pointer bool, opts BindOptions, validator func(any) (bool, error)) (Preference, error)
	read(p Preference, fv reflect.Value, pointer bool) error
	write(p Preference, fv reflect.Value, pointer bool) error
}

type typedCodec[T any] struct {
	vt ValueType[T]
}

func (c typedCodec[T]) fieldValue(fv reflect.Value, pointer bool) (T, bool) {
	var zero T
	if pointer {
		if fv.IsNil() {
			return zero, false
		}
		return fv.Elem().Interface().(T), true
	}
	if fv.Kind() == reflect.Slice && fv.IsNil() {
		return zero, false
	}
	return fv.Interface().(T), true
}

func (c typedCodec[T]) build(meta fieldMeta, fv reflect.Value, pointer bool, opts BindOptions, validator func(any) (bool, error)) (Preference, error) {
	b := NewBuilder(c.vt, meta.prefName).
		WithDescription(meta.description).
		WithAllowUndefinedValues(!meta.strict)

	if len(meta.values) > 0 {
		objects := make([]any, len(meta.values))
		for i, v := range meta.values {
			objects[i] = v
		}
		if meta.sort {
			b = b.WithAllowedObjectsAndSort(objects...)
		} else {
			b = b.WithAllowedObjects(objects...)
		}
	}

	if current, ok := c.fieldValue(fv, pointer); ok {
		b = b.WithValue(current)
	}

	switch {
	case meta.hasDefault:
		d, err := c.vt.Coerce(meta.defaultTag)
		if err != nil {
			return nil, newSetValueError(meta.prefName, StepConverting, meta.defaultTag, err)
		}
		b = b.WithDefaultValue(d)
	case opts.UseValuesAsDefault:
		b = b.WithValueAsDefault()
	}

	if validator != nil {
		b = b.WithValidator(func(v T) (bool, error) { return validator(v) })
	}

	p, err := b.Build()
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c typedCodec[T]) typed(p Preference) (*TypedPreference[T], error) {
	typed, ok := p.(*TypedPreference[T])
	if !ok {
		return nil, newSetValueError(p.Name(), StepCasting, nil,
			fmt.Errorf("%w: preference is %s, field needs %s", ErrKindMismatch, p.TypeName(), c.vt.name))
	}
	return typed, nil
}

func (c typedCodec[T]) read(p Preference, fv reflect.Value, pointer bool) error {
	typed, err := c.typed(p)
	if err != nil {
		return err
	}
	v, ok := c.fieldValue(fv, pointer)
	if !ok {
		typed.ClearValue()
		return nil
	}
	return typed.SetValue(v)
}

func (c typedCodec[T]) write(p Preference, fv reflect.Value, pointer bool) error {
	typed, err := c.typed(p)
	if err != nil {
		return err
	}
	v, ok := typed.EffectiveValue()
	if !ok {
		if pointer || fv.Kind() == reflect.Slice {
			fv.Set(reflect.Zero(fv.Type()))
		}
		return nil
	}
	if pointer {
		ptr := reflect.New(fv.Type().Elem())
		ptr.Elem().Set(reflect.ValueOf(v))
		fv.Set(ptr)
		return nil
	}
	fv.Set(reflect.ValueOf(v))
	return nil
}

