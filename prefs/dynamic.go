package prefs

import (
	"fmt"
)

// Spec describes a preference whose kind is only known at run time, as when
// it comes from a schema document. Values are converted to the kind's Go
// type; conversion failures are reported as converting failures.
type Spec struct {
	Description string
	// Value and DefaultValue are nil when unset.
	Value        any
	DefaultValue any
	// ValueAsDefault uses Value as the default when DefaultValue is nil.
	ValueAsDefault bool
	// Allowed values that can't be converted are skipped.
	Allowed []any
	Sort    bool
	// AllowOnlyDefined rejects values outside Allowed.
	AllowOnlyDefined bool
	// Validator receives the typed value boxed in any.
	Validator func(v any) (bool, error)
	// Members lists the names of a KindEnum preference.
	Members []string
}

type factory func(name string, s Spec) (Preference, error)

var factories = map[ValueKind]factory{
	KindBool:     func(n string, s Spec) (Preference, error) { return buildDynamic(BoolType, n, s) },
	KindInt8:     func(n string, s Spec) (Preference, error) { return buildDynamic(Int8Type, n, s) },
	KindInt16:    func(n string, s Spec) (Preference, error) { return buildDynamic(Int16Type, n, s) },
	KindInt32:    func(n string, s Spec) (Preference, error) { return buildDynamic(Int32Type, n, s) },
	KindInt64:    func(n string, s Spec) (Preference, error) { return buildDynamic(Int64Type, n, s) },
	KindUint8:    func(n string, s Spec) (Preference, error) { return buildDynamic(Uint8Type, n, s) },
	KindUint16:   func(n string, s Spec) (Preference, error) { return buildDynamic(Uint16Type, n, s) },
	KindUint32:   func(n string, s Spec) (Preference, error) { return buildDynamic(Uint32Type, n, s) },
	KindUint64:   func(n string, s Spec) (Preference, error) { return buildDynamic(Uint64Type, n, s) },
	KindFloat32:  func(n string, s Spec) (Preference, error) { return buildDynamic(Float32Type, n, s) },
	KindFloat64:  func(n string, s Spec) (Preference, error) { return buildDynamic(Float64Type, n, s) },
	KindDecimal:  func(n string, s Spec) (Preference, error) { return buildDynamic(DecimalType, n, s) },
	KindString:   func(n string, s Spec) (Preference, error) { return buildDynamic(StringType, n, s) },
	KindBytes:    func(n string, s Spec) (Preference, error) { return buildDynamic(BytesType, n, s) },
	KindDuration: func(n string, s Spec) (Preference, error) { return buildDynamic(DurationType, n, s) },
	KindIPAddr:   func(n string, s Spec) (Preference, error) { return buildDynamic(IPAddrType, n, s) },
	KindEnum: func(n string, s Spec) (Preference, error) {
		if len(s.Members) == 0 {
			return nil, fmt.Errorf("%w: enum preference %q has no members", ErrInvalidArgument, n)
		}
		vt := EnumType(s.Members...)
		vt.name = "enum"
		return buildDynamic(vt, n, s)
	},
}

// Build creates a preference of the given kind.
func Build(kind ValueKind, name string, s Spec) (Preference, error) {
	f, ok := factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: kind %s", ErrUnsupportedType, kind)
	}
	return f(name, s)
}

func buildDynamic[T any](vt ValueType[T], name string, s Spec) (Preference, error) {
	b := NewBuilder(vt, name).
		WithDescription(s.Description).
		WithAllowUndefinedValues(!s.AllowOnlyDefined)

	if len(s.Allowed) > 0 {
		if s.Sort {
			b = b.WithAllowedObjectsAndSort(s.Allowed...)
		} else {
			b = b.WithAllowedObjects(s.Allowed...)
		}
	}

	if s.Value != nil {
		v, err := vt.Coerce(s.Value)
		if err != nil {
			return nil, newSetValueError(name, StepConverting, s.Value, err)
		}
		b = b.WithValue(v)
	}
	if s.DefaultValue != nil {
		v, err := vt.Coerce(s.DefaultValue)
		if err != nil {
			return nil, newSetValueError(name, StepConverting, s.DefaultValue, err)
		}
		b = b.WithDefaultValue(v)
	}
	if s.ValueAsDefault {
		b = b.WithValueAsDefault()
	}
	if s.Validator != nil {
		validator := s.Validator
		b = b.WithValidator(func(v T) (bool, error) { return validator(v) })
	}

	p, err := b.Build()
	if err != nil {
		return nil, err
	}
	return p, nil
}
