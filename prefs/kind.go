package prefs

import (
	"fmt"
	"strings"
)

// ValueKind identifies the primitive type held by a preference.
type ValueKind uint8

const (
	// KindInvalid is the zero value and never describes a live preference.
	KindInvalid ValueKind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindDecimal
	KindString
	KindBytes
	KindDuration
	KindIPAddr
	KindEnum
)

var kindNames = map[ValueKind]string{
	KindBool:     "bool",
	KindInt8:     "int8",
	KindInt16:    "int16",
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindUint8:    "uint8",
	KindUint16:   "uint16",
	KindUint32:   "uint32",
	KindUint64:   "uint64",
	KindFloat32:  "float32",
	KindFloat64:  "float64",
	KindDecimal:  "decimal",
	KindString:   "string",
	KindBytes:    "bytes",
	KindDuration: "duration",
	KindIPAddr:   "ipaddr",
	KindEnum:     "enum",
}

// String returns the kind's canonical name.
func (k ValueKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// ParseKind resolves a kind name. A few common aliases are accepted.
func ParseKind(name string) (ValueKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bool", "boolean":
		return KindBool, nil
	case "int8", "sbyte":
		return KindInt8, nil
	case "int16", "short":
		return KindInt16, nil
	case "int32", "int", "integer":
		return KindInt32, nil
	case "int64", "long":
		return KindInt64, nil
	case "uint8", "byte":
		return KindUint8, nil
	case "uint16", "ushort":
		return KindUint16, nil
	case "uint32", "uint":
		return KindUint32, nil
	case "uint64", "ulong":
		return KindUint64, nil
	case "float32", "float", "single":
		return KindFloat32, nil
	case "float64", "double", "number":
		return KindFloat64, nil
	case "decimal":
		return KindDecimal, nil
	case "string":
		return KindString, nil
	case "bytes", "binary":
		return KindBytes, nil
	case "duration", "timespan":
		return KindDuration, nil
	case "ipaddr", "ip", "ipaddress":
		return KindIPAddr, nil
	case "enum":
		return KindEnum, nil
	}
	return KindInvalid, fmt.Errorf("%w: unknown kind %q", ErrUnsupportedType, name)
}

// Kinds lists every supported kind in declaration order.
func Kinds() []ValueKind {
	out := make([]ValueKind, 0, len(kindNames))
	for k := KindBool; k <= KindEnum; k++ {
		out = append(out, k)
	}
	return out
}
