package prefs

import (
	"bytes"
	"cmp"
	"encoding/base64"
	"fmt"
	"math"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// ValueType describes how a Go type behaves as a preference value: how two
// values compare, how untyped input is coerced, and how the value maps to and
// from a text-format Token. One ValueType exists per supported kind; enums get
// one per registered enum type.
type ValueType[T any] struct {
	kind    ValueKind
	name    string
	equal   func(a, b T) bool
	compare func(a, b T) int
	coerce  func(v any) (T, error)
	decode  func(tok Token) (T, error)
	encode  func(v T) Token
	format  func(v T) string
	clone   func(v T) T
}

// Kind returns the value kind.
func (vt ValueType[T]) Kind() ValueKind { return vt.kind }

// Name returns the type name used in messages.
func (vt ValueType[T]) Name() string { return vt.name }

// Equal reports whether a and b are the same value.
func (vt ValueType[T]) Equal(a, b T) bool { return vt.equal(a, b) }

// Compare orders a and b (negative, zero, positive).
func (vt ValueType[T]) Compare(a, b T) int { return vt.compare(a, b) }

// Format renders v for messages and comments.
func (vt ValueType[T]) Format(v T) string {
	if vt.format != nil {
		return vt.format(v)
	}
	return fmt.Sprint(v)
}

// Clone returns a copy of v that shares no memory with it.
func (vt ValueType[T]) Clone(v T) T {
	if vt.clone != nil {
		return vt.clone(v)
	}
	return v
}

// Encode converts v to a Token.
func (vt ValueType[T]) Encode(v T) Token { return vt.encode(v) }

// Decode converts a token to a nullable value. A null token yields nil.
func (vt ValueType[T]) Decode(tok Token) (*T, error) {
	if tok.IsNull() {
		return nil, nil
	}
	v, err := vt.decode(tok)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Coerce converts an untyped value to T. Values already of type T (or *T) pass
// through; strings are decoded with the same rules as text tokens; anything
// else goes through the kind-specific conversion.
func (vt ValueType[T]) Coerce(v any) (T, error) {
	var zero T
	switch x := v.(type) {
	case T:
		return x, nil
	case *T:
		if x == nil {
			return zero, fmt.Errorf("%w: nil %s", ErrInvalidArgument, vt.name)
		}
		return *x, nil
	case nil:
		return zero, fmt.Errorf("%w: nil %s", ErrInvalidArgument, vt.name)
	case string:
		return vt.decode(StringToken(x))
	}
	if vt.coerce == nil {
		return zero, fmt.Errorf("cannot convert %T to %s", v, vt.name)
	}
	return vt.coerce(v)
}

func tokenError(tok Token, target string) error {
	return fmt.Errorf("cannot read %s token %s as %s", tok.Kind, tok, target)
}

type signedInt interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type unsignedInt interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func signedType[T signedInt](kind ValueKind, bits int) ValueType[T] {
	name := kind.String()
	return ValueType[T]{
		kind:    kind,
		name:    name,
		equal:   func(a, b T) bool { return a == b },
		compare: func(a, b T) int { return cmp.Compare(a, b) },
		coerce: func(v any) (T, error) {
			n, err := cast.ToInt64E(v)
			if err != nil {
				return 0, err
			}
			if n < -(1<<(bits-1)) || n > 1<<(bits-1)-1 {
				return 0, fmt.Errorf("value %d out of range for %s", n, name)
			}
			return T(n), nil
		},
		decode: func(tok Token) (T, error) {
			n, err := parseSignedToken(tok, bits)
			if err != nil {
				return 0, fmt.Errorf("%s: %w", name, err)
			}
			return T(n), nil
		},
		encode: func(v T) Token {
			return Token{Kind: TokenInteger, Text: strconv.FormatInt(int64(v), 10)}
		},
	}
}

func unsignedType[T unsignedInt](kind ValueKind, bits int) ValueType[T] {
	name := kind.String()
	return ValueType[T]{
		kind:    kind,
		name:    name,
		equal:   func(a, b T) bool { return a == b },
		compare: func(a, b T) int { return cmp.Compare(a, b) },
		coerce: func(v any) (T, error) {
			n, err := cast.ToUint64E(v)
			if err != nil {
				return 0, err
			}
			if bits < 64 && n > 1<<bits-1 {
				return 0, fmt.Errorf("value %d out of range for %s", n, name)
			}
			return T(n), nil
		},
		decode: func(tok Token) (T, error) {
			n, err := parseUnsignedToken(tok, bits)
			if err != nil {
				return 0, fmt.Errorf("%s: %w", name, err)
			}
			return T(n), nil
		},
		encode: func(v T) Token {
			return Token{Kind: TokenInteger, Text: strconv.FormatUint(uint64(v), 10)}
		},
	}
}

// integralText turns a float literal with no fractional part ("5.0", "1e3")
// into an integer literal.
func integralText(text string) (string, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return "", err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%s is not an integer", text)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

// splitHex detects a 0x/0X prefixed literal, returning the sign and digits.
func splitHex(s string) (sign string, digits string, ok bool) {
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return sign, s[2:], true
	}
	return "", "", false
}

func parseSignedToken(tok Token, bits int) (int64, error) {
	switch tok.Kind {
	case TokenInteger:
		return strconv.ParseInt(tok.Text, 10, bits)
	case TokenFloat:
		text, err := integralText(tok.Text)
		if err != nil {
			return 0, err
		}
		return strconv.ParseInt(text, 10, bits)
	case TokenString:
		s := strings.TrimSpace(tok.Text)
		if sign, digits, ok := splitHex(s); ok {
			if sign == "+" {
				sign = ""
			}
			return strconv.ParseInt(sign+digits, 16, bits)
		}
		return strconv.ParseInt(s, 10, bits)
	}
	return 0, tokenError(tok, "integer")
}

func parseUnsignedToken(tok Token, bits int) (uint64, error) {
	switch tok.Kind {
	case TokenInteger:
		return strconv.ParseUint(tok.Text, 10, bits)
	case TokenFloat:
		text, err := integralText(tok.Text)
		if err != nil {
			return 0, err
		}
		return strconv.ParseUint(text, 10, bits)
	case TokenString:
		s := strings.TrimSpace(tok.Text)
		if sign, digits, ok := splitHex(s); ok {
			if sign == "-" {
				return 0, fmt.Errorf("negative value %q for unsigned type", s)
			}
			return strconv.ParseUint(digits, 16, bits)
		}
		return strconv.ParseUint(strings.TrimPrefix(s, "+"), 10, bits)
	}
	return 0, tokenError(tok, "unsigned integer")
}

// Infinity spellings accepted in string tokens.
const (
	infinity         = "∞"
	positiveInfinity = "+∞"
	negativeInfinity = "-∞"
)

func parseFloatText(s string, bits int) (float64, error) {
	switch strings.TrimSpace(s) {
	case infinity, positiveInfinity, "Infinity", "+Infinity":
		return math.Inf(1), nil
	case negativeInfinity, "-Infinity":
		return math.Inf(-1), nil
	case "NaN":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), bits)
}

func floatType[T ~float32 | ~float64](kind ValueKind, bits int) ValueType[T] {
	name := kind.String()
	return ValueType[T]{
		kind: kind,
		name: name,
		// NaN equals NaN, matching cmp.Compare.
		equal:   func(a, b T) bool { return cmp.Compare(a, b) == 0 },
		compare: func(a, b T) int { return cmp.Compare(a, b) },
		coerce: func(v any) (T, error) {
			f, err := cast.ToFloat64E(v)
			if err != nil {
				return 0, err
			}
			return T(f), nil
		},
		decode: func(tok Token) (T, error) {
			switch tok.Kind {
			case TokenInteger, TokenFloat, TokenString:
				f, err := parseFloatText(tok.Text, bits)
				if err != nil {
					return 0, fmt.Errorf("%s: %w", name, err)
				}
				return T(f), nil
			}
			return 0, tokenError(tok, name)
		},
		encode: func(v T) Token {
			f := float64(v)
			switch {
			case math.IsInf(f, 1):
				return StringToken(infinity)
			case math.IsInf(f, -1):
				return StringToken(negativeInfinity)
			case math.IsNaN(f):
				return StringToken("NaN")
			}
			return Token{Kind: TokenFloat, Text: strconv.FormatFloat(f, 'g', -1, bits)}
		},
	}
}

// Built-in value types, one per kind of the closed list.
var (
	BoolType = ValueType[bool]{
		kind:  KindBool,
		name:  "bool",
		equal: func(a, b bool) bool { return a == b },
		compare: func(a, b bool) int {
			switch {
			case a == b:
				return 0
			case !a:
				return -1
			default:
				return 1
			}
		},
		coerce: func(v any) (bool, error) { return cast.ToBoolE(v) },
		decode: func(tok Token) (bool, error) {
			switch tok.Kind {
			case TokenBool:
				return tok.Text == "true", nil
			case TokenString:
				return strconv.ParseBool(strings.TrimSpace(tok.Text))
			case TokenInteger:
				return tok.Text != "0", nil
			}
			return false, tokenError(tok, "bool")
		},
		encode: func(v bool) Token { return Token{Kind: TokenBool, Text: strconv.FormatBool(v)} },
	}

	Int8Type  = signedType[int8](KindInt8, 8)
	Int16Type = signedType[int16](KindInt16, 16)
	Int32Type = signedType[int32](KindInt32, 32)
	Int64Type = signedType[int64](KindInt64, 64)

	Uint8Type  = unsignedType[uint8](KindUint8, 8)
	Uint16Type = unsignedType[uint16](KindUint16, 16)
	Uint32Type = unsignedType[uint32](KindUint32, 32)
	Uint64Type = unsignedType[uint64](KindUint64, 64)

	// IntType and UintType map Go's platform-sized integers onto the 64-bit
	// kinds so plain int fields can be bound.
	IntType  = signedType[int](KindInt64, 64)
	UintType = unsignedType[uint](KindUint64, 64)

	Float32Type = floatType[float32](KindFloat32, 32)
	Float64Type = floatType[float64](KindFloat64, 64)

	DecimalType = ValueType[decimal.Decimal]{
		kind:    KindDecimal,
		name:    "decimal",
		equal:   func(a, b decimal.Decimal) bool { return a.Equal(b) },
		compare: func(a, b decimal.Decimal) int { return a.Cmp(b) },
		coerce: func(v any) (decimal.Decimal, error) {
			s, err := cast.ToStringE(v)
			if err != nil {
				return decimal.Decimal{}, err
			}
			return decimal.NewFromString(s)
		},
		decode: func(tok Token) (decimal.Decimal, error) {
			switch tok.Kind {
			case TokenInteger, TokenFloat, TokenString:
				d, err := decimal.NewFromString(strings.TrimSpace(tok.Text))
				if err != nil {
					return decimal.Decimal{}, fmt.Errorf("decimal: %w", err)
				}
				return d, nil
			}
			return decimal.Decimal{}, tokenError(tok, "decimal")
		},
		encode: func(v decimal.Decimal) Token { return Token{Kind: TokenFloat, Text: v.String()} },
		format: func(v decimal.Decimal) string { return v.String() },
	}

	StringType = ValueType[string]{
		kind:    KindString,
		name:    "string",
		equal:   func(a, b string) bool { return a == b },
		compare: strings.Compare,
		coerce:  func(v any) (string, error) { return cast.ToStringE(v) },
		decode: func(tok Token) (string, error) {
			if tok.IsNull() {
				return "", tokenError(tok, "string")
			}
			return tok.Text, nil
		},
		encode: StringToken,
		format: func(v string) string { return strconv.Quote(v) },
	}

	BytesType = ValueType[[]byte]{
		kind:    KindBytes,
		name:    "bytes",
		equal:   bytes.Equal,
		compare: bytes.Compare,
		decode: func(tok Token) ([]byte, error) {
			if tok.Kind != TokenString {
				return nil, tokenError(tok, "base64 bytes")
			}
			b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(tok.Text))
			if err != nil {
				return nil, fmt.Errorf("bytes: %w", err)
			}
			return b, nil
		},
		encode: func(v []byte) Token { return StringToken(base64.StdEncoding.EncodeToString(v)) },
		format: func(v []byte) string { return base64.StdEncoding.EncodeToString(v) },
		clone:  bytes.Clone,
	}

	DurationType = ValueType[time.Duration]{
		kind:    KindDuration,
		name:    "duration",
		equal:   func(a, b time.Duration) bool { return a == b },
		compare: func(a, b time.Duration) int { return cmp.Compare(a, b) },
		coerce:  func(v any) (time.Duration, error) { return cast.ToDurationE(v) },
		decode: func(tok Token) (time.Duration, error) {
			switch tok.Kind {
			case TokenInteger:
				n, err := strconv.ParseInt(tok.Text, 10, 64)
				return time.Duration(n), err
			case TokenString:
				return parseDuration(tok.Text)
			}
			return 0, tokenError(tok, "duration")
		},
		encode: func(v time.Duration) Token { return StringToken(v.String()) },
	}

	IPAddrType = ValueType[netip.Addr]{
		kind:    KindIPAddr,
		name:    "ipaddr",
		equal:   func(a, b netip.Addr) bool { return a == b },
		compare: func(a, b netip.Addr) int { return a.Compare(b) },
		coerce: func(v any) (netip.Addr, error) {
			if ip, ok := v.(net.IP); ok {
				addr, ok := netip.AddrFromSlice(ip)
				if !ok {
					return netip.Addr{}, fmt.Errorf("invalid IP %v", ip)
				}
				return addr.Unmap(), nil
			}
			return netip.Addr{}, fmt.Errorf("cannot convert %T to ipaddr", v)
		},
		decode: func(tok Token) (netip.Addr, error) {
			if tok.Kind != TokenString {
				return netip.Addr{}, tokenError(tok, "ipaddr")
			}
			return netip.ParseAddr(strings.TrimSpace(tok.Text))
		},
		encode: func(v netip.Addr) Token { return StringToken(v.String()) },
	}
)

// parseDuration accepts Go duration syntax ("1h30m") and clock syntax
// ("[-][d.]hh:mm:ss[.fraction]").
func parseDuration(text string) (time.Duration, error) {
	s := strings.TrimSpace(text)
	if !strings.Contains(s, ":") {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("duration: %w", err)
		}
		return d, nil
	}

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var days int64
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("duration: invalid clock value %q", text)
	}
	if dayPart, hourPart, ok := strings.Cut(parts[0], "."); ok {
		n, err := strconv.ParseInt(dayPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("duration: invalid days in %q", text)
		}
		days = n
		parts[0] = hourPart
	}

	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || hours > 23 {
		return 0, fmt.Errorf("duration: invalid hours in %q", text)
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || minutes > 59 {
		return 0, fmt.Errorf("duration: invalid minutes in %q", text)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || seconds < 0 || seconds >= 60 {
		return 0, fmt.Errorf("duration: invalid seconds in %q", text)
	}

	d := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(math.Round(seconds*float64(time.Second)))
	if negative {
		d = -d
	}
	return d, nil
}
