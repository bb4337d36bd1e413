package prefs

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// EnumType builds a ValueType for a named enum type. Members are listed in
// their natural order, which is also their sort order; each member is written
// by its name (its String method when it has one).
func EnumType[E comparable](members ...E) ValueType[E] {
	var zero E
	typeName := fmt.Sprintf("%T", zero)

	names := make([]string, len(members))
	index := make(map[E]int, len(members))
	for i, m := range members {
		names[i] = fmt.Sprint(m)
		index[m] = i
	}

	lookup := func(name string) (E, error) {
		name = strings.TrimSpace(name)
		for i, n := range names {
			if n == name {
				return members[i], nil
			}
		}
		for i, n := range names {
			if strings.EqualFold(n, name) {
				return members[i], nil
			}
		}
		return zero, fmt.Errorf("%q is not a member of %s", name, typeName)
	}

	position := func(v E) int {
		if i, ok := index[v]; ok {
			return i
		}
		return len(members)
	}

	return ValueType[E]{
		kind:    KindEnum,
		name:    typeName,
		equal:   func(a, b E) bool { return a == b },
		compare: func(a, b E) int { return position(a) - position(b) },
		coerce: func(v any) (E, error) {
			s, err := cast.ToStringE(v)
			if err != nil {
				return zero, err
			}
			return lookup(s)
		},
		decode: func(tok Token) (E, error) {
			switch tok.Kind {
			case TokenString, TokenInteger:
				return lookup(tok.Text)
			}
			return zero, tokenError(tok, typeName)
		},
		encode: func(v E) Token { return StringToken(fmt.Sprint(v)) },
	}
}
