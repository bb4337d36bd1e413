package schema

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/arthur-debert/nanoprefs/prefs"
)

// validator combines the min, max and pattern constraints of an entry. min
// and max bound numbers and durations by value, and strings and bytes by
// length.
func (e Entry) validator(kind prefs.ValueKind) (func(any) (bool, error), error) {
	var checks []func(any) (bool, error)

	if e.Min != nil || e.Max != nil {
		check, err := boundsCheck(kind, e.Min, e.Max)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}

	if e.Pattern != "" {
		if kind != prefs.KindString {
			return nil, fmt.Errorf("%w: pattern applies to strings, not %s", ErrInvalidSchema, kind)
		}
		re, err := regexp.Compile(e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern: %w", ErrInvalidSchema, err)
		}
		checks = append(checks, func(v any) (bool, error) {
			if s := v.(string); !re.MatchString(s) {
				return false, fmt.Errorf("%w: %q does not match %s", prefs.ErrValueInvalid, s, re)
			}
			return true, nil
		})
	}

	switch len(checks) {
	case 0:
		return nil, nil
	case 1:
		return checks[0], nil
	}
	return func(v any) (bool, error) {
		for _, check := range checks {
			if ok, err := check(v); !ok || err != nil {
				return ok, err
			}
		}
		return true, nil
	}, nil
}

func boundsCheck(kind prefs.ValueKind, lo, hi any) (func(any) (bool, error), error) {
	switch kind {
	case prefs.KindInt8, prefs.KindInt16, prefs.KindInt32, prefs.KindInt64,
		prefs.KindUint8, prefs.KindUint16, prefs.KindUint32, prefs.KindUint64,
		prefs.KindFloat32, prefs.KindFloat64, prefs.KindDecimal:
		return orderedCheck(lo, hi, toDecimal, toDecimal, func(a, b decimal.Decimal) int { return a.Cmp(b) })

	case prefs.KindDuration:
		return orderedCheck(lo, hi, cast.ToDurationE, cast.ToDurationE, func(a, b time.Duration) int {
			switch {
			case a < b:
				return -1
			case a > b:
				return 1
			}
			return 0
		})

	case prefs.KindString, prefs.KindBytes:
		length := func(v any) (int, error) {
			switch v := v.(type) {
			case string:
				return len([]rune(v)), nil
			case []byte:
				return len(v), nil
			}
			return 0, fmt.Errorf("unexpected %T", v)
		}
		return orderedCheck(lo, hi, cast.ToIntE, length, func(a, b int) int { return a - b })
	}
	return nil, fmt.Errorf("%w: min and max do not apply to %s", ErrInvalidSchema, kind)
}

func toDecimal(v any) (decimal.Decimal, error) {
	if d, ok := v.(decimal.Decimal); ok {
		return d, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(s)
}

// orderedCheck converts the bounds once and compares each value against
// them. A nil bound is open.
func orderedCheck[T any](lo, hi any, bound, value func(any) (T, error), compare func(a, b T) int) (func(any) (bool, error), error) {
	var lower, upper *T
	if lo != nil {
		v, err := bound(lo)
		if err != nil {
			return nil, fmt.Errorf("%w: min: %w", ErrInvalidSchema, err)
		}
		lower = &v
	}
	if hi != nil {
		v, err := bound(hi)
		if err != nil {
			return nil, fmt.Errorf("%w: max: %w", ErrInvalidSchema, err)
		}
		upper = &v
	}
	if lower != nil && upper != nil && compare(*lower, *upper) > 0 {
		return nil, fmt.Errorf("%w: min %v is greater than max %v", ErrInvalidSchema, lo, hi)
	}

	return func(v any) (bool, error) {
		x, err := value(v)
		if err != nil {
			return false, fmt.Errorf("%w: %v", prefs.ErrValueInvalid, err)
		}
		if lower != nil && compare(x, *lower) < 0 {
			return false, fmt.Errorf("%w: %v is below the minimum %v", prefs.ErrValueInvalid, v, lo)
		}
		if upper != nil && compare(x, *upper) > 0 {
			return false, fmt.Errorf("%w: %v is above the maximum %v", prefs.ErrValueInvalid, v, hi)
		}
		return true, nil
	}, nil
}
