package prefs

import "fmt"

// ValidityResult is the outcome of one pipeline stage: the possibly
// transformed value, whether the stage succeeded, and the error when it didn't.
type ValidityResult[T any] struct {
	Value T
	Valid bool
	Err   error
}

// Ok creates a successful result carrying v.
func Ok[T any](v T) ValidityResult[T] {
	return ValidityResult[T]{Value: v, Valid: true}
}

// Fail creates a failed result.
func Fail[T any](v T, err error) ValidityResult[T] {
	return ValidityResult[T]{Value: v, Err: err}
}

// ValidityProcessor holds the three user-supplied stages applied to every
// candidate value. Each stage is optional: a nil Pre or Post is the identity,
// a nil IsValid accepts everything.
type ValidityProcessor[T any] struct {
	// Pre transforms the candidate before validation.
	Pre func(v T) (T, error)
	// IsValid decides whether the pre-processed value is acceptable.
	IsValid func(v T) (bool, error)
	// Post transforms the validated value into the value that gets stored.
	Post func(v T) (T, error)
}

// PreProcess runs the Pre stage. Panics are recovered into the result.
func (p ValidityProcessor[T]) PreProcess(v T) (res ValidityResult[T]) {
	if p.Pre == nil {
		return Ok(v)
	}
	defer recoverStage("pre-processor", v, &res)

	out, err := p.Pre(v)
	if err != nil {
		return Fail(v, err)
	}
	return Ok(out)
}

// Validate runs the IsValid stage. A false result without an error is
// reported as ErrValueInvalid.
func (p ValidityProcessor[T]) Validate(v T) (res ValidityResult[T]) {
	if p.IsValid == nil {
		return Ok(v)
	}
	defer recoverStage("validity check", v, &res)

	ok, err := p.IsValid(v)
	if err != nil {
		return Fail(v, err)
	}
	if !ok {
		return Fail(v, ErrValueInvalid)
	}
	return Ok(v)
}

// PostProcess runs the Post stage.
func (p ValidityProcessor[T]) PostProcess(v T) (res ValidityResult[T]) {
	if p.Post == nil {
		return Ok(v)
	}
	defer recoverStage("post-processor", v, &res)

	out, err := p.Post(v)
	if err != nil {
		return Fail(v, err)
	}
	return Ok(out)
}

// Process runs Pre, IsValid and Post in order without any allow-list.
func (p ValidityProcessor[T]) Process(v T) ValidityResult[T] {
	res := p.PreProcess(v)
	if !res.Valid {
		return res
	}
	res = p.Validate(res.Value)
	if !res.Valid {
		return res
	}
	return p.PostProcess(res.Value)
}

// IsZero reports whether no stage is configured.
func (p ValidityProcessor[T]) IsZero() bool {
	return p.Pre == nil && p.IsValid == nil && p.Post == nil
}

func recoverStage[T any](stage string, v T, res *ValidityResult[T]) {
	if r := recover(); r != nil {
		*res = Fail(v, &StagePanicError{Stage: stage, Value: r})
	}
}

// Chain composes processors: Pre and Post run left to right, IsValid requires
// every validator to accept.
func Chain[T any](procs ...ValidityProcessor[T]) ValidityProcessor[T] {
	var out ValidityProcessor[T]
	for _, p := range procs {
		out = chainTwo(out, p)
	}
	return out
}

func chainTwo[T any](a, b ValidityProcessor[T]) ValidityProcessor[T] {
	out := a
	switch {
	case a.Pre == nil:
		out.Pre = b.Pre
	case b.Pre != nil:
		out.Pre = func(v T) (T, error) {
			v, err := a.Pre(v)
			if err != nil {
				return v, err
			}
			return b.Pre(v)
		}
	}
	switch {
	case a.IsValid == nil:
		out.IsValid = b.IsValid
	case b.IsValid != nil:
		out.IsValid = func(v T) (bool, error) {
			ok, err := a.IsValid(v)
			if err != nil || !ok {
				return ok, err
			}
			return b.IsValid(v)
		}
	}
	switch {
	case a.Post == nil:
		out.Post = b.Post
	case b.Post != nil:
		out.Post = func(v T) (T, error) {
			v, err := a.Post(v)
			if err != nil {
				return v, err
			}
			return b.Post(v)
		}
	}
	return out
}

// Range returns a processor accepting values between lo and hi inclusive.
func Range[T any](vt ValueType[T], lo, hi T) ValidityProcessor[T] {
	return ValidityProcessor[T]{
		IsValid: func(v T) (bool, error) {
			if vt.Compare(v, lo) < 0 || vt.Compare(v, hi) > 0 {
				return false, fmt.Errorf("%w: %s outside [%s, %s]", ErrValueInvalid, vt.Format(v), vt.Format(lo), vt.Format(hi))
			}
			return true, nil
		},
	}
}
