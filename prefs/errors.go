package prefs

import (
	"errors"
	"fmt"

	"github.com/arthur-debert/nanoprefs/internal/validation"
)

// Structural errors returned by stores, groups, items and builders. They are
// distinct from value pipeline failures, which are reported as *SetValueError.
var (
	// ErrInvalidName indicates an empty or whitespace-only name.
	ErrInvalidName = validation.ErrInvalidName

	// ErrInvalidArgument indicates a required argument was missing or unusable.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateName indicates Add was called with a name already present.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrNotFound indicates a lookup for a name that doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrKindMismatch indicates an item was read as the wrong kind.
	ErrKindMismatch = errors.New("kind mismatch")

	// ErrInvalidOperation indicates an operation not allowed in the current state.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrUnsupportedType indicates a Go type with no preference implementation.
	ErrUnsupportedType = errors.New("unsupported type")
)

// Value pipeline causes, wrapped inside *SetValueError.
var (
	// ErrValueNotAllowed indicates a value outside a strict allow-list.
	ErrValueNotAllowed = errors.New("value not allowed")

	// ErrValueInvalid indicates the validity check rejected the value.
	ErrValueInvalid = errors.New("value failed validity check")
)

// StepFailure identifies which stage of a value assignment failed.
type StepFailure uint8

const (
	// StepUnknown is used when the failing stage can't be determined.
	StepUnknown StepFailure = iota
	// StepProcessingName means the preference name failed re-validation.
	StepProcessingName
	// StepRetrievingPreference means the target preference couldn't be found.
	StepRetrievingPreference
	// StepCasting means an untyped value wasn't of the preference's type.
	StepCasting
	// StepParsing means a serialized token couldn't be parsed.
	StepParsing
	// StepConverting means a definition value couldn't be converted.
	StepConverting
	// StepPreProcessing means the Pre stage failed.
	StepPreProcessing
	// StepValidityCheck means the allow-list or IsValid stage rejected the value.
	StepValidityCheck
	// StepPostProcessing means the Post stage failed.
	StepPostProcessing
	// StepSettingValue means storing the final value failed.
	StepSettingValue
)

// String returns a human-readable name for the step.
func (s StepFailure) String() string {
	switch s {
	case StepProcessingName:
		return "processing name"
	case StepRetrievingPreference:
		return "retrieving preference"
	case StepCasting:
		return "casting"
	case StepParsing:
		return "parsing"
	case StepConverting:
		return "converting"
	case StepPreProcessing:
		return "pre-processing"
	case StepValidityCheck:
		return "validity check"
	case StepPostProcessing:
		return "post-processing"
	case StepSettingValue:
		return "setting value"
	default:
		return "unknown"
	}
}

// SetValueError reports a failed value assignment together with the stage
// that failed and the underlying cause.
type SetValueError struct {
	// Preference is the name of the preference being assigned.
	Preference string
	// Step is the failing stage.
	Step StepFailure
	// Value is the candidate value, if any.
	Value any
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *SetValueError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("preference %q: %s failed for value %v: %v", e.Preference, e.Step, e.Value, e.Err)
	}
	return fmt.Sprintf("preference %q: %s failed: %v", e.Preference, e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *SetValueError) Unwrap() error {
	return e.Err
}

// StepOf returns the failing step of a *SetValueError in err's chain, or
// StepUnknown.
func StepOf(err error) StepFailure {
	var sve *SetValueError
	if errors.As(err, &sve) {
		return sve.Step
	}
	return StepUnknown
}

// StagePanicError wraps a panic recovered from a user-supplied stage function.
type StagePanicError struct {
	Stage string
	Value any
}

// Error implements the error interface.
func (e *StagePanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Stage, e.Value)
}

// Unwrap exposes the panic payload when it was itself an error.
func (e *StagePanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func newSetValueError(name string, step StepFailure, value any, err error) *SetValueError {
	return &SetValueError{Preference: name, Step: step, Value: value, Err: err}
}
