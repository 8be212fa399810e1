package ml

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCategory = errors.New("expected Yes or No")
	ErrNotNumeric      = errors.New("not a number")
	ErrUnknownField    = errors.New("unknown field")
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrFeatureOrder    = errors.New("feature order mismatch")
)

// ArtifactLoadError means the classifier or scaler could not be loaded.
// The process cannot serve predictions without them.
type ArtifactLoadError struct {
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load artifacts: %v", e.Err)
	}
	return fmt.Sprintf("load artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error { return e.Err }

type TransformError struct {
	Err error
}

func (e *TransformError) Error() string { return fmt.Sprintf("scaler transform: %v", e.Err) }

func (e *TransformError) Unwrap() error { return e.Err }

type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string { return fmt.Sprintf("classifier inference: %v", e.Err) }

func (e *InferenceError) Unwrap() error { return e.Err }

// InputError is a violation of the input contract by the caller.
type InputError struct {
	Field      string
	Value      string
	Suggestion string
	Err        error
}

func (e *InputError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnknownField) && e.Suggestion != "":
		return fmt.Sprintf("%v %q (did you mean %q?)", e.Err, e.Field, e.Suggestion)
	case errors.Is(e.Err, ErrUnknownField):
		return fmt.Sprintf("%v %q", e.Err, e.Field)
	default:
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
}

func (e *InputError) Unwrap() error { return e.Err }

// ErrorKind classifies a prediction error for metrics and status codes.
func ErrorKind(err error) string {
	var (
		inputErr     *InputError
		transformErr *TransformError
		inferenceErr *InferenceError
		loadErr      *ArtifactLoadError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &inputErr):
		return "input"
	case errors.As(err, &transformErr):
		return "transform"
	case errors.As(err, &inferenceErr):
		return "inference"
	case errors.As(err, &loadErr):
		return "artifact"
	default:
		return "internal"
	}
}
