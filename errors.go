package dpmeans

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is wrapped by every error caused by bad configuration or
	// bad data: empty datasets, mismatched dimensions, non-positive Delta or
	// BatchSize, and so on. Such errors are reported before any state changes.
	ErrInvalidInput = errors.New("dpmeans: invalid input")

	// ErrNumericDegeneracy signals a broken internal invariant, such as a
	// cluster with zero mass that still owns points. It is never recoverable.
	ErrNumericDegeneracy = errors.New("dpmeans: numeric degeneracy")
)

// DimensionMismatchError reports a point whose dimensionality differs from
// the dimensionality fixed by the first point seen.
type DimensionMismatchError struct {
	Index    int
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dpmeans: point %d has dimension %d, expected %d", e.Index, e.Actual, e.Expected)
}

// Unwrap makes errors.Is(err, ErrInvalidInput) hold.
func (e *DimensionMismatchError) Unwrap() error { return ErrInvalidInput }

func invalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

func degeneracyf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNumericDegeneracy}, args...)...)
}
