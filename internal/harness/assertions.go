package harness

import (
	"bytes"
	"fmt"

	"github.com/inversion-api/inversion-engine-sub011/internal/results"
)

// AssertionError is one failed expectation.
type AssertionError struct {
	Field    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s mismatch\n  Expected: %s\n  Actual:   %s", e.Field, e.Expected, e.Actual)
}

func assertString(field, expected, actual string) error {
	if expected == "" || expected == actual {
		return nil
	}
	return &AssertionError{Field: field, Expected: expected, Actual: actual}
}

// assertCanonical compares two values through their canonical JSON, so
// YAML ints match int64 bind values and map key order is irrelevant.
func assertCanonical(field string, expected, actual any) error {
	want, err := results.MarshalCanonical(expected)
	if err != nil {
		return fmt.Errorf("%s: expected value: %w", field, err)
	}
	got, err := results.MarshalCanonical(actual)
	if err != nil {
		return fmt.Errorf("%s: actual value: %w", field, err)
	}
	if bytes.Equal(want, got) {
		return nil
	}
	return &AssertionError{Field: field, Expected: string(want), Actual: string(got)}
}
