package fraud

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every InvalidInputError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError is returned by Analyze when the table cannot be analyzed.
type InvalidInputError struct {
	Reason string
	// Row is the zero-based index of the offending row, or -1 for table-level problems.
	Row int
	Err error
}

func (e *InvalidInputError) Error() string {
	msg := "invalid input: " + e.Reason
	if e.Row >= 0 {
		msg = fmt.Sprintf("invalid input: row %d: %s", e.Row, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

func tableError(reason string) error {
	return &InvalidInputError{Reason: reason, Row: -1}
}

func rowError(row int, reason string, err error) error {
	return &InvalidInputError{Reason: reason, Row: row, Err: err}
}
