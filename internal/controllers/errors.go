package controllers

import (
	"errors"
	"fmt"
)

// ErrValidation marks a local precondition failure. Commands failing this way
// never reach the backend.
var ErrValidation = errors.New("validation failed")

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
