// internal/apperr/apperr.go
package apperr

import "errors"

// Failure classes shared by every package. Package-level sentinels wrap one of these so
// callers can branch on the class with errors.Is and still report the specific cause.
var (
	// ErrInvalidArgument marks a precondition the caller should have checked.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrIO marks a failure reading or writing an exchange file.
	ErrIO = errors.New("i/o failure")
)
