// Package errs wraps causes under package sentinels.
//
// Every package declares its failure classes as sentinel errors. Wrapping a
// cause with [Wrap] keeps both the sentinel and the cause reachable through
// errors.Is and errors.As, so callers can branch on the class while the
// message still carries the underlying detail.
package errs

import "fmt"

// Wraps cause under sentinel.
//
// Returns nil when cause is nil so call sites can wrap unconditionally.
func Wrap(sentinel, cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// Wraps a formatted message under sentinel.
//
// The format may itself contain a %w verb to chain a cause.
func Wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %w", sentinel, fmt.Errorf(format, args...))
}
