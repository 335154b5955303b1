package cli

import "errors"

// A failure that sets the process exit code.
type ExitError struct {
	Code int
	Err  error
}

// Returns the error message.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// Returns the exit code for err: 0 for nil, the code of an [ExitError], and
// 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return 1
}
