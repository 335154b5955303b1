package runtime

import "errors"

var (
	ErrRuntime = errors.New("runtime error")
	ErrImage   = errors.New("image error")
)
