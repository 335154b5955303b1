package build

import "errors"

var (
	ErrBuild         = errors.New("build failed")
	ErrCommandFailed = errors.New("command failed")
	ErrTimeout       = errors.New("leg timed out")
)
