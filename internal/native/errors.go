package native

import "errors"

var (
	ErrBuild   = errors.New("native build failed")
	ErrTimeout = errors.New("native build timed out")
)
