package prompt

import "errors"

var (
	ErrInterrupted = errors.New("prompt interrupted")
	ErrPrompt      = errors.New("prompt failed")
)
