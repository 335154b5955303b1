package publish

import "errors"

var (
	ErrPublish = errors.New("publish failed")
	ErrHost    = errors.New("invalid release host")
)
