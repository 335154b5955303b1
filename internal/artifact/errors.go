package artifact

import "errors"

var (
	ErrPackaging  = errors.New("packaging failed")
	ErrFileSystem = errors.New("file system operation failed")
	ErrLabel      = errors.New("label has no file name form")
)
