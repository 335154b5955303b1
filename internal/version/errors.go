package version

import "errors"

var (
	ErrVersionFormat  = errors.New("unrecognised version declaration")
	ErrNotStamped     = errors.New("version file is not stamped")
	ErrPendingRestore = errors.New("a previous stamp was never restored")
	ErrFileSystem     = errors.New("file system operation failed")
)
