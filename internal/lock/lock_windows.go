//go:build windows

package lock

import (
	"errors"
	"os"

	"golang.org/x/sys/windows"

	"github.com/cruciblehq/cruxrel/internal/errs"
)

func lockFile(f *os.File) error {
	flags := uint32(windows.LOCKFILE_EXCLUSIVE_LOCK | windows.LOCKFILE_FAIL_IMMEDIATELY)
	if err := windows.LockFileEx(windows.Handle(f.Fd()), flags, 0, 1, 0, &windows.Overlapped{}); err != nil {
		if errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
			return errs.Wrapf(ErrLocked, "%s", f.Name())
		}
		return errs.Wrap(ErrLock, err)
	}
	return nil
}

func unlockFile(f *os.File) error {
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, &windows.Overlapped{})
}
