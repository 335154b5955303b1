//go:build unix

package lock

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"

	"github.com/cruciblehq/cruxrel/internal/errs"
)

func lockFile(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) {
			return errs.Wrapf(ErrLocked, "%s", f.Name())
		}
		return errs.Wrap(ErrLock, err)
	}
	return nil
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
