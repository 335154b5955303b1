package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cruciblehq/cruxrel/internal/errs"
	"github.com/cruciblehq/cruxrel/internal/paths"
)

var (
	ErrLocked = errors.New("workspace is locked by another run")
	ErrLock   = errors.New("lock failed")
)

// An acquired workspace lock.
type Lock struct {
	file *os.File
	path string
}

// Takes the lock file at path without blocking.
//
// Fails with [ErrLocked] when another process holds it. The holder's PID is
// written into the file for diagnostics.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), paths.DefaultDirMode); err != nil {
		return nil, errs.Wrap(ErrLock, err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, paths.DefaultFileMode)
	if err != nil {
		return nil, errs.Wrap(ErrLock, err)
	}

	if err := lockFile(f); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.Truncate(0); err == nil {
		fmt.Fprintf(f, "%d\n", os.Getpid())
	}

	return &Lock{file: f, path: path}, nil
}

// Returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Releases the lock. Safe to call more than once.
//
// The file itself is left in place; removing it would let a waiting process
// lock an unlinked inode while a newcomer creates a fresh one.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	err := unlockFile(f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errs.Wrap(ErrLock, err)
	}
	return nil
}
