package version

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/Masterminds/semver/v3"

	"github.com/cruciblehq/cruxrel/internal/errs"
)

// Suffix appended to the version file path to form the backup path.
const backupSuffix = ".cruxrel-backup"

// Controls stamping.
type Options struct {
	Path   string // Version declaration file.
	Name   string // Identifier of the assignment. Empty accepts any.
	Strict bool   // Require the base version to parse as semver.
}

// Owns the version declaration file for the duration of a pipeline.
type Stamper struct {
	path   string
	name   string
	strict bool
	owned  atomic.Bool // This stamper wrote the current backup.
}

// Creates a new [Stamper].
func New(opts Options) *Stamper {
	return &Stamper{
		path:   opts.Path,
		name:   opts.Name,
		strict: opts.Strict,
	}
}

// Returns the path of the declaration file.
func (s *Stamper) Path() string {
	return s.path
}

// Returns the path of the backup written by [Stamper.Stamp].
func (s *Stamper) BackupPath() string {
	return s.path + backupSuffix
}

// Reports whether a backup exists, meaning a restore is owed.
func (s *Stamper) HasBackup() bool {
	_, err := os.Lstat(s.BackupPath())
	return err == nil
}

// Reports whether this stamper wrote the backup that is still pending, so a
// restore is owed by this run. A leftover backup from another run does not
// count until [Stamper.Adopt] is called.
func (s *Stamper) RestoreOwed() bool {
	return s.owned.Load() && s.HasBackup()
}

// Takes ownership of a leftover backup so that cleanup restores it. Returns
// whether a backup exists.
func (s *Stamper) Adopt() bool {
	if !s.HasBackup() {
		return false
	}
	s.owned.Store(true)
	return true
}

// Parses the declaration file without modifying it.
func (s *Stamper) Read() (Declaration, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Declaration{}, errs.Wrap(ErrFileSystem, err)
	}
	return ParseDeclaration(data, s.name)
}

// Rewrites the declared version to base + "." + shortHash.
//
// A backup of the current content is written before the file is touched. If
// rewriting the file fails the backup is discarded again, leaving no restore
// owed. Stamping while an earlier backup still exists fails with
// [ErrPendingRestore] so the original content is never overwritten.
func (s *Stamper) Stamp(base, shortHash string) (string, error) {
	if s.HasBackup() {
		return "", errs.Wrapf(ErrPendingRestore, "backup %s exists", s.BackupPath())
	}
	if err := s.validateBase(base); err != nil {
		return "", err
	}
	if shortHash == "" {
		return "", errs.Wrapf(ErrVersionFormat, "commit hash is empty")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return "", errs.Wrap(ErrFileSystem, err)
	}
	original, err := os.ReadFile(s.path)
	if err != nil {
		return "", errs.Wrap(ErrFileSystem, err)
	}

	decl, err := ParseDeclaration(original, s.name)
	if err != nil {
		return "", err
	}

	stamped := base + "." + shortHash
	decl, err = decl.WithValue(stamped)
	if err != nil {
		return "", err
	}

	if err := writeFileAtomic(s.BackupPath(), original, info.Mode().Perm()); err != nil {
		return "", errs.Wrap(ErrFileSystem, err)
	}

	if err := writeFileAtomic(s.path, decl.Bytes(), info.Mode().Perm()); err != nil {
		os.Remove(s.BackupPath())
		return "", errs.Wrap(ErrFileSystem, err)
	}

	s.owned.Store(true)
	slog.Info("version stamped", "file", s.path, "version", stamped)
	return stamped, nil
}

// Overwrites the declaration file from the backup and removes the backup.
//
// Any other modification made to the file since stamping is discarded with
// it. Fails with [ErrNotStamped] when there is no backup, so a second restore
// after a successful one is an error.
func (s *Stamper) Restore() error {
	backup, err := os.ReadFile(s.BackupPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotStamped
		}
		return errs.Wrap(ErrFileSystem, err)
	}

	perm := os.FileMode(0644)
	if info, err := os.Stat(s.BackupPath()); err == nil {
		perm = info.Mode().Perm()
	}

	if err := writeFileAtomic(s.path, backup, perm); err != nil {
		return errs.Wrap(ErrFileSystem, err)
	}
	if err := os.Remove(s.BackupPath()); err != nil {
		return errs.Wrap(ErrFileSystem, err)
	}
	s.owned.Store(false)

	slog.Info("version restored", "file", s.path)
	return nil
}

// Checks that base can be stamped.
func (s *Stamper) validateBase(base string) error {
	if strings.TrimSpace(base) == "" {
		return errs.Wrapf(ErrVersionFormat, "base version is empty")
	}
	if s.strict {
		if _, err := semver.StrictNewVersion(base); err != nil {
			return errs.Wrapf(ErrVersionFormat, "base version %q: %w", base, err)
		}
	}
	return nil
}

// Writes data to a temporary file beside path and renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, perm); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
