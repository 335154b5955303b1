package artifact

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cruciblehq/cruxrel/internal/errs"
	"github.com/cruciblehq/cruxrel/internal/paths"
)

const (
	FormatZip   = "zip"    // Deflate-compressed zip archive.
	FormatTarGz = "tar.gz" // Gzip-compressed tarball.
)

// Runs of characters not allowed in a slug.
var slugInvalid = regexp.MustCompile(`[^a-z0-9._-]+`)

// Returns the filesystem-safe form of a platform label.
//
// The label is lowercased and every run of characters outside [a-z0-9._-]
// becomes a single dash, so "Linux ARM64/glibc" becomes "linux-arm64-glibc".
// Leading and trailing dots and dashes are dropped, so "." and ".." have an
// empty slug and can never name the output directory or its parent.
func Slug(label string) string {
	return strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(label), "-"), ".-")
}

// Controls archive production.
type Options struct {
	Output   string                // Directory receiving staging directories and archives.
	Project  string                // Archive name prefix.
	Format   string                // [FormatZip] or [FormatTarGz]. Defaults to zip.
	Register func(paths ...string) // Receives staging directories to remove on cleanup. May be nil.
}

// Packages raw outputs into per-platform archives.
type Packager struct {
	output   string
	project  string
	format   string
	register func(paths ...string)
}

// Creates a new [Packager].
func New(opts Options) *Packager {
	format := opts.Format
	if format == "" {
		format = FormatZip
	}
	register := opts.Register
	if register == nil {
		register = func(...string) {}
	}
	return &Packager{
		output:   opts.Output,
		project:  opts.Project,
		format:   format,
		register: register,
	}
}

// Returns the archive path for a label.
func (p *Packager) ArchivePath(label string) string {
	name := Slug(label)
	if p.project != "" {
		name = Slug(p.project) + "-" + name
	}
	return filepath.Join(p.output, name+"."+p.format)
}

// Returns the staging directory for a label.
func (p *Packager) StagingDir(label string) string {
	return filepath.Join(p.output, Slug(label))
}

// Packages the raw outputs of one leg together with the shared static files.
//
// The staging directory <output>/<slug> is removed and recreated, filled with
// copies of every raw output and static file, and archived into the path
// returned by [Packager.ArchivePath]. The archive is written to a temporary
// file first and renamed into place, replacing any previous archive. Empty
// raw outputs are an error.
func (p *Packager) Package(label string, raw, static []string) (string, error) {
	if Slug(label) == "" {
		return "", errs.Wrapf(ErrLabel, "%q", label)
	}
	if len(raw) == 0 {
		return "", errs.Wrapf(ErrPackaging, "leg %s produced no outputs", label)
	}

	staging := p.StagingDir(label)
	if err := os.RemoveAll(staging); err != nil {
		return "", errs.Wrap(ErrFileSystem, err)
	}
	if err := os.MkdirAll(staging, paths.DefaultDirMode); err != nil {
		return "", errs.Wrap(ErrFileSystem, err)
	}
	p.register(staging)

	for _, src := range append(append([]string{}, raw...), static...) {
		if err := copyTree(src, filepath.Join(staging, filepath.Base(src))); err != nil {
			return "", errs.Wrapf(ErrPackaging, "stage %s: %w", src, err)
		}
	}

	archive := p.ArchivePath(label)
	if err := p.writeArchive(staging, archive); err != nil {
		return "", err
	}

	slog.Info("packaged artifact", "leg", label, "archive", archive)
	return archive, nil
}

// Writes the staging tree to dest through a temporary file and a rename.
func (p *Packager) writeArchive(staging, dest string) error {
	tmp, err := os.CreateTemp(p.output, "."+filepath.Base(dest)+"-*")
	if err != nil {
		return errs.Wrap(ErrFileSystem, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	switch p.format {
	case FormatZip:
		err = writeZip(tmp, staging)
	case FormatTarGz:
		err = writeTarGz(tmp, staging)
	default:
		err = fmt.Errorf("unsupported archive format %q", p.format)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errs.Wrap(ErrPackaging, err)
	}

	if err := os.Chmod(tmpName, paths.DefaultFileMode); err != nil {
		return errs.Wrap(ErrFileSystem, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return errs.Wrap(ErrFileSystem, err)
	}
	return nil
}

// Copies a file, symlink or directory tree from src to dst.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case info.Mode().IsRegular():
			return copyFile(path, target, info.Mode().Perm())
		}
		return nil
	})
}

// Copies a regular file, creating parent directories as needed.
func copyFile(src, dst string, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), paths.DefaultDirMode); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
