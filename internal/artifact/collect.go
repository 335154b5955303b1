package artifact

import (
	"path/filepath"
	"slices"

	"github.com/cruciblehq/cruxrel/internal/errs"
)

// Expands output patterns relative to root into absolute, sorted paths.
//
// Patterns use [filepath.Match] syntax. Absolute patterns are used as-is.
// A pattern matching nothing contributes nothing; the caller decides whether
// an empty result is an error.
func Collect(root string, patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(root, pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errs.Wrapf(ErrPackaging, "pattern %q: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)
	return slices.Compact(paths), nil
}
