// Package vcs reads the commit and branch a release is cut from.
//
// The repository is only ever read: HEAD is resolved to its full hash and,
// when it points at a branch, to the branch's short name.
package vcs

import (
	"errors"

	"github.com/go-git/go-git/v5"

	"github.com/cruciblehq/cruxrel/internal/errs"
)

// Branch name reported when HEAD is detached, matching git's own
// `rev-parse --abbrev-ref HEAD`.
const DetachedHead = "HEAD"

var (
	ErrRepository = errors.New("cannot read repository")
	ErrHashLength = errors.New("invalid abbreviated hash length")
)

// Revision of the working tree.
type Revision struct {
	FullHash  string // 40-character commit hash.
	ShortHash string // Abbreviated commit hash.
	Branch    string // Checked out branch, or [DetachedHead].
}

// Reads the HEAD revision of the repository containing dir.
//
// Parent directories are searched for the .git directory, so dir may be any
// path inside the work tree. The short hash is the first shortLen characters
// of the full hash.
func Head(dir string, shortLen int) (Revision, error) {
	if shortLen < 4 || shortLen > 40 {
		return Revision{}, errs.Wrapf(ErrHashLength, "%d", shortLen)
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Revision{}, errs.Wrap(ErrRepository, err)
	}

	head, err := repo.Head()
	if err != nil {
		return Revision{}, errs.Wrap(ErrRepository, err)
	}

	full := head.Hash().String()
	branch := DetachedHead
	if head.Name().IsBranch() {
		branch = head.Name().Short()
	}

	return Revision{
		FullHash:  full,
		ShortHash: full[:shortLen],
		Branch:    branch,
	}, nil
}
