package publish

import (
	"context"
	"errors"
	"strings"

	"github.com/cruciblehq/cruxrel/internal/errs"
	"github.com/cruciblehq/cruxrel/internal/shell"
)

// GitHub Releases, driven through the gh command-line tool.
//
// gh reads its token from GH_TOKEN or its own credential store.
type GitHub struct {
	runner     shell.Runner
	gh         string // Path or name of the gh binary.
	repository string // owner/name.
}

// Creates a GitHub host for repository.
func NewGitHub(runner shell.Runner, gh, repository string) *GitHub {
	if gh == "" {
		gh = "gh"
	}
	return &GitHub{runner: runner, gh: gh, repository: repository}
}

// Returns the gh binary used by the host.
func (g *GitHub) Program() string {
	return g.gh
}

func (g *GitHub) ReleaseExists(ctx context.Context, tag string) (bool, error) {
	res, err := g.runner.Run(ctx, g.gh, []string{
		"release", "view", tag,
		"--repo", g.repository,
		"--json", "tagName",
	})
	if err == nil {
		return true, nil
	}
	if res != nil && errors.Is(err, shell.ErrExit) && strings.Contains(res.Stderr, "not found") {
		return false, nil
	}
	return false, ghError(res, err)
}

func (g *GitHub) DeleteRelease(ctx context.Context, tag string, deleteTag bool) error {
	args := []string{"release", "delete", tag, "--repo", g.repository, "--yes"}
	if deleteTag {
		args = append(args, "--cleanup-tag")
	}
	res, err := g.runner.Run(ctx, g.gh, args)
	if err != nil {
		return ghError(res, err)
	}
	return nil
}

// Creates the release in one gh invocation, uploading every asset.
//
// The notes are passed on stdin. gh prints the release URL as the last line
// of its output.
func (g *GitHub) CreateRelease(ctx context.Context, rel Release) (string, error) {
	args := []string{
		"release", "create", rel.Tag,
		"--repo", g.repository,
		"--title", rel.Title,
		"--notes-file", "-",
	}
	if rel.Target != "" {
		args = append(args, "--target", rel.Target)
	}
	if rel.Prerelease {
		args = append(args, "--prerelease")
	}
	args = append(args, rel.Assets...)

	res, err := g.runner.Run(ctx, g.gh, args, shell.WithStdin(strings.NewReader(rel.Notes)))
	if err != nil {
		return "", ghError(res, err)
	}

	return lastLine(res.Stdout), nil
}

// Attaches gh's own error message to err.
func ghError(res *shell.Result, err error) error {
	if res != nil {
		if msg := strings.TrimSpace(res.Stderr); msg != "" {
			return errs.Wrapf(err, "%s", msg)
		}
	}
	return err
}

// Returns the last non-empty line of s.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
