package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/cruciblehq/cruxrel/internal/lock"
	"github.com/cruciblehq/cruxrel/internal/paths"
	"github.com/cruciblehq/cruxrel/internal/prompt"
	"github.com/cruciblehq/cruxrel/internal/summary"
	"github.com/cruciblehq/cruxrel/internal/version"
)

// Represents the 'cruxrel release' command.
type ReleaseCmd struct {
	Yes         bool `short:"y" help:"Do not ask for confirmation."`
	SkipPublish bool `help:"Build and package without publishing."`
	Concurrency int  `short:"j" help:"Maximum container legs run at once. Overrides the pipeline file." placeholder:"N"`
}

// Executes the release command.
//
// Holds the workspace lock for the whole run. Declining the confirmation is
// not an error. A failed or cancelled run returns an [ExitError] after the
// summary has been printed.
func (c *ReleaseCmd) Run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if c.Concurrency > 0 {
		cfg.Concurrency = c.Concurrency
	}

	l, err := lock.Acquire(paths.LockFile(cfg.Workspace))
	if err != nil {
		return err
	}
	defer l.Release()

	if !c.Yes {
		ok, err := prompt.Confirm(os.Stdin, os.Stderr, c.question(cfg.Publish.Tag))
		if errors.Is(err, prompt.ErrInterrupted) {
			return &ExitError{Code: 130, Err: err}
		}
		if err != nil {
			return err
		}
		if !ok {
			slog.Info("release declined")
			return nil
		}
	}

	env := newEnvironment(cfg)
	if err := env.connect(); err != nil {
		return err
	}
	defer env.Close()

	runID := uuid.NewString()[:8]
	runner, err := env.pipeline(runID, c.SkipPublish)
	if err != nil {
		return err
	}

	slog.Info("starting release", "run", runID, "legs", len(cfg.Containers)+1)

	rep, err := runner.Run(ctx)
	fmt.Println(summary.Render(rep))

	if errors.Is(err, version.ErrPendingRestore) {
		slog.Warn("a previous run left the version file stamped; run 'cruxrel restore' to recover it")
	}

	if err != nil {
		return &ExitError{Code: rep.ExitCode(), Err: err}
	}
	return nil
}

// Returns the confirmation question.
func (c *ReleaseCmd) question(tag string) string {
	if c.SkipPublish {
		return "Stamp the version file and build every leg?"
	}
	return fmt.Sprintf("Stamp the version file, build every leg and replace the %q release?", tag)
}
