package cli

import (
	"context"
	"log/slog"

	"github.com/cruciblehq/cruxrel/internal/lock"
	"github.com/cruciblehq/cruxrel/internal/paths"
)

// Represents the 'cruxrel restore' command.
type RestoreCmd struct{}

// Executes the restore command.
//
// Runs the same cleanup a pipeline runs on exit. A leftover backup is adopted
// and restored over the version file, and the transient directories and every
// leg's staging directory are removed.
func (c *RestoreCmd) Run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	l, err := lock.Acquire(paths.LockFile(cfg.Workspace))
	if err != nil {
		return err
	}
	defer l.Release()

	env := newEnvironment(cfg)

	env.cleaner.Register(env.packager.StagingDir(cfg.Native.Label))
	for _, leg := range cfg.Containers {
		env.cleaner.Register(env.packager.StagingDir(leg.Label))
	}

	if !env.stamper.Adopt() {
		slog.Info("version file is not stamped", "path", env.stamper.Path())
	}
	return env.cleaner.Cleanup(ctx)
}
