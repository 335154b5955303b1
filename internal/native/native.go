package native

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"time"

	"github.com/cruciblehq/cruxrel/internal/artifact"
	"github.com/cruciblehq/cruxrel/internal/config"
	"github.com/cruciblehq/cruxrel/internal/errs"
	"github.com/cruciblehq/cruxrel/internal/logging"
	"github.com/cruciblehq/cruxrel/internal/shell"
	"github.com/cruciblehq/cruxrel/internal/stage"
)

// Environment variables exported to the native packager.
const (
	EnvVersion = "CRUXREL_VERSION"
	EnvLabel   = "CRUXREL_LABEL"
)

// Controls native builds.
type Options struct {
	Workspace string    // Working directory of the packager.
	Output    io.Writer // Receives raw packager output in addition to the debug log. May be nil.
}

// Runs the native packager.
type Builder struct {
	runner    shell.Runner
	workspace string
	output    io.Writer
}

// Creates a new [Builder].
func New(runner shell.Runner, opts Options) *Builder {
	return &Builder{
		runner:    runner,
		workspace: opts.Workspace,
		output:    opts.Output,
	}
}

// Runs the native packager and reports its outcome.
//
// Failures are always fatal. An expired leg timeout kills the packager and is
// reported as [ErrTimeout].
func (b *Builder) Run(ctx context.Context, leg config.NativeLeg, version string) stage.Result {
	outputs, err := b.run(ctx, leg, version)
	if err != nil {
		return stage.Failed(errs.Wrapf(ErrBuild, "leg %s: %w", leg.Label, err), false)
	}
	return stage.Succeeded(outputs)
}

func (b *Builder) run(parent context.Context, leg config.NativeLeg, version string) ([]string, error) {
	log := slog.With("leg", leg.Label)

	ctx := parent
	if timeout := leg.Timeout.Std(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, timeout)
		defer cancel()
	}

	env := make(map[string]string, len(leg.Env)+2)
	maps.Copy(env, leg.Env)
	env[EnvVersion] = version
	env[EnvLabel] = leg.Label

	out := logging.NewLineWriter(log)
	defer out.Flush()

	var w io.Writer = out
	if b.output != nil {
		w = io.MultiWriter(out, b.output)
	}

	start := time.Now()
	log.Info("building leg", "command", leg.Command)

	_, err := b.runner.Run(ctx, leg.Command[0], leg.Command[1:],
		shell.WithDir(b.workspace),
		shell.WithEnv(env),
		shell.WithStream(w),
	)
	if err != nil {
		if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errs.Wrapf(ErrTimeout, "after %s: %w", leg.Timeout.Std(), err)
		}
		return nil, err
	}

	outputs, err := artifact.Collect(b.workspace, leg.Outputs)
	if err != nil {
		return nil, err
	}

	log.Info("leg finished", "duration", time.Since(start).Round(time.Millisecond), "outputs", len(outputs))
	return outputs, nil
}
