package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/cruciblehq/cruxrel/internal"
	"github.com/cruciblehq/cruxrel/internal/artifact"
	"github.com/cruciblehq/cruxrel/internal/build"
	"github.com/cruciblehq/cruxrel/internal/cleanup"
	"github.com/cruciblehq/cruxrel/internal/config"
	"github.com/cruciblehq/cruxrel/internal/errs"
	"github.com/cruciblehq/cruxrel/internal/native"
	"github.com/cruciblehq/cruxrel/internal/pipeline"
	"github.com/cruciblehq/cruxrel/internal/publish"
	"github.com/cruciblehq/cruxrel/internal/runtime"
	"github.com/cruciblehq/cruxrel/internal/shell"
	"github.com/cruciblehq/cruxrel/internal/vcs"
	"github.com/cruciblehq/cruxrel/internal/version"
)

// Live collaborators for one pipeline run.
type environment struct {
	cfg      *config.Config
	runner   shell.Runner
	rt       *runtime.Runtime // Nil when there are no container legs.
	stamper  *version.Stamper
	cleaner  *cleanup.Manager
	packager *artifact.Packager
}

// Creates the environment for cfg without connecting to containerd.
func newEnvironment(cfg *config.Config) *environment {
	stamper := version.New(version.Options{
		Path:   cfg.Version.File,
		Name:   cfg.Version.Name,
		Strict: cfg.Version.Strict,
	})
	cleaner := cleanup.New(stamper, cfg.Transient...)
	packager := artifact.New(artifact.Options{
		Output:   cfg.Output,
		Project:  cfg.Project,
		Format:   cfg.Archive,
		Register: cleaner.Register,
	})

	env := &environment{
		cfg:      cfg,
		runner:   shell.Exec{},
		stamper:  stamper,
		cleaner:  cleaner,
		packager: packager,
	}

	return env
}

// Creates the containerd client when container legs exist. Failing to
// create it is reported as an unavailable tool.
func (e *environment) connect() error {
	if len(e.cfg.Containers) == 0 {
		return nil
	}
	c := e.cfg.Containerd
	rt, err := runtime.New(c.Address, c.Namespace, c.Snapshotter)
	if err != nil {
		return errs.Wrapf(pipeline.ErrToolUnavailable, "containerd: %w", err)
	}
	e.rt = rt
	return nil
}

// Releases the containerd client.
func (e *environment) Close() {
	if e.rt == nil {
		return
	}
	if err := e.rt.Close(); err != nil {
		slog.Debug("failed to close containerd client", "error", err)
	}
}

// Returns the preflight checks for the run.
func (e *environment) checks(publishing bool) []pipeline.Check {
	checks := []pipeline.Check{pipeline.ToolCheck(e.cfg.Native.Command[0])}
	if e.rt != nil {
		checks = append(checks, pipeline.PingCheck("containerd", e.rt.Ping))
	}
	if publishing && e.cfg.Publish.Host.Kind == config.HostGitHub {
		checks = append(checks, pipeline.ToolCheck(e.cfg.Publish.Host.GH))
	}
	return checks
}

// Reads the revision of the workspace.
func (e *environment) revision() (vcs.Revision, error) {
	return vcs.Head(e.cfg.Workspace, e.cfg.Version.HashLength)
}

// Returns the writer receiving raw build output, nil unless verbose.
func rawOutput() io.Writer {
	if internal.IsVerbose() {
		return os.Stderr
	}
	return nil
}

// Assembles the pipeline runner.
func (e *environment) pipeline(runID string, skipPublish bool) (*pipeline.Runner, error) {
	cfg := e.cfg
	nativeBuilder := native.New(e.runner, native.Options{
		Workspace: cfg.Workspace,
		Output:    rawOutput(),
	})

	opts := pipeline.Options{
		RunID:         runID,
		NativeLeg:     cfg.Native,
		ContainerLegs: cfg.Containers,
		StaticFiles:   cfg.StaticFiles,
		Concurrency:   cfg.Concurrency,
		SkipPublish:   skipPublish,
		Checks:        e.checks(!skipPublish),
		Revision:      e.revision,
		Stamper:       e.stamper,
		Native:        nativeBuilder,
		Packager:      e.packager,
		Cleaner:       e.cleaner,
	}

	if e.rt != nil {
		opts.Containers = build.New(build.NewEngine(e.rt), build.Options{
			RunID:     runID,
			Workspace: cfg.Workspace,
			Output:    rawOutput(),
		})
	}

	if !skipPublish {
		host, err := publish.NewHost(cfg.Publish.Host, e.runner)
		if err != nil {
			return nil, err
		}
		opts.Publisher = publish.New(host, publish.Options{
			Tag:        cfg.Publish.Tag,
			Title:      cfg.Publish.Title,
			Prerelease: cfg.Publish.IsPrerelease(),
		})
	}

	return pipeline.New(opts), nil
}

// Runs the preflight checks on their own.
func (e *environment) preflight(ctx context.Context, publishing bool) error {
	return pipeline.Preflight(ctx, e.checks(publishing))
}
