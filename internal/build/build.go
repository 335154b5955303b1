package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	goruntime "runtime"
	"strings"
	"time"

	"github.com/containerd/platforms"

	"github.com/cruciblehq/cruxrel/internal/artifact"
	"github.com/cruciblehq/cruxrel/internal/config"
	"github.com/cruciblehq/cruxrel/internal/errs"
	"github.com/cruciblehq/cruxrel/internal/logging"
	"github.com/cruciblehq/cruxrel/internal/runtime"
	"github.com/cruciblehq/cruxrel/internal/stage"
)

// Environment variables exported to every build container.
const (
	EnvVersion  = "CRUXREL_VERSION"  // Stamped build version.
	EnvArch     = "CRUXREL_ARCH"     // Target architecture (e.g., "arm64").
	EnvPlatform = "CRUXREL_PLATFORM" // Target OCI platform (e.g., "linux/arm64").
	EnvLabel    = "CRUXREL_LABEL"    // Platform label of the leg.
)

// Runs of characters not allowed in a containerd ID segment.
var idInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Controls leg execution.
type Options struct {
	RunID     string    // Pipeline run identifier, part of every container ID.
	Workspace string    // Host directory mounted at /workspace.
	Output    io.Writer // Receives raw step output in addition to the debug log. May be nil.
}

// Runs container build legs.
type Adapter struct {
	engine    Engine
	runID     string
	workspace string
	output    io.Writer
}

// Creates a new [Adapter].
func New(engine Engine, opts Options) *Adapter {
	return &Adapter{
		engine:    engine,
		runID:     opts.RunID,
		workspace: opts.Workspace,
		output:    opts.Output,
	}
}

// Builds one leg and reports its outcome.
//
// Any failure, including a runtime error or an expired leg timeout, is
// reported as a soft failure when the leg is marked soft and as a fatal
// failure otherwise. The container is destroyed before Run returns.
func (a *Adapter) Run(ctx context.Context, leg config.ContainerLeg, version string) stage.Result {
	outputs, err := a.run(ctx, leg, version)
	if err != nil {
		return stage.Failed(errs.Wrapf(ErrBuild, "leg %s: %w", leg.Label, err), leg.Soft)
	}
	return stage.Succeeded(outputs)
}

// Pulls, starts, executes and collects a leg.
func (a *Adapter) run(parent context.Context, leg config.ContainerLeg, version string) ([]string, error) {
	log := slog.With("leg", leg.Label)
	platform := legPlatform(leg)

	ctx := parent
	if timeout := leg.Timeout.Std(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, timeout)
		defer cancel()
	}

	// Teardown must survive cancellation of the leg.
	teardown := context.WithoutCancel(parent)

	start := time.Now()
	log.Info("building leg", "image", leg.Image, "platform", platform)

	if err := a.engine.Pull(ctx, leg.Image, platform); err != nil {
		return nil, a.failure(parent, ctx, leg, err)
	}
	if leg.RemoveImage {
		defer a.removeImage(teardown, log, leg.Image)
	}

	env, err := legEnv(leg, version, platform)
	if err != nil {
		return nil, err
	}

	ctr, err := a.engine.Start(ctx, leg.Image, runtime.ContainerSpec{
		ID:          a.containerID(leg.Label),
		Platform:    platform,
		Workspace:   a.workspace,
		Env:         env,
		HostNetwork: leg.Network == config.NetworkHost,
	})
	if err != nil {
		return nil, a.failure(parent, ctx, leg, err)
	}
	defer ctr.Destroy(teardown)

	out := logging.NewLineWriter(log)
	defer out.Flush()

	var w io.Writer = out
	if a.output != nil {
		w = io.MultiWriter(out, a.output)
	}

	if err := executeSteps(ctx, log, ctr, leg.Steps, newStepState(leg.Shell), w); err != nil {
		return nil, a.failure(parent, ctx, leg, err)
	}

	outputs, err := artifact.Collect(a.workspace, leg.Outputs)
	if err != nil {
		return nil, err
	}

	log.Info("leg finished", "duration", time.Since(start).Round(time.Millisecond), "outputs", len(outputs))
	return outputs, nil
}

// Tags err with [ErrTimeout] when the leg's own deadline caused it.
func (a *Adapter) failure(parent, ctx context.Context, leg config.ContainerLeg, err error) error {
	if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errs.Wrapf(ErrTimeout, "after %s: %w", leg.Timeout.Std(), err)
	}
	return err
}

// Removes a leg's image, logging instead of failing.
func (a *Adapter) removeImage(ctx context.Context, log *slog.Logger, ref string) {
	if err := a.engine.RemoveImage(ctx, ref); err != nil {
		log.Warn("failed to remove image", "image", ref, "error", err)
	}
}

// Returns the container ID for a leg, scoped to this run.
func (a *Adapter) containerID(label string) string {
	slug := strings.Trim(idInvalid.ReplaceAllString(strings.ToLower(label), "-"), "-")
	return fmt.Sprintf("cruxrel-%s-%s", a.runID, slug)
}

// Returns the leg's target platform, defaulting to Linux on the host
// architecture.
func legPlatform(leg config.ContainerLeg) string {
	if leg.Platform != "" {
		return leg.Platform
	}
	return "linux/" + goruntime.GOARCH
}

// Returns the container environment for a leg.
//
// The leg's own variables come first so that the release variables always
// win.
func legEnv(leg config.ContainerLeg, version, platform string) ([]string, error) {
	p, err := platforms.Parse(platform)
	if err != nil {
		return nil, errs.Wrap(ErrBuild, err)
	}

	vars := make(map[string]string, len(leg.Env)+4)
	for k, v := range leg.Env {
		vars[k] = v
	}
	vars[EnvVersion] = version
	vars[EnvArch] = p.Architecture
	vars[EnvPlatform] = platform
	vars[EnvLabel] = leg.Label

	return environ(vars), nil
}
