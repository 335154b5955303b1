package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cruciblehq/cruxrel/internal/artifact"
	"github.com/cruciblehq/cruxrel/internal/config"
	"github.com/cruciblehq/cruxrel/internal/publish"
	"github.com/cruciblehq/cruxrel/internal/stage"
	"github.com/cruciblehq/cruxrel/internal/vcs"
	"github.com/cruciblehq/cruxrel/internal/version"
)

// Owns the version declaration.
type Stamper interface {
	Read() (version.Declaration, error)
	Stamp(base, shortHash string) (string, error)
}

// Builds the native leg.
type NativeBuilder interface {
	Run(ctx context.Context, leg config.NativeLeg, version string) stage.Result
}

// Builds container legs.
type ContainerBuilder interface {
	Run(ctx context.Context, leg config.ContainerLeg, version string) stage.Result
}

// Turns raw outputs into an archive.
type Packager interface {
	Package(label string, raw, static []string) (string, error)
}

// Replaces the rolling release.
type Publisher interface {
	Publish(ctx context.Context, set *artifact.Set, build publish.Build) (*publish.Result, error)
}

// Undoes transient state.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}

// Collaborators and settings of a [Runner].
type Options struct {
	RunID         string
	NativeLeg     config.NativeLeg
	ContainerLegs []config.ContainerLeg
	StaticFiles   []string // Shipped in every archive.
	Concurrency   int      // Maximum container legs run at once. Values below 1 mean 1.
	SkipPublish   bool     // Build and package without publishing.

	Checks     []Check                      // Run before anything is mutated.
	Revision   func() (vcs.Revision, error) // Reads the commit being released.
	Stamper    Stamper
	Native     NativeBuilder
	Containers ContainerBuilder
	Packager   Packager
	Publisher  Publisher
	Cleaner    Cleaner
	Now        func() time.Time // Defaults to time.Now.
}

// Drives a release run.
type Runner struct {
	opts Options
}

// Creates a new [Runner].
func New(opts Options) *Runner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{opts: opts}
}

// Runs the release and returns its report.
//
// Cleanup runs on every path, on a context that ignores cancellation of ctx.
// The returned error is the run's terminal error, also stored in the report:
// a fatal failure, [ErrNoArtifacts], a publish failure, cancellation, or a
// cleanup failure when nothing else went wrong.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	rep := &Report{RunID: r.opts.RunID, Legs: r.legReports()}
	rep.enter(State{Phase: PhaseInit})

	err := r.release(ctx, rep)

	rep.enter(State{Phase: PhaseCleanup})
	if cerr := r.opts.Cleaner.Cleanup(context.WithoutCancel(ctx)); cerr != nil {
		rep.CleanupErr = cerr
		if err == nil {
			err = cerr
		}
	}

	if rep.Aborted {
		rep.enter(State{Phase: PhaseAborted})
	} else {
		rep.enter(State{Phase: PhaseDone})
	}

	rep.Err = err
	return rep, err
}

// Runs every phase up to and including PUBLISH.
func (r *Runner) release(ctx context.Context, rep *Report) error {
	abort := func(err error) error {
		rep.Aborted = true
		if ctx.Err() != nil {
			rep.Cancelled = true
		}
		return err
	}

	if err := Preflight(ctx, r.opts.Checks); err != nil {
		return abort(err)
	}

	rc, err := r.releaseContext()
	if err != nil {
		return abort(err)
	}
	rep.Context = rc

	if err := ctx.Err(); err != nil {
		return abort(err)
	}

	// STAMPING
	rep.enter(State{Phase: PhaseStamping})
	decl, err := r.opts.Stamper.Read()
	if err != nil {
		return abort(err)
	}
	rc.BaseVersion = decl.Value()
	rep.Context = rc

	buildVersion, err := r.opts.Stamper.Stamp(rc.BaseVersion, rc.ShortHash)
	if err != nil {
		return abort(err)
	}
	rc.BuildVersion = buildVersion
	rep.Context = rc
	slog.Info("release version", "version", buildVersion, "branch", rc.Branch)

	// Native leg.
	if err := ctx.Err(); err != nil {
		return abort(err)
	}
	if err := r.runNative(ctx, rep, buildVersion); err != nil {
		return abort(err)
	}

	// Container legs.
	if err := r.runContainers(ctx, rep, buildVersion); err != nil {
		return abort(err)
	}
	if err := ctx.Err(); err != nil {
		return abort(err)
	}

	// PUBLISH
	rep.enter(State{Phase: PhasePublish})
	set := &artifact.Set{}
	for _, a := range rep.Artifacts() {
		set.Add(a)
	}
	if set.Len() == 0 {
		return ErrNoArtifacts
	}
	if r.opts.SkipPublish {
		rep.SkipPublish = true
		slog.Info("publishing skipped", "artifacts", set.Len())
		return nil
	}

	res, err := r.opts.Publisher.Publish(ctx, set, publish.Build{
		Commit:    rc.FullHash,
		Timestamp: rc.Timestamp,
	})
	rep.Publish = res
	if err != nil {
		rep.PublishErr = err
		if ctx.Err() != nil {
			rep.Cancelled = true
		}
		return err
	}
	return nil
}

// Reads the revision being released.
func (r *Runner) releaseContext() (ReleaseContext, error) {
	rev, err := r.opts.Revision()
	if err != nil {
		return ReleaseContext{}, err
	}

	return ReleaseContext{
		ShortHash: rev.ShortHash,
		FullHash:  rev.FullHash,
		Branch:    rev.Branch,
		Timestamp: r.opts.Now().UTC(),
	}, nil
}

// Builds and packages the native leg. Every failure is fatal.
func (r *Runner) runNative(ctx context.Context, rep *Report, buildVersion string) error {
	leg := r.opts.NativeLeg

	rep.enter(State{Phase: PhaseBuildNative})
	start := time.Now()
	res := r.opts.Native.Run(ctx, leg, buildVersion)
	if !res.OK() {
		return r.fatal(ctx, rep, 0, res.Err)
	}

	rep.enter(State{Phase: PhasePackageNative})
	a, err := r.pack(0, leg.Label, res.Outputs)
	if err != nil {
		return r.fatal(ctx, rep, 0, err)
	}

	rep.updateLeg(0, func(l *LegReport) {
		l.Status = LegSucceeded
		l.Artifact = a
		l.Duration = time.Since(start)
	})
	return nil
}

// Builds and packages every container leg.
//
// Legs are started in declaration order, at most Concurrency at a time. Each
// leg's failure is classified on its own; only a required leg's fatal
// failure is returned, which also cancels the remaining legs.
func (r *Runner) runContainers(ctx context.Context, rep *Report, buildVersion string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i, leg := range r.opts.ContainerLegs {
		g.Go(func() error {
			return r.runContainer(gctx, rep, i, leg, buildVersion)
		})
	}

	return g.Wait()
}

// Builds and packages container leg i.
func (r *Runner) runContainer(ctx context.Context, rep *Report, i int, leg config.ContainerLeg, buildVersion string) error {
	index := i + 1

	if ctx.Err() != nil {
		rep.updateLeg(index, func(l *LegReport) { l.Status = LegCancelled })
		return nil
	}

	rep.enter(State{Phase: PhaseBuildContainer, Leg: i})
	start := time.Now()
	res := r.opts.Containers.Run(ctx, leg, buildVersion)

	switch {
	case res.OK():
		rep.enter(State{Phase: PhasePackageContainer, Leg: i})
		a, err := r.pack(index, leg.Label, res.Outputs)
		if err != nil {
			r.softFail(rep, index, leg.Label, err)
			return nil
		}
		rep.updateLeg(index, func(l *LegReport) {
			l.Status = LegSucceeded
			l.Artifact = a
			l.Duration = time.Since(start)
		})
		return nil

	case ctx.Err() != nil:
		rep.updateLeg(index, func(l *LegReport) {
			l.Status = LegCancelled
			l.Err = res.Err
		})
		return nil

	case res.Outcome == stage.FatalFailure && leg.IsRequired():
		return r.fatal(ctx, rep, index, res.Err)
	}

	r.softFail(rep, index, leg.Label, res.Err)
	return nil
}

// Packages a leg and measures the archive.
func (r *Runner) pack(index int, label string, outputs []string) (*artifact.Artifact, error) {
	path, err := r.opts.Packager.Package(label, outputs, r.opts.StaticFiles)
	if err != nil {
		return nil, err
	}

	a := &artifact.Artifact{Index: index, Label: label, Path: path}
	if info, err := os.Stat(path); err == nil {
		a.Size = info.Size()
	}
	return a, nil
}

// Records a fatal failure of the leg at index and returns it as a
// [BuildError]. A failure caused by cancellation is returned unchanged.
func (r *Runner) fatal(ctx context.Context, rep *Report, index int, err error) error {
	if ctx.Err() != nil {
		rep.updateLeg(index, func(l *LegReport) {
			l.Status = LegCancelled
			l.Err = err
		})
		return errors.Join(ctx.Err(), err)
	}

	label := rep.Legs[index].Label
	slog.Error("leg failed", "leg", label, "error", err)

	berr := &BuildError{Leg: label, Fatal: true, Err: err}
	rep.updateLeg(index, func(l *LegReport) {
		l.Status = LegFailed
		l.Err = berr
	})
	return berr
}

// Records a non-fatal failure of the leg at index.
func (r *Runner) softFail(rep *Report, index int, label string, err error) {
	slog.Warn("leg skipped", "leg", label, "error", err)

	berr := &BuildError{Leg: label, Fatal: false, Err: err}
	rep.soft(berr)
	rep.updateLeg(index, func(l *LegReport) {
		l.Status = LegSoftFailed
		l.Err = berr
	})
}

// Returns the initial leg reports, native leg first.
func (r *Runner) legReports() []LegReport {
	legs := make([]LegReport, 0, len(r.opts.ContainerLegs)+1)
	legs = append(legs, LegReport{
		Index:    0,
		Label:    r.opts.NativeLeg.Label,
		Native:   true,
		Required: true,
	})
	for i, leg := range r.opts.ContainerLegs {
		legs = append(legs, LegReport{
			Index:    i + 1,
			Label:    leg.Label,
			Required: leg.IsRequired(),
			Soft:     leg.Soft,
		})
	}
	return legs
}
