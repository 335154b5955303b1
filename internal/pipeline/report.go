package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/cruciblehq/cruxrel/internal/artifact"
	"github.com/cruciblehq/cruxrel/internal/publish"
)

// Where a leg ended up.
type LegStatus int

const (
	LegPending    LegStatus = iota // Never reached.
	LegSucceeded                   // Built and packaged.
	LegSoftFailed                  // Failed without aborting the run.
	LegFailed                      // Failed and aborted the run.
	LegCancelled                   // Stopped by cancellation.
)

// Returns the status name.
func (s LegStatus) String() string {
	switch s {
	case LegSucceeded:
		return "ok"
	case LegSoftFailed:
		return "skipped"
	case LegFailed:
		return "failed"
	case LegCancelled:
		return "cancelled"
	}
	return "pending"
}

// Outcome of one leg.
type LegReport struct {
	Index    int    // 0 for the native leg, i+1 for container leg i.
	Label    string // Platform label.
	Native   bool
	Required bool
	Soft     bool
	Status   LegStatus
	Err      error
	Artifact *artifact.Artifact // Set when the leg was packaged.
	Duration time.Duration
}

// Record of a release run.
type Report struct {
	mu sync.Mutex

	RunID        string
	Context      ReleaseContext
	Trace        []State
	Legs         []LegReport
	SoftFailures []error
	Publish      *publish.Result // Set when publishing was attempted.
	PublishErr   error
	SkipPublish  bool // Publishing was disabled for this run.
	CleanupErr   error
	Err          error // Terminal error of the run, nil on full success.
	Aborted      bool
	Cancelled    bool
}

// Records a transition.
func (r *Report) enter(s State) {
	r.mu.Lock()
	r.Trace = append(r.Trace, s)
	r.mu.Unlock()
	slog.Debug("pipeline state", "state", s.String())
}

// Returns a copy of the trace.
func (r *Report) States() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.Trace)
}

// Returns the final state.
func (r *Report) Final() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Trace) == 0 {
		return State{Phase: PhaseInit}
	}
	return r.Trace[len(r.Trace)-1]
}

// Updates the leg at index.
func (r *Report) updateLeg(index int, fn func(*LegReport)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.Legs[index])
}

// Records a non-fatal failure.
func (r *Report) soft(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SoftFailures = append(r.SoftFailures, err)
}

// Returns the artifacts of every packaged leg, in leg order.
func (r *Report) Artifacts() []artifact.Artifact {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []artifact.Artifact
	for _, leg := range r.Legs {
		if leg.Artifact != nil {
			out = append(out, *leg.Artifact)
		}
	}
	return out
}

// Returns the process exit code for the run: 0 on full success, 130 when
// cancelled and 1 for every other failure.
func (r *Report) ExitCode() int {
	switch {
	case r.Cancelled || errors.Is(r.Err, context.Canceled):
		return 130
	case r.Err != nil:
		return 1
	}
	return 0
}
