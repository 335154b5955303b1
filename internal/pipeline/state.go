package pipeline

import (
	"fmt"
	"time"

	"github.com/cruciblehq/cruxrel/internal/stage"
)

// A step of the release state machine.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseStamping
	PhaseBuildNative
	PhasePackageNative
	PhaseBuildContainer
	PhasePackageContainer
	PhasePublish
	PhaseCleanup
	PhaseDone
	PhaseAborted
)

var phaseNames = [...]string{
	PhaseInit:             "INIT",
	PhaseStamping:         "STAMPING",
	PhaseBuildNative:      "BUILD_NATIVE",
	PhasePackageNative:    "PACKAGE_NATIVE",
	PhaseBuildContainer:   "BUILD_CONTAINER",
	PhasePackageContainer: "PACKAGE_CONTAINER",
	PhasePublish:          "PUBLISH",
	PhaseCleanup:          "CLEANUP",
	PhaseDone:             "DONE",
	PhaseAborted:          "ABORTED",
}

// Returns the phase name.
func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("PHASE(%d)", int(p))
}

// Reports whether the phase is indexed by container leg.
func (p Phase) PerLeg() bool {
	return p == PhaseBuildContainer || p == PhasePackageContainer
}

// A position in the state machine. Leg is the 0-based container leg index
// for per-leg phases and unused otherwise.
type State struct {
	Phase Phase
	Leg   int
}

// Returns the state name, such as "BUILD_CONTAINER[1]".
func (s State) String() string {
	if s.Phase.PerLeg() {
		return fmt.Sprintf("%s[%d]", s.Phase, s.Leg)
	}
	return s.Phase.String()
}

// Immutable facts about the build being released.
type ReleaseContext struct {
	ShortHash    string
	FullHash     string
	Branch       string
	BaseVersion  string
	BuildVersion string    // BaseVersion + "." + ShortHash.
	Timestamp    time.Time // UTC.
}

// Outcome of a single stage.
type StageResult = stage.Result
