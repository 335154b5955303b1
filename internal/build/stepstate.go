package build

import (
	"maps"
	"slices"

	"github.com/cruciblehq/cruxrel/internal/config"
)

// Modifiers in effect for the remaining steps of a leg.
//
// A step without a script changes the state for every later step through
// apply. A step with a script sees its own modifiers through resolve, which
// leaves the leg's state untouched.
type stepState struct {
	shell   string
	workdir string
	env     map[string]string
}

// Creates a new [stepState] using shell until a modifier changes it.
func newStepState(shell string) *stepState {
	if shell == "" {
		shell = config.DefaultShell
	}
	return &stepState{shell: shell, env: map[string]string{}}
}

// Overlays the modifiers of step onto the state.
func (s *stepState) apply(step config.Step) {
	if step.Shell != "" {
		s.shell = step.Shell
	}
	if step.Workdir != "" {
		s.workdir = step.Workdir
	}
	maps.Copy(s.env, step.Env)
}

// Returns the state a step with a script runs with.
func (s *stepState) resolve(step config.Step) *stepState {
	r := &stepState{shell: s.shell, workdir: s.workdir, env: maps.Clone(s.env)}
	r.apply(step)
	return r
}

// Formats the environment as sorted "key=value" strings.
func (s *stepState) environ() []string {
	return environ(s.env)
}

// Formats a variable map as sorted "key=value" strings.
func environ(vars map[string]string) []string {
	env := make([]string, 0, len(vars))
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		env = append(env, k+"="+vars[k])
	}
	return env
}
