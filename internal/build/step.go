package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cruciblehq/cruxrel/internal/config"
	"github.com/cruciblehq/cruxrel/internal/errs"
)

// Executes a list of steps in order against the build container.
//
// Steps without a script are standalone modifiers and persist in state. The
// context is checked before each step so a cancelled leg stops between steps
// even when the engine does not observe cancellation itself.
func executeSteps(ctx context.Context, log *slog.Logger, ctr Container, steps []config.Step, state *stepState, out io.Writer) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		if step.Run == "" {
			state.apply(step)
			continue
		}

		label := stepLabel(step.Name, i)
		if err := executeStep(ctx, log.With("step", label), ctr, step, state, out); err != nil {
			return fmt.Errorf("step %s: %w", label, err)
		}
	}
	return nil
}

// Executes a single step with scoped modifier overrides.
//
// The guard, if any, runs first under the same modifiers. A guard exiting
// non-zero skips the step.
func executeStep(ctx context.Context, log *slog.Logger, ctr Container, step config.Step, state *stepState, out io.Writer) error {
	resolved := state.resolve(step)
	env := resolved.environ()

	if step.If != "" {
		code, err := ctr.RunScript(ctx, resolved.shell, step.If, env, resolved.workdir, out)
		if err != nil {
			return err
		}
		if code != 0 {
			log.Info("step skipped", "guard", code)
			return nil
		}
	}

	log.Info("running step", "shell", resolved.shell)
	start := time.Now()

	code, err := ctr.RunScript(ctx, resolved.shell, step.Run, env, resolved.workdir, out)
	if err != nil {
		return err
	}

	log.Info("step finished", "exit", code, "duration", time.Since(start).Round(time.Millisecond))

	if code != 0 {
		return errs.Wrapf(ErrCommandFailed, "exit code %d", code)
	}
	return nil
}

// Returns a label for a step, preferring the name when available and falling
// back to the 1-based index.
func stepLabel(name string, index int) string {
	if name != "" {
		return fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("%d", index+1)
}
