package pipeline

import (
	"context"
	"errors"

	"github.com/cruciblehq/cruxrel/internal/errs"
	"github.com/cruciblehq/cruxrel/internal/shell"
)

// A tool availability check run before anything is mutated.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// Returns a check that program resolves on PATH.
func ToolCheck(program string) Check {
	return Check{
		Name: program,
		Run: func(context.Context) error {
			_, err := shell.LookPath(program)
			return err
		},
	}
}

// Returns a check that a service answers ping.
func PingCheck(name string, ping func(ctx context.Context) error) Check {
	return Check{Name: name, Run: ping}
}

// Runs every check and reports all failures together, each wrapped with
// [ErrToolUnavailable].
func Preflight(ctx context.Context, checks []Check) error {
	var problems []error
	for _, c := range checks {
		if err := c.Run(ctx); err != nil {
			problems = append(problems, errs.Wrapf(ErrToolUnavailable, "%s: %w", c.Name, err))
		}
	}
	return errors.Join(problems...)
}
