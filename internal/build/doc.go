// Package build runs container build legs.
//
// A leg is an ordered recipe of named steps executed inside a disposable
// container created from a pinned base image for one target platform. The
// [Adapter] pulls the image, starts a fresh container with the workspace
// bind-mounted read-write, runs each step as a shell script, collects the
// leg's outputs from the workspace, and destroys the container on every path.
//
// Steps may carry an "if" guard script; the step runs only when the guard
// exits zero. Step state (environment variables, working directory, shell)
// set by standalone modifier steps is accumulated across the remaining steps
// of the leg. The first failing step ends the recipe.
//
// The outcome of a leg is reported as a [stage.Result]. Failures are tiered
// by the leg's soft flag; whether a fatal failure aborts the pipeline is
// decided by the caller.
//
// Example usage:
//
//	adapter := build.New(build.NewEngine(rt), build.Options{
//	    RunID:     "1a2b3c4d",
//	    Workspace: "/home/me/project",
//	})
//
//	result := adapter.Run(ctx, leg, "1.2.0.ab12cd3")
//	if !result.OK() {
//	    return result.Err
//	}
package build
