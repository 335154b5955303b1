package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/cio"
	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/cruciblehq/cruxrel/internal/errs"
)

// Grace period for a killed process to report its exit.
const killGrace = 10 * time.Second

// Sequence counter for generating unique exec process identifiers.
var execSeq uint64

// Returns a unique exec process identifier.
func nextExecID() string {
	return fmt.Sprintf("exec-%d", atomic.AddUint64(&execSeq, 1))
}

// Runs a script inside the container.
//
// The script is written to the shell's stdin and run as "shell -e -s", so
// multi-line scripts execute as-is and the first failing command stops the
// script. Both output streams are written to out, which may be nil. env and
// workdir override the container's OCI spec for this execution only; a
// workdir that does not exist is created first. A non-zero exit code is not
// treated as an error; the caller decides.
//
// When ctx ends before the script exits, the process is killed and the
// context error is returned.
func (c *Container) RunScript(ctx context.Context, shell, script string, env []string, workdir string, out io.Writer) (int, error) {
	if workdir != "" {
		if err := c.MkdirAll(ctx, workdir); err != nil {
			return 0, err
		}
	}

	if !strings.HasSuffix(script, "\n") {
		script += "\n"
	}

	pspec, err := c.buildProcessSpec(ctx, env, workdir, shell, "-e", "-s")
	if err != nil {
		return 0, errs.Wrap(ErrRuntime, err)
	}

	return c.execProcess(ctx, pspec, strings.NewReader(script), out, out)
}

// Creates a directory and all parents inside the container.
func (c *Container) MkdirAll(ctx context.Context, dir string) error {
	return c.mustExec(ctx, "mkdir", "-p", dir)
}

// Runs a command directly and returns an error if it exits non-zero.
func (c *Container) mustExec(ctx context.Context, args ...string) error {
	pspec, err := c.buildProcessSpec(ctx, nil, "", args...)
	if err != nil {
		return errs.Wrap(ErrRuntime, err)
	}

	var stderr bytes.Buffer
	code, err := c.execProcess(ctx, pspec, nil, nil, &stderr)
	if err != nil {
		return err
	}
	if code != 0 {
		return errs.Wrapf(ErrRuntime, "%s exited with code %d: %s", args[0], code, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Builds an OCI process spec for running a command inside the container.
//
// The base values are copied from the container's own OCI spec, then env and
// workdir are overridden if provided.
func (c *Container) buildProcessSpec(ctx context.Context, env []string, workdir string, args ...string) (*specs.Process, error) {
	ctr, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		return nil, err
	}

	spec, err := ctr.Spec(ctx)
	if err != nil {
		return nil, err
	}

	pspec := *spec.Process
	pspec.Terminal = false
	pspec.Args = args

	if len(env) > 0 {
		pspec.Env = mergeEnv(pspec.Env, env)
	}
	if workdir != "" {
		pspec.Cwd = workdir
	}

	return &pspec, nil
}

// Merges override env vars on top of a base env slice.
func mergeEnv(base, overrides []string) []string {
	merged := make(map[string]string, len(base)+len(overrides))
	for _, entry := range base {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}
	for _, entry := range overrides {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}

	result := make([]string, 0, len(merged))
	for k, v := range merged {
		result = append(result, k+"="+v)
	}
	return result
}

// Starts a process inside the container's running task, waits for it to exit,
// and returns the exit code.
//
// The process is attached to the task as an additional exec. Nil output
// streams are replaced with io.Discard. When stdin is provided, the
// container's stdin is explicitly closed after the reader returns EOF, since
// the containerd shim holds both ends of the stdin FIFO open and will not
// propagate EOF on its own.
func (c *Container) execProcess(ctx context.Context, pspec *specs.Process, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	task, err := c.loadTask(ctx)
	if err != nil {
		return 0, err
	}

	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	var stdinDone <-chan struct{}
	if stdin != nil {
		dr := newDoneReader(stdin)
		stdin = dr
		stdinDone = dr.Drained()
	}

	process, err := task.Exec(ctx, nextExecID(), pspec, cio.NewCreator(
		cio.WithStreams(stdin, stdout, stderr),
	))
	if err != nil {
		return 0, errs.Wrap(ErrRuntime, err)
	}

	return awaitProcess(ctx, process, stdinDone)
}

// Loads the container's running task.
func (c *Container) loadTask(ctx context.Context) (containerd.Task, error) {
	ctr, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		return nil, errs.Wrap(ErrRuntime, err)
	}

	task, err := ctr.Task(ctx, nil)
	if err != nil {
		return nil, errs.Wrap(ErrRuntime, err)
	}

	return task, nil
}

// Waits for an exec process to exit and returns the exit code.
//
// If stdinDone is non-nil, the process stdin is closed when the channel fires.
// If ctx ends first, the process is killed and ctx's error is returned. The
// process is always deleted before returning.
func awaitProcess(ctx context.Context, process containerd.Process, stdinDone <-chan struct{}) (int, error) {
	bg := context.WithoutCancel(ctx)

	statusC, err := process.Wait(bg)
	if err != nil {
		process.Delete(bg)
		return 0, errs.Wrap(ErrRuntime, err)
	}

	if err := process.Start(ctx); err != nil {
		process.Delete(bg)
		return 0, errs.Wrap(ErrRuntime, err)
	}

	if stdinDone != nil {
		go func() {
			<-stdinDone
			process.CloseIO(bg, containerd.WithStdinCloser)
		}()
	}

	select {
	case exitStatus := <-statusC:
		process.Delete(bg)
		code, _, err := exitStatus.Result()
		if err != nil {
			return 0, errs.Wrap(ErrRuntime, err)
		}
		return int(code), nil

	case <-ctx.Done():
		process.Kill(bg, syscall.SIGKILL)
		select {
		case <-statusC:
		case <-time.After(killGrace):
		}
		process.Delete(bg, containerd.WithProcessKill)
		return 0, errs.Wrap(ErrRuntime, ctx.Err())
	}
}
