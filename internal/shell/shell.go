// Package shell runs host commands with captured output.
//
// It is used for the native packager and for command-line release hosts.
// Output is always captured; it can additionally be streamed to a writer,
// typically the operator's terminal. A non-zero exit status is returned as an
// error wrapping [ErrExit], with the exit code available on the [Result].
package shell

import (
	"context"
	"errors"
	"io"
	"os/exec"

	"github.com/input-output-hk/catalyst-forge-libs/executor"

	"github.com/cruciblehq/cruxrel/internal/errs"
)

var (
	ErrExit        = errors.New("command exited with non-zero status")
	ErrStart       = errors.New("command could not be started")
	ErrUnavailable = errors.New("command not found")
)

// Output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int // -1 when the process did not exit normally.
}

// Runs commands. Implemented by [Exec]; replaced by fakes in tests.
type Runner interface {
	Run(ctx context.Context, program string, args []string, opts ...Option) (*Result, error)
}

// Settings for a single run.
type Options struct {
	Dir    string            // Working directory.
	Env    map[string]string // Appended to the current environment.
	Stdin  io.Reader
	Stream io.Writer // Receives stdout and stderr as they are produced.
}

// Modifies [Options].
type Option func(*Options)

// Sets the working directory.
func WithDir(dir string) Option {
	return func(o *Options) { o.Dir = dir }
}

// Adds environment variables on top of the current environment.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}
		for k, v := range env {
			o.Env[k] = v
		}
	}
}

// Feeds r to the command's standard input.
func WithStdin(r io.Reader) Option {
	return func(o *Options) { o.Stdin = r }
}

// Streams output to w in addition to capturing it.
func WithStream(w io.Writer) Option {
	return func(o *Options) { o.Stream = w }
}

// Runs commands on the host through the forge executor.
type Exec struct{}

// Runs program with args and waits for it to exit.
//
// Standard input is read in full before the process starts. Cancelling ctx
// kills the process.
func (Exec) Run(ctx context.Context, program string, args []string, opts ...Option) (*Result, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	var input string
	if o.Stdin != nil {
		data, err := io.ReadAll(o.Stdin)
		if err != nil {
			return &Result{ExitCode: -1}, errs.Wrapf(ErrStart, "read stdin: %w", err)
		}
		input = string(data)
	}

	xopts := []executor.Option{
		executor.WithCapture(true, true, false),
		executor.WithWorkingDir(o.Dir),
		executor.WithEnv(o.Env),
	}
	if o.Stream != nil {
		xopts = append(xopts, executor.WithStdoutWriter(o.Stream), executor.WithStderrWriter(o.Stream))
	}

	res, err := executor.New(program, args...).ExecuteWithInput(ctx, input, xopts...)
	result := &Result{ExitCode: -1}
	if res != nil {
		result = &Result{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return result, nil
	case errors.As(err, &exitErr):
		if ctx.Err() != nil {
			return result, errs.Wrap(ErrExit, ctx.Err())
		}
		return result, errs.Wrapf(ErrExit, "%s exited with code %d", program, result.ExitCode)
	case errors.Is(err, exec.ErrNotFound):
		result.ExitCode = -1
		return result, errs.Wrap(ErrUnavailable, err)
	default:
		result.ExitCode = -1
		return result, errs.Wrap(ErrStart, err)
	}
}

// Resolves program on PATH, failing with [ErrUnavailable].
func LookPath(program string) (string, error) {
	path, err := exec.LookPath(program)
	if err != nil {
		return "", errs.Wrapf(ErrUnavailable, "%s: %w", program, err)
	}
	return path, nil
}
