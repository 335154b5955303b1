package build

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruciblehq/cruxrel/internal/config"
	"github.com/cruciblehq/cruxrel/internal/runtime"
	"github.com/cruciblehq/cruxrel/internal/stage"
)

// A script run recorded by the fake container.
type scriptCall struct {
	shell   string
	script  string
	env     []string
	workdir string
}

// Engine double that records calls and answers scripts from a table.
//
// Scripts missing from exitCodes exit 0. Scripts in block wait until their
// context ends. onScript is called before a script runs.
type fakeEngine struct {
	mu        sync.Mutex
	pullErr   error
	startErr  error
	exitCodes map[string]int
	onScript  func(script string)
	block     map[string]bool
	pulled    []string
	removed   []string
	specs     []runtime.ContainerSpec
	calls     []scriptCall
	destroyed []string
}

func (e *fakeEngine) Pull(ctx context.Context, ref, platform string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pulled = append(e.pulled, ref+"@"+platform)
	return e.pullErr
}

func (e *fakeEngine) Start(ctx context.Context, ref string, spec runtime.ContainerSpec) (Container, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.startErr != nil {
		return nil, e.startErr
	}
	e.specs = append(e.specs, spec)
	return &fakeContainer{engine: e, id: spec.ID}, nil
}

func (e *fakeEngine) RemoveImage(ctx context.Context, ref string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removed = append(e.removed, ref)
	return nil
}

func (e *fakeEngine) scripts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, c := range e.calls {
		out = append(out, c.script)
	}
	return out
}

type fakeContainer struct {
	engine *fakeEngine
	id     string
}

func (c *fakeContainer) RunScript(ctx context.Context, shell, script string, env []string, workdir string, out io.Writer) (int, error) {
	e := c.engine
	e.mu.Lock()
	e.calls = append(e.calls, scriptCall{shell: shell, script: script, env: env, workdir: workdir})
	code := e.exitCodes[script]
	block := e.block[script]
	hook := e.onScript
	e.mu.Unlock()

	if hook != nil {
		hook(script)
	}
	if block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	io.WriteString(out, "ran "+script+"\n")
	return code, nil
}

func (c *fakeContainer) Destroy(ctx context.Context) {
	c.engine.mu.Lock()
	defer c.engine.mu.Unlock()
	if ctx.Err() != nil {
		panic("destroy called with a cancelled context")
	}
	c.engine.destroyed = append(c.engine.destroyed, c.id)
}

func testLeg() config.ContainerLeg {
	return config.ContainerLeg{
		Label:    "Linux ARM64",
		Image:    "ubuntu:22.04",
		Platform: "linux/arm64",
		Network:  config.NetworkNone,
		Env:      map[string]string{"CC": "gcc", "CRUXREL_VERSION": "ignored"},
		Steps: []config.Step{
			{Name: "deps", Run: "apt-get install -y build-essential"},
			{Name: "build", Run: "make dist"},
		},
		Outputs: []string{"dist/*.AppImage"},
	}
}

func newTestAdapter(t *testing.T, engine Engine) (*Adapter, string) {
	t.Helper()
	ws := t.TempDir()
	return New(engine, Options{RunID: "1a2b3c4d", Workspace: ws}), ws
}

func TestRunSuccess(t *testing.T) {
	engine := &fakeEngine{}
	adapter, ws := newTestAdapter(t, engine)

	engine.onScript = func(script string) {
		if script == "make dist" {
			require.NoError(t, os.MkdirAll(filepath.Join(ws, "dist"), 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(ws, "dist", "app-arm64.AppImage"), nil, 0o644))
		}
	}

	result := adapter.Run(context.Background(), testLeg(), "1.2.0.ab12cd3")
	require.True(t, result.OK(), "result: %v", result.Err)
	assert.Equal(t, []string{filepath.Join(ws, "dist", "app-arm64.AppImage")}, result.Outputs)

	assert.Equal(t, []string{"ubuntu:22.04@linux/arm64"}, engine.pulled)
	require.Len(t, engine.specs, 1)
	spec := engine.specs[0]
	assert.Equal(t, "cruxrel-1a2b3c4d-linux-arm64", spec.ID)
	assert.Equal(t, ws, spec.Workspace)
	assert.False(t, spec.HostNetwork)
	assert.Equal(t, []string{
		"CC=gcc",
		"CRUXREL_ARCH=arm64",
		"CRUXREL_LABEL=Linux ARM64",
		"CRUXREL_PLATFORM=linux/arm64",
		"CRUXREL_VERSION=1.2.0.ab12cd3",
	}, spec.Env)

	assert.Equal(t, []string{"apt-get install -y build-essential", "make dist"}, engine.scripts())
	assert.Equal(t, []string{spec.ID}, engine.destroyed)
	assert.Empty(t, engine.removed)
}

func TestRunFirstFailingStepEndsRecipe(t *testing.T) {
	engine := &fakeEngine{exitCodes: map[string]int{"apt-get install -y build-essential": 100}}
	adapter, _ := newTestAdapter(t, engine)

	result := adapter.Run(context.Background(), testLeg(), "1.2.0.ab12cd3")

	assert.Equal(t, stage.FatalFailure, result.Outcome)
	assert.ErrorIs(t, result.Err, ErrBuild)
	assert.ErrorIs(t, result.Err, ErrCommandFailed)
	assert.Contains(t, result.Err.Error(), `step "deps"`)
	assert.Contains(t, result.Err.Error(), "exit code 100")
	assert.Equal(t, []string{"apt-get install -y build-essential"}, engine.scripts())
	assert.Len(t, engine.destroyed, 1)
}

func TestRunSoftLeg(t *testing.T) {
	engine := &fakeEngine{exitCodes: map[string]int{"make dist": 2}}
	adapter, _ := newTestAdapter(t, engine)

	leg := testLeg()
	leg.Soft = true
	result := adapter.Run(context.Background(), leg, "1.2.0.ab12cd3")

	assert.Equal(t, stage.SoftFailure, result.Outcome)
	assert.ErrorIs(t, result.Err, ErrCommandFailed)
	assert.Len(t, engine.destroyed, 1)
}

func TestRunPullFailure(t *testing.T) {
	engine := &fakeEngine{pullErr: runtime.ErrImage}
	adapter, _ := newTestAdapter(t, engine)

	result := adapter.Run(context.Background(), testLeg(), "1.2.0.ab12cd3")

	assert.Equal(t, stage.FatalFailure, result.Outcome)
	assert.ErrorIs(t, result.Err, runtime.ErrImage)
	assert.Empty(t, engine.specs)
	assert.Empty(t, engine.destroyed)
}

func TestRunStartFailure(t *testing.T) {
	engine := &fakeEngine{startErr: runtime.ErrRuntime}
	adapter, _ := newTestAdapter(t, engine)

	leg := testLeg()
	leg.RemoveImage = true
	result := adapter.Run(context.Background(), leg, "1.2.0.ab12cd3")

	assert.Equal(t, stage.FatalFailure, result.Outcome)
	assert.ErrorIs(t, result.Err, runtime.ErrRuntime)
	assert.Equal(t, []string{"ubuntu:22.04"}, engine.removed)
}

func TestRunGuardSkipsStep(t *testing.T) {
	engine := &fakeEngine{exitCodes: map[string]int{"! pip download --only-binary=:all: pyqt5": 1}}
	adapter, _ := newTestAdapter(t, engine)

	leg := testLeg()
	leg.Steps = []config.Step{
		{Name: "patched qt", If: "! pip download --only-binary=:all: pyqt5", Run: "./build-qt.sh"},
		{Name: "build", Run: "make dist"},
	}
	result := adapter.Run(context.Background(), leg, "1.2.0.ab12cd3")

	assert.True(t, result.OK(), "result: %v", result.Err)
	assert.Equal(t, []string{"! pip download --only-binary=:all: pyqt5", "make dist"}, engine.scripts())
}

func TestRunGuardPassesStep(t *testing.T) {
	engine := &fakeEngine{}
	adapter, _ := newTestAdapter(t, engine)

	leg := testLeg()
	leg.Steps = []config.Step{
		{Name: "patched qt", If: "true", Run: "./build-qt.sh"},
	}
	adapter.Run(context.Background(), leg, "1.2.0.ab12cd3")

	assert.Equal(t, []string{"true", "./build-qt.sh"}, engine.scripts())
}

func TestRunModifiersPersist(t *testing.T) {
	engine := &fakeEngine{}
	adapter, _ := newTestAdapter(t, engine)

	leg := testLeg()
	leg.Shell = "/bin/bash"
	leg.Steps = []config.Step{
		{Workdir: "/workspace/app", Env: map[string]string{"MODE": "release"}},
		{Name: "one", Run: "make", Env: map[string]string{"JOBS": "4"}},
		{Name: "two", Run: "make check", Shell: "/bin/sh"},
	}
	adapter.Run(context.Background(), leg, "1.2.0.ab12cd3")

	require.Len(t, engine.calls, 2)
	first, second := engine.calls[0], engine.calls[1]

	assert.Equal(t, "/bin/bash", first.shell)
	assert.Equal(t, "/workspace/app", first.workdir)
	assert.Equal(t, []string{"JOBS=4", "MODE=release"}, first.env)

	assert.Equal(t, "/bin/sh", second.shell)
	assert.Equal(t, "/workspace/app", second.workdir)
	assert.Equal(t, []string{"MODE=release"}, second.env)
}

func TestRunTimeout(t *testing.T) {
	engine := &fakeEngine{block: map[string]bool{"make dist": true}}
	adapter, _ := newTestAdapter(t, engine)

	leg := testLeg()
	leg.Timeout = config.Duration(20 * time.Millisecond)
	result := adapter.Run(context.Background(), leg, "1.2.0.ab12cd3")

	assert.Equal(t, stage.FatalFailure, result.Outcome)
	assert.ErrorIs(t, result.Err, ErrTimeout)
	assert.ErrorIs(t, result.Err, context.DeadlineExceeded)
	assert.Len(t, engine.destroyed, 1)
}

func TestRunCancelled(t *testing.T) {
	engine := &fakeEngine{block: map[string]bool{"make dist": true}}
	adapter, _ := newTestAdapter(t, engine)

	ctx, cancel := context.WithCancel(context.Background())
	engine.onScript = func(script string) {
		if script == "make dist" {
			cancel()
		}
	}

	result := adapter.Run(ctx, testLeg(), "1.2.0.ab12cd3")

	assert.False(t, result.OK())
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.NotErrorIs(t, result.Err, ErrTimeout)
	assert.Len(t, engine.destroyed, 1)
}

func TestRunHostNetworkAndImageRemoval(t *testing.T) {
	engine := &fakeEngine{}
	adapter, _ := newTestAdapter(t, engine)

	leg := testLeg()
	leg.Network = config.NetworkHost
	leg.RemoveImage = true
	adapter.Run(context.Background(), leg, "1.2.0.ab12cd3")

	require.Len(t, engine.specs, 1)
	assert.True(t, engine.specs[0].HostNetwork)
	assert.Equal(t, []string{"ubuntu:22.04"}, engine.removed)
}

func TestContainerID(t *testing.T) {
	a := New(&fakeEngine{}, Options{RunID: "run1"})

	assert.Equal(t, "cruxrel-run1-linux", a.containerID("linux"))
	assert.Equal(t, "cruxrel-run1-windows-x64", a.containerID("Windows (x64)"))
	assert.Equal(t, "cruxrel-run1-linux-arm64-glibc", a.containerID("--Linux/ARM64 glibc--"))
}

func TestLegPlatformDefault(t *testing.T) {
	p := legPlatform(config.ContainerLeg{})
	assert.True(t, strings.HasPrefix(p, "linux/"), p)
	assert.Equal(t, "linux/s390x", legPlatform(config.ContainerLeg{Platform: "linux/s390x"}))
}

func TestLegEnvInvalidPlatform(t *testing.T) {
	_, err := legEnv(config.ContainerLeg{}, "1.0", "not/a/valid/platform")
	assert.True(t, errors.Is(err, ErrBuild))
}
