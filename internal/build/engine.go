package build

import (
	"context"
	"io"

	"github.com/cruciblehq/cruxrel/internal/runtime"
)

// Container operations used by the adapter.
type Engine interface {

	// Pulls ref for platform.
	Pull(ctx context.Context, ref, platform string) error

	// Starts a container from a previously pulled image.
	Start(ctx context.Context, ref string, spec runtime.ContainerSpec) (Container, error)

	// Removes a pulled image.
	RemoveImage(ctx context.Context, ref string) error
}

// A running build container.
type Container interface {

	// Runs a shell script and returns its exit code.
	RunScript(ctx context.Context, shell, script string, env []string, workdir string, out io.Writer) (int, error)

	// Removes the container and its snapshot.
	Destroy(ctx context.Context)
}

// Adapts a [runtime.Runtime] to the [Engine] interface.
type runtimeEngine struct {
	rt *runtime.Runtime
}

// Returns an [Engine] backed by containerd.
func NewEngine(rt *runtime.Runtime) Engine {
	return &runtimeEngine{rt: rt}
}

func (e *runtimeEngine) Pull(ctx context.Context, ref, platform string) error {
	return e.rt.PullImage(ctx, ref, platform)
}

func (e *runtimeEngine) Start(ctx context.Context, ref string, spec runtime.ContainerSpec) (Container, error) {
	ctr, err := e.rt.StartContainer(ctx, ref, spec)
	if err != nil {
		return nil, err
	}
	return ctr, nil
}

func (e *runtimeEngine) RemoveImage(ctx context.Context, ref string) error {
	return e.rt.RemoveImage(ctx, ref)
}
