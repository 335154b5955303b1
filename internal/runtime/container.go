package runtime

import (
	"context"
	"log/slog"
	"syscall"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/cio"
	"github.com/containerd/containerd/v2/pkg/oci"
	"github.com/containerd/errdefs"
	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/cruciblehq/cruxrel/internal/errs"
)

// Describes a build container.
type ContainerSpec struct {
	ID          string   // Unique containerd container ID.
	Platform    string   // OCI platform (e.g., "linux/amd64").
	Workspace   string   // Host directory bind-mounted at [WorkspaceMount].
	Env         []string // "KEY=value" entries added to the image environment.
	HostNetwork bool     // Share the host network namespace instead of an isolated one.
}

// A running build container backed by containerd.
type Container struct {
	client   *containerd.Client // Containerd client for managing the container.
	id       string             // Unique identifier for the container, used as the containerd container ID.
	platform string             // OCI platform (e.g., "linux/amd64").
}

// Creates and starts a container from a previously pulled image.
//
// Any existing container with the same ID is removed first, so a leftover
// from an interrupted run never leaks into a new build. A long-running task
// (sleep infinity) is started so that subsequent scripts have a running
// process to attach to.
func (rt *Runtime) StartContainer(ctx context.Context, ref string, spec ContainerSpec) (*Container, error) {
	image, err := rt.resolveImage(ctx, ref, spec.Platform)
	if err != nil {
		return nil, err
	}

	c := &Container{
		client:   rt.client,
		id:       spec.ID,
		platform: spec.Platform,
	}

	c.remove(ctx)

	ctr, err := rt.client.NewContainer(ctx, c.id,
		containerd.WithImage(image),
		containerd.WithSnapshotter(rt.snapshotter),
		containerd.WithNewSnapshot(c.id, image),
		containerd.WithRuntime(ociRuntime, nil),
		containerd.WithNewSpec(specOpts(image, spec)...),
	)
	if err != nil {
		return nil, errs.Wrap(ErrRuntime, err)
	}

	if err := c.startTask(ctx, ctr); err != nil {
		ctr.Delete(ctx, containerd.WithSnapshotCleanup)
		return nil, errs.Wrap(ErrRuntime, err)
	}

	slog.Debug("container started", "id", c.id, "image", image.Name(), "platform", spec.Platform)
	return c, nil
}

// Returns the OCI spec options for a build container.
func specOpts(image containerd.Image, spec ContainerSpec) []oci.SpecOpts {
	opts := []oci.SpecOpts{
		oci.WithDefaultSpecForPlatform(spec.Platform),
		oci.WithImageConfig(image),
		oci.WithMounts([]specs.Mount{workspaceMount(spec.Workspace)}),
		oci.WithProcessCwd(WorkspaceMount),
		oci.WithProcessArgs("sleep", "infinity"),
	}
	if len(spec.Env) > 0 {
		opts = append(opts, oci.WithEnv(spec.Env))
	}
	if spec.HostNetwork {
		opts = append(opts,
			oci.WithHostNamespace(specs.NetworkNamespace),
			oci.WithHostResolvconf,
			oci.WithHostHostsFile,
		)
	}
	return opts
}

// Returns the read-write bind mount of the host workspace.
func workspaceMount(source string) specs.Mount {
	return specs.Mount{
		Destination: WorkspaceMount,
		Type:        "bind",
		Source:      source,
		Options:     []string{"rbind", "rw"},
	}
}

// Returns the container ID.
func (c *Container) ID() string {
	return c.id
}

// Removes the container and its resources.
//
// The task is killed and the container is removed from containerd along
// with its snapshot. After destruction the handle is invalid. Callers should
// pass a context that is not already cancelled.
func (c *Container) Destroy(ctx context.Context) {
	ctr, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		if !errdefs.IsNotFound(err) {
			slog.Warn("failed to load container for destruction", "id", c.id, "error", err)
		}
		return
	}

	if task, err := ctr.Task(ctx, nil); err == nil {
		task.Kill(ctx, syscall.SIGKILL)
		task.Delete(ctx, containerd.WithProcessKill)
	}

	if err := ctr.Delete(ctx, containerd.WithSnapshotCleanup); err != nil && !errdefs.IsNotFound(err) {
		slog.Warn("failed to delete container during destruction", "id", c.id, "error", err)
		return
	}

	slog.Debug("container destroyed", "id", c.id)
}

// Starts the container's long-running task with no attached IO.
func (c *Container) startTask(ctx context.Context, ctr containerd.Container) error {
	task, err := ctr.NewTask(ctx, cio.NullIO)
	if err != nil {
		return err
	}
	if err := task.Start(ctx); err != nil {
		task.Delete(ctx)
		return err
	}
	return nil
}

// Removes an existing container with this ID, if one exists.
func (c *Container) remove(ctx context.Context) {
	existing, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		return
	}
	slog.Warn("removing stale container", "id", c.id)
	if task, err := existing.Task(ctx, nil); err == nil {
		task.Kill(ctx, syscall.SIGKILL)
		task.Delete(ctx, containerd.WithProcessKill)
	}
	existing.Delete(ctx, containerd.WithSnapshotCleanup)
}
