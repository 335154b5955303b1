package runtime

import (
	"context"
	"log/slog"
	"syscall"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/errdefs"
	"github.com/containerd/platforms"
	"github.com/distribution/reference"

	"github.com/cruciblehq/cruxrel/internal/errs"
)

const (

	// Snapshotter used when none is configured.
	DefaultSnapshotter = "overlayfs"

	// OCI runtime shim for running containers.
	ociRuntime = "io.containerd.runc.v2"

	// Mount point of the host workspace inside build containers.
	WorkspaceMount = "/workspace"
)

// Manages the containerd client and provides image and container operations.
type Runtime struct {
	client      *containerd.Client // Containerd client for managing containers and images.
	snapshotter string             // Snapshotter for container filesystems.
}

// Creates a runtime connected to the containerd socket at the given address.
//
// The namespace scopes all containerd operations to a single tenant. An
// empty snapshotter selects [DefaultSnapshotter]. The runtime must be closed
// when no longer needed.
func New(address, namespace, snapshotter string) (*Runtime, error) {
	client, err := containerd.New(address, containerd.WithDefaultNamespace(namespace))
	if err != nil {
		return nil, errs.Wrap(ErrRuntime, err)
	}
	if snapshotter == "" {
		snapshotter = DefaultSnapshotter
	}
	return &Runtime{client: client, snapshotter: snapshotter}, nil
}

// Closes the containerd client connection.
func (rt *Runtime) Close() error {
	return rt.client.Close()
}

// Checks that the daemon is serving requests.
func (rt *Runtime) Ping(ctx context.Context) error {
	serving, err := rt.client.IsServing(ctx)
	if err != nil {
		return errs.Wrap(ErrRuntime, err)
	}
	if !serving {
		return errs.Wrapf(ErrRuntime, "containerd is not serving")
	}
	return nil
}

// Pulls ref for platform and unpacks it into the snapshotter.
//
// Short references such as "ubuntu:22.04" are normalized to their fully
// qualified form. Only the manifest matching platform is fetched. Building
// for a platform other than the host requires QEMU / binfmt_misc support in
// the kernel.
func (rt *Runtime) PullImage(ctx context.Context, ref, platform string) error {
	named, err := NormalizeRef(ref)
	if err != nil {
		return err
	}

	p, err := platforms.Parse(platform)
	if err != nil {
		return errs.Wrap(ErrImage, err)
	}

	slog.Debug("pulling image", "ref", named, "platform", platform)

	if _, err := rt.client.Pull(ctx, named,
		containerd.WithPlatformMatcher(platforms.Only(p)),
		containerd.WithPullUnpack,
		containerd.WithPullSnapshotter(rt.snapshotter),
	); err != nil {
		return errs.Wrapf(ErrImage, "pull %s: %w", named, err)
	}

	return nil
}

// Returns a platform-specific handle to a previously pulled image.
func (rt *Runtime) resolveImage(ctx context.Context, ref, platform string) (containerd.Image, error) {
	named, err := NormalizeRef(ref)
	if err != nil {
		return nil, err
	}

	p, err := platforms.Parse(platform)
	if err != nil {
		return nil, errs.Wrap(ErrImage, err)
	}

	img, err := rt.client.GetImage(ctx, named)
	if err != nil {
		return nil, errs.Wrapf(ErrImage, "image %s: %w", named, err)
	}

	return containerd.NewImageWithPlatform(rt.client, img.Metadata(), platforms.Only(p)), nil
}

// Removes an image and all containers created from it.
//
// Containers are discovered by querying containerd for records whose image
// field matches the reference. Each container's task is killed before the
// container and its snapshot are deleted. A missing image is not an error.
func (rt *Runtime) RemoveImage(ctx context.Context, ref string) error {
	named, err := NormalizeRef(ref)
	if err != nil {
		return err
	}

	ctrs, err := rt.client.Containers(ctx, "image=="+named)
	if err != nil {
		return errs.Wrap(ErrRuntime, err)
	}

	for _, ctr := range ctrs {
		if task, taskErr := ctr.Task(ctx, nil); taskErr == nil {
			task.Kill(ctx, syscall.SIGKILL)
			task.Delete(ctx, containerd.WithProcessKill)
		}
		if err := ctr.Delete(ctx, containerd.WithSnapshotCleanup); err != nil && !errdefs.IsNotFound(err) {
			return errs.Wrap(ErrRuntime, err)
		}
	}

	if err := rt.client.ImageService().Delete(ctx, named); err != nil && !errdefs.IsNotFound(err) {
		return errs.Wrap(ErrImage, err)
	}

	slog.Debug("image removed", "ref", named)
	return nil
}

// Returns the fully qualified form of an image reference.
//
// "ubuntu:22.04" becomes "docker.io/library/ubuntu:22.04". References pinned
// by digest keep their digest.
func NormalizeRef(ref string) (string, error) {
	named, err := reference.ParseDockerRef(ref)
	if err != nil {
		return "", errs.Wrapf(ErrImage, "reference %q: %w", ref, err)
	}
	return named.String(), nil
}
