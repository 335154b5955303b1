// Package runtime manages disposable build containers backed by containerd.
//
// A [Runtime] connects to a containerd daemon, pulls pinned base images for a
// target platform, and creates containers from them with fresh snapshots.
// The host workspace is bind-mounted read-write into every container so that
// build outputs land directly on the host.
//
// Each [Container] wraps a running containerd task. Scripts are executed as
// additional processes inside it, fed to the shell over stdin. When the
// container is no longer needed it must be destroyed to release its snapshot
// and task resources; nothing is carried over between containers.
//
// Example usage:
//
//	rt, err := runtime.New("/run/containerd/containerd.sock", "cruxrel", "overlayfs")
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	ref := "docker.io/library/ubuntu:22.04"
//	if err := rt.PullImage(ctx, ref, "linux/amd64"); err != nil {
//	    return err
//	}
//
//	ctr, err := rt.StartContainer(ctx, ref, runtime.ContainerSpec{
//	    ID:        "cruxrel-1a2b3c4d-linux",
//	    Platform:  "linux/amd64",
//	    Workspace: "/home/me/project",
//	})
//	if err != nil {
//	    return err
//	}
//	defer ctr.Destroy(context.WithoutCancel(ctx))
//
//	code, err := ctr.RunScript(ctx, "/bin/sh", "make dist", nil, "", os.Stdout)
package runtime
