package summary

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cruciblehq/cruxrel/internal/artifact"
	"github.com/cruciblehq/cruxrel/internal/config"
	"github.com/cruciblehq/cruxrel/internal/pipeline"
	"github.com/cruciblehq/cruxrel/internal/publish"
)

func report() *pipeline.Report {
	native := &artifact.Artifact{Index: 0, Label: "linux", Path: "/w/dist/app-linux.zip", Size: 2_500_000}
	return &pipeline.Report{
		RunID: "1a2b3c4d",
		Context: pipeline.ReleaseContext{
			ShortHash:    "ab12cd3",
			Branch:       "main",
			BuildVersion: "1.2.0.ab12cd3",
		},
		Trace: []pipeline.State{{Phase: pipeline.PhaseCleanup}, {Phase: pipeline.PhaseDone}},
		Legs: []pipeline.LegReport{
			{Index: 0, Label: "linux", Native: true, Status: pipeline.LegSucceeded, Artifact: native, Duration: 3 * time.Second},
			{Index: 1, Label: "windows", Status: pipeline.LegSoftFailed, Err: errors.New("exit code 2")},
		},
		SoftFailures: []error{errors.New("build failed: leg windows (soft): exit code 2")},
		Publish: &publish.Result{
			Tag:      "dev-build",
			URL:      "https://github.com/acme/app/releases/tag/dev-build",
			Uploaded: []artifact.Artifact{*native},
		},
	}
}

func TestRenderSuccess(t *testing.T) {
	out := Render(report())

	assert.Contains(t, out, "Release 1.2.0.ab12cd3")
	assert.Contains(t, out, "commit ab12cd3")
	assert.Contains(t, out, "app-linux.zip (2.5 MB)")
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "https://github.com/acme/app/releases/tag/dev-build")
	assert.Contains(t, out, "(1 assets, 2.5 MB)")
	assert.Contains(t, out, "Soft failures (1)")
	assert.Contains(t, out, "leg windows (soft)")
	assert.Contains(t, out, "Done (DONE)")
}

func TestRenderRegression(t *testing.T) {
	rep := report()
	rep.Publish = &publish.Result{Tag: "dev-build", Replaced: true, Regressed: true}
	rep.PublishErr = errors.New("publish failed: upload refused")
	rep.Err = rep.PublishErr

	out := Render(rep)
	assert.Contains(t, out, "not published: publish failed: upload refused")
	assert.Contains(t, out, `the previous "dev-build" release was deleted and not replaced`)
	assert.Contains(t, out, "Failed: ")
}

func TestRenderAborted(t *testing.T) {
	rep := &pipeline.Report{
		Trace: []pipeline.State{{Phase: pipeline.PhaseCleanup}, {Phase: pipeline.PhaseAborted}},
		Legs: []pipeline.LegReport{
			{Label: "linux", Native: true, Status: pipeline.LegFailed, Err: errors.New("exit code 1")},
		},
		Err: errors.New("build failed: leg linux (fatal): exit code 1"),
	}

	out := Render(rep)
	assert.Contains(t, out, "Release (not stamped)")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "exit code 1")
	assert.Contains(t, out, "not published")
	assert.Contains(t, out, "(ABORTED)")
	assert.NotContains(t, out, "Soft failures")
}

func TestRenderCancelled(t *testing.T) {
	rep := &pipeline.Report{
		Cancelled:   true,
		SkipPublish: true,
		CleanupErr:  errors.New("restore failed"),
		Trace:       []pipeline.State{{Phase: pipeline.PhaseAborted}},
	}

	out := Render(rep)
	assert.Contains(t, out, "Cancelled")
	assert.Contains(t, out, "publishing skipped")
	assert.Contains(t, out, "Cleanup failed: restore failed")
}

func TestPlan(t *testing.T) {
	no := false
	cfg := &config.Config{
		Project:     "app",
		Workspace:   "/w",
		Output:      "/w/dist",
		Archive:     config.ArchiveZip,
		Concurrency: 2,
		Version:     config.Version{File: "/w/app/version.py", Name: "__version__"},
		Native:      config.NativeLeg{Label: "linux", Command: []string{"pyinstaller", "app.spec"}},
		Containers: []config.ContainerLeg{
			{Label: "windows", Image: "docker.io/acme/wine:1", Steps: make([]config.Step, 3), Timeout: config.Duration(time.Minute)},
			{Label: "arm", Image: "alpine:3", Platform: "linux/arm64", Required: &no, Soft: true, Network: config.NetworkHost},
		},
		Publish: config.Publish{
			Tag:  "dev-build",
			Host: config.Host{Kind: config.HostS3, Bucket: "releases", Prefix: "app/"},
		},
	}

	out := Plan(cfg)
	assert.Contains(t, out, "Release plan for app")
	assert.Contains(t, out, "pyinstaller app.spec")
	assert.Contains(t, out, "docker.io/acme/wine:1 on host platform, 3 steps")
	assert.Contains(t, out, "required, timeout 1m0s")
	assert.Contains(t, out, "alpine:3 on linux/arm64, 0 steps")
	assert.Contains(t, out, "optional, soft, host network")
	assert.Contains(t, out, `"dev-build" as prerelease s3://releases/app`)
}
