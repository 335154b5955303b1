package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruciblehq/cruxrel/internal/config"
	"github.com/cruciblehq/cruxrel/internal/publish"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Project:     "app",
		Workspace:   dir,
		Output:      dir + "/dist",
		Archive:     config.ArchiveZip,
		Concurrency: 1,
		Version:     config.Version{File: dir + "/version.py", Name: "__version__", HashLength: 7},
		Native:      config.NativeLeg{Label: "linux", Command: []string{"pyinstaller", "app.spec"}, Outputs: []string{"dist/app"}},
		Publish: config.Publish{
			Tag:  "dev-build",
			Host: config.Host{Kind: config.HostGitHub, GH: "gh", Repository: "acme/app"},
		},
	}
}

func checkNames(env *environment, publishing bool) []string {
	var names []string
	for _, c := range env.checks(publishing) {
		names = append(names, c.Name)
	}
	return names
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 130, ExitCode(&ExitError{Code: 130, Err: context.Canceled}))
	assert.Equal(t, 1, ExitCode(fmt.Errorf("release: %w", &ExitError{Code: 1, Err: errors.New("x")})))
}

func TestExitErrorUnwrap(t *testing.T) {
	err := &ExitError{Code: 130, Err: context.Canceled}
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "context canceled", err.Error())
}

func TestReleaseQuestion(t *testing.T) {
	assert.Contains(t, (&ReleaseCmd{}).question("dev-build"), `replace the "dev-build" release`)
	assert.NotContains(t, (&ReleaseCmd{SkipPublish: true}).question("dev-build"), "dev-build")
}

func TestEnvironmentChecks(t *testing.T) {
	env := newEnvironment(testConfig(t))
	require.NoError(t, env.connect())
	defer env.Close()

	assert.Nil(t, env.rt)
	assert.Equal(t, []string{"pyinstaller", "gh"}, checkNames(env, true))
	assert.Equal(t, []string{"pyinstaller"}, checkNames(env, false))
}

func TestEnvironmentChecksNonGitHubHost(t *testing.T) {
	cfg := testConfig(t)
	cfg.Publish.Host = config.Host{Kind: config.HostOCI, Repository: "localhost:5000/app"}

	env := newEnvironment(cfg)
	assert.Equal(t, []string{"pyinstaller"}, checkNames(env, true))
}

func TestEnvironmentPipeline(t *testing.T) {
	env := newEnvironment(testConfig(t))

	r, err := env.pipeline("1a2b3c4d", false)
	require.NoError(t, err)
	assert.NotNil(t, r)

	r, err = env.pipeline("1a2b3c4d", true)
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestEnvironmentPipelineUnknownHost(t *testing.T) {
	cfg := testConfig(t)
	cfg.Publish.Host.Kind = "ftp"

	_, err := newEnvironment(cfg).pipeline("1a2b3c4d", false)
	assert.ErrorIs(t, err, publish.ErrHost)

	_, err = newEnvironment(cfg).pipeline("1a2b3c4d", true)
	assert.NoError(t, err)
}

func TestEnvironmentRegistersStaging(t *testing.T) {
	env := newEnvironment(testConfig(t))
	env.cleaner.Register(env.packager.StagingDir("Linux x64"))
	assert.Contains(t, env.cleaner.Transient(), env.cfg.Output+"/linux-x64")
}
