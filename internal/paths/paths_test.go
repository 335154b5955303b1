package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFileExplicit(t *testing.T) {
	assert.Equal(t, "/etc/pipeline.yaml", ConfigFile("/etc/pipeline.yaml", t.TempDir()))
}

func TestConfigFileLocal(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, LocalConfigName)
	require.NoError(t, os.WriteFile(local, []byte("{}"), DefaultFileMode))

	assert.Equal(t, local, ConfigFile("", dir))
}

func TestLockFileDeterministic(t *testing.T) {
	a := LockFile("/work/project")
	b := LockFile("/work/project")
	c := LockFile("/work/other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, Runtime()))
	assert.True(t, strings.HasSuffix(a, ".lock"))
}
