package internal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFlag(t *testing.T) {
	assert.True(t, parseFlag("true"))
	assert.True(t, parseFlag("1"))
	assert.False(t, parseFlag("false"))
	assert.False(t, parseFlag(""))
	assert.False(t, parseFlag("yes please"))
}

func TestEnableModes(t *testing.T) {
	saved := CurrentModes()
	t.Cleanup(func() { SetModes(saved) })

	SetModes(Modes{Quiet: true})

	got := EnableModes(Modes{Verbose: true})
	assert.Equal(t, Modes{Quiet: true, Verbose: true}, got)
	assert.True(t, IsQuiet())
	assert.True(t, IsVerbose())
	assert.False(t, IsDebug())

	got = EnableModes(Modes{})
	assert.Equal(t, Modes{Quiet: true, Verbose: true}, got)
}

func TestVersionStringLocal(t *testing.T) {
	saved := version
	t.Cleanup(func() { version = saved })

	version = ""
	assert.True(t, IsLocal())
	assert.True(t, strings.HasPrefix(VersionString(), "(local)"))
	assert.Equal(t, "(undefined)", Version())
}

func TestVersionStringPipeline(t *testing.T) {
	sv, ss, sc := version, stage, gitCommit
	t.Cleanup(func() { version, stage, gitCommit = sv, ss, sc })

	version, stage, gitCommit = "V1.4.0", "main", "ab12cd3"
	assert.False(t, IsLocal())
	assert.Equal(t, "1.4.0", Version())
	assert.True(t, strings.HasPrefix(VersionString(), "1.4.0 ab12cd3 ["))

	stage = "Staging"
	assert.True(t, strings.HasPrefix(VersionString(), "1.4.0+staging ab12cd3 ["))
}
