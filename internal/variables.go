package internal

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const (

	// Program name, used for logging prefixes, paths and container IDs.
	Name = "cruxrel"

	// Reported for a variable the build did not set.
	defaultUndefined = "(undefined)"

	// Reported instead of a version by local (non-pipeline) builds.
	defaultLocalBuild = "(local)"

	// Branch whose builds carry no stage suffix.
	mainBranch = "main"
)

// Set through -ldflags "-X github.com/cruciblehq/cruxrel/internal.<name>=...".
var (
	version   = "" // Release number, e.g. "1.2.3".
	stage     = "" // Branch or stage the binary was built from.
	gitCommit = "" // Commit hash of the build.

	rawQuiet   = "false"
	rawDebug   = "false"
	rawVerbose = "false"
)

// Returns the release number of cruxrel itself, without a "v" prefix, or
// "(undefined)".
func Version() string {
	return orUndefined(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(version)), "v"))
}

// Returns the branch or stage the binary was built from, or "(undefined)".
func Stage() string {
	return orUndefined(strings.ToLower(strings.TrimSpace(stage)))
}

// Returns the commit the binary was built from, or "(undefined)".
func GitCommit() string {
	return orUndefined(strings.TrimSpace(gitCommit))
}

func orUndefined(s string) string {
	if s == "" {
		return defaultUndefined
	}
	return s
}

// Reports whether any of version, commit or stage is missing, which marks a
// build made outside the release pipeline.
func IsLocal() bool {
	for _, v := range []string{version, gitCommit, stage} {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// Returns a detailed version string.
//
// Pipeline builds report "<version>[+<stage>] <commit> [<os>/<arch>]", with
// the stage omitted on the main branch. Local builds report "(local)", plus
// the VCS revision the Go toolchain stamped into the binary when there is one.
func VersionString() string {
	if IsLocal() {
		if rev := localRevision(); rev != "" {
			return defaultLocalBuild + " " + rev
		}
		return defaultLocalBuild
	}

	suffix := ""
	if s := Stage(); s != mainBranch {
		suffix = "+" + s
	}
	return fmt.Sprintf("%s%s %s [%s/%s]", Version(), suffix, GitCommit(), runtime.GOOS, runtime.GOARCH)
}

// Returns the abbreviated vcs.revision build setting, marked "-dirty" for a
// modified tree, or "" when the binary carries none.
func localRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}

	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return ""
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}
