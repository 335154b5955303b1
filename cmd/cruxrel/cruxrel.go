package main

import (
	"log/slog"
	"os"

	"github.com/cruciblehq/cruxrel/internal"
	"github.com/cruciblehq/cruxrel/internal/cli"
	"github.com/cruciblehq/cruxrel/internal/logging"
)

// The entry point for cruxrel.
//
// Initializes logging, records startup information, and executes the root
// command. The exit code comes from the command's error: 0 on success, 130
// when a release was cancelled, and 1 otherwise.
func main() {
	level := logging.Level(internal.IsDebug(), internal.IsQuiet())
	slog.SetDefault(slog.New(logging.New(os.Stderr, internal.Name, level)))

	slog.Debug("build", "version", internal.VersionString())

	slog.Debug("cruxrel is running",
		"pid", os.Getpid(),
		"cwd", cwd(),
		"args", os.Args,
	)

	if err := cli.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(cli.ExitCode(err))
	}
}

// Returns the current working directory or "(unknown)".
func cwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "(unknown)"
	}
	return cwd
}
