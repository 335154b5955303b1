package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/cruciblehq/cruxrel/internal"
	"github.com/cruciblehq/cruxrel/internal/config"
	"github.com/cruciblehq/cruxrel/internal/logging"
	"github.com/cruciblehq/cruxrel/internal/paths"
)

// Represents the root command for cruxrel.
var RootCmd struct {
	Quiet   bool       `short:"q" help:"Suppress informational output."`
	Verbose bool       `short:"v" help:"Enable verbose output."`
	Debug   bool       `short:"d" help:"Enable debug output."`
	Config  string     `short:"c" help:"Pipeline file. Defaults to ./cruxrel.yaml." placeholder:"PATH" type:"path"`
	Release ReleaseCmd `cmd:"" help:"Stamp, build, package and publish a release."`
	Check   CheckCmd   `cmd:"" help:"Validate the pipeline and check required tools."`
	Restore RestoreCmd `cmd:"" help:"Restore the version file and remove build leftovers."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
//
// SIGINT and SIGTERM cancel the command's context.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Release orchestrator.\n\nStamps a build version, builds every platform leg, packages the results and replaces the rolling release."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Applies the CLI output flags and reconfigures the global logger.
func configureLogger() {
	m := internal.EnableModes(internal.Modes{
		Quiet:   RootCmd.Quiet,
		Debug:   RootCmd.Debug,
		Verbose: RootCmd.Verbose,
	})

	logger, ok := slog.Default().Handler().(*log.Logger)
	if !ok {
		return // Not ours, nothing to configure
	}
	logging.Configure(logger, logging.Level(m.Debug, m.Quiet), m.Verbose)
}

// Loads the pipeline file selected by --config.
func loadConfig() (*config.Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	path := paths.ConfigFile(RootCmd.Config, dir)
	slog.Debug("loading pipeline", "path", path)
	return config.Load(path)
}
