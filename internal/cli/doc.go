// Parses flags and dispatches the cruxrel commands.
//
// Global flags:
//
//	-q, --quiet     Suppress informational output.
//	-v, --verbose   Enable verbose output, including raw build output.
//	-d, --debug     Enable debug output.
//	-c, --config    Pipeline file, defaulting to ./cruxrel.yaml.
//
// Commands:
//
//	release   Stamp, build, package and publish.
//	check     Validate the pipeline file and preflight the tools.
//	restore   Undo a stamp left behind by a crashed run.
//	version   Print the cruxrel version.
//
// Flags override build-time defaults set via linker flags. After parsing, the
// global logger is reconfigured to reflect the final level and verbosity.
// SIGINT and SIGTERM cancel the running command; a cancelled release exits
// with code 130.
package cli
