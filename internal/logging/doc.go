// Package logging builds the process-wide slog handler.
//
// Records are rendered by a charmbracelet/log logger used as the
// [slog.Handler], prefixed with the program name. The level starts from
// build-time linker flags and is reconfigured once command-line flags have
// been parsed. Verbose mode adds timestamps and caller locations.
//
// [LineWriter] adapts streamed process output (build steps, the native
// packager) into one debug record per line.
package logging
