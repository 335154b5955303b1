package internal

import (
	"strconv"
	"sync/atomic"
)

// Output switches of the process.
type Modes struct {
	Quiet   bool // Only warnings and errors are logged.
	Debug   bool // Debug records are logged. Wins over Quiet.
	Verbose bool // Records carry timestamps and callers; raw build output is shown.
}

var modes atomic.Pointer[Modes]

// Seeds the output modes from linker flags.
//
// rawQuiet, rawDebug and rawVerbose are set via ldflags for pipeline builds
// and default to "false". Values that do not parse count as false.
func init() {
	modes.Store(&Modes{
		Quiet:   parseFlag(rawQuiet),
		Debug:   parseFlag(rawDebug),
		Verbose: parseFlag(rawVerbose),
	})
}

func parseFlag(raw string) bool {
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}

// Returns the current output modes.
func CurrentModes() Modes {
	return *modes.Load()
}

// Turns on every mode set in m and returns the result. Modes that are
// already on stay on, so command-line flags can add to the linker defaults
// but never clear them.
func EnableModes(m Modes) Modes {
	next := CurrentModes()
	next.Quiet = next.Quiet || m.Quiet
	next.Debug = next.Debug || m.Debug
	next.Verbose = next.Verbose || m.Verbose
	modes.Store(&next)
	return next
}

// Replaces the output modes.
func SetModes(m Modes) {
	modes.Store(&m)
}

// Returns true if quiet mode is enabled.
func IsQuiet() bool {
	return CurrentModes().Quiet
}

// Returns true if debug mode is enabled.
func IsDebug() bool {
	return CurrentModes().Debug
}

// Returns true if verbose logging is enabled.
func IsVerbose() bool {
	return CurrentModes().Verbose
}
