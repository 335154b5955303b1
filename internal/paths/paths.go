package paths

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	programName = "cruxrel"

	// Name of the pipeline file looked up in the working directory.
	LocalConfigName = "cruxrel.yaml"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the directory for runtime files (locks).
//
//	Linux:   $XDG_RUNTIME_DIR/cruxrel or /run/user/<uid>/cruxrel
//	macOS:   ~/Library/Caches/cruxrel/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, programName)
	}
	return filepath.Join(xdg.CacheHome, programName, "run")
}

// Path to the user-level pipeline configuration file.
//
//	Linux:   $XDG_CONFIG_HOME/cruxrel/config.yaml
//	macOS:   ~/Library/Application Support/cruxrel/config.yaml
func UserConfig() string {
	return filepath.Join(xdg.ConfigHome, programName, "config.yaml")
}

// Resolves the pipeline configuration file.
//
// An explicit path always wins. Otherwise cruxrel.yaml in dir is preferred,
// falling back to [UserConfig]. The returned path is not guaranteed to exist
// when neither candidate does.
func ConfigFile(explicit, dir string) string {
	if explicit != "" {
		return explicit
	}
	local := filepath.Join(dir, LocalConfigName)
	if _, err := os.Stat(local); err == nil {
		return local
	}
	if _, err := os.Stat(UserConfig()); err == nil {
		return UserConfig()
	}
	return local
}

// Path to the lock file guarding a workspace.
//
// The workspace path is hashed so that any directory maps to a valid, fixed
// length file name.
func LockFile(workspace string) string {
	abs, err := filepath.Abs(workspace)
	if err != nil {
		abs = workspace
	}
	h := sha256.Sum256([]byte(abs))
	return filepath.Join(Runtime(), hex.EncodeToString(h[:8])+".lock")
}
