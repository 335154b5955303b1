package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"slices"
	"sync"
)

var ErrCleanup = errors.New("cleanup failed")

// Restores a stamped version file.
type Restorer interface {

	// Reports whether this run owes a restore.
	RestoreOwed() bool

	// Restores the file from its backup and deletes the backup.
	Restore() error
}

// Tracks and removes transient state.
type Manager struct {
	mu        sync.Mutex
	restorer  Restorer
	transient []string
}

// Creates a new [Manager]. restorer may be nil when no version file is owned.
func New(restorer Restorer, transient ...string) *Manager {
	m := &Manager{restorer: restorer}
	m.Register(transient...)
	return m
}

// Adds paths to remove on cleanup. Duplicates are ignored.
func (m *Manager) Register(paths ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		if p != "" && !slices.Contains(m.transient, p) {
			m.transient = append(m.transient, p)
		}
	}
}

// Returns the registered transient paths.
func (m *Manager) Transient() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.transient)
}

// Restores the version file if this run stamped it and removes transient
// paths.
//
// Every step is attempted even when an earlier one fails. Failures are
// joined under [ErrCleanup]. Absent paths are not an error, so repeated
// calls are safe.
func (m *Manager) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var problems []error

	if m.restorer != nil && m.restorer.RestoreOwed() {
		if err := m.restorer.Restore(); err != nil {
			problems = append(problems, err)
		} else {
			slog.Info("version file restored")
		}
	}

	for _, p := range m.transient {
		if err := os.RemoveAll(p); err != nil {
			problems = append(problems, err)
			continue
		}
		slog.Debug("removed transient path", "path", p)
	}

	if len(problems) > 0 {
		err := errors.Join(problems...)
		slog.ErrorContext(ctx, "cleanup incomplete", "error", err)
		return errors.Join(ErrCleanup, err)
	}
	return nil
}
