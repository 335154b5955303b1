// Package lock holds an exclusive, process-scoped lock on a workspace.
//
// Two pipelines stamping the same version file at once would corrupt each
// other's backup, so a run takes an advisory file lock before it mutates
// anything. The lock is released by [Lock.Release] or, if the process dies,
// by the operating system.
package lock
