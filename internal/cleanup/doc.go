// Package cleanup undoes the transient state of a release run.
//
// A [Manager] restores the version declaration when a stamp backup exists and
// removes every registered transient path. It is called as the terminal step
// of every pipeline path and may be called any number of times; a second call
// finds nothing left to do.
package cleanup
