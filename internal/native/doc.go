// Package native runs the native packager on the host.
//
// The native leg is the primary build of a release: the packager command
// configured for it runs in the workspace with the stamped version exported
// as CRUXREL_VERSION, and its outputs are collected from the workspace by
// glob. Any failure of the native leg is fatal.
package native
