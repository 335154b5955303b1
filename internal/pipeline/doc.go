// Package pipeline sequences a release run.
//
// The [Runner] is a state machine. A run starts in INIT, stamps the version
// declaration, builds and packages the native leg, then builds and packages
// every container leg before publishing the union of their artifacts. CLEANUP
// runs as the terminal step of every path, including aborts and cancellation,
// and is followed by DONE or ABORTED.
//
//	INIT -> STAMPING -> BUILD_NATIVE -> PACKAGE_NATIVE
//	     -> BUILD_CONTAINER[i] -> PACKAGE_CONTAINER[i] ...
//	     -> PUBLISH -> CLEANUP -> DONE
//
// Failure policy:
//
//   - A version format error aborts before anything was mutated.
//   - The native leg is always fatal, and so is packaging its outputs.
//   - A container leg's soft failure, or a fatal failure of a leg that is not
//     required, is recorded and the leg contributes no artifact.
//   - A required container leg's fatal failure aborts the run.
//   - Packaging failures of container legs are soft.
//   - Publish failures are reported and never prevent cleanup.
//
// Container legs run concurrently up to a configured limit. A required leg's
// fatal failure cancels its siblings. Every transition is recorded in the
// [Report] trace.
package pipeline
