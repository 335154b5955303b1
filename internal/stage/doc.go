// Package stage defines the outcome of a single pipeline stage.
//
// A [Result] is a tagged variant. [Success] carries the raw output paths of a
// build leg. [SoftFailure] and [FatalFailure] carry the reason. How a failure
// is tiered is decided by the component that produced it: container legs
// marked soft never report a fatal failure, while the native leg always does.
package stage
