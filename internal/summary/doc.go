// Package summary renders release reports and plans for the operator.
//
// [Render] turns a finished [pipeline.Report] into a boxed panel listing every
// leg, its archive and size, the release URL or the reason nothing was
// published, and any soft failures. [Plan] describes what a release would do
// without doing it.
package summary
