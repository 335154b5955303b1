// Package artifact turns raw build outputs into release archives.
//
// A [Packager] copies the outputs of one leg, plus the static files shipped
// with every platform, into a staging directory named after the leg's slug
// and writes a single deterministically named archive next to it. Packaging
// the same leg twice overwrites the same archive path, so a rebuilt platform
// never leaves a stale archive behind.
//
// Archives produced by a pipeline run are collected in a [Set], which is safe
// for concurrent appends and always iterates in leg order.
//
// Archive layout:
//
//	<output>/
//	  <slug>/                      staging directory, removed on cleanup
//	  <project>-<slug>.zip         or .tar.gz
package artifact
