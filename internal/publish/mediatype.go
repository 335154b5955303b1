package publish

import "strings"

// Returns the media type of an archive by file name.
func mediaType(name string) string {
	switch {
	case strings.HasSuffix(name, ".zip"):
		return "application/zip"
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return "application/gzip"
	}
	return "application/octet-stream"
}
