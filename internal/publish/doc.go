// Package publish replaces the rolling pre-release on a remote host.
//
// A release is identified by a fixed tag. The [Publisher] looks the tag up,
// deletes an existing release together with its tag, and creates a new one
// carrying every packaged artifact in a single call. At most one release per
// tag exists after a successful publish. There is no retry; when creation
// fails after the old release was deleted the result is marked as a
// regression so the operator can see that the channel is now empty.
//
// Three hosts implement [Host]:
//
//	github   GitHub Releases through the gh command-line tool
//	s3       an S3-compatible bucket through minio-go
//	oci      an OCI registry through oras-go
package publish
