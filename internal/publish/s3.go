package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/opencontainers/go-digest"
)

// Name of the object that commits a release.
const manifestName = "release.json"

// Object store operations used by the S3 host. Implemented by *minio.Client.
type ObjectStore interface {
	StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error
	EndpointURL() *url.URL
}

// Release record written as release.json.
type s3Manifest struct {
	Tag        string     `json:"tag"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes"`
	Target     string     `json:"target"`
	Prerelease bool       `json:"prerelease"`
	Created    time.Time  `json:"created"`
	Assets     []s3Object `json:"assets"`
}

// An uploaded asset.
type s3Object struct {
	Name   string        `json:"name"`
	Size   int64         `json:"size"`
	Digest digest.Digest `json:"digest"`
}

// Releases stored as objects in an S3-compatible bucket.
//
// A release is the set of objects under <prefix>/<tag>/. Assets are uploaded
// first and release.json is written last, so a release without its manifest
// does not exist. The manifest plays the role of the tag.
type S3 struct {
	store  ObjectStore
	bucket string
	prefix string
	now    func() time.Time
}

// Creates an S3 host over store.
func NewS3(store ObjectStore, bucket, prefix string) *S3 {
	return &S3{store: store, bucket: bucket, prefix: prefix, now: time.Now}
}

// Returns the object key of name within the release for tag.
func (s *S3) key(tag, name string) string {
	return path.Join(s.prefix, tag, name)
}

func (s *S3) ReleaseExists(ctx context.Context, tag string) (bool, error) {
	_, err := s.store.StatObject(ctx, s.bucket, s.key(tag, manifestName), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, err
}

// Removes every object of the release. deleteTag is implied: removing the
// manifest removes the tag.
func (s *S3) DeleteRelease(ctx context.Context, tag string, deleteTag bool) error {
	prefix := s.key(tag, "") + "/"

	// The manifest goes first so a half-deleted release is never visible.
	if err := s.store.RemoveObject(ctx, s.bucket, s.key(tag, manifestName), minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code != "NoSuchKey" {
			return err
		}
	}

	// Stops the listing goroutine when returning before the channel drains.
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range s.store.ListObjects(listCtx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return obj.Err
		}
		if err := s.store.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return err
		}
	}
	return nil
}

// Uploads every asset, then commits the release by writing its manifest.
//
// If any upload fails the objects uploaded so far are removed again.
func (s *S3) CreateRelease(ctx context.Context, rel Release) (string, error) {
	manifest := s3Manifest{
		Tag:        rel.Tag,
		Title:      rel.Title,
		Notes:      rel.Notes,
		Target:     rel.Target,
		Prerelease: rel.Prerelease,
		Created:    s.now().UTC(),
	}

	var uploaded []string
	rollback := func() {
		for _, key := range uploaded {
			if err := s.store.RemoveObject(context.WithoutCancel(ctx), s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
				slog.Warn("failed to remove partial upload", "key", key, "error", err)
			}
		}
	}

	for _, asset := range rel.Assets {
		obj, err := s.upload(ctx, rel.Tag, asset)
		if err != nil {
			rollback()
			return "", err
		}
		uploaded = append(uploaded, s.key(rel.Tag, obj.Name))
		manifest.Assets = append(manifest.Assets, obj)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		rollback()
		return "", err
	}

	key := s.key(rel.Tag, manifestName)
	if _, err := s.store.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	}); err != nil {
		rollback()
		return "", err
	}

	return s.objectURL(key), nil
}

// Uploads one asset under the release prefix.
func (s *S3) upload(ctx context.Context, tag, asset string) (s3Object, error) {
	f, err := os.Open(asset)
	if err != nil {
		return s3Object{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return s3Object{}, err
	}

	dgst, err := digest.FromReader(f)
	if err != nil {
		return s3Object{}, err
	}

	name := filepath.Base(asset)
	if _, err := s.store.FPutObject(ctx, s.bucket, s.key(tag, name), asset, minio.PutObjectOptions{
		ContentType:  mediaType(name),
		UserMetadata: map[string]string{"digest": dgst.String()},
	}); err != nil {
		return s3Object{}, fmt.Errorf("upload %s: %w", name, err)
	}

	return s3Object{Name: name, Size: info.Size(), Digest: dgst}, nil
}

// Returns the URL of an object.
func (s *S3) objectURL(key string) string {
	u := *s.store.EndpointURL()
	u.Path = path.Join("/", s.bucket, key)
	return u.String()
}
