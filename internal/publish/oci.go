package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/retry"
)

const (

	// Artifact type of release manifests.
	ArtifactType = "application/vnd.cruxrel.release.v1"

	// Manifest annotation recording the prerelease flag.
	AnnotationPrerelease = "dev.cruxrel.release.prerelease"
)

// Registry operations used by the OCI host. Implemented by
// *remote.Repository.
type Registry interface {
	oras.Target
	content.Deleter
}

// Releases stored as OCI artifacts in a registry repository.
//
// Each asset is a layer blob titled with its file name. A v1.1 manifest with
// the release's title, notes and prerelease flag as annotations is tagged
// with the release tag. Deleting the manifest removes the tag with it.
type OCI struct {
	target     Registry
	repository string
}

// Creates an OCI host over target. repository is used to form release URLs.
func NewOCI(target Registry, repository string) *OCI {
	return &OCI{target: target, repository: repository}
}

// Connects to a registry repository such as "ghcr.io/acme/app-releases".
//
// Credentials are used only when username is non-empty; otherwise the
// registry is accessed anonymously.
func NewRepository(repository string, plainHTTP bool, username, password string) (*remote.Repository, error) {
	repo, err := remote.NewRepository(repository)
	if err != nil {
		return nil, err
	}
	repo.PlainHTTP = plainHTTP

	client := &auth.Client{
		Client: retry.DefaultClient,
		Cache:  auth.NewCache(),
	}
	if username != "" {
		client.Credential = auth.StaticCredential(repo.Reference.Registry, auth.Credential{
			Username: username,
			Password: password,
		})
	}
	repo.Client = client

	return repo, nil
}

func (o *OCI) ReleaseExists(ctx context.Context, tag string) (bool, error) {
	if _, err := o.target.Resolve(ctx, tag); err != nil {
		if errors.Is(err, errdef.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Deletes the manifest the tag points at. deleteTag is implied, since a
// registry drops the tag together with its manifest.
func (o *OCI) DeleteRelease(ctx context.Context, tag string, deleteTag bool) error {
	desc, err := o.target.Resolve(ctx, tag)
	if err != nil {
		if errors.Is(err, errdef.ErrNotFound) {
			return nil
		}
		return err
	}
	return o.target.Delete(ctx, desc)
}

func (o *OCI) CreateRelease(ctx context.Context, rel Release) (string, error) {
	layers := make([]ocispec.Descriptor, 0, len(rel.Assets))
	for _, asset := range rel.Assets {
		desc, err := o.pushAsset(ctx, asset)
		if err != nil {
			return "", err
		}
		layers = append(layers, desc)
	}

	manifest, err := oras.PackManifest(ctx, o.target, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers: layers,
		ManifestAnnotations: map[string]string{
			ocispec.AnnotationTitle:       rel.Title,
			ocispec.AnnotationDescription: rel.Notes,
			ocispec.AnnotationRevision:    rel.Target,
			AnnotationPrerelease:          strconv.FormatBool(rel.Prerelease),
		},
	})
	if err != nil {
		return "", err
	}

	if err := o.target.Tag(ctx, manifest, rel.Tag); err != nil {
		return "", err
	}

	return o.repository + ":" + rel.Tag, nil
}

// Pushes one asset as a blob and returns its descriptor.
func (o *OCI) pushAsset(ctx context.Context, asset string) (ocispec.Descriptor, error) {
	f, err := os.Open(asset)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	dgst, err := digest.FromReader(f)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return ocispec.Descriptor{}, err
	}

	name := filepath.Base(asset)
	desc := ocispec.Descriptor{
		MediaType: mediaType(name),
		Digest:    dgst,
		Size:      info.Size(),
		Annotations: map[string]string{
			ocispec.AnnotationTitle: name,
		},
	}

	if err := o.target.Push(ctx, desc, f); err != nil && !errors.Is(err, errdef.ErrAlreadyExists) {
		return ocispec.Descriptor{}, err
	}
	return desc, nil
}
