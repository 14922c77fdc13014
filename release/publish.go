// Package release publish step. The manifest and its artifact files are
// pushed to an OCI registry as an artifact tagged with the released version.
package release

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/retry"
)

const (
	// DefaultTokenEnv is the environment variable holding the registry
	// authentication token. The token is only ever read from the
	// environment, never from flags or config files.
	DefaultTokenEnv = "PGARCHIVE_REGISTRY_TOKEN"

	// artifactType identifies published packages on the registry.
	artifactType = "application/vnd.pgarchive.package.v1"

	// manifestMediaType is the media type of the manifest layer.
	manifestMediaType = "application/vnd.pgarchive.manifest.v1+yaml"

	// fileMediaType is the media type of artifact file layers.
	fileMediaType = "application/vnd.pgarchive.file.v1"
)

// Publisher pushes a released package to a registry and returns the published
// reference.
type Publisher interface {
	Publish(ctx context.Context, m *Manifest) (string, error)
}

// OCIPublisher publishes the manifest and its artifact files to an OCI
// registry using ORAS.
type OCIPublisher struct {
	// FS is the filesystem the manifest and artifact files are read from.
	FS billy.Basic

	// Registry is the registry host and optional namespace,
	// e.g. "ghcr.io/example". The package name and version complete the
	// reference.
	Registry string

	// ManifestPath is the manifest location within FS.
	ManifestPath string

	// TokenEnv is the environment variable holding the bearer token.
	// Defaults to DefaultTokenEnv.
	TokenEnv string

	// PlainHTTP allows HTTP registries, for local testing only.
	PlainHTTP bool

	// target overrides the push destination in tests.
	target oras.Target
}

// Publish implements Publisher. It fails before any network I/O when the
// registry token is not present in the environment.
func (p *OCIPublisher) Publish(ctx context.Context, m *Manifest) (string, error) {
	if p.Registry == "" {
		return "", WrapError(ErrManifestInvalid, "registry is required")
	}

	tokenEnv := p.TokenEnv
	if tokenEnv == "" {
		tokenEnv = DefaultTokenEnv
	}
	token := os.Getenv(tokenEnv)
	if token == "" && p.target == nil {
		return "", WrapErrorf(ErrTokenMissing, "environment variable %s", tokenEnv)
	}

	store := memory.New()
	layers, err := p.pushLayers(ctx, store, m)
	if err != nil {
		return "", err
	}

	manifestDesc, err := oras.PackManifest(ctx, store, oras.PackManifestVersion1_1, artifactType,
		oras.PackManifestOptions{Layers: layers})
	if err != nil {
		return "", WrapError(err, "failed to pack artifact manifest")
	}

	tag := m.Version
	if err := store.Tag(ctx, manifestDesc, tag); err != nil {
		return "", WrapError(err, "failed to tag artifact")
	}

	reference := fmt.Sprintf("%s/%s:%s", p.Registry, m.Name, tag)
	dst := p.target
	if dst == nil {
		repo, err := remote.NewRepository(reference)
		if err != nil {
			return "", WrapErrorf(err, "invalid reference %q", reference)
		}
		repo.PlainHTTP = p.PlainHTTP
		repo.Client = &auth.Client{
			Client: retry.DefaultClient,
			Cache:  auth.NewCache(),
			Credential: auth.StaticCredential(repo.Reference.Registry, auth.Credential{
				AccessToken: token,
			}),
		}
		dst = repo
	}

	if _, err := oras.Copy(ctx, store, tag, dst, tag, oras.DefaultCopyOptions); err != nil {
		return "", WrapErrorf(err, "failed to publish %q", reference)
	}
	return reference, nil
}

// pushLayers stores the manifest and artifact file blobs and returns their
// descriptors.
func (p *OCIPublisher) pushLayers(ctx context.Context, store *memory.Store, m *Manifest) ([]ocispec.Descriptor, error) {
	push := func(mediaType, name string, blob []byte) (ocispec.Descriptor, error) {
		desc := content.NewDescriptorFromBytes(mediaType, blob)
		if desc.Annotations == nil {
			desc.Annotations = map[string]string{}
		}
		desc.Annotations[ocispec.AnnotationTitle] = name
		if err := store.Push(ctx, desc, bytes.NewReader(blob)); err != nil {
			return ocispec.Descriptor{}, WrapErrorf(err, "failed to store blob %q", name)
		}
		return desc, nil
	}

	manifestData, err := util.ReadFile(p.FS, p.ManifestPath)
	if err != nil {
		return nil, WrapErrorf(err, "failed to read manifest %q", p.ManifestPath)
	}
	manifestDesc, err := push(manifestMediaType, path.Base(p.ManifestPath), manifestData)
	if err != nil {
		return nil, err
	}

	layers := []ocispec.Descriptor{manifestDesc}
	for _, file := range m.Files {
		data, err := util.ReadFile(p.FS, file)
		if err != nil {
			return nil, WrapErrorf(err, "failed to read artifact %q", file)
		}
		desc, err := push(fileMediaType, path.Base(file), data)
		if err != nil {
			return nil, err
		}
		layers = append(layers, desc)
	}
	return layers, nil
}
