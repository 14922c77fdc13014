package release

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2/content/memory"
)

func TestOCIPublisherRequiresToken(t *testing.T) {
	t.Setenv(DefaultTokenEnv, "")

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "manifest.yaml", []byte(testManifest), 0o644))

	p := &OCIPublisher{
		FS:           fs,
		Registry:     "registry.example.com",
		ManifestPath: "manifest.yaml",
	}
	_, err := p.Publish(context.Background(), &Manifest{Name: "pgarchive", Version: "1.2.3"})
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestOCIPublisherRequiresRegistry(t *testing.T) {
	p := &OCIPublisher{FS: memfs.New(), ManifestPath: "manifest.yaml"}
	_, err := p.Publish(context.Background(), &Manifest{Name: "pgarchive", Version: "1.2.3"})
	assert.Error(t, err)
}

func TestOCIPublisherPushesArtifact(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "manifest.yaml", []byte(testManifest), 0o644))
	require.NoError(t, util.WriteFile(fs, "dist/pgarchive.tar.gz", []byte("artifact"), 0o644))

	target := memory.New()
	p := &OCIPublisher{
		FS:           fs,
		Registry:     "registry.example.com",
		ManifestPath: "manifest.yaml",
		target:       target,
	}

	m := &Manifest{
		Name:    "pgarchive",
		Version: "1.2.3",
		Files:   []string{"dist/pgarchive.tar.gz"},
	}
	reference, err := p.Publish(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "registry.example.com/pgarchive:1.2.3", reference)

	// The artifact is resolvable under the version tag on the target.
	desc, err := target.Resolve(context.Background(), "1.2.3")
	require.NoError(t, err)
	assert.NotEmpty(t, desc.Digest)
}

func TestOCIPublisherMissingArtifact(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "manifest.yaml", []byte(testManifest), 0o644))

	p := &OCIPublisher{
		FS:           fs,
		Registry:     "registry.example.com",
		ManifestPath: "manifest.yaml",
		target:       memory.New(),
	}
	_, err := p.Publish(context.Background(), &Manifest{
		Name:    "pgarchive",
		Version: "1.2.3",
		Files:   []string{"dist/missing.tar.gz"},
	})
	assert.Error(t, err)
}
