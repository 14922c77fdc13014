// Package release manifest and lock file handling. The manifest is the YAML
// package metadata file whose version field is rewritten before publish; the
// lock file records a digest of the manifest so the pair can be verified.
package release

import (
	"os"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/opencontainers/go-digest"
	"gopkg.in/yaml.v3"
)

// Manifest is the package metadata published to the registry.
type Manifest struct {
	// Name is the package name, used as the repository name on the registry.
	Name string `yaml:"name"`

	// Version is the package version. At publish time it must equal the
	// version derived from the triggering tag.
	Version string `yaml:"version"`

	// Description is a human readable package summary.
	Description string `yaml:"description,omitempty"`

	// Files lists the artifact files published alongside the manifest.
	Files []string `yaml:"files,omitempty"`
}

// Validate checks that the manifest is publishable.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return WrapError(ErrManifestInvalid, "name is required")
	}
	if m.Version == "" {
		return WrapError(ErrManifestInvalid, "version is required")
	}
	if _, err := semver.StrictNewVersion(m.Version); err != nil {
		return WrapErrorf(ErrManifestInvalid, "version %q is not a semantic version", m.Version)
	}
	return nil
}

// LoadManifest reads and validates the manifest at path.
func LoadManifest(fs billy.Basic, path string) (*Manifest, error) {
	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, WrapErrorf(err, "failed to read manifest %q", path)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, WrapErrorf(ErrManifestInvalid, "failed to parse %q: %v", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// versionLine matches a top-level version field. Indented occurrences belong
// to nested mappings and are left alone.
var versionLine = regexp.MustCompile(`(?m)^(version:[ \t]*)(.*)$`)

// SetVersion rewrites the manifest's top-level version field in place using a
// textual substitution, so every other byte of the file - ordering, comments,
// unknown fields - is preserved. It returns true when the file content
// changed.
func SetVersion(fs billy.Basic, path, version string) (bool, error) {
	data, err := util.ReadFile(fs, path)
	if err != nil {
		return false, WrapErrorf(err, "failed to read manifest %q", path)
	}

	matches := versionLine.FindAllIndex(data, -1)
	switch len(matches) {
	case 0:
		return false, WrapErrorf(ErrVersionMissing, "manifest %q", path)
	case 1:
		// expected
	default:
		return false, WrapErrorf(ErrManifestInvalid, "manifest %q has %d version fields", path, len(matches))
	}

	updated := versionLine.ReplaceAll(data, []byte(`${1}"`+version+`"`))
	if string(updated) == string(data) {
		return false, nil
	}

	info, err := fs.Stat(path)
	mode := os.FileMode(defaultManifestMode)
	if err == nil {
		mode = info.Mode()
	}
	if err := util.WriteFile(fs, path, updated, mode); err != nil {
		return false, WrapErrorf(err, "failed to write manifest %q", path)
	}
	return true, nil
}

const defaultManifestMode = 0o644

// Lock is the companion lock file contents: the manifest identity plus a
// digest over its exact bytes.
type Lock struct {
	Name     string        `yaml:"name"`
	Version  string        `yaml:"version"`
	Manifest digest.Digest `yaml:"manifest"`
}

// LockPath returns the lock file path for a manifest path.
func LockPath(manifestPath string) string {
	return manifestPath + ".lock"
}

// WriteLock regenerates the lock file next to the manifest so the pair stays
// consistent after a version substitution.
func WriteLock(fs billy.Basic, manifestPath string) (*Lock, error) {
	m, err := LoadManifest(fs, manifestPath)
	if err != nil {
		return nil, err
	}
	data, err := util.ReadFile(fs, manifestPath)
	if err != nil {
		return nil, WrapErrorf(err, "failed to read manifest %q", manifestPath)
	}

	lock := &Lock{
		Name:     m.Name,
		Version:  m.Version,
		Manifest: digest.FromBytes(data),
	}
	out, err := yaml.Marshal(lock)
	if err != nil {
		return nil, WrapError(err, "failed to encode lock file")
	}
	if err := util.WriteFile(fs, LockPath(manifestPath), out, defaultManifestMode); err != nil {
		return nil, WrapErrorf(err, "failed to write lock file %q", LockPath(manifestPath))
	}
	return lock, nil
}

// VerifyLock checks that the lock file matches the manifest bytes and
// metadata.
func VerifyLock(fs billy.Basic, manifestPath string) error {
	data, err := util.ReadFile(fs, manifestPath)
	if err != nil {
		return WrapErrorf(err, "failed to read manifest %q", manifestPath)
	}
	lockData, err := util.ReadFile(fs, LockPath(manifestPath))
	if err != nil {
		return WrapErrorf(err, "failed to read lock file %q", LockPath(manifestPath))
	}

	var lock Lock
	if err := yaml.Unmarshal(lockData, &lock); err != nil {
		return WrapErrorf(ErrLockMismatch, "failed to parse lock file: %v", err)
	}
	if lock.Manifest != digest.FromBytes(data) {
		return WrapError(ErrLockMismatch, "manifest digest changed")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return WrapErrorf(ErrManifestInvalid, "failed to parse manifest: %v", err)
	}
	if lock.Name != m.Name || lock.Version != m.Version {
		return WrapError(ErrLockMismatch, "lock metadata does not match manifest")
	}
	return nil
}
