// Package release pipeline orchestration. This file wires the individual
// steps into the single linear sequence triggered by a tag push.
package release

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"go.uber.org/zap"
)

// DefaultManifestPath is the manifest location relative to the worktree root.
const DefaultManifestPath = "manifest.yaml"

// DefaultCommitMessageTemplate formats the release commit message; the single
// argument is the released version.
const DefaultCommitMessageTemplate = "chore(release): %s"

// Options configures a release pipeline run.
type Options struct {
	// Ref is the fully qualified reference that triggered the release,
	// e.g. "refs/tags/v1.2.3". Anything other than a tag reference is
	// rejected before any step runs.
	Ref string

	// TagPrefix is stripped from the tag name before version parsing.
	// Empty means DefaultTagPrefix.
	TagPrefix string

	// FS is the checked-out working tree.
	FS billy.Filesystem

	// ManifestPath is the manifest location within FS.
	// Empty means DefaultManifestPath.
	ManifestPath string

	// Repo is the repository the release commit is recorded in. Its
	// worktree must be backed by FS.
	Repo *git.Repository

	// Publisher pushes the package to the registry.
	Publisher Publisher

	// Checkers run after the built-in manifest check. Any failure aborts
	// the pipeline before the commit step.
	Checkers []Checker

	// CommitMessageTemplate formats the release commit message; the single
	// argument is the released version. Empty means
	// DefaultCommitMessageTemplate.
	CommitMessageTemplate string

	// Committer signs the release commit. Zero means DefaultSignature.
	Committer Signature

	// SkipMessageValidation disables Conventional Commit validation of the
	// commit message.
	SkipMessageValidation bool

	// Logger receives step progress. Nil means no logging.
	Logger *zap.Logger
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.Ref == "" {
		return WrapError(ErrNotTagRef, "ref is required")
	}
	if o.FS == nil {
		return WrapError(ErrManifestInvalid, "FS is required")
	}
	if o.Repo == nil {
		return WrapError(ErrManifestInvalid, "Repo is required")
	}
	if o.Publisher == nil {
		return WrapError(ErrManifestInvalid, "Publisher is required")
	}
	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.TagPrefix == "" {
		o.TagPrefix = DefaultTagPrefix
	}
	if o.ManifestPath == "" {
		o.ManifestPath = DefaultManifestPath
	}
	if o.CommitMessageTemplate == "" {
		o.CommitMessageTemplate = DefaultCommitMessageTemplate
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Result describes a completed release.
type Result struct {
	// Version is the version derived from the tag.
	Version string

	// CommitSHA is the release commit recording the manifest update.
	CommitSHA string

	// Reference is the registry reference the package was published under.
	Reference string
}

// Pipeline executes the release sequence: derive the version, substitute it
// into the manifest, check, commit, publish.
type Pipeline struct {
	opts Options
}

// New creates a Pipeline after validating and defaulting the options.
func New(opts Options) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}
	opts.applyDefaults()
	return &Pipeline{opts: opts}, nil
}

// Run executes the pipeline. The first failing step aborts the remainder and
// the returned error names the step. There are no retries.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	o := &p.opts
	log := o.Logger

	if !IsTagRef(o.Ref) {
		return nil, WrapErrorf(ErrNotTagRef, "reference %q", o.Ref)
	}

	version, err := DeriveVersion(o.Ref, o.TagPrefix)
	if err != nil {
		return nil, stepError("derive-version", err)
	}
	log.Info("derived version from tag",
		zap.String("ref", o.Ref),
		zap.String("version", version))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := SetVersion(o.FS, o.ManifestPath, version); err != nil {
		return nil, stepError("substitute", err)
	}
	if _, err := WriteLock(o.FS, o.ManifestPath); err != nil {
		return nil, stepError("substitute", err)
	}
	log.Info("updated manifest version",
		zap.String("manifest", o.ManifestPath),
		zap.String("version", version))

	checkers := append([]Checker{
		&ManifestChecker{FS: o.FS, ManifestPath: o.ManifestPath, Version: version},
	}, o.Checkers...)
	for _, checker := range checkers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := checker.Check(ctx); err != nil {
			return nil, stepError("check", err)
		}
	}
	log.Info("checks passed", zap.Int("checkers", len(checkers)))

	msg := fmt.Sprintf(o.CommitMessageTemplate, version)
	if !o.SkipMessageValidation {
		if err := ValidateCommitMessage(msg); err != nil {
			return nil, stepError("commit", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sha, err := CommitFiles(ctx, o.Repo,
		[]string{o.ManifestPath, LockPath(o.ManifestPath)}, msg, o.Committer)
	if err != nil {
		return nil, stepError("commit", err)
	}
	log.Info("recorded release commit", zap.String("sha", sha))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := LoadManifest(o.FS, o.ManifestPath)
	if err != nil {
		return nil, stepError("publish", err)
	}
	reference, err := o.Publisher.Publish(ctx, m)
	if err != nil {
		return nil, stepError("publish", err)
	}
	log.Info("published package", zap.String("reference", reference))

	return &Result{
		Version:   version,
		CommitSHA: sha,
		Reference: reference,
	}, nil
}

// stepError attaches the failing step's name to the error.
func stepError(step string, err error) error {
	return WrapErrorf(err, "%s step failed", step)
}
