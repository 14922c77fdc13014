// Package release validation step. The built-in check verifies the manifest
// and lock pair after substitution; an external check can additionally invoke
// the package manager's own validation command.
package release

import (
	"context"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/wichert/pgarchive/executor"
)

// Checker validates the working tree before the release is committed and
// published.
type Checker interface {
	Check(ctx context.Context) error
}

// ManifestChecker verifies that the manifest parses, carries the expected
// version, and matches its lock file.
type ManifestChecker struct {
	FS           billy.Basic
	ManifestPath string

	// Version is the version derived from the triggering tag.
	Version string
}

// Check implements Checker.
func (c *ManifestChecker) Check(ctx context.Context) error {
	m, err := LoadManifest(c.FS, c.ManifestPath)
	if err != nil {
		return err
	}
	if m.Version != c.Version {
		return WrapErrorf(ErrVersionMismatch, "manifest has %q, tag derived %q", m.Version, c.Version)
	}
	return VerifyLock(c.FS, c.ManifestPath)
}

// CommandChecker runs an external validation command, such as a package
// manager dependency check. A non-zero exit fails the step with the command's
// stderr attached to the error.
type CommandChecker struct {
	Program    string
	Args       []string
	WorkingDir string
}

// Check implements Checker.
func (c *CommandChecker) Check(ctx context.Context) error {
	cmd := executor.New(c.Program, c.Args...)
	result, err := cmd.Run(ctx, executor.WithWorkingDir(c.WorkingDir))
	if err == nil {
		return nil
	}
	if result != nil && strings.TrimSpace(result.Stderr) != "" {
		return WrapErrorf(ErrCheckFailed, "%s: %s", cmd, strings.TrimSpace(result.Stderr))
	}
	return WrapErrorf(ErrCheckFailed, "%s: %v", cmd, err)
}
