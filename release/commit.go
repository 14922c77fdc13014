// Package release commit step. Stages the manifest and lock file and records
// the release commit using go-git.
package release

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"
)

// Signature identifies the author and committer of the release commit.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// DefaultSignature is used when no committer is configured.
var DefaultSignature = Signature{
	Name:  "release-bot",
	Email: "release@pgarchive",
}

// ValidateCommitMessage checks that msg parses as a Conventional Commit.
func ValidateCommitMessage(msg string) error {
	machine := parser.NewMachine(conventionalcommits.WithTypes(conventionalcommits.TypesConventional))
	if _, err := machine.Parse([]byte(msg)); err != nil {
		return WrapErrorf(ErrInvalidCommitMessage, "%q: %v", msg, err)
	}
	return nil
}

// CommitFiles stages the given paths and creates a commit with the specified
// message and signature. It returns the SHA of the new commit.
//
// When none of the paths carry changes the commit step fails with
// ErrNoChanges rather than recording an empty commit; this happens when a tag
// is re-run against an already released manifest.
func CommitFiles(ctx context.Context, repo *git.Repository, paths []string, msg string, who Signature) (string, error) {
	if msg == "" {
		return "", WrapError(ErrInvalidCommitMessage, "commit message cannot be empty")
	}
	if who.Name == "" || who.Email == "" {
		who = DefaultSignature
	}
	if who.When.IsZero() {
		who.When = time.Now()
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", WrapError(err, "failed to open worktree")
	}

	for _, path := range paths {
		if _, err := worktree.Add(path); err != nil {
			return "", WrapErrorf(err, "failed to stage %q", path)
		}
	}

	status, err := worktree.Status()
	if err != nil {
		return "", WrapError(err, "failed to get worktree status")
	}

	staged := 0
	for _, fileStatus := range status {
		if fileStatus.Staging != git.Untracked && fileStatus.Staging != git.Unmodified {
			staged++
		}
	}
	if staged == 0 {
		return "", WrapError(ErrNoChanges, "nothing staged for release commit")
	}

	sig := &object.Signature{
		Name:  who.Name,
		Email: who.Email,
		When:  who.When,
	}
	hash, err := worktree.Commit(msg, &git.CommitOptions{
		Author:    sig,
		Committer: sig,
	})
	if err != nil {
		return "", WrapError(err, "failed to create release commit")
	}
	return hash.String(), nil
}
