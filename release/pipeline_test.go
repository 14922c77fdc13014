package release

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPublisher records publish calls without touching a registry.
type stubPublisher struct {
	calls    int
	manifest *Manifest
	err      error
}

func (s *stubPublisher) Publish(ctx context.Context, m *Manifest) (string, error) {
	s.calls++
	s.manifest = m
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("registry.example.com/%s:%s", m.Name, m.Version), nil
}

// checkerFunc adapts a function to the Checker interface.
type checkerFunc func(ctx context.Context) error

func (f checkerFunc) Check(ctx context.Context) error { return f(ctx) }

// testWorkspace is an in-memory worktree with an initial commit containing
// the manifest.
type testWorkspace struct {
	fs   billy.Filesystem
	repo *git.Repository
}

func setupWorkspace(t *testing.T, manifest string) *testWorkspace {
	t.Helper()

	fs := memfs.New()
	repo, err := git.Init(memory.NewStorage(), fs)
	require.NoError(t, err)

	require.NoError(t, util.WriteFile(fs, "manifest.yaml", []byte(manifest), 0o644))
	require.NoError(t, util.WriteFile(fs, "dist/pgarchive.tar.gz", []byte("artifact"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	_, err = wt.Commit("initial import", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return &testWorkspace{fs: fs, repo: repo}
}

func (w *testWorkspace) headSHA(t *testing.T) string {
	t.Helper()
	head, err := w.repo.Head()
	require.NoError(t, err)
	return head.Hash().String()
}

func TestPipelineRun(t *testing.T) {
	ws := setupWorkspace(t, testManifest)
	publisher := &stubPublisher{}

	p, err := New(Options{
		Ref:       "refs/tags/v1.2.3",
		FS:        ws.fs,
		Repo:      ws.repo,
		Publisher: publisher,
	})
	require.NoError(t, err)

	initialHead := ws.headSHA(t)
	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1.2.3", result.Version)
	assert.Equal(t, "registry.example.com/pgarchive:1.2.3", result.Reference)
	assert.NotEqual(t, initialHead, result.CommitSHA)
	assert.Equal(t, result.CommitSHA, ws.headSHA(t))

	// The manifest and lock were updated and committed.
	m, err := LoadManifest(ws.fs, "manifest.yaml")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", m.Version)
	require.NoError(t, VerifyLock(ws.fs, "manifest.yaml"))

	// The published manifest carries the derived version.
	require.Equal(t, 1, publisher.calls)
	assert.Equal(t, "1.2.3", publisher.manifest.Version)

	// The release commit touches exactly the manifest and lock file.
	commit, err := ws.repo.CommitObject(plumbing.NewHash(result.CommitSHA))
	require.NoError(t, err)
	stats, err := commit.Stats()
	require.NoError(t, err)
	var touched []string
	for _, stat := range stats {
		touched = append(touched, stat.Name)
	}
	assert.ElementsMatch(t, []string{"manifest.yaml", "manifest.yaml.lock"}, touched)
}

func TestPipelineRejectsBranchRef(t *testing.T) {
	ws := setupWorkspace(t, testManifest)
	publisher := &stubPublisher{}

	p, err := New(Options{
		Ref:       "refs/heads/main",
		FS:        ws.fs,
		Repo:      ws.repo,
		Publisher: publisher,
	})
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	assert.ErrorIs(t, err, ErrNotTagRef)

	// Nothing ran: the manifest is untouched and nothing was published.
	m, err := LoadManifest(ws.fs, "manifest.yaml")
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", m.Version)
	assert.Zero(t, publisher.calls)
}

func TestPipelineFailFast(t *testing.T) {
	ws := setupWorkspace(t, testManifest)
	publisher := &stubPublisher{}
	checkErr := errors.New("dependency resolution failed")

	p, err := New(Options{
		Ref:       "refs/tags/v1.2.3",
		FS:        ws.fs,
		Repo:      ws.repo,
		Publisher: publisher,
		Checkers: []Checker{
			checkerFunc(func(ctx context.Context) error { return checkErr }),
		},
	})
	require.NoError(t, err)

	initialHead := ws.headSHA(t)
	_, err = p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, checkErr)
	assert.Contains(t, err.Error(), "check step failed")

	// The failing check prevented both the commit and the publish.
	assert.Equal(t, initialHead, ws.headSHA(t))
	assert.Zero(t, publisher.calls)
}

func TestPipelineRerunWithoutChanges(t *testing.T) {
	ws := setupWorkspace(t, testManifest)

	// First run releases 1.2.3.
	publisher := &stubPublisher{}
	p, err := New(Options{
		Ref:       "refs/tags/v1.2.3",
		FS:        ws.fs,
		Repo:      ws.repo,
		Publisher: publisher,
	})
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	require.NoError(t, err)

	// Re-running the same tag finds nothing to commit.
	rerunPublisher := &stubPublisher{}
	p, err = New(Options{
		Ref:       "refs/tags/v1.2.3",
		FS:        ws.fs,
		Repo:      ws.repo,
		Publisher: rerunPublisher,
	})
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoChanges)
	assert.Zero(t, rerunPublisher.calls)
}

func TestPipelineValidatesCommitMessage(t *testing.T) {
	ws := setupWorkspace(t, testManifest)

	p, err := New(Options{
		Ref:                   "refs/tags/v1.2.3",
		FS:                    ws.fs,
		Repo:                  ws.repo,
		Publisher:             &stubPublisher{},
		CommitMessageTemplate: "released %s without a type",
	})
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	assert.ErrorIs(t, err, ErrInvalidCommitMessage)
}

func TestPipelineSkipMessageValidation(t *testing.T) {
	ws := setupWorkspace(t, testManifest)

	p, err := New(Options{
		Ref:                   "refs/tags/v1.2.3",
		FS:                    ws.fs,
		Repo:                  ws.repo,
		Publisher:             &stubPublisher{},
		CommitMessageTemplate: "released %s without a type",
		SkipMessageValidation: true,
	})
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	assert.NoError(t, err)
}

func TestPipelinePublishFailure(t *testing.T) {
	ws := setupWorkspace(t, testManifest)
	publishErr := errors.New("registry unavailable")

	p, err := New(Options{
		Ref:       "refs/tags/v1.2.3",
		FS:        ws.fs,
		Repo:      ws.repo,
		Publisher: &stubPublisher{err: publishErr},
	})
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, publishErr)
	assert.Contains(t, err.Error(), "publish step failed")
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Ref: "refs/tags/v1.0.0"})
	assert.Error(t, err)
}
