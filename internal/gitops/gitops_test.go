package gitops

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/readmegen/internal/generator"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func gitEnv(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_AUTHOR_NAME", "Test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")
}

func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return strings.TrimSpace(string(out))
}

// newRepo returns a repository with one commit on branch main.
func newRepo(t *testing.T) *Repo {
	t.Helper()
	dir := t.TempDir()
	git(t, dir, "init", "-q", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))
	git(t, dir, "add", "main.go")
	git(t, dir, "commit", "-q", "-m", "feat: initial")
	return Open(dir)
}

func writeFile(t *testing.T, repo *Repo, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(repo.Path, name), []byte(content), 0o644))
}

func testMeta() generator.Metadata {
	return generator.Metadata{
		Tags:     []string{"cli", "git"},
		Category: "cli-tool",
		MLStatus: generator.StatusSuccess,
	}
}

func TestCommitMessage(t *testing.T) {
	assert.Equal(t,
		"docs: update README (category: cli-tool, tags: cli, git, status: success)",
		CommitMessage(testMeta()))

	failed := generator.FallbackMetadata("m", nil, time.Now())
	assert.Equal(t,
		"docs: update README (category: other, tags: none, status: failed)",
		CommitMessage(failed))
}

func TestRepo_SubjectsAndHasChanges(t *testing.T) {
	gitEnv(t)
	repo := newRepo(t)
	ctx := context.Background()

	subjects, err := repo.Subjects(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"feat: initial"}, subjects)

	changed, err := repo.HasChanges(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	writeFile(t, repo, "README.md", "# hi\n")
	changed, err = repo.HasChanges(ctx, "README.md")
	require.NoError(t, err)
	assert.True(t, changed, "untracked file counts")

	changed, err = repo.HasChanges(ctx, "main.go")
	require.NoError(t, err)
	assert.False(t, changed, "scoped to the given paths")
}

func TestRepo_RunOutsideRepository(t *testing.T) {
	gitEnv(t)
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

	_, err := Open(dir).Subjects(context.Background(), 1)
	assert.Error(t, err)
}

func TestRepo_MarkSafeIsIdempotent(t *testing.T) {
	gitEnv(t)
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.MarkSafe(ctx))
	require.NoError(t, repo.MarkSafe(ctx))

	abs, err := filepath.Abs(repo.Path)
	require.NoError(t, err)
	assert.Equal(t, abs, git(t, repo.Path, "config", "--global", "--get-all", "safe.directory"))
}

func TestRepo_MarkSafeSkipsWildcard(t *testing.T) {
	gitEnv(t)
	repo := newRepo(t)
	git(t, repo.Path, "config", "--global", "--add", "safe.directory", "*")

	require.NoError(t, repo.MarkSafe(context.Background()))
	assert.Equal(t, "*", git(t, repo.Path, "config", "--global", "--get-all", "safe.directory"))
}

func TestAutoCommit_CommitsOnlyGivenFiles(t *testing.T) {
	gitEnv(t)
	repo := newRepo(t)
	writeFile(t, repo, "README.md", "# readme\n")
	writeFile(t, repo, "project_metadata.json", "{}\n")
	writeFile(t, repo, "scratch.txt", "not ours\n")

	res, err := AutoCommit(context.Background(), repo, []string{"README.md", "project_metadata.json"}, testMeta(), false, discardLogger())
	require.NoError(t, err)
	assert.True(t, res.Committed)
	assert.False(t, res.Pushed)
	assert.Len(t, res.SHA, 40)

	assert.Equal(t, CommitMessage(testMeta()), git(t, repo.Path, "log", "-1", "--format=%s"))
	files := git(t, repo.Path, "show", "--name-only", "--format=", "HEAD")
	assert.ElementsMatch(t, []string{"README.md", "project_metadata.json"}, strings.Split(files, "\n"))
	assert.Contains(t, git(t, repo.Path, "status", "--porcelain"), "scratch.txt")
}

func TestAutoCommit_CleanTreeIsNoop(t *testing.T) {
	gitEnv(t)
	repo := newRepo(t)

	res, err := AutoCommit(context.Background(), repo, []string{"main.go"}, testMeta(), true, discardLogger())
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Equal(t, "feat: initial", git(t, repo.Path, "log", "-1", "--format=%s"))
}

func TestAutoCommit_Pushes(t *testing.T) {
	gitEnv(t)
	remote := t.TempDir()
	git(t, remote, "init", "-q", "--bare")

	repo := newRepo(t)
	git(t, repo.Path, "remote", "add", "origin", remote)
	writeFile(t, repo, "README.md", "# pushed\n")

	res, err := AutoCommit(context.Background(), repo, []string{"README.md"}, testMeta(), true, discardLogger())
	require.NoError(t, err)
	assert.True(t, res.Pushed)
	assert.Equal(t, res.SHA, git(t, remote, "rev-parse", "main"))
}

func TestAutoCommit_PushFailureIsSwallowed(t *testing.T) {
	gitEnv(t)
	repo := newRepo(t)
	repo.Remote = "nowhere"
	writeFile(t, repo, "README.md", "# local only\n")

	res, err := AutoCommit(context.Background(), repo, []string{"README.md"}, testMeta(), true, discardLogger())
	require.NoError(t, err)
	assert.True(t, res.Committed)
	assert.False(t, res.Pushed)
}
