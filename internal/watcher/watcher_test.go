package watcher

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/readmegen/internal/gitops"
)

func git(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func newRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_AUTHOR_NAME", "Test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")

	dir := t.TempDir()
	git(t, dir, "init", "-q", "-b", "main")
	commit(t, dir, "a.txt", "feat: first")
	return dir
}

func commit(t *testing.T, dir, file, msg string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(msg), 0o644))
	git(t, dir, "add", file)
	git(t, dir, "commit", "-q", "-m", msg)
}

type changeLog struct {
	calls []Head
	err   error
}

func (c *changeLog) fn(_ context.Context, _, curr Head) error {
	c.calls = append(c.calls, curr)
	return c.err
}

func TestCheck_FiresOnNewCommit(t *testing.T) {
	dir := newRepo(t)
	var changes changeLog
	w := New(gitops.Open(dir), time.Minute, changes.fn, nil)
	ctx := context.Background()

	assert.Empty(t, w.Check(ctx), "first check records the baseline")
	assert.Empty(t, w.Check(ctx), "unchanged head")
	assert.Empty(t, changes.calls)

	commit(t, dir, "b.txt", "fix: second")
	alerts := w.Check(ctx)
	require.Len(t, changes.calls, 1)
	assert.Equal(t, "fix: second", changes.calls[0].Subject)
	require.Len(t, alerts, 1)
	assert.Equal(t, "README updated", alerts[0].Title)
	assert.True(t, strings.HasSuffix(alerts[0].Message, " fix: second"))

	assert.Empty(t, w.Check(ctx))
	assert.Len(t, changes.calls, 1)
}

func TestCheck_IgnoresReadmeCommits(t *testing.T) {
	dir := newRepo(t)
	var changes changeLog
	w := New(gitops.Open(dir), time.Minute, changes.fn, nil)
	ctx := context.Background()
	w.Check(ctx)

	commit(t, dir, "README.md", gitops.CommitPrefix+" (category: cli-tool, tags: none, status: success)")
	assert.Empty(t, w.Check(ctx))
	assert.Empty(t, changes.calls)

	commit(t, dir, "c.txt", "feat: third")
	w.Check(ctx)
	assert.Len(t, changes.calls, 1)
}

func TestCheck_ReportsFailedUpdate(t *testing.T) {
	dir := newRepo(t)
	changes := changeLog{err: errors.New("rate limited")}
	w := New(gitops.Open(dir), time.Minute, changes.fn, nil)
	ctx := context.Background()
	w.Check(ctx)

	commit(t, dir, "b.txt", "feat: second")
	alerts := w.Check(ctx)
	require.Len(t, alerts, 1)
	assert.Equal(t, "warning", alerts[0].Level)
	assert.Equal(t, "rate limited", alerts[0].Message)
}

func TestCheck_DeduplicatesSnapshotFailures(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

	w := New(gitops.Open(dir), time.Minute, nil, nil)
	first := w.Check(context.Background())
	require.Len(t, first, 1)
	assert.Equal(t, "Snapshot failed", first[0].Title)
	assert.Empty(t, w.Check(context.Background()), "repeated alert suppressed")
}

func TestRun_StopsWithContext(t *testing.T) {
	dir := newRepo(t)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := New(gitops.Open(dir), 20*time.Millisecond, nil, nil).Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFormatAlert(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatAlert(&buf, Alert{
		Level:   "info",
		Title:   "README updated",
		Message: "abc1234 feat: x",
		Time:    time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
	}))
	assert.Equal(t, "[15:04:05] info README updated: abc1234 feat: x\n", buf.String())
}
