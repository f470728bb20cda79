package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, r)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}
}

func TestScan_ProjectTree(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"main.py", "README.md", ".hidden",
		"src/app.py", "src/utils.py",
		".git/config", "venv/lib.py",
	)

	res, err := Scan(root)
	require.NoError(t, err)

	// main.py, README.md, app.py, utils.py.
	assert.Equal(t, 4, res.FileCount)

	files := res.Files()
	assert.NotContains(t, files, "config")
	assert.NotContains(t, files, "lib.py")
	// Hidden files are listed, just not counted.
	assert.Contains(t, files, ".hidden")
	assert.Len(t, res.Listing, 2)
}

func TestScan_HiddenFilesNotCounted(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "visible.py", ".hidden")

	res, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FileCount)
}

func TestScan_AllExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "main.go")
	for name := range excludedDirs {
		touch(t, root, filepath.Join(name, "inner.txt"), filepath.Join(name, "deep", "more.txt"))
	}

	res, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FileCount)
	assert.Equal(t, [][]string{{"main.go"}}, res.Listing)
}

func TestScan_ExcludedOnlyByExactName(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "environment/a.go", "myvenv/b.go")

	res, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FileCount)
}

func TestScan_EmptyDirectory(t *testing.T) {
	res, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, res.FileCount)
	assert.LessOrEqual(t, len(res.Listing), 1)
	for _, dir := range res.Listing {
		assert.Empty(t, dir)
	}
}

func TestScan_MissingRootIsError(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestScan_FileRootIsError(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "file.txt")
	_, err := Scan(filepath.Join(root, "file.txt"))
	assert.Error(t, err)
}

func TestScan_UnreadableGitInternalsNeverVisited(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "main.go", ".git/objects/aa/bb/cc/obj")
	locked := filepath.Join(root, ".git", "objects")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	res, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FileCount)
}

func TestScan_UnreadableSubdirectorySkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := t.TempDir()
	touch(t, root, "main.go", "locked/secret.go", "open/visible.go")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	res, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FileCount)
	assert.NotContains(t, res.Files(), "secret.go")
}

func TestSummary(t *testing.T) {
	res := Result{FileCount: 3, Listing: [][]string{{"a.go", "b.go"}, {"c.go"}}}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	got := Summary(res, now)
	assert.Equal(t, "total files in repo: 3\nfile names: [[a.go b.go] [c.go]]\nlast updated: 2026-01-02 03:04:05", got)
}

func TestExtensionSummary(t *testing.T) {
	listing := [][]string{
		{"main.GO", "README.md", "notes.txt", ".gitignore", "Makefile"},
		{"app.py", "conf.yaml", "conf.yml", "data.json", "util.py"},
		{"index.ts"},
	}

	assert.Equal(t, []string{"go", "py", "ts"}, ExtensionSummary(listing, 10))
	assert.Equal(t, []string{"go", "py"}, ExtensionSummary(listing, 2))
}

func TestExtensionSummary_CapsAtLimit(t *testing.T) {
	var names []string
	for c := 'a'; c <= 'o'; c++ {
		names = append(names, "f."+strings.Repeat(string(c), 2))
	}
	got := ExtensionSummary([][]string{names}, 10)
	assert.Len(t, got, 10)
	assert.Equal(t, "aa", got[0])
	assert.Equal(t, "jj", got[9])
}

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, ValidatePath(dir))
	assert.False(t, ValidatePath(""))
	assert.False(t, ValidatePath("C:/windows"))
	assert.False(t, ValidatePath(dir+"//x"))
	assert.False(t, ValidatePath(filepath.Join(dir, "missing")))
}
