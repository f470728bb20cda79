// Package scanner walks a repository's file tree and summarizes it.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Result is the outcome of a scan.
type Result struct {
	// FileCount is the number of non-hidden files in visited directories.
	FileCount int `json:"file_count"`

	// Listing holds one entry per visited directory, root first, each with
	// that directory's immediate filenames (hidden ones included).
	Listing [][]string `json:"listing"`
}

// excludedDirs are never descended into.
var excludedDirs = map[string]bool{
	".git":          true,
	".github":       true,
	".vscode":       true,
	".devcontainer": true,
	"venv":          true,
	"env":           true,
	"__pycache__":   true,
	".pytest_cache": true,
}

// IsExcluded reports whether a directory with the given name is pruned.
func IsExcluded(name string) bool {
	return excludedDirs[name]
}

// Scan walks the tree rooted at root. Excluded directories are pruned before
// they are read, so nothing inside them is visited. Subdirectories that
// cannot be read are skipped; only an unreadable root is an error.
func Scan(root string) (Result, error) {
	res := Result{Listing: [][]string{}}

	info, err := os.Stat(root)
	if err != nil {
		return res, fmt.Errorf("scanning %s: %w", root, err)
	}
	if !info.IsDir() {
		return res, fmt.Errorf("scanning %s: not a directory", root)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			// Unreadable subdirectory: skip it and keep walking.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && IsExcluded(d.Name()) {
			return fs.SkipDir
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			if path == root {
				return err
			}
			return fs.SkipDir
		}

		files := []string{}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			files = append(files, e.Name())
			if !strings.HasPrefix(e.Name(), ".") {
				res.FileCount++
			}
		}
		res.Listing = append(res.Listing, files)
		return nil
	})
	if err != nil {
		return Result{Listing: [][]string{}}, fmt.Errorf("scanning %s: %w", root, err)
	}

	return res, nil
}

// Files flattens the listing into a single slice of filenames.
func (r Result) Files() []string {
	var out []string
	for _, dir := range r.Listing {
		out = append(out, dir...)
	}
	return out
}

// Summary renders the scan as the trailer appended to the generated README.
func Summary(res Result, now time.Time) string {
	return fmt.Sprintf("total files in repo: %d\nfile names: %v\nlast updated: %s",
		res.FileCount, res.Listing, now.Format("2006-01-02 15:04:05"))
}

// ignoredExtensions are documentation and config types left out of the
// extension summary.
var ignoredExtensions = map[string]bool{
	"md":        true,
	"txt":       true,
	"yml":       true,
	"yaml":      true,
	"json":      true,
	"gitignore": true,
}

// ExtensionSummary returns the distinct lower-cased file extensions in the
// listing, without the leading dot and without documentation/config types,
// sorted and capped at limit (no cap when limit <= 0).
func ExtensionSummary(listing [][]string, limit int) []string {
	seen := make(map[string]bool)
	for _, dir := range listing {
		for _, name := range dir {
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
			if ext == "" || ignoredExtensions[ext] {
				continue
			}
			seen[ext] = true
		}
	}

	exts := make([]string, 0, len(seen))
	for ext := range seen {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	if limit > 0 && len(exts) > limit {
		exts = exts[:limit]
	}
	return exts
}

// ValidatePath reports whether p looks like a usable local directory path:
// non-empty, free of ":" and "//", and present on disk.
func ValidatePath(p string) bool {
	if p == "" || strings.Contains(p, ":") || strings.Contains(p, "//") {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}
