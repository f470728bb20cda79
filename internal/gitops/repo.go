// Package gitops drives the git CLI for a single working tree.
package gitops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrGitNotFound is returned when no git binary is on PATH.
var ErrGitNotFound = errors.New("git executable not found in PATH")

// Repo is a git working tree. Remote and Branch are used by Push; an empty
// Branch pushes the current HEAD.
type Repo struct {
	Path   string
	Remote string
	Branch string
}

// Open returns a Repo for path. The path is not checked.
func Open(path string) *Repo {
	return &Repo{Path: path, Remote: "origin"}
}

// Run executes git with args in the working tree and returns stdout.
func (r *Repo) Run(ctx context.Context, args ...string) (string, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return "", ErrGitNotFound
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Path

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(stderr.String()), err)
	}
	return stdout.String(), nil
}

// MarkSafe adds the working tree to the global safe.directory list so git
// accepts a checkout owned by another user. A path already listed, or a "*"
// entry, leaves the config untouched.
func (r *Repo) MarkSafe(ctx context.Context) error {
	abs, err := filepath.Abs(r.Path)
	if err != nil {
		abs = r.Path
	}
	// --get-all exits 1 when the key is unset; treat that as an empty list.
	listed, _ := r.Run(ctx, "config", "--global", "--get-all", "safe.directory")
	for _, line := range strings.Split(listed, "\n") {
		if dir := strings.TrimSpace(line); dir == abs || dir == "*" {
			return nil
		}
	}
	_, err = r.Run(ctx, "config", "--global", "--add", "safe.directory", abs)
	return err
}

// Subjects returns up to n commit subject lines, newest first.
func (r *Repo) Subjects(ctx context.Context, n int) ([]string, error) {
	out, err := r.Run(ctx, "log", "-n", strconv.Itoa(n), "--format=%s")
	if err != nil {
		return nil, err
	}

	subjects := []string{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		subjects = append(subjects, line)
	}
	return subjects, nil
}

// HasChanges reports whether any of paths (or the whole tree when none are
// given) differ from HEAD, including untracked files.
func (r *Repo) HasChanges(ctx context.Context, paths ...string) (bool, error) {
	args := []string{"status", "--porcelain", "--untracked-files=all"}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	out, err := r.Run(ctx, args...)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// Add stages paths.
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := r.Run(ctx, append([]string{"add", "--"}, paths...)...)
	return err
}

// Commit records the staged changes with msg.
func (r *Repo) Commit(ctx context.Context, msg string) error {
	_, err := r.Run(ctx, "commit", "-q", "-m", msg)
	return err
}

// Push sends the current branch to the configured remote.
func (r *Repo) Push(ctx context.Context) error {
	remote := r.Remote
	if remote == "" {
		remote = "origin"
	}
	ref := "HEAD"
	if r.Branch != "" {
		ref = "HEAD:" + r.Branch
	}
	_, err := r.Run(ctx, "push", remote, ref)
	return err
}

// HeadSHA returns the full hash of HEAD.
func (r *Repo) HeadSHA(ctx context.Context) (string, error) {
	out, err := r.Run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
