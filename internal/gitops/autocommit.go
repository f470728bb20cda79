package gitops

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blackwell-systems/readmegen/internal/generator"
)

// CommitResult describes what AutoCommit did.
type CommitResult struct {
	Committed bool
	Pushed    bool
	SHA       string
	Message   string
}

// CommitPrefix starts every subject written by AutoCommit.
const CommitPrefix = "docs: update README"

// IsReadmeCommit reports whether subject was written by AutoCommit.
func IsReadmeCommit(subject string) bool {
	return strings.HasPrefix(subject, CommitPrefix)
}

// CommitMessage formats the commit subject for a README update.
func CommitMessage(meta generator.Metadata) string {
	tags := "none"
	if len(meta.Tags) > 0 {
		tags = strings.Join(meta.Tags, ", ")
	}
	return fmt.Sprintf("%s (category: %s, tags: %s, status: %s)", CommitPrefix, meta.Category, tags, meta.MLStatus)
}

// AutoCommit stages files and commits them when they changed, then pushes
// when push is set. A clean tree is a no-op. Push failures are logged and
// not returned.
func AutoCommit(ctx context.Context, repo *Repo, files []string, meta generator.Metadata, push bool, log *slog.Logger) (CommitResult, error) {
	_ = repo.MarkSafe(ctx)

	changed, err := repo.HasChanges(ctx, files...)
	if err != nil {
		return CommitResult{}, fmt.Errorf("checking for changes: %w", err)
	}
	if !changed {
		log.Info("no changes to commit", "files", files)
		return CommitResult{}, nil
	}

	if err := repo.Add(ctx, files...); err != nil {
		return CommitResult{}, fmt.Errorf("staging files: %w", err)
	}

	msg := CommitMessage(meta)
	if err := repo.Commit(ctx, msg); err != nil {
		return CommitResult{}, fmt.Errorf("committing: %w", err)
	}

	res := CommitResult{Committed: true, Message: msg}
	if sha, err := repo.HeadSHA(ctx); err == nil {
		res.SHA = sha
	}
	log.Info("committed README update", "sha", res.SHA, "message", msg)

	if !push {
		return res, nil
	}
	if err := repo.Push(ctx); err != nil {
		log.Warn("push failed", "remote", repo.Remote, "error", err)
		return res, nil
	}
	res.Pushed = true
	log.Info("pushed README update", "remote", repo.Remote)
	return res, nil
}
