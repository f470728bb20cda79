package commits

import (
	"context"
	"log/slog"

	"github.com/blackwell-systems/readmegen/internal/gitops"
)

// DefaultLimit is the number of commits Recent reads when limit is not positive.
const DefaultLimit = 100

// fallbackSubjects is substituted when the repository cannot be read, so the
// generators always have something to describe.
var fallbackSubjects = []string{
	"feat: initialize SwiftUI project with base tab navigation",
	"feat: add Activity model and Core Data integration",
	"feat: implement AddActivityView with category selection",
	"fix: resolve crash when saving empty activity name",
	"refactor: extract ActivityFormView for reuse",
}

// Fallback returns a copy of the fixed sample commit list.
func Fallback() []string {
	out := make([]string, len(fallbackSubjects))
	copy(out, fallbackSubjects)
	return out
}

// WithFallback returns subjects unchanged, or the fallback list when it is
// empty. The second result reports whether the fallback was used.
func WithFallback(subjects []string) ([]string, bool) {
	if len(subjects) == 0 {
		return Fallback(), true
	}
	return subjects, false
}

// Recent returns up to limit commit subject lines from the repository at
// repoPath, most recent first. Any failure to open or read the repository
// is logged and yields an empty slice; it is never returned as an error.
func Recent(ctx context.Context, repoPath string, limit int, log *slog.Logger) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}

	repo := gitops.Open(repoPath)
	_ = repo.MarkSafe(ctx)

	subjects, err := repo.Subjects(ctx, limit)
	if err != nil {
		log.Error("reading git history", "repo", repoPath, "error", err)
		return []string{}
	}
	return subjects
}
