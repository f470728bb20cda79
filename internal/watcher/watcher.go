// Package watcher polls a git repository and triggers README regeneration
// when new commits land.
package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/blackwell-systems/readmegen/internal/gitops"
)

// Head is a point-in-time view of the repository's current commit.
type Head struct {
	SHA     string
	Subject string
	At      time.Time
}

// Alert is a notable event emitted by the watch loop.
type Alert struct {
	Level   string // "info", "warning"
	Title   string
	Message string
	Time    time.Time
}

// ChangeFunc is called when HEAD moves to a commit not made by readmegen.
type ChangeFunc func(ctx context.Context, prev, curr Head) error

// Watcher polls HEAD at a fixed interval.
type Watcher struct {
	repo     *gitops.Repo
	interval time.Duration
	onChange ChangeFunc
	alertFn  func(Alert)

	previous      *Head
	lastAlertKeys map[string]bool
}

// New returns a Watcher for repo. alertFn may be nil.
func New(repo *gitops.Repo, interval time.Duration, onChange ChangeFunc, alertFn func(Alert)) *Watcher {
	return &Watcher{
		repo:          repo,
		interval:      interval,
		onChange:      onChange,
		alertFn:       alertFn,
		lastAlertKeys: make(map[string]bool),
	}
}

// Snapshot reads the current HEAD.
func (w *Watcher) Snapshot(ctx context.Context) (*Head, error) {
	sha, err := w.repo.HeadSHA(ctx)
	if err != nil {
		return nil, err
	}
	subjects, err := w.repo.Subjects(ctx, 1)
	if err != nil {
		return nil, err
	}
	h := &Head{SHA: sha, At: time.Now()}
	if len(subjects) > 0 {
		h.Subject = subjects[0]
	}
	return h, nil
}

// Run takes the baseline snapshot and then checks every interval until ctx
// is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	_ = w.repo.MarkSafe(ctx)

	initial, err := w.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}
	w.previous = initial

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, a := range w.Check(ctx) {
				if w.alertFn != nil {
					w.alertFn(a)
				}
			}
		}
	}
}

// Check performs one poll. Repeated identical alerts are suppressed until
// the condition clears.
func (w *Watcher) Check(ctx context.Context) []Alert {
	var raw []Alert

	curr, err := w.Snapshot(ctx)
	switch {
	case err != nil:
		raw = append(raw, Alert{
			Level:   "warning",
			Title:   "Snapshot failed",
			Message: fmt.Sprintf("Could not read repository head: %v", err),
			Time:    time.Now(),
		})
	case w.previous == nil:
		w.previous = curr
	case curr.SHA == w.previous.SHA:
	case gitops.IsReadmeCommit(curr.Subject):
		// Our own commit; regenerating would loop.
		w.previous = curr
	default:
		prev := *w.previous
		w.previous = curr
		if w.onChange == nil {
			break
		}
		if err := w.onChange(ctx, prev, *curr); err != nil {
			raw = append(raw, Alert{
				Level:   "warning",
				Title:   "README update failed",
				Message: err.Error(),
				Time:    time.Now(),
			})
		} else {
			raw = append(raw, Alert{
				Level:   "info",
				Title:   "README updated",
				Message: fmt.Sprintf("%s %s", shortSHA(curr.SHA), curr.Subject),
				Time:    time.Now(),
			})
		}
	}

	currentKeys := make(map[string]bool, len(raw))
	var alerts []Alert
	for _, a := range raw {
		key := a.Level + ":" + a.Title + ":" + a.Message
		currentKeys[key] = true
		if !w.lastAlertKeys[key] {
			alerts = append(alerts, a)
		}
	}
	w.lastAlertKeys = currentKeys
	return alerts
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
