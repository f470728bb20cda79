package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInsertRun_AssignsID(t *testing.T) {
	db := openTestDB(t)

	r := &Run{RepoPath: "/repo", ReadmeStatus: StatusSuccess, MetadataStatus: StatusSuccess, Strategy: StrategyLocal}
	id, err := db.InsertRun(r)
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.Equal(t, id, r.ID)
	assert.False(t, r.StartedAt.IsZero())
}

func TestRecentRuns_NewestFirst(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := range 5 {
		_, err := db.InsertRun(&Run{
			StartedAt:      base.Add(time.Duration(i) * 500 * time.Millisecond),
			RepoPath:       "/repo",
			CommitCount:    i,
			ReadmeStatus:   StatusSuccess,
			MetadataStatus: StatusSuccess,
			Strategy:       StrategyLocal,
		})
		require.NoError(t, err)
	}

	runs, err := db.RecentRuns(3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []int{4, 3, 2}, []int{runs[0].CommitCount, runs[1].CommitCount, runs[2].CommitCount})
	assert.True(t, runs[0].StartedAt.Equal(base.Add(2*time.Second)))
	assert.Empty(t, runs[0].PRURL)
}

func TestRecentRuns_RoundTripsFields(t *testing.T) {
	db := openTestDB(t)
	in := Run{
		ID:             "fixed-id",
		StartedAt:      time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC),
		RepoPath:       "/src/app",
		CommitCount:    42,
		UsedFallback:   true,
		FileCount:      17,
		ReadmeStatus:   StatusFailed,
		MetadataStatus: StatusSuccess,
		LatencyMS:      812,
		Strategy:       StrategyPR,
		PRURL:          "https://github.com/o/r/pull/7",
		DurationMS:     2400,
	}
	_, err := db.InsertRun(&in)
	require.NoError(t, err)

	runs, err := db.RecentRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, in, runs[0])
}

func TestStats(t *testing.T) {
	db := openTestDB(t)

	empty, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, RunStats{}, empty)

	runs := []Run{
		{ReadmeStatus: StatusSuccess, MetadataStatus: StatusSuccess, Strategy: StrategyLocal, DurationMS: 100},
		{ReadmeStatus: StatusFailed, MetadataStatus: StatusFailed, Strategy: StrategyLocal, UsedFallback: true, DurationMS: 200},
		{ReadmeStatus: StatusSuccess, MetadataStatus: StatusFailed, Strategy: StrategyPR, DurationMS: 300},
	}
	for i := range runs {
		_, err := db.InsertRun(&runs[i])
		require.NoError(t, err)
	}

	s, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.ReadmeFailures)
	assert.Equal(t, 2, s.MetadataFailures)
	assert.Equal(t, 1, s.FallbackRuns)
	assert.Equal(t, 1, s.PullRequests)
	assert.InDelta(t, 200, s.AvgDurationMS, 1e-9)
	assert.NotEmpty(t, s.LastRunAt)
}

func TestOpen_CreatesFileAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "readmegen.db")

	db, err := Open(path)
	require.NoError(t, err)
	_, err = db.InsertRun(&Run{ReadmeStatus: StatusSuccess, MetadataStatus: StatusSuccess, Strategy: StrategyLocal})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	runs, err := db.RecentRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
