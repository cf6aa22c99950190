package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStore_RecordAndRecent(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	ctx := context.Background()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, Run{
		ID:         "run-1",
		RootFile:   "/docs/index.md",
		Mode:       "render",
		StartedAt:  base,
		DurationMS: 12,
	}))
	require.NoError(t, s.Record(ctx, Run{
		ID:           "run-2",
		RootFile:     "/docs/index.md",
		Mode:         "include",
		StartedAt:    base.Add(time.Minute),
		DurationMS:   3,
		DynamicCount: 2,
		WarningCount: 1,
		Error:        "anchor matched no element",
	}))

	runs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	require.Equal(t, "run-2", runs[0].ID)
	require.Equal(t, "include", runs[0].Mode)
	require.Equal(t, 2, runs[0].DynamicCount)
	require.Equal(t, 1, runs[0].WarningCount)
	require.Equal(t, "anchor matched no element", runs[0].Error)
	require.Equal(t, base.Add(time.Minute).Unix(), runs[0].StartedAt.Unix())

	require.Equal(t, "run-1", runs[1].ID)
	require.Equal(t, "render", runs[1].Mode)
	require.Empty(t, runs[1].Error)
}

func TestStore_RecentLimit(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	for i := range 5 {
		require.NoError(t, s.Record(ctx, Run{
			ID:        string(rune('a' + i)),
			RootFile:  "/docs/index.md",
			Mode:      "render",
			StartedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	runs, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
}

func TestStore_DuplicateRunID(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	run := Run{ID: "dup", RootFile: "/docs/a.md", Mode: "render", StartedAt: time.Now()}
	require.NoError(t, s.Record(ctx, run))
	require.Error(t, s.Record(ctx, run))
}

func TestStore_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), Run{
		ID: "persisted", RootFile: "/docs/a.md", Mode: "include", StartedAt: time.Now(),
	}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	runs, err := s.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "persisted", runs[0].ID)
}
