package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "data", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		j.Close()
	})
	return j
}

func TestJournal_RecordAndGet(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()

	run := &Run{
		Operation: "install",
		PackageID: "Package.A",
		Version:   "1.0.0",
		Status:    "Failure",
		Message:   "install aborted",
		Causes:    []string{"uninstall failed", "exit code 3"},
		Duration:  1500 * time.Millisecond,
	}
	require.NoError(t, j.Record(ctx, run))
	require.NotEmpty(t, run.ID)

	got, err := j.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "Package.A", got.PackageID)
	assert.Equal(t, []string{"uninstall failed", "exit code 3"}, got.Causes)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.WithinDuration(t, run.StartedAt, got.StartedAt, time.Millisecond)
}

func TestJournal_GetMissing(t *testing.T) {
	j := setupJournal(t)
	_, err := j.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Get", se.Op)
}

func TestJournal_ListNewestFirst(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"Package.A", "Package.B", "package.a"} {
		require.NoError(t, j.Record(ctx, &Run{
			Operation: "install",
			PackageID: id,
			Status:    "Success",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := j.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "package.a", runs[0].PackageID)
	assert.Equal(t, "Package.A", runs[2].PackageID)
	assert.Nil(t, runs[0].Causes)

	runs, err = j.List(ctx, "PACKAGE.A", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "package.a", runs[0].PackageID)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(context.Background(), &Run{Operation: "cleanup", PackageID: "Package.A", Status: "Success"}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	runs, err := j.List(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
