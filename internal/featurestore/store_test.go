package featurestore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadmetrics/lanecast/internal/predict"
	"github.com/roadmetrics/lanecast/internal/timeutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "features.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInsertAndRecords(t *testing.T) {
	store := openTestStore(t)
	assert.NotEmpty(t, store.Session())

	snap := &predict.Snapshot{
		Timestamp: 1000.5,
		OfflineFeatures: [][]float64{
			{1, 2, 3},
			{4, 5, 6},
		},
	}
	require.NoError(t, store.Insert(7, snap))
	require.NoError(t, store.Insert(9, &predict.Snapshot{
		Timestamp:       1001.0,
		OfflineFeatures: [][]float64{{0.25, -1}},
	}))

	records, err := store.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 7, records[0].ObstacleID)
	assert.Equal(t, store.Session(), records[0].Session)
	assert.Equal(t, 1000.5, records[0].Timestamp)
	assert.Equal(t, 2, records[0].SequenceCount)
	assert.Equal(t, snap.OfflineFeatures, records[0].Features)

	assert.Equal(t, 9, records[1].ObstacleID)
	assert.Equal(t, [][]float64{{0.25, -1}}, records[1].Features)
}

func TestInsertNilSnapshotIsNoOp(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Insert(1, nil))
	records, err := store.Records()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestInsertStampsCreationTime(t *testing.T) {
	clock := timeutil.NewFixedClock(time.Unix(1700000000, 0))
	store, err := OpenWithClock(filepath.Join(t.TempDir(), "features.db"), clock)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Insert(1, &predict.Snapshot{Timestamp: 5}))
	clock.Advance(2 * time.Second)
	require.NoError(t, store.Insert(1, &predict.Snapshot{Timestamp: 6}))

	records, err := store.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, time.Unix(1700000000, 0).UnixNano(), records[0].CreatedNanos)
	assert.Equal(t, time.Unix(1700000002, 0).UnixNano(), records[1].CreatedNanos)
}

func TestReopenPreservesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Insert(3, &predict.Snapshot{
		Timestamp:       10,
		OfflineFeatures: [][]float64{{1}},
	}))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	// A fresh handle is a new session but sees the old rows.
	assert.NotEqual(t, first.Session(), second.Session())
	records, err := second.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, first.Session(), records[0].Session)
}
