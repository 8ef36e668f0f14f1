package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hearsay/internal/engine"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStartRun(t *testing.T) {
	db := openTestDB(t)
	run, err := db.StartRun(1<<63+5, engine.DefaultParams())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 128, run.Width)

	var count int
	require.NoError(t, db.conn.Get(&count, "SELECT COUNT(*) FROM runs"))
	assert.Equal(t, 1, count)
}

func TestRecordTickAndHistory(t *testing.T) {
	db := openTestDB(t)
	run, err := db.StartRun(7, engine.DefaultParams())
	require.NoError(t, err)

	rate := 0.25
	for tick := uint64(1); tick <= 5; tick++ {
		stats := engine.SimStats{Tick: tick, Population: 10 - int(tick), AvgHunger: float64(tick)}
		if tick != 5 {
			stats.ErrorRate = &rate
		}
		require.NoError(t, db.RecordTick(run.ID, stats))
	}

	hist, err := db.History(run.ID, 3)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, uint64(3), hist[0].Tick)
	assert.Equal(t, uint64(5), hist[2].Tick)
	require.NotNil(t, hist[0].ErrorRate)
	assert.InDelta(t, 0.25, *hist[0].ErrorRate, 1e-12)
	assert.Nil(t, hist[2].ErrorRate)
	assert.Equal(t, 5, hist[2].Population)
}

func TestRecorder_Every(t *testing.T) {
	db := openTestDB(t)
	run, err := db.StartRun(7, engine.DefaultParams())
	require.NoError(t, err)

	hook := db.Recorder(run.ID, 2)
	for tick := uint64(1); tick <= 6; tick++ {
		hook(tick, engine.SimStats{Tick: tick})
	}

	hist, err := db.History(run.ID, 100)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, []uint64{2, 4, 6}, []uint64{hist[0].Tick, hist[1].Tick, hist[2].Tick})
}
