package pending

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

var t0 = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE pending_finalizes (
    media_id        TEXT PRIMARY KEY,
    attempts        INTEGER NOT NULL DEFAULT 0,
    last_error      TEXT NOT NULL DEFAULT '',
    created_at      INTEGER NOT NULL,
    next_attempt_at INTEGER NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestEnqueue_IsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, "m1", t0))
	require.NoError(t, r.Enqueue(ctx, "m1", t0.Add(time.Minute)))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	due, err := r.ListDue(ctx, t0, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, t0, due[0].CreatedAt)
}

func TestListDue_RespectsScheduleAndOrder(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, "b", t0.Add(time.Second)))
	require.NoError(t, r.Enqueue(ctx, "a", t0))
	require.NoError(t, r.Enqueue(ctx, "c", t0.Add(2*time.Second)))

	require.NoError(t, r.RecordFailure(ctx, "c", "transient storage error", t0.Add(time.Hour)))

	due, err := r.ListDue(ctx, t0.Add(5*time.Second), 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "a", due[0].MediaID)
	assert.Equal(t, "b", due[1].MediaID)

	due, err = r.ListDue(ctx, t0.Add(2*time.Hour), 1)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "a", due[0].MediaID)
}

func TestRecordFailure_BumpsAttempts(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, "m1", t0))
	require.NoError(t, r.RecordFailure(ctx, "m1", "e1", t0.Add(time.Second)))
	require.NoError(t, r.RecordFailure(ctx, "m1", "e2", t0.Add(3*time.Second)))

	due, err := r.ListDue(ctx, t0.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 2, due[0].Attempts)
	assert.Equal(t, "e2", due[0].LastError)
	assert.Equal(t, t0.Add(3*time.Second), due[0].NextAttemptAt)
}

func TestDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, "m1", t0))
	require.NoError(t, r.Delete(ctx, "m1"))
	require.NoError(t, r.Delete(ctx, "absent"))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
