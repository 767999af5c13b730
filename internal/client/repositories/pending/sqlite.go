package pending

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vanish/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Timestamps are stored as unix milliseconds.
func toMillis(t time.Time) int64 { return t.UnixMilli() }
func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, mediaID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pending_finalizes (media_id, created_at, next_attempt_at) VALUES (?, ?, ?)
		ON CONFLICT(media_id) DO NOTHING
	`, mediaID, toMillis(at), toMillis(at))
	if err != nil {
		return fmt.Errorf("failed to enqueue finalize[%s]: %w", mediaID, err)
	}
	return nil
}

func (r *SQLiteRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*Finalize, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT media_id, attempts, last_error, created_at, next_attempt_at
		FROM pending_finalizes
		WHERE next_attempt_at <= ?
		ORDER BY created_at, media_id
		LIMIT ?
	`, toMillis(now), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending finalizes: %w", err)
	}
	defer rows.Close()

	var result []*Finalize
	for rows.Next() {
		var (
			f              Finalize
			created, nextA int64
		)
		if err := rows.Scan(&f.MediaID, &f.Attempts, &f.LastError, &created, &nextA); err != nil {
			return nil, fmt.Errorf("failed to scan pending finalize row: %w", err)
		}
		f.CreatedAt = fromMillis(created)
		f.NextAttemptAt = fromMillis(nextA)
		result = append(result, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending finalize rows: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) RecordFailure(ctx context.Context, mediaID string, cause string, next time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pending_finalizes
		SET attempts = attempts + 1, last_error = ?, next_attempt_at = ?
		WHERE media_id = ?
	`, cause, toMillis(next), mediaID)
	if err != nil {
		return fmt.Errorf("failed to record finalize failure[%s]: %w", mediaID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, mediaID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_finalizes WHERE media_id = ?`, mediaID)
	if err != nil {
		return fmt.Errorf("failed to delete finalize[%s]: %w", mediaID, err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_finalizes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending finalizes: %w", err)
	}
	return n, nil
}
