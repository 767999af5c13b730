package grants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vanish/internal/common"
	"github.com/dmitrijs2005/vanish/internal/dbx"
	"github.com/dmitrijs2005/vanish/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const grantColumns = `media_id, sender_id, recipient_id, can_view, can_screenshot, revoked,
		opened_at, view_count, last_viewed_at, finalized_at, consumed_at, revoked_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func scanGrant(row rowScanner) (*models.PermissionGrant, error) {
	var (
		g                                             models.PermissionGrant
		openedAt, lastViewed, finalized, consumed, rv sql.NullTime
	)
	err := row.Scan(&g.MediaID, &g.SenderID, &g.RecipientID, &g.CanView, &g.CanScreenshot, &g.Revoked,
		&openedAt, &g.ViewCount, &lastViewed, &finalized, &consumed, &rv, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	g.OpenedAt = nullTime(openedAt)
	g.LastViewedAt = nullTime(lastViewed)
	g.FinalizedAt = nullTime(finalized)
	g.ConsumedAt = nullTime(consumed)
	g.RevokedAt = nullTime(rv)
	return &g, nil
}

func (r *PostgresRepository) CreateMany(ctx context.Context, grants []*models.PermissionGrant) error {
	query := `
		INSERT INTO permission_grants (media_id, sender_id, recipient_id, can_view, can_screenshot)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	for _, g := range grants {
		err := r.db.QueryRowContext(ctx, query, g.MediaID, g.SenderID, g.RecipientID, g.CanView, g.CanScreenshot).
			Scan(&g.CreatedAt)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) get(ctx context.Context, query string, args ...any) (*models.PermissionGrant, error) {
	g, err := scanGrant(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

func (r *PostgresRepository) Get(ctx context.Context, mediaID, recipientID string) (*models.PermissionGrant, error) {
	return r.get(ctx, `SELECT `+grantColumns+` FROM permission_grants
		WHERE media_id = $1 AND recipient_id = $2`, mediaID, recipientID)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, mediaID, recipientID string) (*models.PermissionGrant, error) {
	return r.get(ctx, `SELECT `+grantColumns+` FROM permission_grants
		WHERE media_id = $1 AND recipient_id = $2
		FOR UPDATE`, mediaID, recipientID)
}

func (r *PostgresRepository) ListByMedia(ctx context.Context, mediaID string) ([]*models.PermissionGrant, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+grantColumns+` FROM permission_grants
		WHERE media_id = $1 ORDER BY recipient_id`, mediaID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.PermissionGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// RecordClaim relies on COALESCE so opened_at can never be overwritten,
// even by a caller that skipped the row lock.
func (r *PostgresRepository) RecordClaim(ctx context.Context, mediaID, recipientID string, at time.Time) (*models.PermissionGrant, error) {
	return r.get(ctx, `
		UPDATE permission_grants
		SET opened_at = COALESCE(opened_at, $3),
			view_count = view_count + 1,
			last_viewed_at = $3
		WHERE media_id = $1 AND recipient_id = $2 AND NOT revoked
		RETURNING `+grantColumns, mediaID, recipientID, at)
}

func (r *PostgresRepository) MarkFinalized(ctx context.Context, mediaID, recipientID string, at time.Time, consume bool) (bool, error) {
	query := `
		UPDATE permission_grants
		SET finalized_at = COALESCE(finalized_at, $3),
			consumed_at = CASE WHEN $4 THEN COALESCE(consumed_at, $3) ELSE consumed_at END
		WHERE media_id = $1 AND recipient_id = $2
		  AND (finalized_at IS NULL OR ($4 AND consumed_at IS NULL))
	`
	res, err := r.db.ExecContext(ctx, query, mediaID, recipientID, at, consume)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) RevokeAll(ctx context.Context, mediaID string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE permission_grants SET revoked = TRUE, revoked_at = $2
		WHERE media_id = $1 AND NOT revoked`, mediaID, at)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
