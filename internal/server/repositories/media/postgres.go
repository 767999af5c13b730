package media

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

const mediaColumns = `id, owner_id, chat_id, media_type, storage_ref, timer_seconds, view_once,
		watermark_enabled, origin, origin_ref, created_at, deleted_at, reaped`

func (r *PostgresRepository) Create(ctx context.Context, item *models.MediaItem) error {
	query := `
		INSERT INTO media_items (id, owner_id, chat_id, media_type, storage_ref, timer_seconds,
			view_once, watermark_enabled, origin, origin_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		item.ID, item.OwnerID, item.ChatID, string(item.Type), item.StorageRef, item.TimerSeconds,
		item.ViewOnce, item.WatermarkEnabled, string(item.Origin), item.OriginRef,
	).Scan(&item.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.MediaItem, error) {
	var (
		item      models.MediaItem
		mediaType string
		origin    string
		deletedAt sql.NullTime
	)
	err := row.Scan(&item.ID, &item.OwnerID, &item.ChatID, &mediaType, &item.StorageRef,
		&item.TimerSeconds, &item.ViewOnce, &item.WatermarkEnabled, &origin, &item.OriginRef,
		&item.CreatedAt, &deletedAt, &item.Reaped)
	if err != nil {
		return nil, err
	}
	item.Type = models.MediaType(mediaType)
	item.Origin = models.Origin(origin)
	if deletedAt.Valid {
		t := deletedAt.Time
		item.DeletedAt = &t
	}
	return &item, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_items WHERE id = $1`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) ListByChat(ctx context.Context, chatID string) ([]*models.MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_items
		WHERE chat_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var items []*models.MediaItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return items, nil
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE media_items SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

// SoftDeleteExpired hides items that have no live grant left. A grant
// keeps its item while it can still be claimed or viewed, and for the
// placeholder grace after it was revoked, consumed or expired. A grant that
// was never opened keeps the item for unopenedTTL.
func (r *PostgresRepository) SoftDeleteExpired(ctx context.Context, now time.Time, grace, unopenedTTL time.Duration) (int64, error) {
	query := `
		UPDATE media_items m SET deleted_at = $1, reaped = TRUE
		WHERE m.deleted_at IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM permission_grants g
			WHERE g.media_id = m.id
			  AND (
				(g.revoked AND g.revoked_at > $1 - make_interval(secs => $2))
				OR (NOT g.revoked AND g.consumed_at IS NOT NULL
					AND g.consumed_at > $1 - make_interval(secs => $2))
				OR (NOT g.revoked AND g.consumed_at IS NULL AND (
					(g.opened_at IS NULL AND g.created_at > $1 - make_interval(secs => $3))
					OR (g.opened_at IS NOT NULL AND m.timer_seconds > 0
						AND g.opened_at + make_interval(secs => m.timer_seconds) > $1 - make_interval(secs => $2))
					OR (g.opened_at IS NOT NULL AND m.timer_seconds = 0
						AND g.opened_at > $1 - make_interval(secs => $3))
				))
			  )
		  )
	`
	res, err := r.db.ExecContext(ctx, query, now, grace.Seconds(), unopenedTTL.Seconds())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
