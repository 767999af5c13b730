package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/vanish/internal/dbx"
	"github.com/dmitrijs2005/vanish/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, e *models.SecurityEvent) error {
	meta := e.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("metadata encode error: %w", err)
	}

	query := `
		INSERT INTO security_events (chat_id, media_id, actor_id, event_type, metadata)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
		RETURNING id, created_at
	`
	err = r.db.QueryRowContext(ctx, query, e.ChatID, e.MediaID, e.ActorID, string(e.Type), raw).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const eventColumns = `id, chat_id, COALESCE(media_id, ''), actor_id, event_type, metadata, created_at`

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.SecurityEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.SecurityEvent
	for rows.Next() {
		var (
			e   models.SecurityEvent
			typ string
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.ChatID, &e.MediaID, &e.ActorID, &typ, &raw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		e.Type = models.EventType(typ)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Metadata); err != nil {
				return nil, fmt.Errorf("metadata decode error: %w", err)
			}
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ListByMedia(ctx context.Context, mediaID string) ([]*models.SecurityEvent, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM security_events
		WHERE media_id = $1 ORDER BY id`, mediaID)
}

// ListByChat returns the newest limit events of the chat, oldest first.
func (r *PostgresRepository) ListByChat(ctx context.Context, chatID string, limit int) ([]*models.SecurityEvent, error) {
	return r.list(ctx, `SELECT * FROM (
			SELECT `+eventColumns+` FROM security_events
			WHERE chat_id = $1 ORDER BY id DESC LIMIT $2
		) recent ORDER BY id`, chatID, limit)
}

