package events

import (
	"context"

	"github.com/dmitrijs2005/vanish/internal/server/models"
)

// Repository is the append-only security event log. The table rejects
// UPDATE and DELETE.
type Repository interface {
	Append(ctx context.Context, e *models.SecurityEvent) error
	ListByMedia(ctx context.Context, mediaID string) ([]*models.SecurityEvent, error)
	ListByChat(ctx context.Context, chatID string, limit int) ([]*models.SecurityEvent, error)
}
