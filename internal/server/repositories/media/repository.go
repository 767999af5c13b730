package media

import (
	"context"
	"time"

	"github.com/dmitrijs2005/vanish/internal/server/models"
)

// Repository is the MediaRegistry storage.
type Repository interface {
	Create(ctx context.Context, item *models.MediaItem) error
	// GetByID returns the item even when it is soft-deleted.
	GetByID(ctx context.Context, id string) (*models.MediaItem, error)
	// ListByChat returns live items of a chat, oldest first.
	ListByChat(ctx context.Context, chatID string) ([]*models.MediaItem, error)
	SoftDelete(ctx context.Context, id string, at time.Time) (bool, error)
	// SoftDeleteExpired soft-deletes items that no longer have a live grant
	// and flags them as reaped.
	SoftDeleteExpired(ctx context.Context, now time.Time, grace, unopenedTTL time.Duration) (int64, error)
}
